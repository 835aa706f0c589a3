package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/MikeMC777/storefront/internal/authz"
)

var (
	ErrInvalidInput       = errors.New("name, email and password are required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSelfTarget         = errors.New("cannot modify your own account")
	ErrInvalidRole        = errors.New("invalid role")
)

// Service holds the account rules of the reference backend.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a USER account.
func (s *Service) Register(ctx context.Context, in RegisterRequest) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: bad email", ErrInvalidInput)
	}
	return s.create(ctx, in, authz.RoleUser)
}

func (s *Service) create(ctx context.Context, in RegisterRequest, role authz.Role) (*User, error) {
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash error: %w", err)
	}
	u := &User{Name: in.Name, Email: in.Email, Role: role, PasswordHash: hash}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks credentials. Unknown email and wrong password are not
// distinguished.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]User, int, error) {
	return s.repo.List(ctx, q)
}

// SetRole changes another account's role.
func (s *Service) SetRole(ctx context.Context, actorID, id int64, role authz.Role) (*User, error) {
	if actorID == id {
		return nil, ErrSelfTarget
	}
	if !role.Assignable() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.repo.UpdateRole(ctx, id, role)
}

// Delete removes another account.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrSelfTarget
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// EnsureSuperadmin creates the seed SUPERADMIN unless the email is taken.
func (s *Service) EnsureSuperadmin(ctx context.Context, name, email, password string) (*User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, false, ErrInvalidInput
	}
	if u, err := s.repo.GetByEmail(ctx, email); err == nil {
		return u, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Superadmin"
	}
	u, err := s.create(ctx, RegisterRequest{Name: name, Email: email, Password: password}, authz.RoleSuperadmin)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
