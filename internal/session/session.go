// Package session is the process-wide record of who is signed in. It supplies
// the bearer token to the request client and the principal to every
// authorization check.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/authz"
	"github.com/MikeMC777/storefront/internal/log"
	"github.com/MikeMC777/storefront/internal/user"
)

// Session holds the token and the principal derived from it. The zero value
// is a usable anonymous session without persistence.
type Session struct {
	store TokenFile
	log   zerolog.Logger
	now   func() time.Time

	mu        sync.RWMutex
	token     string
	principal authz.Principal
}

func New(store TokenFile) *Session {
	return &Session{
		store:     store,
		log:       log.WithComponent("session"),
		now:       time.Now,
		principal: authz.Anonymous,
	}
}

// Token implements apiclient.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Principal implements authz.PrincipalSource.
func (s *Session) Principal() authz.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal.Role == "" {
		return authz.Anonymous
	}
	return s.principal
}

// Restore loads a previously saved token. A missing, unreadable or expired
// token leaves the session anonymous.
func (s *Session) Restore() error {
	tok, err := s.store.Load()
	if err != nil || tok == "" {
		return err
	}
	claims, err := Decode(tok)
	if err != nil {
		s.log.Debug().Err(err).Msg("discarding stored token")
		return s.store.Clear()
	}
	if claims.Expired(s.clock()) {
		s.log.Debug().Msg("stored token expired")
		return s.store.Clear()
	}
	p, err := claims.Principal()
	if err != nil {
		return s.store.Clear()
	}
	s.set(tok, p)
	return nil
}

// Begin installs a token. u, when given, is the user the server returned
// alongside it and takes precedence over the claims.
func (s *Session) Begin(token string, u *user.User) error {
	claims, err := Decode(token)
	if err != nil {
		return err
	}
	p, err := claims.Principal()
	if err != nil {
		return err
	}
	if u != nil && u.ID == p.ID {
		p = u.Principal()
	}
	if err := s.store.Save(token); err != nil {
		return err
	}
	s.set(token, p)
	s.log.Info().Int64("user", p.ID).Str("role", string(p.Role)).Msg("signed in")
	return nil
}

// Logout forgets the token locally and on disk.
func (s *Session) Logout() error {
	s.set("", authz.Anonymous)
	return s.store.Clear()
}

func (s *Session) set(token string, p authz.Principal) {
	s.mu.Lock()
	s.token = token
	s.principal = p
	s.mu.Unlock()
}

func (s *Session) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, api apiclient.API, email, password string) (*user.User, error) {
	return s.authenticate(ctx, api, "/auth/login", user.LoginRequest{Email: email, Password: password})
}

// Register creates a USER account and signs it in.
func (s *Session) Register(ctx context.Context, api apiclient.API, in user.RegisterRequest) (*user.User, error) {
	return s.authenticate(ctx, api, "/auth/register", in)
}

func (s *Session) authenticate(ctx context.Context, api apiclient.API, path string, body any) (*user.User, error) {
	var res user.AuthResponse
	if err := api.Post(ctx, path, body, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, &apiclient.ParseError{Path: path, Reason: "response has no token"}
	}
	if err := s.Begin(res.Token, &res.User); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return &res.User, nil
}

var (
	_ apiclient.TokenSource = (*Session)(nil)
	_ authz.PrincipalSource = (*Session)(nil)
)
