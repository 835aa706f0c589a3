package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MikeMC777/storefront/internal/authz"
)

var ErrInvalidToken = errors.New("session: invalid token")

// Claims is the bearer token payload. sub carries the numeric user id.
type Claims struct {
	Role  authz.Role `json:"role"`
	Name  string     `json:"name,omitempty"`
	Email string     `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the actor they describe.
func (c *Claims) Principal() (authz.Principal, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return authz.Anonymous, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}
	role, err := authz.ParseRole(string(c.Role))
	if err != nil || !role.Assignable() {
		return authz.Anonymous, fmt.Errorf("%w: bad role %q", ErrInvalidToken, c.Role)
	}
	return authz.Principal{ID: id, Name: c.Name, Email: c.Email, Role: role}, nil
}

// Sign issues an HS256 token for p valid for ttl.
func Sign(secret []byte, p authz.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:  p.Role,
		Name:  p.Name,
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks signature and expiry and returns the token's principal.
func Verify(secret []byte, token string) (authz.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return authz.Anonymous, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Principal()
}

// Decode reads the claims without checking the signature. The client has no
// key; the server remains the authority on every request.
func Decode(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}

// Expired reports whether the claims carry an expiry in the past.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}
