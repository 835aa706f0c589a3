package user

import (
	"time"

	"github.com/MikeMC777/storefront/internal/authz"
)

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         authz.Role `json:"role"`
	OrderCount   int        `json:"orderCount"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Principal is the authorization identity of u.
func (u User) Principal() authz.Principal {
	return authz.Principal{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// RegisterRequest is the body of POST /auth/register.
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name     string `json:"name"     example:"Ada"`
	Email    string `json:"email"    example:"ada@example.com"`
	Password string `json:"password" example:"s3cret!"`
}

// LoginRequest is the body of POST /auth/login.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    example:"ada@example.com"`
	Password string `json:"password" example:"s3cret!"`
}

// AuthResponse carries the bearer token and the signed-in user.
// swagger:model AuthResponse
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RoleRequest is the body of PUT /users/{id}/role.
// swagger:model RoleRequest
type RoleRequest struct {
	Role authz.Role `json:"role" example:"ADMIN" swaggertype:"string" enums:"USER,ADMIN,SUPERADMIN"`
}

// ListResponse is the paged envelope of GET /users.
// swagger:model UserListResponse
type ListResponse struct {
	Users []User `json:"users"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
}
