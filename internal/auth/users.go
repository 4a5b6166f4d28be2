package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/HerbHall/rigforge/internal/services"
)

// NewUser describes an account to create.
type NewUser struct {
	Username string
	Email    string
	Password string
	Role     string
}

// CreateUser hashes the password and stores a new account. An empty email
// defaults to <username>@rigforge.local and an empty role to customer.
func CreateUser(ctx context.Context, users services.UserRepository, nu NewUser) (*services.User, error) {
	username := strings.TrimSpace(nu.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	role := strings.ToLower(strings.TrimSpace(nu.Role))
	if role == "" {
		role = services.RoleCustomer
	}
	if !services.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q (want customer, staff or admin)", nu.Role)
	}
	email := strings.TrimSpace(nu.Email)
	if email == "" {
		email = username + "@rigforge.local"
	}

	hash, err := HashPassword(nu.Password)
	if err != nil {
		return nil, err
	}

	u := &services.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
