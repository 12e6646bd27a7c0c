package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User role. Closed two-value set: validated once at the boundary with
// ParseRole and never re-derived downstream.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalizes and validates a role string
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToUpper(value)) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	Name           string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PublicUser is the client-facing user representation, password hash stripped
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
