package dto

import (
	"time"

	"github.com/spec-kit/campus-network/internal/domain"
)

// UserResponse is the outward shape of an identity record. The credential
// hash never leaves the service.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		Enabled:   user.Enabled,
		CreatedAt: user.CreatedAt,
	}
}

// ChangeRoleRequest payload for admin role updates.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}
