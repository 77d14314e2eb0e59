package dto

import (
	"time"

	"github.com/yukikurage/task-manager-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// LoginRequest is the body of POST /api/auth/google
type LoginRequest struct {
	IDToken string `json:"idToken"`
}

// LoginResponse is returned on successful login. Token is present only when
// the server issues its own session tokens.
type LoginResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
	Token   string  `json:"token,omitempty"`
}

// UserResponse wraps the current user
type UserResponse struct {
	Success bool    `json:"success"`
	User    UserDTO `json:"user"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}
