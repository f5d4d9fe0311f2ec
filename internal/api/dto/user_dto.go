package dto

import (
	"time"

	"github.com/spec-kit/community-service/internal/domain"
)

// RegisterRequest payload for resident sign-up.
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Phone      string `json:"phone" validate:"required,min=5,max=32"`
	UnitNumber string `json:"unit_number" validate:"max=32"`
	Password   string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,maxbytes=72,nefield=CurrentPassword"`
}

// UserStatusRequest moderates an account.
type UserStatusRequest struct {
	Status domain.UserStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

// UserRoleRequest changes an account role.
type UserRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=RESIDENT ADMIN SUPER_ADMIN"`
}

// UserResponse is the public account view.
type UserResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	UnitNumber string            `json:"unit_number,omitempty"`
	Role       domain.Role       `json:"role"`
	Status     domain.UserStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// SessionResponse accompanies login and refresh; the tokens travel in cookies.
type SessionResponse struct {
	User             UserResponse `json:"user"`
	AccessExpiresAt  time.Time    `json:"access_expires_at"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
}

// NewUserResponse maps a domain user, dropping the password hash.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		UnitNumber: u.UnitNumber,
		Role:       u.Role,
		Status:     u.Status,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
