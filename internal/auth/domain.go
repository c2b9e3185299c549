package auth

import "time"

// UserStatus gates login. New accounts wait for an admin decision.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

// User is an account scoped to one department.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FullName     string     `json:"full_name" db:"full_name"`
	Department   string     `json:"department" db:"department"`
	Status       UserStatus `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// RegisterRequest opens an account pending approval.
type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=60"`
	Email      string `json:"email" validate:"required,email,max=200"`
	Password   string `json:"password" validate:"required,min=8,max=100"`
	FullName   string `json:"full_name" validate:"required,max=200"`
	Department string `json:"department" validate:"required,oneof=sales transport finance watchman production purchase store showroom"`
}

// LoginRequest accepts a username or email.
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=200"`
	Password string `json:"password" validate:"required,max=100"`
}

// LoginResponse carries the bearer token the client presents afterwards.
type LoginResponse struct {
	Token     string   `json:"token"`
	User      User     `json:"user"`
	Scopes    []string `json:"scopes"`
	ExpiresIn int64    `json:"expires_in"`
}

// ApproveUserRequest decides a pending account.
type ApproveUserRequest struct {
	Approved bool `json:"approved"`
}
