package user

import (
	"errors"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("user not found")

// email collides with an existing account
var ErrEmailTaken = errors.New("email already in use")

// the caller's lastKnownUpdate is older than the stored row
var ErrStaleUpdate = errors.New("user was modified since last read")

// with pointers if optional, it will be nil
type ListFilter struct {
	Role   *string
	Status *string
	Search *string
	Page   int
	Limit  int
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Role     string `json:"role" binding:"omitempty,oneof=admin student lecturer"`
	Status   string `json:"status" binding:"omitempty,oneof=active inactive pending"`
	Password string `json:"password" binding:"omitempty,min=8"`
}

// partial update; nil fields are left untouched. LastKnownUpdate is the
// concurrency token compared against the stored updated_at.
type UpdateUserRequest struct {
	Name            *string   `json:"name" binding:"omitempty,min=2,max=120"`
	Email           *string   `json:"email" binding:"omitempty,email"`
	Role            *string   `json:"role" binding:"omitempty,oneof=admin student lecturer"`
	Status          *string   `json:"status" binding:"omitempty,oneof=active inactive pending"`
	LastKnownUpdate time.Time `json:"lastKnownUpdate" binding:"required"`
}

func (r UpdateUserRequest) TouchesRoleOrStatus() bool {
	return r.Role != nil || r.Status != nil
}
