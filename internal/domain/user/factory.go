package user

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateUserRequest, passwordHash string) User {
	now := time.Now().UTC()

	role := req.Role
	if role == "" {
		role = RoleStudent
	}

	status := req.Status
	if status == "" {
		status = StatusActive
	}

	return User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		Role:         role,
		Status:       status,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewSynced builds the row created on a user's first authenticated call.
// The id is the externally issued identity id, not a fresh UUID.
func NewSynced(id, email, name string) User {
	now := time.Now().UTC()

	return User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      RoleStudent,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
