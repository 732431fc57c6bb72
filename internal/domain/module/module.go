package module

import (
	"errors"
	"time"
)

const (
	StatusDraft    = "DRAFT"
	StatusActive   = "ACTIVE"
	StatusArchived = "ARCHIVED"
)

type Module struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	UpdatedBy   string    `json:"updatedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("module not found")

// deletion is blocked while pages still exist under the module
var ErrHasPages = errors.New("module still has pages")

type ListFilter struct {
	Status *string
	Query  *string
	Limit  int
}

type CreateModuleRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=160"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Status      string `json:"status" binding:"omitempty,oneof=DRAFT ACTIVE ARCHIVED"`
}

// a full replacement payload; PUT semantics, no concurrency token.
type UpdateModuleRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=160"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Status      string `json:"status" binding:"required,oneof=DRAFT ACTIVE ARCHIVED"`
}
