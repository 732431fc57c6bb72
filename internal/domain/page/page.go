package page

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	TypeContent = "content"
	TypeQuiz    = "quiz"
	TypeVideo   = "video"
)

type Page struct {
	ID        string          `json:"id"`
	ModuleID  string          `json:"moduleId"`
	Type      string          `json:"type"`
	Position  int             `json:"position"`
	Version   int             `json:"version"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

var ErrNotFound = errors.New("page not found")

// the caller's version token does not match the stored version
var ErrVersionConflict = errors.New("page was modified since last read")

// the reorder input is not exactly the module's current page set
var ErrOrderMismatch = errors.New("page ids do not match the module's pages")

type CreatePageRequest struct {
	ModuleID string          `json:"-"`
	Type     string          `json:"type" binding:"required,oneof=content quiz video"`
	Position *int            `json:"position" binding:"omitempty,min=0"`
	Content  json.RawMessage `json:"content" binding:"required"`
}

// partial update; the version token may also arrive via the
// X-Page-Version header, in which case Version here stays nil.
type UpdatePageRequest struct {
	Type    *string         `json:"type" binding:"omitempty,oneof=content quiz video"`
	Content json.RawMessage `json:"content" binding:"omitempty"`
	Version *int            `json:"version" binding:"omitempty,min=1"`
}

type ReorderRequest struct {
	PageIDs []string `json:"pageIds" binding:"required,min=1,dive,uuid"`
}
