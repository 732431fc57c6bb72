package page

import (
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest builds a page at the given position. Position
// resolution (next free slot vs. explicit insert) happens in the repo,
// which owns the ordering invariant.
func NewFromCreateRequest(req CreatePageRequest, position int) Page {
	now := time.Now().UTC()

	return Page{
		ID:        uuid.NewString(),
		ModuleID:  req.ModuleID,
		Type:      req.Type,
		Position:  position,
		Version:   1,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
