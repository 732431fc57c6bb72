package progress

import "time"

// Record marks a page as completed by a user. Completion is tracked
// server-side; clients never gate access on their own local state.
type Record struct {
	UserID      string    `json:"userId"`
	ModuleID    string    `json:"moduleId"`
	PageID      string    `json:"pageId"`
	CompletedAt time.Time `json:"completedAt"`
}
