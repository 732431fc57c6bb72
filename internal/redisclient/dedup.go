package redisclient

import (
	"context"
	"fmt"
	"time"
)

const completionDedupTTL = 24 * time.Hour

// CompletionDedup provides idempotency checks for progress completions.
// Key format: progress:<user_id>:<page_id>
type CompletionDedup struct {
	client *Client
}

func NewCompletionDedup(client *Client) *CompletionDedup {
	return &CompletionDedup{client: client}
}

// IsDuplicate reports whether this completion was already recorded recently.
func (d *CompletionDedup) IsDuplicate(ctx context.Context, userID, pageID string) (bool, error) {
	n, err := d.client.Raw().Exists(ctx, d.key(userID, pageID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records the completion (expires after completionDedupTTL; the store
// upsert stays the source of truth).
func (d *CompletionDedup) Mark(ctx context.Context, userID, pageID string) error {
	return d.client.Raw().Set(ctx, d.key(userID, pageID), "1", completionDedupTTL).Err()
}

func (d *CompletionDedup) key(userID, pageID string) string {
	return fmt.Sprintf("progress:%s:%s", userID, pageID)
}
