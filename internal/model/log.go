package model

import "time"

// ItemLog is an immutable record of an action taken on an item. Rows are
// appended by the audit logger and never updated or deleted.
type ItemLog struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	UserID    *int64    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Joined field (not always populated).
	ItemName string `json:"item_name,omitempty"`
}

// Log actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionMoved   = "moved"
	ActionDeleted = "deleted"
)

// ValidAction reports whether s is a known log action.
func ValidAction(s string) bool {
	switch s {
	case ActionCreated, ActionUpdated, ActionMoved, ActionDeleted:
		return true
	}
	return false
}
