// Package audit appends the item history trail and guards the location
// hierarchy. Log appends are called explicitly from the mutation path (no
// hidden hook registration) and are best-effort: a failed append is logged
// and swallowed, never propagated to the caller, so the primary mutation
// stands regardless.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mlakar/shramba/internal/model"
	"github.com/mlakar/shramba/internal/store"
)

// ItemCreated records the creation of an item.
func ItemCreated(ctx context.Context, db *sql.DB, userID *int64, item *model.Item, locationName string) {
	details := fmt.Sprintf("Item %q created in %q (quantity %d, condition %s)",
		item.Name, locationName, item.Quantity, item.Condition)
	appendLog(ctx, db, item.ID, model.ActionCreated, details, userID)
}

// ItemUpdated records an update that did not change the item's location.
// changed holds the field names that differ; callers should not call this
// with an empty list.
func ItemUpdated(ctx context.Context, db *sql.DB, userID *int64, item *model.Item, changed []string) {
	details := "Updated fields: " + strings.Join(changed, ", ")
	appendLog(ctx, db, item.ID, model.ActionUpdated, details, userID)
}

// ItemMoved records a location change. A move suppresses the generic
// "updated" entry for the same operation; exactly one of the two is written.
func ItemMoved(ctx context.Context, db *sql.DB, userID *int64, item *model.Item, oldLocation, newLocation string) {
	details := fmt.Sprintf("Item moved from %q to %q", oldLocation, newLocation)
	appendLog(ctx, db, item.ID, model.ActionMoved, details, userID)
}

// ItemDeleted records the final snapshot of an item. Called before the
// delete commits so the entry captures the last live state.
func ItemDeleted(ctx context.Context, db *sql.DB, userID *int64, item *model.Item, locationName string) {
	details := fmt.Sprintf("Item %q deleted from %q (quantity %d, condition %s)",
		item.Name, locationName, item.Quantity, item.Condition)
	appendLog(ctx, db, item.ID, model.ActionDeleted, details, userID)
}

// ChangedFields compares two item states and returns the names of fields
// that differ, in a stable order.
func ChangedFields(old, updated *model.Item) []string {
	var changed []string
	if old.Name != updated.Name {
		changed = append(changed, "name")
	}
	if old.Description != updated.Description {
		changed = append(changed, "description")
	}
	if old.Quantity != updated.Quantity {
		changed = append(changed, "quantity")
	}
	if old.Condition != updated.Condition {
		changed = append(changed, "condition")
	}
	if old.LocationID != updated.LocationID {
		changed = append(changed, "location")
	}
	return changed
}

func appendLog(ctx context.Context, db *sql.DB, itemID int64, action, details string, userID *int64) {
	if err := store.CreateItemLog(ctx, db, itemID, action, details, userID); err != nil {
		slog.Error("failed to append audit log entry",
			"item_id", itemID, "action", action, "error", err)
	}
}
