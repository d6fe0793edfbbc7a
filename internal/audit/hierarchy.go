package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mlakar/shramba/internal/store"
)

// ErrCyclicHierarchy is returned when a reparent would make a location its
// own ancestor.
var ErrCyclicHierarchy = errors.New("location cannot be its own ancestor")

// ValidateReparent checks that giving location the proposed parent keeps the
// hierarchy acyclic. It must run, and fail the mutation, before the parent
// reference is committed.
//
// The walk climbs proposedParent's ancestor chain; if location shows up in
// it (proposedParent itself included), the reparent is rejected. A visited
// set bounds the walk: should the stored tree already contain a cycle, a
// revisited node fails the check instead of looping forever.
func ValidateReparent(ctx context.Context, db *sql.DB, locationID, proposedParentID int64) error {
	if proposedParentID == locationID {
		return ErrCyclicHierarchy
	}

	visited := map[int64]bool{locationID: true}
	current := proposedParentID
	for {
		if visited[current] {
			return ErrCyclicHierarchy
		}
		visited[current] = true

		loc, err := store.GetLocation(ctx, db, current)
		if err != nil {
			return fmt.Errorf("walking ancestor chain: %w", err)
		}
		if loc == nil {
			// Dangling parent reference; the chain ends here.
			return nil
		}
		if loc.ParentID == nil {
			return nil
		}
		current = *loc.ParentID
	}
}
