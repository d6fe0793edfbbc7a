package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mlakar/shramba/internal/model"
)

// LocationFilter narrows ListLocations results. Zero values mean "no filter".
type LocationFilter struct {
	RoomType string
	IsBox    *bool
	ParentID *int64
	Search   string
}

// CreateLocation creates a new location. Acyclicity is the caller's problem:
// a fresh location has no children, so any existing parent is safe here.
func CreateLocation(ctx context.Context, db *sql.DB, name, roomType string, parentID *int64, isBox bool) (*model.Location, error) {
	var rt any
	if roomType != "" {
		rt = roomType
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO locations (name, room_type, parent_id, is_box) VALUES (?, ?, ?, ?)`,
		name, rt, parentID, isBox,
	)
	if err != nil {
		return nil, fmt.Errorf("creating location: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting location id: %w", err)
	}

	return GetLocation(ctx, db, id)
}

// GetLocation returns a location by ID.
func GetLocation(ctx context.Context, db *sql.DB, id int64) (*model.Location, error) {
	loc := &model.Location{}
	var roomType, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, room_type, parent_id, is_box, image_mime, created_at
		 FROM locations WHERE id = ?`, id,
	).Scan(&loc.ID, &loc.Name, &roomType, &loc.ParentID, &loc.IsBox, &imageMime, &loc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	loc.RoomType = roomType.String
	loc.ImageMime = imageMime.String
	return loc, nil
}

// ListLocations returns locations matching the filter, ordered by name.
func ListLocations(ctx context.Context, db *sql.DB, f LocationFilter) ([]model.Location, error) {
	query := `SELECT id, name, room_type, parent_id, is_box, image_mime, created_at FROM locations`
	var clauses []string
	var args []any

	if f.RoomType != "" {
		clauses = append(clauses, "room_type = ?")
		args = append(args, f.RoomType)
	}
	if f.IsBox != nil {
		clauses = append(clauses, "is_box = ?")
		args = append(args, *f.IsBox)
	}
	if f.ParentID != nil {
		clauses = append(clauses, "parent_id = ?")
		args = append(args, *f.ParentID)
	}
	if f.Search != "" {
		clauses = append(clauses, "name LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	return scanLocations(rows)
}

// ListChildren returns the direct children of a location, ordered by name.
func ListChildren(ctx context.Context, db *sql.DB, parentID int64) ([]model.Location, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, room_type, parent_id, is_box, image_mime, created_at
		 FROM locations WHERE parent_id = ? ORDER BY name`, parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	defer rows.Close()

	return scanLocations(rows)
}

func scanLocations(rows *sql.Rows) ([]model.Location, error) {
	var locations []model.Location
	for rows.Next() {
		var loc model.Location
		var roomType, imageMime sql.NullString
		if err := rows.Scan(&loc.ID, &loc.Name, &roomType, &loc.ParentID, &loc.IsBox, &imageMime, &loc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		loc.RoomType = roomType.String
		loc.ImageMime = imageMime.String
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// UpdateLocation updates a location's metadata and parent. Callers must have
// validated the new parent for cycles before this commits.
func UpdateLocation(ctx context.Context, db *sql.DB, id int64, name, roomType string, parentID *int64, isBox bool) error {
	var rt any
	if roomType != "" {
		rt = roomType
	}
	_, err := db.ExecContext(ctx,
		`UPDATE locations SET name = ?, room_type = ?, parent_id = ?, is_box = ? WHERE id = ?`,
		name, rt, parentID, isBox, id,
	)
	if err != nil {
		return fmt.Errorf("updating location: %w", err)
	}
	return nil
}

// DeleteLocation removes a location. Callers must first check that no
// children or items reference it.
func DeleteLocation(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting location: %w", err)
	}
	return nil
}

// CountChildren returns the number of direct child locations.
func CountChildren(ctx context.Context, db *sql.DB, id int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM locations WHERE parent_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting children: %w", err)
	}
	return count, nil
}

// CountItemsInLocation returns the number of non-deleted items stored at a location.
func CountItemsInLocation(ctx context.Context, db *sql.DB, id int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE location_id = ? AND deleted_at IS NULL`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting items in location: %w", err)
	}
	return count, nil
}

// SetLocationImage sets a location's image data.
func SetLocationImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE locations SET image = ?, image_mime = ? WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting location image: %w", err)
	}
	return nil
}

// GetLocationImage returns a location's image data and MIME type.
func GetLocationImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM locations WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting location image: %w", err)
	}
	return image, mime.String, nil
}
