package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mlakar/shramba/internal/model"
)

// ItemFilter narrows ListItems results. Zero values mean "no filter".
type ItemFilter struct {
	LocationID *int64
	Condition  string
	Search     string
}

// CreateItem creates a new item.
func CreateItem(ctx context.Context, db *sql.DB, name, description string, quantity int, condition string, locationID int64) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, quantity, condition, location_id)
		 VALUES (?, ?, ?, ?, ?)`,
		name, description, quantity, condition, locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, including soft-deleted ones (log entries
// reference them).
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	var description, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT i.id, i.name, i.description, i.quantity, i.condition, i.location_id,
		        i.image_mime, i.created_at, i.updated_at, i.deleted_at, l.name
		 FROM items i
		 JOIN locations l ON l.id = i.location_id
		 WHERE i.id = ?`, id,
	).Scan(&item.ID, &item.Name, &description, &item.Quantity, &item.Condition, &item.LocationID,
		&imageMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt, &item.LocationName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	item.ImageMime = imageMime.String
	return item, nil
}

// ListItems returns non-deleted items matching the filter, newest first.
func ListItems(ctx context.Context, db *sql.DB, f ItemFilter) ([]model.Item, error) {
	query := `SELECT i.id, i.name, i.description, i.quantity, i.condition, i.location_id,
	                 i.image_mime, i.created_at, i.updated_at, i.deleted_at, l.name
	          FROM items i
	          JOIN locations l ON l.id = i.location_id
	          WHERE i.deleted_at IS NULL`
	var args []any

	if f.LocationID != nil {
		query += " AND i.location_id = ?"
		args = append(args, *f.LocationID)
	}
	if f.Condition != "" {
		query += " AND i.condition = ?"
		args = append(args, f.Condition)
	}
	if f.Search != "" {
		query += " AND (i.name LIKE ? OR i.description LIKE ?)"
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	query += " ORDER BY i.created_at DESC, i.name"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var description, imageMime sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &description, &item.Quantity, &item.Condition, &item.LocationID,
			&imageMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt, &item.LocationName); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		item.ImageMime = imageMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's fields.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, name, description string, quantity int, condition string, locationID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, quantity = ?, condition = ?,
		        location_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, description, quantity, condition, locationID, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item. The row survives so that its audit trail
// keeps a valid reference.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
