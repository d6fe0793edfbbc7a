package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mlakar/shramba/internal/model"
)

// LogFilter narrows ListItemLogs results. Zero values mean "no filter".
type LogFilter struct {
	ItemID *int64
	Action string
}

// CreateItemLog appends a log entry. Entries are never updated or deleted.
func CreateItemLog(ctx context.Context, db *sql.DB, itemID int64, action, details string, userID *int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO item_logs (item_id, action, details, user_id) VALUES (?, ?, ?, ?)`,
		itemID, action, details, userID,
	)
	if err != nil {
		return fmt.Errorf("creating item log: %w", err)
	}
	return nil
}

// ListItemLogs returns log entries matching the filter, newest first.
func ListItemLogs(ctx context.Context, db *sql.DB, f LogFilter) ([]model.ItemLog, error) {
	query := `SELECT lg.id, lg.item_id, lg.action, lg.details, lg.user_id, lg.timestamp, i.name
	          FROM item_logs lg
	          JOIN items i ON i.id = lg.item_id`
	var clauses []string
	var args []any

	if f.ItemID != nil {
		clauses = append(clauses, "lg.item_id = ?")
		args = append(args, *f.ItemID)
	}
	if f.Action != "" {
		clauses = append(clauses, "lg.action = ?")
		args = append(args, f.Action)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY lg.timestamp DESC, lg.id DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing item logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ItemLog
	for rows.Next() {
		var lg model.ItemLog
		var details sql.NullString
		if err := rows.Scan(&lg.ID, &lg.ItemID, &lg.Action, &details, &lg.UserID, &lg.Timestamp, &lg.ItemName); err != nil {
			return nil, fmt.Errorf("scanning item log: %w", err)
		}
		lg.Details = details.String
		logs = append(logs, lg)
	}
	return logs, rows.Err()
}
