package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mlakar/shramba/internal/model"
	"github.com/mlakar/shramba/internal/store"
)

// LogsHandler serves the item audit log.
type LogsHandler struct {
	DB *sql.DB
}

// List handles GET /v1/api/logs/. Supports item and action filters.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.LogFilter{Action: q.Get("action")}
	if filter.Action != "" && !model.ValidAction(filter.Action) {
		jsonError(w, http.StatusBadRequest, "unknown action")
		return
	}
	if v := q.Get("item"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid item filter")
			return
		}
		filter.ItemID = &id
	}

	logs, err := store.ListItemLogs(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to list logs", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	if logs == nil {
		logs = []model.ItemLog{}
	}
	jsonResponse(w, http.StatusOK, logs)
}
