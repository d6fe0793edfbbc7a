package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mlakar/shramba/internal/audit"
	"github.com/mlakar/shramba/internal/model"
	"github.com/mlakar/shramba/internal/store"
)

// ItemsHandler handles item CRUD endpoints. Every write is recorded in the
// item audit log with the acting user.
type ItemsHandler struct {
	DB *sql.DB
}

type itemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Condition   string `json:"condition"`
	LocationID  int64  `json:"location_id"`
}

func (req *itemRequest) validate(r *http.Request, db *sql.DB) (map[string]string, error) {
	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "name required"
	}
	if err := model.ValidateQuantity(req.Quantity); err != nil {
		fields["quantity"] = err.Error()
	}
	if !model.ValidCondition(req.Condition) {
		fields["condition"] = "unknown condition"
	}
	if req.LocationID == 0 {
		fields["location_id"] = "location required"
	} else {
		location, err := store.GetLocation(r.Context(), db, req.LocationID)
		if err != nil {
			return nil, err
		}
		if location == nil {
			fields["location_id"] = "location not found"
		}
	}
	return fields, nil
}

// List handles GET /v1/api/items/.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ItemFilter{
		Condition: q.Get("condition"),
		Search:    q.Get("q"),
	}
	if v := q.Get("location"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid location filter")
			return
		}
		filter.LocationID = &id
	}

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /v1/api/items/.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := req.validate(r, h.DB)
	if err != nil {
		slog.Error("failed to validate item", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(fields) > 0 {
		jsonFieldErrors(w, fields)
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.Name, req.Description, req.Quantity, req.Condition, req.LocationID)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	created, err := store.GetItem(r.Context(), h.DB, item.ID)
	if err != nil {
		slog.Error("failed to reload item", "item", item.ID, "error", err)
	}
	if created == nil {
		created = item
	}

	audit.ItemCreated(r.Context(), h.DB, userIDFromContext(r.Context()), created, created.LocationName)

	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /v1/api/items/{id}/.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /v1/api/items/{id}/. A location change is logged as a
// move, which supersedes the generic updated entry even when other fields
// changed in the same request.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := req.validate(r, h.DB)
	if err != nil {
		slog.Error("failed to validate item", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(fields) > 0 {
		jsonFieldErrors(w, fields)
		return
	}

	oldLocation := item.LocationName

	if err := store.UpdateItem(r.Context(), h.DB, item.ID, req.Name, req.Description, req.Quantity, req.Condition, req.LocationID); err != nil {
		slog.Error("failed to update item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	updated, err := store.GetItem(r.Context(), h.DB, item.ID)
	if err != nil || updated == nil {
		slog.Error("failed to reload item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	userID := userIDFromContext(r.Context())
	changed := audit.ChangedFields(item, updated)
	if item.LocationID != updated.LocationID {
		audit.ItemMoved(r.Context(), h.DB, userID, updated, oldLocation, updated.LocationName)
	} else if len(changed) > 0 {
		audit.ItemUpdated(r.Context(), h.DB, userID, updated, changed)
	}

	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /v1/api/items/{id}/. The audit entry is written
// first so it can still reference the item's location by name.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	audit.ItemDeleted(r.Context(), h.DB, userIDFromContext(r.Context()), item, item.LocationName)

	if err := store.DeleteItem(r.Context(), h.DB, item.ID); err != nil {
		slog.Error("failed to delete item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Logs handles GET /v1/api/items/{id}/logs/.
func (h *ItemsHandler) Logs(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	logs, err := store.ListItemLogs(r.Context(), h.DB, store.LogFilter{ItemID: &item.ID})
	if err != nil {
		slog.Error("failed to list item logs", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	if logs == nil {
		logs = []model.ItemLog{}
	}
	jsonResponse(w, http.StatusOK, logs)
}

// UploadImage handles PUT /v1/api/items/{id}/image/.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	result, ok := processUpload(w, r)
	if !ok {
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, item.ID, result.Data, result.MIME); err != nil {
		slog.Error("failed to save item image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /v1/api/items/{id}/image/.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, item.ID)
	if err != nil {
		slog.Error("failed to get item image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

func (h *ItemsHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil, false
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil, false
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}
