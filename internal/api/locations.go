package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mlakar/shramba/internal/audit"
	"github.com/mlakar/shramba/internal/imaging"
	"github.com/mlakar/shramba/internal/model"
	"github.com/mlakar/shramba/internal/store"
)

// LocationsHandler handles location CRUD endpoints.
type LocationsHandler struct {
	DB *sql.DB
}

type locationRequest struct {
	Name     string `json:"name"`
	RoomType string `json:"room_type"`
	ParentID *int64 `json:"parent_id"`
	IsBox    bool   `json:"is_box"`
}

// validate checks field-level constraints and that the referenced parent
// exists. Returns per-field messages, empty when valid.
func (req *locationRequest) validate(r *http.Request, db *sql.DB) (map[string]string, error) {
	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "name required"
	}
	if !model.ValidRoomType(req.RoomType) {
		fields["room_type"] = "unknown room type"
	}
	if req.ParentID != nil {
		parent, err := store.GetLocation(r.Context(), db, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			fields["parent_id"] = "parent location not found"
		}
	}
	return fields, nil
}

// List handles GET /v1/api/locations/.
func (h *LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.LocationFilter{
		RoomType: q.Get("room_type"),
		Search:   q.Get("q"),
	}
	if v := q.Get("is_box"); v != "" {
		isBox := v == "true" || v == "1"
		filter.IsBox = &isBox
	}
	if v := q.Get("parent"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid parent filter")
			return
		}
		filter.ParentID = &id
	}

	locations, err := store.ListLocations(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to list locations", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	jsonResponse(w, http.StatusOK, locations)
}

// Create handles POST /v1/api/locations/.
func (h *LocationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := req.validate(r, h.DB)
	if err != nil {
		slog.Error("failed to validate location", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(fields) > 0 {
		jsonFieldErrors(w, fields)
		return
	}

	// A new location has no descendants, so any existing parent keeps the
	// tree acyclic; no reparent check needed on create.
	location, err := store.CreateLocation(r.Context(), h.DB, req.Name, req.RoomType, req.ParentID, req.IsBox)
	if err != nil {
		slog.Error("failed to create location", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create location")
		return
	}

	jsonResponse(w, http.StatusCreated, location)
}

// Get handles GET /v1/api/locations/{id}/.
func (h *LocationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	location, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, location)
}

// Update handles PUT /v1/api/locations/{id}/. Reparenting is validated for
// cycles before anything is written.
func (h *LocationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	location, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, err := req.validate(r, h.DB)
	if err != nil {
		slog.Error("failed to validate location", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(fields) > 0 {
		jsonFieldErrors(w, fields)
		return
	}

	if req.ParentID != nil {
		if err := audit.ValidateReparent(r.Context(), h.DB, location.ID, *req.ParentID); err != nil {
			if err == audit.ErrCyclicHierarchy {
				jsonError(w, http.StatusBadRequest,
					fmt.Sprintf("cannot move location %q under its own descendant", location.Name))
				return
			}
			slog.Error("failed to validate reparent", "location", location.ID, "error", err)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	if err := store.UpdateLocation(r.Context(), h.DB, location.ID, req.Name, req.RoomType, req.ParentID, req.IsBox); err != nil {
		slog.Error("failed to update location", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update location")
		return
	}

	updated, err := store.GetLocation(r.Context(), h.DB, location.ID)
	if err != nil || updated == nil {
		slog.Error("failed to reload location", "location", location.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update location")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /v1/api/locations/{id}/. Locations that still hold
// items or child locations are not deletable.
func (h *LocationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	location, ok := h.lookup(w, r)
	if !ok {
		return
	}

	children, err := store.CountChildren(r.Context(), h.DB, location.ID)
	if err != nil {
		slog.Error("failed to count children", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	items, err := store.CountItemsInLocation(r.Context(), h.DB, location.ID)
	if err != nil {
		slog.Error("failed to count items", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if children > 0 || items > 0 {
		jsonError(w, http.StatusConflict, "location still contains items or child locations")
		return
	}

	if err := store.DeleteLocation(r.Context(), h.DB, location.ID); err != nil {
		slog.Error("failed to delete location", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete location")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "location deleted"})
}

// Items handles GET /v1/api/locations/{id}/items/.
func (h *LocationsHandler) Items(w http.ResponseWriter, r *http.Request) {
	location, ok := h.lookup(w, r)
	if !ok {
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, store.ItemFilter{LocationID: &location.ID})
	if err != nil {
		slog.Error("failed to list location items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Children handles GET /v1/api/locations/{id}/children/.
func (h *LocationsHandler) Children(w http.ResponseWriter, r *http.Request) {
	location, ok := h.lookup(w, r)
	if !ok {
		return
	}

	children, err := store.ListChildren(r.Context(), h.DB, location.ID)
	if err != nil {
		slog.Error("failed to list children", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list children")
		return
	}
	if children == nil {
		children = []model.Location{}
	}
	jsonResponse(w, http.StatusOK, children)
}

// UploadImage handles PUT /v1/api/locations/{id}/image/.
func (h *LocationsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	location, ok := h.lookup(w, r)
	if !ok {
		return
	}

	result, ok := processUpload(w, r)
	if !ok {
		return
	}

	if err := store.SetLocationImage(r.Context(), h.DB, location.ID, result.Data, result.MIME); err != nil {
		slog.Error("failed to save location image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /v1/api/locations/{id}/image/.
func (h *LocationsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	location, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, mime, err := store.GetLocationImage(r.Context(), h.DB, location.ID)
	if err != nil {
		slog.Error("failed to get location image", "error", err)
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

// lookup parses the {id} path value and fetches the location, writing the
// error response itself when either step fails.
func (h *LocationsHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Location, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid location id")
		return nil, false
	}

	location, err := store.GetLocation(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get location", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get location")
		return nil, false
	}
	if location == nil {
		jsonError(w, http.StatusNotFound, "location not found")
		return nil, false
	}
	return location, true
}

// processUpload reads the multipart image upload and normalizes it through
// the imaging pipeline, writing the error response itself on failure.
func processUpload(w http.ResponseWriter, r *http.Request) (*imaging.Result, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return nil, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return nil, false
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return result, true
}
