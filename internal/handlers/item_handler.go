package handlers

import (
	"net/http"
	"strconv"

	"github.com/itemhub/itemhub/internal/middleware"
	"github.com/itemhub/itemhub/internal/repository"
	"github.com/itemhub/itemhub/internal/services"
	"github.com/itemhub/itemhub/internal/validation"
)

// ItemPayload is the request body for creating or updating an item.
// Fields are pointers so absent and empty values are distinguishable.
type ItemPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// ItemListResponse wraps a page of items.
type ItemListResponse struct {
	Items []interface{} `json:"items"`
	Skip  int           `json:"skip"`
	Limit int           `json:"limit"`
}

// ItemHandler handles item endpoints.
type ItemHandler struct {
	service services.ItemService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(svc services.ItemService) *ItemHandler {
	return &ItemHandler{service: svc}
}

// Create handles POST /items/ requests.
// Unauthenticated requests create items under the anonymous owner.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload ItemPayload
	if errs := validation.DecodeBody(r.Body, &payload); errs != nil {
		writeValidationError(w, errs)
		return
	}

	ownerID := middleware.GetUserID(r.Context())

	item, err := h.service.Create(r.Context(), services.ItemInput{
		Title:       payload.Title,
		Description: payload.Description,
	}, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// List handles GET /items/ requests with skip/limit pagination.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, errs := queryInt(r, "skip", 0)
	limit, limitErrs := queryInt(r, "limit", repository.DefaultListLimit)
	errs = append(errs, limitErrs...)
	ownerID, ownerErrs := queryInt(r, "owner_id", 0)
	errs = append(errs, ownerErrs...)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	items, err := h.service.List(r.Context(), repository.ListOptions{
		Offset:  skip,
		Limit:   limit,
		OwnerID: int64(ownerID),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := ItemListResponse{
		Items: make([]interface{}, 0, len(items)),
		Skip:  skip,
		Limit: limit,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /items/{id} requests.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Update handles PUT /items/{id} requests.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload ItemPayload
	if errs := validation.DecodeBody(r.Body, &payload); errs != nil {
		writeValidationError(w, errs)
		return
	}

	item, err := h.service.Update(r.Context(), id, services.ItemInput{
		Title:       payload.Title,
		Description: payload.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /items/{id} requests.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /items/{id}/stats requests.
func (h *ItemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// pathID parses the {id} path segment. A non-integer id gets a 422 with a
// path-scoped detail entry.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeValidationError(w, validation.Errors{{
			Loc:  []string{"path", "id"},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		}})
		return 0, false
	}
	return id, true
}

// queryInt parses a non-negative integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, validation.Errors) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, validation.Errors{{
			Loc:  []string{"query", name},
			Msg:  "value is not a valid non-negative integer",
			Type: "type_error.integer",
		}}
	}
	return value, nil
}
