package handlers

import "net/http"

// RootResponse is the greeting returned from the root endpoint.
type RootResponse struct {
	Message string `json:"message"`
}

// RootHandler serves the API root.
type RootHandler struct{}

// NewRootHandler creates a new RootHandler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// Root handles GET / requests.
func (h *RootHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{Message: "Hello World"})
}
