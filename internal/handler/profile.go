package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/service"
)

// ProfileHandler holds the handlers for the caller's own profile and the
// friends search.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Me handles GET /auth/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.Get(r.Context(), UID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update handles PUT /users/me
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.profiles.Update(r.Context(), UID(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Get handles GET /users/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Search handles GET /users
// Finds users by name or interest for the friends page.
func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.profiles.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
