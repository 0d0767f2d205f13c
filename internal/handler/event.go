package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/woramet12/fitnu/internal/membership"
	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/service"
)

// EventHandler holds the handlers for the event surface: creation, listing,
// search, and the join/leave/delete membership operations.
type EventHandler struct {
	events     *service.EventService
	membership *service.MembershipService
	projection *service.ProjectionService
	profiles   *service.ProfileService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *service.EventService, membership *service.MembershipService, projection *service.ProjectionService, profiles *service.ProfileService) *EventHandler {
	return &EventHandler{events: events, membership: membership, projection: projection, profiles: profiles}
}

// ref loads the caller's profile and projects it to the embeddable snapshot.
func (h *EventHandler) ref(r *http.Request) (model.UserRef, error) {
	user, err := h.profiles.Get(r.Context(), UID(r))
	if err != nil {
		return model.UserRef{}, err
	}
	return user.Ref(), nil
}

// Create handles POST /events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	creator, err := h.ref(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	event, err := h.events.Create(r.Context(), creator, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// List handles GET /events
// Without a q parameter it returns the newest events; with one it returns
// keyword matches.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.projection.SnapshotEvents(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// Created handles GET /events/created
// Returns only the events the caller created, newest first.
func (h *EventHandler) Created(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListCreatedBy(r.Context(), UID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Mine handles GET /events/mine
// Returns the union of events the caller created and events the caller
// joined, newest first.
func (h *EventHandler) Mine(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListMine(r.Context(), UID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// eventDetail decorates an event with the caller's membership state so the
// client can render the join/leave/delete controls without re-deriving the
// rules.
type eventDetail struct {
	*model.Event
	ViewerState membership.State `json:"viewer_state"`
}

// Get handles GET /events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventDetail{
		Event:       event,
		ViewerState: membership.StateOf(event, UID(r)),
	})
}

// Participants handles GET /events/{id}/participants
// Returns the participant set filtered down to users that still exist.
func (h *EventHandler) Participants(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.projection.FilterLiveParticipants(r.Context(), event))
}

// Join handles POST /events/{id}/join
// Joining twice is a no-op and reports the same membership either way.
func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	user, err := h.ref(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status, err := h.membership.Join(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// Leave handles POST /events/{id}/leave
// The creator cannot leave their own event.
func (h *EventHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.membership.Leave(r.Context(), chi.URLParam(r, "id"), UID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// Delete handles DELETE /events/{id}
// Only the creator may delete; the chat history goes with the event.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.membership.Delete(r.Context(), chi.URLParam(r, "id"), UID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
