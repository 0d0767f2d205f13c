package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/woramet12/fitnu/internal/imagehost"
	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/service"
)

// ChatHandler holds the handlers for per-event chat: reading history and
// sending text and image messages. Every operation is gated on chat
// membership.
type ChatHandler struct {
	chat     *service.ChatService
	profiles *service.ProfileService
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(chat *service.ChatService, profiles *service.ProfileService) *ChatHandler {
	return &ChatHandler{chat: chat, profiles: profiles}
}

// List handles GET /events/{id}/messages
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chat.Messages(r.Context(), chi.URLParam(r, "id"), UID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// SendText handles POST /events/{id}/messages
func (h *ChatHandler) SendText(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sender, err := h.sender(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	msg, err := h.chat.SendText(r.Context(), chi.URLParam(r, "id"), sender, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// SendImage handles POST /events/{id}/messages/image
// Accepts a multipart form with an "image" file part, uploads it to the
// image host, and appends the hosted URL as an image message.
func (h *ChatHandler) SendImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imagehost.MaxUploadBytes+1<<16)
	if err := r.ParseMultipartForm(imagehost.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	if header.Size > imagehost.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "image exceeds the 5 MB limit")
		return
	}
	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		writeError(w, http.StatusBadRequest, "only image uploads are accepted")
		return
	}

	sender, err := h.sender(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	msg, err := h.chat.SendImage(r.Context(), chi.URLParam(r, "id"), sender, header.Filename, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) sender(r *http.Request) (model.UserRef, error) {
	user, err := h.profiles.Get(r.Context(), UID(r))
	if err != nil {
		return model.UserRef{}, err
	}
	return user.Ref(), nil
}
