package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/woramet12/fitnu/internal/realtime"
	"github.com/woramet12/fitnu/internal/repository"
	"github.com/woramet12/fitnu/internal/service"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 25 * time.Second
)

// WSHandler upgrades clients onto the live event and chat views. The server
// is push-only: on every change signal the full snapshot is re-read and
// re-sent, so a client never has to reconcile deltas.
type WSHandler struct {
	parser     TokenParser
	projection *service.ProjectionService
	broker     *realtime.Broker

	// insecureSkipVerify bypasses origin verification for local
	// development against a dev server on another port.
	insecureSkipVerify bool
}

// NewWSHandler constructs a WSHandler.
func NewWSHandler(parser TokenParser, projection *service.ProjectionService, broker *realtime.Broker, insecureSkipVerify bool) *WSHandler {
	return &WSHandler{
		parser:             parser,
		projection:         projection,
		broker:             broker,
		insecureSkipVerify: insecureSkipVerify,
	}
}

// Events handles GET /ws/events
// Streams event-list snapshots, optionally filtered by a q keyword
// parameter. Browser WebSocket clients cannot set an Authorization header,
// so the token rides in the query string.
func (h *WSHandler) Events(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}

	q := r.URL.Query().Get("q")
	h.serve(w, r, realtime.TopicEvents, func(ctx context.Context) (any, error) {
		return h.projection.SnapshotEvents(ctx, q)
	})
}

// Messages handles GET /ws/events/{id}/messages
// Streams chat snapshots for one event, gated on chat membership.
func (h *WSHandler) Messages(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	eventID := chi.URLParam(r, "id")
	if _, err := h.projection.SnapshotMessages(r.Context(), eventID, uid); err != nil {
		writeServiceError(w, err)
		return
	}

	h.serve(w, r, realtime.MessagesTopic(eventID), func(ctx context.Context) (any, error) {
		return h.projection.SnapshotMessages(ctx, eventID, uid)
	})
}

func (h *WSHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeError(w, http.StatusUnauthorized, "missing token")
		return "", false
	}
	uid, err := h.parser.ParseToken(tokenStr)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return "", false
	}
	return uid, true
}

// serve runs the push loop: the current snapshot immediately, then a fresh
// snapshot on every topic signal, with keepalive pings in between. The
// subscription is taken before the initial snapshot so a change landing
// between the two is not lost.
func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request, topic string, snapshot func(ctx context.Context) (any, error)) {
	sub := h.broker.Subscribe(topic)
	defer sub.Close()

	opts := &websocket.AcceptOptions{InsecureSkipVerify: h.insecureSkipVerify}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		return // Accept already wrote the error response
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	// The client never sends data frames, but reading keeps control
	// frames (close/ping/pong) processed and cancels ctx on disconnect.
	ctx := conn.CloseRead(r.Context())

	if !h.push(ctx, conn, snapshot) {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.C:
			if !h.push(ctx, conn, snapshot) {
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) push(ctx context.Context, conn *websocket.Conn, snapshot func(ctx context.Context) (any, error)) bool {
	v, err := snapshot(ctx)
	if err != nil {
		// The event going away, or the viewer losing membership, ends
		// the stream rather than erroring it.
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, service.ErrPermissionDenied) {
			conn.Close(websocket.StatusNormalClosure, "gone")
		}
		return false
	}

	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, v) == nil
}
