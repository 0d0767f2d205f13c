package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/woramet12/fitnu/internal/membership"
	"github.com/woramet12/fitnu/internal/model"
)

// livenessTTL bounds how long an existence answer is reused. A participant
// deleting their profile disappears from filtered views within this window;
// a reappearing profile becomes visible again on the same schedule.
const livenessTTL = 30 * time.Second

type liveness struct {
	alive     bool
	checkedAt time.Time
}

// ProjectionService derives the live views consumed by listing and chat
// surfaces: full event snapshots, ordered message snapshots, and
// participant lists filtered down to users that still exist.
type ProjectionService struct {
	events   EventStore
	messages MessageStore
	users    UserStore
	clock    func() time.Time

	mu    sync.RWMutex
	alive map[string]liveness
}

// NewProjectionService constructs a ProjectionService.
func NewProjectionService(events EventStore, messages MessageStore, users UserStore) *ProjectionService {
	return &ProjectionService{
		events:   events,
		messages: messages,
		users:    users,
		clock:    nowUTC,
		alive:    map[string]liveness{},
	}
}

// SnapshotEvents returns the current event list for a raw search input: all
// events when the input is blank, token-intersection matches otherwise,
// newest first either way. Re-emitting the same snapshot is harmless, so
// subscribers simply call this again on every change signal.
func (s *ProjectionService) SnapshotEvents(ctx context.Context, rawQuery string) ([]model.Event, error) {
	var (
		events []model.Event
		err    error
	)
	if strings.TrimSpace(rawQuery) == "" {
		events, err = s.events.ListRecent(ctx, maxEventPage)
	} else {
		events, err = searchEvents(ctx, s.events, rawQuery)
	}
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// SnapshotMessages returns the ordered message list for an event, gated on
// chat membership for uid.
func (s *ProjectionService) SnapshotMessages(ctx context.Context, eventID, uid string) ([]model.Message, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !membership.CanEnterChat(e, uid) {
		return nil, ErrPermissionDenied
	}

	msgs, err := s.messages.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// FilterLiveParticipants drops participants whose profile no longer exists
// in the store. Existence results are cached per id for livenessTTL so one
// view refresh does not probe the same user repeatedly, while a deleted
// profile still falls out of every filtered view within the window. When an
// existence check fails the participant is kept, so a flaky store degrades
// to the unfiltered list rather than an empty one.
func (s *ProjectionService) FilterLiveParticipants(ctx context.Context, e *model.Event) []model.UserRef {
	out := make([]model.UserRef, 0, len(e.Participants))
	for _, p := range membership.Dedupe(e.Participants) {
		if s.userAlive(ctx, p.ID) {
			out = append(out, p)
		}
	}
	return out
}

func (s *ProjectionService) userAlive(ctx context.Context, uid string) bool {
	now := s.clock()

	s.mu.RLock()
	l, ok := s.alive[uid]
	s.mu.RUnlock()
	if ok && now.Sub(l.checkedAt) < livenessTTL {
		return l.alive
	}

	exists, err := s.users.Exists(ctx, uid)
	if err != nil {
		return true
	}

	s.mu.Lock()
	s.alive[uid] = liveness{alive: exists, checkedAt: now}
	s.mu.Unlock()
	return exists
}
