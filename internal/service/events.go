package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/realtime"
	"github.com/woramet12/fitnu/internal/search"
)

// EventService orchestrates event creation and listing.
type EventService struct {
	events EventStore
	broker Publisher
	clock  func() time.Time
	idGen  func() string
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, broker Publisher) *EventService {
	return &EventService{
		events: events,
		broker: broker,
		clock:  nowUTC,
		idGen:  uuid.NewString,
	}
}

// Create validates the request, derives the search token set, and persists
// a new event with the creator snapshot and an empty participant set.
func (s *EventService) Create(ctx context.Context, creator model.UserRef, req model.CreateEventRequest) (*model.Event, error) {
	if creator.ID == "" {
		return nil, fmt.Errorf("creator id is required")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" || req.Description == "" || req.Date == "" || req.Time == "" || req.Location == "" {
		return nil, fmt.Errorf("all event fields are required")
	}

	event := &model.Event{
		ID:           s.idGen(),
		Title:        req.Title,
		Description:  req.Description,
		Date:         req.Date,
		Time:         req.Time,
		Location:     req.Location,
		Creator:      creator,
		Participants: []model.UserRef{},
		Tokens:       search.BuildTokens(req.Title, req.Description, req.Location),
		CreatedAt:    s.clock().UTC(),
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	s.broker.Publish(realtime.TopicEvents)
	return event, nil
}

// Get returns a single event by ID.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("event id is required")
	}
	return s.events.GetByID(ctx, id)
}

// List returns the newest events up to the page cap.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	return s.events.ListRecent(ctx, maxEventPage)
}

// Search returns events whose token set intersects the normalized query,
// newest first. A query that normalizes to nothing matches nothing.
func (s *EventService) Search(ctx context.Context, q string) ([]model.Event, error) {
	return searchEvents(ctx, s.events, q)
}

func searchEvents(ctx context.Context, store EventStore, q string) ([]model.Event, error) {
	tokens := search.NormalizeQuery(q)
	if len(tokens) == 0 {
		return []model.Event{}, nil
	}
	return store.SearchByTokens(ctx, tokens, maxEventPage)
}

// ListCreatedBy returns events created by uid, newest first.
func (s *EventService) ListCreatedBy(ctx context.Context, uid string) ([]model.Event, error) {
	return s.events.ListByCreator(ctx, uid)
}

// ListMine returns the union of events uid created and events uid joined,
// unique by id, newest first.
func (s *EventService) ListMine(ctx context.Context, uid string) ([]model.Event, error) {
	created, err := s.events.ListByCreator(ctx, uid)
	if err != nil {
		return nil, err
	}
	joined, err := s.events.ListJoined(ctx, uid)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(created)+len(joined))
	out := make([]model.Event, 0, len(created)+len(joined))
	for _, e := range append(created, joined...) {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
