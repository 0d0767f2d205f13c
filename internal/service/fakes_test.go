package service

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/woramet12/fitnu/internal/imagehost"
	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/repository"
	"github.com/woramet12/fitnu/internal/search"
)

// memStore is an in-memory stand-in for the pgx event and message
// repositories. Mutate copies the stored event before applying fn, matching
// the row-lock semantics of the real store: fn always sees the latest
// committed state.
type memStore struct {
	mu       sync.Mutex
	events   map[string]*model.Event
	messages map[string][]model.Message
}

func newMemStore() *memStore {
	return &memStore{
		events:   map[string]*model.Event{},
		messages: map[string][]model.Message{},
	}
}

func copyEvent(e *model.Event) *model.Event {
	c := *e
	c.Participants = append([]model.UserRef(nil), e.Participants...)
	c.Tokens = append([]string(nil), e.Tokens...)
	return &c
}

func (s *memStore) Create(ctx context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = copyEvent(e)
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyEvent(e), nil
}

func (s *memStore) sortedEvents() []model.Event {
	out := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *copyEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *memStore) ListRecent(ctx context.Context, limit int) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sortedEvents()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) SearchByTokens(ctx context.Context, tokens []string, limit int) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, e := range s.sortedEvents() {
		if search.Matches(e.Tokens, tokens) {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) ListByCreator(ctx context.Context, uid string) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, e := range s.sortedEvents() {
		if e.Creator.ID == uid {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) ListJoined(ctx context.Context, uid string) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, e := range s.sortedEvents() {
		for _, p := range e.Participants {
			if p.ID == uid {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) Mutate(ctx context.Context, id string, fn func(e *model.Event) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	work := copyEvent(e)
	changed, err := fn(work)
	if err != nil {
		return err
	}
	if changed {
		s.events[id] = work
	}
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.messages, id)
	delete(s.events, id)
	return nil
}

func (s *memStore) Append(ctx context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.EventID] = append(s.messages[m.EventID], *m)
	return nil
}

func (s *memStore) ListByEvent(ctx context.Context, eventID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]model.Message(nil), s.messages[eventID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// fakeUserStore is an in-memory stand-in for the pgx user repository.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.UserProfile

	existsCalls int
	getCalls    int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.UserProfile{}}
}

func (s *fakeUserStore) Create(ctx context.Context, u *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) GetByVerifyToken(ctx context.Context, token string) (*model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if token != "" && u.VerifyToken == token {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) GetByResetToken(ctx context.Context, token string) (*model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if token != "" && u.ResetToken == token {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) Update(ctx context.Context, u *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *fakeUserStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existsCalls++
	_, ok := s.users[id]
	return ok, nil
}

func (s *fakeUserStore) Search(ctx context.Context, q string, limit int) ([]model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.UserProfile
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeUserStore) delete(id string) {
	s.mu.Lock()
	delete(s.users, id)
	s.mu.Unlock()
}

// fakePublisher records published topics.
type fakePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *fakePublisher) Publish(topic string) {
	p.mu.Lock()
	p.topics = append(p.topics, topic)
	p.mu.Unlock()
}

func (p *fakePublisher) published(topic string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.topics {
		if t == topic {
			return true
		}
	}
	return false
}

// fakeUploader returns a fixed hosted URL.
type fakeUploader struct {
	url string
	err error
}

func (u *fakeUploader) Upload(ctx context.Context, filename string, file io.Reader) (*imagehost.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	return &imagehost.UploadResult{SecureURL: u.url}, nil
}

// fakeSender records the emails "sent".
type fakeSender struct {
	mu            sync.Mutex
	verifications map[string]string
	resets        map[string]string
}

func newFakeSender() *fakeSender {
	return &fakeSender{verifications: map[string]string{}, resets: map[string]string{}}
}

func (f *fakeSender) SendVerification(email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifications[email] = token
	return nil
}

func (f *fakeSender) SendPasswordReset(email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[email] = token
	return nil
}
