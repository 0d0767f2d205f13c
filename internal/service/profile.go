package service

import (
	"context"
	"strings"
	"time"

	"github.com/woramet12/fitnu/internal/cache"
	"github.com/woramet12/fitnu/internal/model"
)

// pendingWindow bounds the optimistic post-sign-in state: within it the
// cached profile is served without a store round trip, after it the
// authoritative path applies again.
const pendingWindow = 15 * time.Second

// maxFriendResults bounds the friends search.
const maxFriendResults = 100

// ProfileService reads and mutates user profiles through the session cache.
// The cache is a read-through shortcut only; the store stays authoritative
// and every mutation writes the store first.
type ProfileService struct {
	users    UserStore
	sessions *cache.SessionCache[model.UserProfile]
}

// NewProfileService constructs a ProfileService.
func NewProfileService(users UserStore, sessions *cache.SessionCache[model.UserProfile]) *ProfileService {
	return &ProfileService{users: users, sessions: sessions}
}

// Get returns the profile for uid. Inside the post-sign-in pending window a
// primed cache entry is served directly; otherwise the store is consulted
// and the cache refreshed.
func (s *ProfileService) Get(ctx context.Context, uid string) (*model.UserProfile, error) {
	if s.sessions.IsPending(uid) {
		if cached, ok := s.sessions.Get(uid); ok {
			return &cached, nil
		}
	}

	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(uid, *user)
	s.sessions.ConfirmPending(uid)
	return user, nil
}

// Update applies a profile edit, store first, then refreshes the cache so a
// following read cannot observe the stale value.
func (s *ProfileService) Update(ctx context.Context, uid string, req model.UpdateProfileRequest) (*model.UserProfile, error) {
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Year = strings.TrimSpace(req.Year)
	user.Interest = strings.TrimSpace(req.Interest)
	user.Bio = strings.TrimSpace(req.Bio)
	user.Avatar = strings.TrimSpace(req.Avatar)

	if err := s.users.Update(ctx, user); err != nil {
		s.sessions.Invalidate(uid)
		return nil, err
	}
	s.sessions.Put(uid, *user)
	return user, nil
}

// Search finds users by name or interest for the friends page.
func (s *ProfileService) Search(ctx context.Context, q string) ([]model.UserProfile, error) {
	users, err := s.users.Search(ctx, strings.TrimSpace(q), maxFriendResults)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.UserProfile{}
	}
	return users, nil
}

// StartSession primes the cache right after sign-in and opens the pending
// window, avoiding a store round trip on the immediate follow-up reads.
func (s *ProfileService) StartSession(user *model.UserProfile) {
	s.sessions.Put(user.ID, *user)
	s.sessions.BeginPending(user.ID, pendingWindow)
}

// EndSession drops all cached state for uid on sign-out.
func (s *ProfileService) EndSession(uid string) {
	s.sessions.Invalidate(uid)
}
