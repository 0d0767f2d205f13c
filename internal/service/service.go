// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer. Membership reconciliation
// lives here, once; no other package may re-derive join/leave/delete rules.
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/woramet12/fitnu/internal/imagehost"
	"github.com/woramet12/fitnu/internal/model"
)

// Domain errors surfaced to handlers. Permission problems are kept distinct
// from not-found and from transient store failures so the caller can branch
// (redirect vs. re-auth vs. retry prompt).
var (
	ErrPermissionDenied  = errors.New("insufficient permission")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrEmailInUse        = errors.New("email already registered")
	ErrEmailNotVerified  = errors.New("email not verified")
	ErrWeakPassword      = errors.New("password too short")
	ErrInvalidEmail      = errors.New("email not allowed")
	ErrInvalidStudentID  = errors.New("student id must be 8-12 digits")
	ErrInvalidToken      = errors.New("invalid or expired token")
)

// maxEventPage bounds every event listing and search.
const maxEventPage = 200

// EventStore is the persistence boundary for events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	ListRecent(ctx context.Context, limit int) ([]model.Event, error)
	SearchByTokens(ctx context.Context, tokens []string, limit int) ([]model.Event, error)
	ListByCreator(ctx context.Context, uid string) ([]model.Event, error)
	ListJoined(ctx context.Context, uid string) ([]model.Event, error)
	// Mutate runs fn against the latest persisted event under a row lock;
	// fn reports whether the participant set changed.
	Mutate(ctx context.Context, id string, fn func(e *model.Event) (bool, error)) error
	// Delete removes the event and its child messages, children first.
	Delete(ctx context.Context, id string) error
}

// MessageStore is the persistence boundary for chat messages.
type MessageStore interface {
	Append(ctx context.Context, m *model.Message) error
	ListByEvent(ctx context.Context, eventID string) ([]model.Message, error)
}

// UserStore is the persistence boundary for user profiles and credentials.
type UserStore interface {
	Create(ctx context.Context, u *model.UserProfile) error
	GetByID(ctx context.Context, id string) (*model.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	GetByVerifyToken(ctx context.Context, token string) (*model.UserProfile, error)
	GetByResetToken(ctx context.Context, token string) (*model.UserProfile, error)
	Update(ctx context.Context, u *model.UserProfile) error
	Exists(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, q string, limit int) ([]model.UserProfile, error)
}

// Publisher signals realtime subscribers that a topic changed.
type Publisher interface {
	Publish(topic string)
}

// Uploader sends an image to the external image host.
type Uploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*imagehost.UploadResult, error)
}

// Sender delivers account emails. Delivery is best-effort; the account
// mutation it accompanies is already committed.
type Sender interface {
	SendVerification(email, token string) error
	SendPasswordReset(email, token string) error
}

func nowUTC() time.Time { return time.Now().UTC() }
