// Package model defines the core domain types for the FitNU event platform.
package model

import "time"

// UserRef is the public snapshot of a user embedded in events and messages.
// It is captured at write time and never updated retroactively.
type UserRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Event represents a user-created activity with a fixed creator and a
// participant set unique by user id.
type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Location     string    `json:"location"`
	Creator      UserRef   `json:"creator"`
	Participants []UserRef `json:"participants"`
	Tokens       []string  `json:"tokens"`
	CreatedAt    time.Time `json:"created_at"`
}

// MessageType distinguishes plain text messages from image messages.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
)

// Message is a single chat entry under an event. Messages are append-only.
type Message struct {
	ID        string      `json:"id"`
	EventID   string      `json:"event_id"`
	Type      MessageType `json:"type"`
	Text      string      `json:"text,omitempty"`
	ImageURL  string      `json:"imageUrl,omitempty"`
	Sender    UserRef     `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserProfile is the authoritative per-user record. Events and messages hold
// weak references to it by id; deleting a profile does not cascade.
type UserProfile struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"studentId"`
	Name          string    `json:"name"`
	Year          string    `json:"year"`
	Interest      string    `json:"interest"`
	Bio           string    `json:"bio"`
	Avatar        string    `json:"avatar"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	EmailVerified bool      `json:"emailVerified"`
	SkipVerify    bool      `json:"skipVerify"`
	VerifyToken   string    `json:"-"`
	ResetToken    string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// Ref projects a profile to the embeddable public snapshot.
func (u *UserProfile) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Location    string `json:"location" validate:"required"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is the payload for profile edits.
type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"required"`
	Year     string `json:"year"`
	Interest string `json:"interest"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
}

// SendMessageRequest is the payload for a text chat message.
type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
