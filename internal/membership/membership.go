// Package membership defines the canonical predicates and set operations
// over an event's participant list. Every surface that needs to answer
// "is this user in the event" goes through this package; nothing else may
// re-derive these rules.
package membership

import "github.com/woramet12/fitnu/internal/model"

// State is the client-visible membership state of one user for one event.
type State string

const (
	StateCreator   State = "creator"
	StateJoined    State = "joined"
	StateNotJoined State = "not_joined"
)

// IsCreator reports whether uid created the event.
func IsCreator(e *model.Event, uid string) bool {
	return uid != "" && e.Creator.ID == uid
}

// IsParticipant reports whether uid appears in the participant set.
func IsParticipant(e *model.Event, uid string) bool {
	if uid == "" {
		return false
	}
	for _, p := range e.Participants {
		if p.ID == uid {
			return true
		}
	}
	return false
}

// IsMember reports whether uid is the creator or a participant. The creator
// is implicitly always a member even with an empty participant list.
func IsMember(e *model.Event, uid string) bool {
	return IsCreator(e, uid) || IsParticipant(e, uid)
}

// CanLeave reports whether uid may leave the event. The creator can never
// leave their own event.
func CanLeave(e *model.Event, uid string) bool {
	return IsParticipant(e, uid) && !IsCreator(e, uid)
}

// CanDelete reports whether uid may delete the event.
func CanDelete(e *model.Event, uid string) bool {
	return IsCreator(e, uid)
}

// CanEnterChat reports whether uid may read or post chat messages.
func CanEnterChat(e *model.Event, uid string) bool {
	return IsMember(e, uid)
}

// StateOf returns the membership state of uid for the event.
func StateOf(e *model.Event, uid string) State {
	switch {
	case IsCreator(e, uid):
		return StateCreator
	case IsParticipant(e, uid):
		return StateJoined
	default:
		return StateNotJoined
	}
}

// Dedupe collapses a participant list to a set keyed by id. The first entry
// for an id wins; entries without an id are dropped. Participants are a
// logical set and every write path must pass through here so that a raced
// append can never persist a duplicate.
func Dedupe(ps []model.UserRef) []model.UserRef {
	seen := make(map[string]struct{}, len(ps))
	out := make([]model.UserRef, 0, len(ps))
	for _, p := range ps {
		if p.ID == "" {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// WithParticipant returns the deduplicated set including u, and whether u
// was actually added. Adding an existing id is a no-op.
func WithParticipant(ps []model.UserRef, u model.UserRef) ([]model.UserRef, bool) {
	next := Dedupe(ps)
	if u.ID == "" {
		return next, false
	}
	for _, p := range next {
		if p.ID == u.ID {
			return next, false
		}
	}
	return append(next, u), true
}

// WithoutParticipant returns the deduplicated set excluding uid, and whether
// an entry was actually removed.
func WithoutParticipant(ps []model.UserRef, uid string) ([]model.UserRef, bool) {
	next := Dedupe(ps)
	out := next[:0]
	removed := false
	for _, p := range next {
		if p.ID == uid {
			removed = true
			continue
		}
		out = append(out, p)
	}
	return out, removed
}
