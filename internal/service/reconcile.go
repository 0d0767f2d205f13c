package service

import (
	"context"
	"fmt"

	"github.com/woramet12/fitnu/internal/membership"
	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/realtime"
)

// JoinStatus reports the outcome of a join attempt. Already being a member
// is a status, not an error.
type JoinStatus string

const (
	Joined        JoinStatus = "joined"
	AlreadyJoined JoinStatus = "already_joined"
)

// MembershipService is the single authoritative implementation of the
// join/leave/delete state transitions. Every mutation runs a fresh
// read-modify-write against the latest persisted event, with id-based
// deduplication reapplied on each write, so raced joins by the same user
// collapse to one entry and raced joins by distinct users both survive.
type MembershipService struct {
	events EventStore
	broker Publisher
}

// NewMembershipService constructs a MembershipService.
func NewMembershipService(events EventStore, broker Publisher) *MembershipService {
	return &MembershipService{events: events, broker: broker}
}

// Join adds user to the event's participant set. Joining an event the user
// already belongs to, or created, is a no-op reported as AlreadyJoined.
func (s *MembershipService) Join(ctx context.Context, eventID string, user model.UserRef) (JoinStatus, error) {
	if user.ID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if eventID == "" {
		return "", fmt.Errorf("event id is required")
	}

	status := Joined
	err := s.events.Mutate(ctx, eventID, func(e *model.Event) (bool, error) {
		if membership.IsMember(e, user.ID) {
			status = AlreadyJoined
			return false, nil
		}
		next, added := membership.WithParticipant(e.Participants, user)
		e.Participants = next
		return added, nil
	})
	if err != nil {
		return "", err
	}

	if status == Joined {
		s.broker.Publish(realtime.TopicEvents)
	}
	return status, nil
}

// Leave removes uid from the event's participant set. The creator can never
// leave; leaving an event uid is not part of is a no-op.
func (s *MembershipService) Leave(ctx context.Context, eventID, uid string) error {
	if uid == "" {
		return fmt.Errorf("user id is required")
	}

	changed := false
	err := s.events.Mutate(ctx, eventID, func(e *model.Event) (bool, error) {
		if membership.IsCreator(e, uid) {
			return false, ErrPermissionDenied
		}
		next, removed := membership.WithoutParticipant(e.Participants, uid)
		e.Participants = next
		changed = removed
		return removed, nil
	})
	if err != nil {
		return err
	}

	if changed {
		s.broker.Publish(realtime.TopicEvents)
	}
	return nil
}

// Delete removes the event and all of its messages. Only the creator may
// delete; the permission check runs against the latest persisted document.
func (s *MembershipService) Delete(ctx context.Context, eventID, uid string) error {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !membership.CanDelete(e, uid) {
		return ErrPermissionDenied
	}

	if err := s.events.Delete(ctx, eventID); err != nil {
		return err
	}

	s.broker.Publish(realtime.TopicEvents)
	// Collapse any open chat subscriptions; their next snapshot read
	// observes the deletion.
	s.broker.Publish(realtime.MessagesTopic(eventID))
	return nil
}
