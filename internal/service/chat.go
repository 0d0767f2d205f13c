package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/woramet12/fitnu/internal/membership"
	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/realtime"
)

// ChatService handles the per-event message stream. Every read and write is
// gated on chat membership against the latest event document.
type ChatService struct {
	events   EventStore
	messages MessageStore
	uploader Uploader
	broker   Publisher
	clock    func() time.Time
	idGen    func() string
}

// NewChatService constructs a ChatService.
func NewChatService(events EventStore, messages MessageStore, uploader Uploader, broker Publisher) *ChatService {
	return &ChatService{
		events:   events,
		messages: messages,
		uploader: uploader,
		broker:   broker,
		clock:    nowUTC,
		idGen:    uuid.NewString,
	}
}

// Messages returns the event's messages in send order. Non-members are
// rejected with ErrPermissionDenied.
func (s *ChatService) Messages(ctx context.Context, eventID, uid string) ([]model.Message, error) {
	if err := s.gate(ctx, eventID, uid); err != nil {
		return nil, err
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

// SendText appends a text message to the event's chat.
func (s *ChatService) SendText(ctx context.Context, eventID string, sender model.UserRef, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is required")
	}
	return s.append(ctx, eventID, sender, &model.Message{
		Type: model.MessageText,
		Text: text,
	})
}

// SendImage uploads the file to the image host and appends an image message
// carrying the hosted URL. The upload happens before the append, so a failed
// upload sends nothing.
func (s *ChatService) SendImage(ctx context.Context, eventID string, sender model.UserRef, filename string, file io.Reader) (*model.Message, error) {
	if err := s.gate(ctx, eventID, sender.ID); err != nil {
		return nil, err
	}

	uploaded, err := s.uploader.Upload(ctx, filename, file)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	return s.append(ctx, eventID, sender, &model.Message{
		Type:     model.MessageImage,
		ImageURL: uploaded.ImageURL(),
	})
}

func (s *ChatService) append(ctx context.Context, eventID string, sender model.UserRef, m *model.Message) (*model.Message, error) {
	if err := s.gate(ctx, eventID, sender.ID); err != nil {
		return nil, err
	}

	m.ID = s.idGen()
	m.EventID = eventID
	m.Sender = sender
	m.CreatedAt = s.clock().UTC()

	if err := s.messages.Append(ctx, m); err != nil {
		return nil, err
	}
	s.broker.Publish(realtime.MessagesTopic(eventID))
	return m, nil
}

func (s *ChatService) gate(ctx context.Context, eventID, uid string) error {
	if uid == "" {
		return ErrPermissionDenied
	}
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !membership.CanEnterChat(e, uid) {
		return ErrPermissionDenied
	}
	return nil
}
