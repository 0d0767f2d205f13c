package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/realtime"
)

func newChatFixture(t *testing.T) (*memStore, *fakePublisher, *ChatService) {
	t.Helper()
	store := newMemStore()
	pub := &fakePublisher{}
	svc := NewChatService(store, store, &fakeUploader{url: "https://cdn.example/pic.png"}, pub)
	n := 0
	svc.idGen = func() string { n++; return "msg-" + strings.Repeat("x", n) }
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { base = base.Add(time.Second); return base }
	return store, pub, svc
}

func TestSendTextAndOrdering(t *testing.T) {
	ctx := context.Background()
	store, pub, svc := newChatFixture(t)
	seedEvent(store, "e1", "alice")

	alice := model.UserRef{ID: "alice", Name: "Alice"}
	if _, err := svc.SendText(ctx, "e1", alice, " first "); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SendText(ctx, "e1", alice, "second"); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs, err := svc.Messages(ctx, "e1", "alice")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "first" || msgs[1].Text != "second" {
		t.Fatalf("expected trimmed, ascending order, got %v", msgs)
	}
	if msgs[0].Type != model.MessageText {
		t.Fatalf("expected text type, got %q", msgs[0].Type)
	}
	if !pub.published(realtime.MessagesTopic("e1")) {
		t.Fatal("send must signal the chat topic")
	}
}

func TestSendTextRejectsEmpty(t *testing.T) {
	store, _, svc := newChatFixture(t)
	seedEvent(store, "e1", "alice")

	if _, err := svc.SendText(context.Background(), "e1", model.UserRef{ID: "alice"}, "   "); err == nil {
		t.Fatal("blank message must be rejected")
	}
}

func TestChatGate(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newChatFixture(t)
	seedEvent(store, "e1", "alice")

	// Creator may chat even with zero participants.
	if _, err := svc.Messages(ctx, "e1", "alice"); err != nil {
		t.Fatalf("creator gate: %v", err)
	}

	// Unrelated user is blocked from reading and writing.
	if _, err := svc.Messages(ctx, "e1", "zed"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.SendText(ctx, "e1", model.UserRef{ID: "zed"}, "hi"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	// A participant gets access after joining.
	ms := NewMembershipService(store, &fakePublisher{})
	if _, err := ms.Join(ctx, "e1", model.UserRef{ID: "bob"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.Messages(ctx, "e1", "bob"); err != nil {
		t.Fatalf("participant gate: %v", err)
	}
}

func TestSendImage(t *testing.T) {
	ctx := context.Background()
	store, pub, svc := newChatFixture(t)
	seedEvent(store, "e1", "alice")

	m, err := svc.SendImage(ctx, "e1", model.UserRef{ID: "alice"}, "pic.png", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("send image: %v", err)
	}
	if m.Type != model.MessageImage {
		t.Fatalf("expected image type, got %q", m.Type)
	}
	if m.ImageURL != "https://cdn.example/pic.png" {
		t.Fatalf("expected hosted url, got %q", m.ImageURL)
	}
	if m.Text != "" {
		t.Fatalf("image message carries no text, got %q", m.Text)
	}
	if !pub.published(realtime.MessagesTopic("e1")) {
		t.Fatal("image send must signal the chat topic")
	}
}

func TestSendImageUploadFailureSendsNothing(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewChatService(store, store, &fakeUploader{err: errors.New("host down")}, &fakePublisher{})
	seedEvent(store, "e1", "alice")

	if _, err := svc.SendImage(ctx, "e1", model.UserRef{ID: "alice"}, "pic.png", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}
	if msgs, _ := store.ListByEvent(ctx, "e1"); len(msgs) != 0 {
		t.Fatalf("failed upload must not append a message, got %v", msgs)
	}
}
