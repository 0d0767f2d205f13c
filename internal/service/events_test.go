package service

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/woramet12/fitnu/internal/model"
	"github.com/woramet12/fitnu/internal/realtime"
)

func newEventFixture() (*memStore, *fakePublisher, *EventService) {
	store := newMemStore()
	pub := &fakePublisher{}
	svc := NewEventService(store, pub)
	n := 0
	svc.idGen = func() string { n++; return "ev-" + string(rune('a'+n-1)) }
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { base = base.Add(time.Minute); return base }
	return store, pub, svc
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	store, pub, svc := newEventFixture()

	e, err := svc.Create(ctx, model.UserRef{ID: "alice", Name: "Alice"}, model.CreateEventRequest{
		Title:       " วิ่งรอบสนาม ",
		Description: "วิ่งออกกำลังกายรอบสนามฟุตบอล",
		Date:        "2026-03-20",
		Time:        "17:00",
		Location:    "สนามกีฬา",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Title != "วิ่งรอบสนาม" {
		t.Fatalf("expected trimmed title, got %q", e.Title)
	}
	if e.Creator.ID != "alice" {
		t.Fatalf("expected creator snapshot, got %v", e.Creator)
	}
	if len(e.Participants) != 0 {
		t.Fatal("new event starts with an empty participant set")
	}
	if !slices.Contains(e.Tokens, "วิ่งรอบสนาม") || !slices.Contains(e.Tokens, "สนามกีฬา") {
		t.Fatalf("expected derived tokens, got %v", e.Tokens)
	}
	if _, err := store.GetByID(ctx, e.ID); err != nil {
		t.Fatalf("event must be persisted: %v", err)
	}
	if !pub.published(realtime.TopicEvents) {
		t.Fatal("create must signal the event list")
	}
}

func TestCreateEventValidation(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newEventFixture()

	if _, err := svc.Create(ctx, model.UserRef{}, model.CreateEventRequest{}); err == nil {
		t.Fatal("missing creator must be rejected")
	}
	if _, err := svc.Create(ctx, model.UserRef{ID: "alice"}, model.CreateEventRequest{
		Title: "x", Description: " ", Date: "d", Time: "t", Location: "l",
	}); err == nil {
		t.Fatal("blank field must be rejected")
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newEventFixture()
	creator := model.UserRef{ID: "alice"}

	first, _ := svc.Create(ctx, creator, model.CreateEventRequest{
		Title: "first", Description: "d", Date: "d", Time: "t", Location: "l"})
	second, _ := svc.Create(ctx, creator, model.CreateEventRequest{
		Title: "second", Description: "d", Date: "d", Time: "t", Location: "l"})

	events, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != second.ID || events[1].ID != first.ID {
		t.Fatalf("expected newest first, got %v then %v", events[0].ID, events[1].ID)
	}
}

func TestSearchByKeyword(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newEventFixture()
	creator := model.UserRef{ID: "alice"}

	run, _ := svc.Create(ctx, creator, model.CreateEventRequest{
		Title: "วิ่งรอบสนาม", Description: "ออกกำลังกาย", Date: "d", Time: "t", Location: "สนามกีฬา"})
	_, _ = svc.Create(ctx, creator, model.CreateEventRequest{
		Title: "เตะฟุตบอล", Description: "รวมทีม", Date: "d", Time: "t", Location: "สนามหญ้า"})

	got, err := svc.Search(ctx, "วิ่งรอบสนาม")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != run.ID {
		t.Fatalf("expected only the running event, got %v", got)
	}

	// A query that normalizes to nothing matches nothing.
	got, err = svc.Search(ctx, "!!!")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestListCreatedBy(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newEventFixture()
	alice := model.UserRef{ID: "alice"}
	bob := model.UserRef{ID: "bob"}

	first, _ := svc.Create(ctx, alice, model.CreateEventRequest{
		Title: "first", Description: "d", Date: "d", Time: "t", Location: "l"})
	second, _ := svc.Create(ctx, alice, model.CreateEventRequest{
		Title: "second", Description: "d", Date: "d", Time: "t", Location: "l"})
	_, _ = svc.Create(ctx, bob, model.CreateEventRequest{
		Title: "other", Description: "d", Date: "d", Time: "t", Location: "l"})

	got, err := svc.ListCreatedBy(ctx, "alice")
	if err != nil {
		t.Fatalf("list created: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected only alice's events, got %v", got)
	}
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("expected newest first, got %v then %v", got[0].ID, got[1].ID)
	}
}

func TestListMineUnion(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newEventFixture()
	alice := model.UserRef{ID: "alice"}
	bob := model.UserRef{ID: "bob"}

	mine, _ := svc.Create(ctx, alice, model.CreateEventRequest{
		Title: "mine", Description: "d", Date: "d", Time: "t", Location: "l"})
	other, _ := svc.Create(ctx, bob, model.CreateEventRequest{
		Title: "joined", Description: "d", Date: "d", Time: "t", Location: "l"})
	_, _ = svc.Create(ctx, bob, model.CreateEventRequest{
		Title: "unrelated", Description: "d", Date: "d", Time: "t", Location: "l"})

	ms := NewMembershipService(store, &fakePublisher{})
	if _, err := ms.Join(ctx, other.ID, alice); err != nil {
		t.Fatalf("join: %v", err)
	}

	got, err := svc.ListMine(ctx, "alice")
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected created+joined union, got %v", got)
	}
	if got[0].ID != other.ID || got[1].ID != mine.ID {
		t.Fatalf("expected newest first, got %v then %v", got[0].ID, got[1].ID)
	}
}
