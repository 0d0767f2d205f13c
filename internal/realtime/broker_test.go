package realtime

import "testing"

func TestPublishReachesSubscriber(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(TopicEvents)
	defer sub.Close()

	b.Publish(TopicEvents)

	select {
	case <-sub.C:
	default:
		t.Fatal("expected a pending signal after publish")
	}
}

func TestPublishCoalesces(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(TopicEvents)
	defer sub.Close()

	b.Publish(TopicEvents)
	b.Publish(TopicEvents)
	b.Publish(TopicEvents)

	<-sub.C
	select {
	case <-sub.C:
		t.Fatal("multiple publishes must coalesce into one pending signal")
	default:
	}
}

func TestTopicsAreIndependent(t *testing.T) {
	b := NewBroker()
	events := b.Subscribe(TopicEvents)
	defer events.Close()
	chat := b.Subscribe(MessagesTopic("ev-1"))
	defer chat.Close()

	b.Publish(MessagesTopic("ev-1"))

	select {
	case <-events.C:
		t.Fatal("events subscriber must not see chat signals")
	default:
	}
	select {
	case <-chat.C:
	default:
		t.Fatal("chat subscriber should have a signal")
	}
}

func TestPublishAfterCloseIsDiscarded(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(TopicEvents)
	sub.Close()
	sub.Close() // idempotent

	b.Publish(TopicEvents)

	select {
	case <-sub.C:
		t.Fatal("closed subscription must not receive signals")
	default:
	}
}

func TestCloseRemovesEmptyTopic(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("events/ev-9/messages")
	sub.Close()

	b.mu.RLock()
	_, ok := b.topics["events/ev-9/messages"]
	b.mu.RUnlock()
	if ok {
		t.Fatal("topic with no subscribers should be dropped")
	}
}
