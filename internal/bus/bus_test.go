package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case msg := <-sub.C():
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestEmitReachesEverySubscriber(t *testing.T) {
	b := New()
	defer b.Close()

	first := b.Subscribe(TopicOrderUpdate)
	second := b.Subscribe(TopicOrderUpdate)

	b.Emit(TopicOrderUpdate, Event{Type: EventItemCompleted, OrderID: 7, PublicID: "250123001"})

	for _, sub := range []*Subscription{first, second} {
		msg := receive(t, sub)
		assert.Equal(t, TopicOrderUpdate, msg.Topic)
		assert.Equal(t, EventItemCompleted, msg.Event.Type)
		assert.Equal(t, uint(7), msg.Event.OrderID)
	}
}

func TestEmitFiltersByTopic(t *testing.T) {
	b := New()
	defer b.Close()

	board := b.Subscribe(TopicRefreshQueue)
	tracker := b.Subscribe(TopicOrderUpdate)

	b.Emit(TopicRefreshQueue, Event{Type: EventRefresh})

	msg := receive(t, board)
	assert.Equal(t, TopicRefreshQueue, msg.Topic)

	select {
	case msg := <-tracker.C():
		t.Fatalf("tracker should not receive refresh-queue messages, got %+v", msg)
	default:
	}
}

func TestLateSubscriberMissesEarlierEmissions(t *testing.T) {
	b := New()
	defer b.Close()

	b.Emit(TopicOrderUpdate, Event{Type: EventOrderCompleted, OrderID: 1})

	late := b.Subscribe(TopicOrderUpdate)
	select {
	case msg := <-late.C():
		t.Fatalf("late subscriber saw a pre-subscription message: %+v", msg)
	default:
	}
}

func TestEmitNeverBlocksOnFullSubscriber(t *testing.T) {
	b := New()
	b.buffer = 1
	defer b.Close()

	stalled := b.Subscribe(TopicRefreshQueue)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Emit(TopicRefreshQueue, Event{Type: EventRefresh})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full subscriber buffer")
	}

	// The one buffered message is still deliverable.
	msg := receive(t, stalled)
	assert.Equal(t, EventRefresh, msg.Event.Type)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	defer b.Close()

	sub := b.Subscribe(TopicOrderUpdate)
	b.Unsubscribe(sub)

	_, open := <-sub.C()
	assert.False(t, open)
	assert.Equal(t, 0, b.SubscriberCount())

	// A second unsubscribe is a clean no-op.
	b.Unsubscribe(sub)
}

func TestSubscribeAfterClose(t *testing.T) {
	b := New()
	b.Close()

	sub := b.Subscribe(TopicOrderUpdate)
	_, open := <-sub.C()
	require.False(t, open)
}
