// internal/notify/hub_test.go
package notify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversToSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("alice")
	defer cancel()

	hub.NotifyBalanceChanged("alice", decimal.RequireFromString("2.5"))

	select {
	case ev := <-ch:
		assert.Equal(t, "alice", ev.Username)
		assert.True(t, ev.Balance.Equal(decimal.RequireFromString("2.5")))
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestHub_WildcardSeesAllUsernames(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("")
	defer cancel()

	hub.NotifyBalanceChanged("alice", decimal.NewFromInt(1))
	hub.NotifyBalanceChanged("bob", decimal.NewFromInt(2))

	names := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			names[ev.Username] = true
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
	assert.True(t, names["alice"])
	assert.True(t, names["bob"])
}

func TestHub_OtherUsernamesFiltered(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("alice")
	defer cancel()

	hub.NotifyBalanceChanged("bob", decimal.NewFromInt(1))

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event for %s", ev.Username)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_CancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("alice")

	cancel()
	cancel() // safe to call twice

	_, open := <-ch
	require.False(t, open)

	// Publishing after cancel must not panic or deliver.
	hub.NotifyBalanceChanged("alice", decimal.NewFromInt(1))
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe("alice")
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Overflow the buffer; the publisher must never block.
		for i := 0; i < subscriberBuffer*4; i++ {
			hub.NotifyBalanceChanged("alice", decimal.NewFromInt(int64(i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}
