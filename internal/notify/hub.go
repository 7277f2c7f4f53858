// internal/notify/hub.go

// Package notify decouples ledger mutations from presentation: the recorder
// and relay publish balance-changed events here, and subscribers (the
// websocket endpoint, tests) observe them. Publishing is fire-and-forget and
// never part of a transactional guarantee.
package notify

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceEvent describes one balance change.
type BalanceEvent struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
	At       time.Time       `json:"at"`
}

const subscriberBuffer = 16

// Hub is a concurrency-safe pub/sub for balance events.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan BalanceEvent]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan BalanceEvent]struct{})}
}

// Subscribe registers interest in balance changes for a username. An empty
// username subscribes to all events. The returned cancel func must be called
// to release the subscription; the channel is closed by cancel.
func (h *Hub) Subscribe(username string) (<-chan BalanceEvent, func()) {
	ch := make(chan BalanceEvent, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[username]
	if !ok {
		set = make(map[chan BalanceEvent]struct{})
		h.subs[username] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[username], ch)
			if len(h.subs[username]) == 0 {
				delete(h.subs, username)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to subscribers of the username and to wildcard
// subscribers. Slow subscribers drop events rather than block the publisher.
func (h *Hub) Publish(ev BalanceEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, key := range []string{ev.Username, ""} {
		for ch := range h.subs[key] {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// NotifyBalanceChanged implements the notifier consumed by the recorder and
// relay.
func (h *Hub) NotifyBalanceChanged(username string, balance decimal.Decimal) {
	h.Publish(BalanceEvent{Username: username, Balance: balance, At: time.Now().UTC()})
}
