package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ardentia/internal/domain"
)

// subscriber buffer size; a subscriber that falls further behind than this
// loses events rather than stalling the settlement path.
const subscriberBuffer = 16

// Hub is the in-process event bus bridging the core to streaming clients.
// Subscriptions are explicit: Subscribe returns the channel and a cancel
// function, and nothing is torn down implicitly. Publishing is non-blocking.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	priceSubs map[int]chan domain.PriceEvent
	posSubs   map[uuid.UUID]map[int]chan domain.PositionEvent
	log       zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		priceSubs: make(map[int]chan domain.PriceEvent),
		posSubs:   make(map[uuid.UUID]map[int]chan domain.PositionEvent),
		log:       log.With().Str("component", "event_hub").Logger(),
	}
}

// SubscribePrices registers for all price ticks. The returned cancel
// function unregisters the subscription and closes the channel; calling it
// more than once is safe.
func (h *Hub) SubscribePrices() (<-chan domain.PriceEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan domain.PriceEvent, subscriberBuffer)
	h.priceSubs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.priceSubs, id)
			close(ch)
		})
	}

	return ch, cancel
}

// SubscribePositions registers for position change events belonging to one
// owner. Cancellation is a single explicit call, matching the core's
// subscription contract.
func (h *Hub) SubscribePositions(ownerID uuid.UUID) (<-chan domain.PositionEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan domain.PositionEvent, subscriberBuffer)
	if h.posSubs[ownerID] == nil {
		h.posSubs[ownerID] = make(map[int]chan domain.PositionEvent)
	}
	h.posSubs[ownerID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.posSubs[ownerID], id)
			if len(h.posSubs[ownerID]) == 0 {
				delete(h.posSubs, ownerID)
			}
			close(ch)
		})
	}

	return ch, cancel
}

// PublishPrice fans a price event out to all price subscribers without
// blocking; slow subscribers drop events.
func (h *Hub) PublishPrice(event domain.PriceEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.priceSubs {
		select {
		case ch <- event:
		default:
			h.log.Debug().Str("symbol", event.Symbol).Msg("price subscriber lagging, event dropped")
		}
	}
}

// PublishPosition fans a position event out to the owner's subscribers
// without blocking.
func (h *Hub) PublishPosition(ownerID uuid.UUID, event domain.PositionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.posSubs[ownerID] {
		select {
		case ch <- event:
		default:
			h.log.Debug().Str("owner_id", ownerID.String()).Msg("position subscriber lagging, event dropped")
		}
	}
}
