package controller

import (
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"

	"caresite/notify"
)

// WSEvent is the envelope for everything pushed to dashboard clients:
// collection-changed signals and simulated upload progress.
type WSEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// EventHub fans events out to every connected dashboard. Clients react
// to a collection-changed event by re-fetching that collection; the
// event intentionally carries nothing else.
type EventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	logger  *log.Logger

	planSub  *notify.Subscription
	mediaSub *notify.Subscription
}

func NewEventHub(broker *notify.Broker, logger *log.Logger) *EventHub {
	return &EventHub{
		clients:  make(map[*websocket.Conn]bool),
		logger:   logger,
		planSub:  broker.Subscribe(notify.CollectionPlans),
		mediaSub: broker.Subscribe(notify.CollectionMedia),
	}
}

// Run forwards broker events to the connected clients until both
// subscriptions are gone. Intended to run in its own goroutine.
func (h *EventHub) Run() {
	var wg sync.WaitGroup
	for _, sub := range []*notify.Subscription{h.planSub, h.mediaSub} {
		wg.Add(1)
		go func(sub *notify.Subscription) {
			defer wg.Done()
			for ev := range sub.C {
				h.Broadcast(WSEvent{
					Type: "collection-changed",
					Data: ev,
				})
			}
		}(sub)
	}
	wg.Wait()
}

// Stop detaches the hub from the change feeds.
func (h *EventHub) Stop() {
	h.planSub.Unsubscribe()
	h.mediaSub.Unsubscribe()
}

// Broadcast writes an event to every client; a client that cannot be
// written to is dropped.
func (h *EventHub) Broadcast(ev WSEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Printf("dropping websocket client: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// HandleEventsWS is the websocket handler for /ws/events. It registers
// the connection and blocks reading until the client goes away.
func (h *EventHub) HandleEventsWS(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Println("websocket client registered")

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.Close()
		h.logger.Println("websocket client unregistered")
	}()

	for {
		// Clients only listen; reads just detect disconnects.
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
