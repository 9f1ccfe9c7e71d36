// Package push fans the catalog out to connected viewers: every successful
// save is broadcast as a db_updated frame carrying the full document.
package push

import (
	"encoding/json"
	"log"
	"sync"

	"ianua/api/internal/catalog"
)

// Frame is the wire format of a push message.
type Frame struct {
	Event    string           `json:"event"`
	Data     catalog.Document `json:"data"`
	Revision int64            `json:"revision"`
}

const EventDBUpdated = "db_updated"

const clientBuffer = 8

type client struct {
	ch chan []byte
}

// Hub tracks connected clients and broadcasts encoded frames to all of them.
// A client whose buffer is full is dropped instead of blocking the rest.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Register adds a client and returns its receive channel plus an unregister
// func. The channel is closed when the client is dropped or unregistered.
func (h *Hub) Register() (<-chan []byte, func()) {
	c := &client{ch: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unregister := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.ch)
			}
			h.mu.Unlock()
		})
	}
	return c.ch, unregister
}

// Broadcast encodes one frame and delivers it to every client.
func (h *Hub) Broadcast(doc catalog.Document, revision int64) {
	payload, err := json.Marshal(Frame{Event: EventDBUpdated, Data: doc, Revision: revision})
	if err != nil {
		log.Printf("push: encode frame: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.ch <- payload:
		default:
			// Slow consumer; drop it rather than stalling the broadcast.
			delete(h.clients, c)
			close(c.ch)
			log.Printf("push: dropped slow client, %d remaining", len(h.clients))
		}
	}
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
