package push

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"ianua/api/internal/catalog"
)

const writeTimeout = 10 * time.Second

// Snapshot supplies the current document and revision for the frame sent
// immediately after a client connects.
type Snapshot func() (catalog.Document, int64)

// Handler upgrades GET requests to websocket connections fed by the hub.
func Handler(hub *Hub, snapshot Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Printf("push: accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "closed")

		ctx := r.Context()

		doc, revision := snapshot()
		initial, err := json.Marshal(Frame{Event: EventDBUpdated, Data: doc, Revision: revision})
		if err != nil {
			log.Printf("push: encode snapshot: %v", err)
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, initial); err != nil {
			return
		}

		frames, unregister := hub.Register()
		defer unregister()

		// Clients never send application data; the read loop only notices
		// disconnects.
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				if _, _, err := conn.Read(ctx); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case payload, ok := <-frames:
				if !ok {
					conn.Close(websocket.StatusPolicyViolation, "too slow")
					return
				}
				writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
				err := conn.Write(writeCtx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			case <-readDone:
				conn.Close(websocket.StatusNormalClosure, "bye")
				return
			case <-ctx.Done():
				return
			}
		}
	}
}
