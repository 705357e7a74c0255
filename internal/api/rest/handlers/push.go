package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) snapshot() modeldto.PushMessage {
	return modeldto.PushMessage{
		Type: "queue_update",
		Data: h.queue.Status(time.Now()),
	}
}

// HandleQueueEvents streams queue updates over SSE. Each subscriber gets an
// initial snapshot followed by one event per queue state change.
func (h *Handler) HandleQueueEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming is not supported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		sub := h.broker.Subscribe()
		defer h.broker.Unsubscribe(sub)
		writeEvent := func(msg modeldto.PushMessage) bool {
			payload, err := json.Marshal(msg)
			if err != nil {
				h.log.Error().Err(err).Msg("could not serialize push message")
				return false
			}
			_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
			if err != nil {
				return false
			}
			flusher.Flush()
			return true
		}
		if !writeEvent(h.snapshot()) {
			return
		}
		for {
			select {
			case <-r.Context().Done():
				return
			case msg, chanOk := <-sub:
				if !chanOk {
					return
				}
				if !writeEvent(msg) {
					return
				}
			}
		}
	}
}

// HandleWebSocket streams queue updates over a websocket connection.
func (h *Handler) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()
		sub := h.broker.Subscribe()
		defer h.broker.Unsubscribe(sub)
		// reader loop detects client-side closure
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				_, _, readErr := conn.ReadMessage()
				if readErr != nil {
					return
				}
			}
		}()
		err = conn.WriteJSON(h.snapshot())
		if err != nil {
			return
		}
		for {
			select {
			case <-r.Context().Done():
				return
			case <-closed:
				return
			case msg, chanOk := <-sub:
				if !chanOk {
					return
				}
				err = conn.WriteJSON(msg)
				if err != nil {
					return
				}
			}
		}
	}
}
