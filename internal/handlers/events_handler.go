package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"nauczsie/internal/models"
)

const (
	eventBufferSize   = 16
	keepAliveInterval = 25 * time.Second
)

// Events streams session transitions to the browser as Server-Sent Events.
// The current state is sent first.
func (h *AuthHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming unsupported", "", nil)
		return
	}

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	changes := make(chan models.AuthStateChange, eventBufferSize)
	unsubscribe := h.authService.Subscribe(func(change models.AuthStateChange) {
		// Delivery is synchronous, so a slow browser must never block it.
		select {
		case changes <- change:
		default:
			log.Printf("Dropping auth event for slow event stream")
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeAuthEvent(w, h.currentState()); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case change := <-changes:
			if err := writeAuthEvent(w, change); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeAuthEvent(w http.ResponseWriter, change models.AuthStateChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: auth\ndata: %s\n\n", data)
	return err
}
