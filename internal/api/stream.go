package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleEvents streams refresh hints as server-sent events. The stream
// carries cache-invalidation nudges only; a client reacts by refetching
// the named entity, never by trusting the hint's contents.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream is not configured")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	hints, cancel := s.hub.Subscribe()
	defer cancel()

	// Heartbeat comments keep intermediaries from closing idle streams.
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case hint, open := <-hints:
			if !open {
				return
			}
			data, err := json.Marshal(hint)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: refresh\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
