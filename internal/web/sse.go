package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// eventHub fans page-change notifications out to SSE subscribers keyed by
// page name. Slow clients drop events instead of blocking the writer.
type eventHub struct {
	mu      sync.Mutex
	clients map[string]map[chan []byte]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[string]map[chan []byte]struct{})}
}

func (h *eventHub) add(page string) chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan []byte, 8)
	if _, ok := h.clients[page]; !ok {
		h.clients[page] = make(map[chan []byte]struct{})
	}
	h.clients[page][ch] = struct{}{}
	return ch
}

// remove leaves the channel open: a broadcast snapshot taken before the
// removal may still send to it, and that late event is simply never read.
func (h *eventHub) remove(page string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if chans, ok := h.clients[page]; ok {
		delete(chans, ch)
		if len(chans) == 0 {
			delete(h.clients, page)
		}
	}
}

// broadcast sends to a snapshot of the subscriber set copied under the lock,
// so a concurrent remove cannot mutate the map mid-iteration. The sends stay
// non-blocking outside the lock.
func (h *eventHub) broadcast(page string, data []byte) {
	h.mu.Lock()
	chans := make([]chan []byte, 0, len(h.clients[page]))
	for ch := range h.clients[page] {
		chans = append(chans, ch)
	}
	h.mu.Unlock()
	for _, ch := range chans {
		select {
		case ch <- data:
		default:
		}
	}
}

// notify tells every subscriber of page that it changed. kind is one of
// "put", "delete" or "comment".
func (s *Server) notify(page, kind string) {
	msg, err := json.Marshal(struct {
		Page string `json:"page"`
		Kind string `json:"kind"`
	}{Page: page, Kind: kind})
	if err != nil {
		return
	}
	s.events.broadcast(page, msg)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	page := r.URL.Query().Get("name")
	if page == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := s.events.add(page)
	defer s.events.remove(page, ch)

	fmt.Fprint(w, "event: ready\ndata: ok\n\n")
	flusher.Flush()

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "event: page\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
