package web

import (
	"sync"
	"testing"
)

func TestEventHubDeliversToSubscribers(t *testing.T) {
	h := newEventHub()
	a := h.add("p")
	b := h.add("p")
	other := h.add("q")

	h.broadcast("p", []byte("hi"))

	for _, ch := range []chan []byte{a, b} {
		select {
		case msg := <-ch:
			if string(msg) != "hi" {
				t.Fatalf("expected hi, got %q", msg)
			}
		default:
			t.Fatalf("expected subscriber to receive the event")
		}
	}
	select {
	case msg := <-other:
		t.Fatalf("expected no cross-page delivery, got %q", msg)
	default:
	}
}

func TestEventHubRemoveStopsDelivery(t *testing.T) {
	h := newEventHub()
	gone := h.add("p")
	stays := h.add("p")
	h.remove("p", gone)

	h.broadcast("p", []byte("hi"))

	select {
	case <-stays:
	default:
		t.Fatalf("expected remaining subscriber to receive")
	}
	select {
	case msg := <-gone:
		t.Fatalf("expected nothing after remove, got %q", msg)
	default:
	}
}

func TestEventHubFullSubscriberDropsEvents(t *testing.T) {
	h := newEventHub()
	ch := h.add("p")

	for i := 0; i < cap(ch)+3; i++ {
		h.broadcast("p", []byte("x"))
	}
	if len(ch) != cap(ch) {
		t.Fatalf("expected buffer full at %d, got %d", cap(ch), len(ch))
	}
}

func TestEventHubBroadcastDuringChurn(t *testing.T) {
	h := newEventHub()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				ch := h.add("p")
				h.remove("p", ch)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				h.broadcast("p", []byte("x"))
			}
		}()
	}
	wg.Wait()
}
