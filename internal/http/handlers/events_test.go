package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"shopfront/internal/cart"
)

func TestStreamViewsWritesEvents(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	updates := make(chan cart.View, 2)
	updates <- cart.View{Count: 2, Subtotal: 39.98, Items: []cart.LineItem{{ProductID: "p-lamp", Name: "Desk Lamp", UnitPrice: 19.99, Quantity: 2}}}
	updates <- cart.View{}
	close(updates)

	if err := streamViews(w, cart.View{}, updates, nil, nil); err != nil {
		t.Fatalf("stream: %v", err)
	}

	chunks := strings.Split(strings.TrimSuffix(buf.String(), "\n\n"), "\n\n")
	if len(chunks) != 3 {
		t.Fatalf("expected 3 events, got %d: %q", len(chunks), buf.String())
	}
	for _, ch := range chunks {
		if !strings.HasPrefix(ch, "event: cart\ndata: ") {
			t.Fatalf("malformed event %q", ch)
		}
	}
	var v cart.View
	if err := json.Unmarshal([]byte(strings.TrimPrefix(chunks[1], "event: cart\ndata: ")), &v); err != nil {
		t.Fatal(err)
	}
	if v.Count != 2 || v.Items[0].ProductID != "p-lamp" {
		t.Fatalf("unexpected payload %+v", v)
	}
}

func TestStreamViewsHeartbeat(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	updates := make(chan cart.View)
	beat := make(chan time.Time, 1)
	beat <- time.Now()

	done := make(chan error, 1)
	go func() { done <- streamViews(w, cart.View{}, updates, beat, nil) }()

	// The ping is flushed before the stream sees the close.
	deadline := time.After(2 * time.Second)
	for len(beat) > 0 {
		select {
		case <-deadline:
			t.Fatal("heartbeat never consumed")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(updates)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), ": ping\n\n") {
		t.Fatalf("heartbeat missing: %q", buf.String())
	}
}

func TestStreamViewsFollowsStore(t *testing.T) {
	store := cart.Open(t.Context(), nil)
	defer store.Close()

	updates := make(chan cart.View, 4)
	cancel := store.Subscribe(func(v cart.View) { updates <- v })
	if err := store.AddItem(t.Context(), cart.Product{ProductID: "p-book", Name: "Go Book", UnitPrice: 39.5}, 1); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(t.Context()); err != nil {
		t.Fatal(err)
	}
	cancel()
	close(updates)

	var buf bytes.Buffer
	if err := streamViews(bufio.NewWriter(&buf), store.View(), updates, nil, nil); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "event: cart"); n != 3 {
		t.Fatalf("expected 3 events, got %d", n)
	}
	if !strings.Contains(buf.String(), `"productId":"p-book"`) {
		t.Fatalf("add event missing: %q", buf.String())
	}
}

func TestStreamViewsEndsWhenStoreCloses(t *testing.T) {
	store := cart.Open(t.Context(), nil)
	updates := make(chan cart.View)

	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- streamViews(bufio.NewWriter(&buf), store.View(), updates, nil, store.Done()) }()

	store.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream kept running after the store closed")
	}
	if n := strings.Count(buf.String(), "event: cart"); n != 1 {
		t.Fatalf("expected only the first event, got %d", n)
	}
}
