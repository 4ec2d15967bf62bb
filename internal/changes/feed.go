// Package changes streams notebook changes to HTTP clients as Server-Sent
// Events.
package changes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event names sent on the stream.
const (
	EventNotePrefix = "note."
	EventIndexStale = "index.stale"
)

// StaleHint is the payload of an index.stale event.
const StaleHint = "notes were added or removed; run `ngt ls` or `ngt search <term>` to rebuild the display index"

// Event is one message on the stream.
type Event struct {
	Name    string
	Payload any
}

// Change is the payload of a note.* event.
type Change struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Feed fans events out to connected listeners.
//
// One goroutine owns the listener set and the stale-hint timestamp; the
// exported methods talk to it over channels.
type Feed struct {
	staleEvery time.Duration

	joinCh  chan chan []byte
	leaveCh chan chan []byte
	sendCh  chan Event
	noteCh  chan Change
	countCh chan chan int

	quit   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// NewFeed starts a feed. index.stale is sent at most once per staleEvery.
func NewFeed(staleEvery time.Duration) *Feed {
	if staleEvery <= 0 {
		staleEvery = 2 * time.Second
	}
	f := &Feed{
		staleEvery: staleEvery,
		joinCh:     make(chan chan []byte),
		leaveCh:    make(chan chan []byte),
		sendCh:     make(chan Event, 256),
		noteCh:     make(chan Change, 256),
		countCh:    make(chan chan int),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go f.loop()
	return f
}

// frame encodes ev in the text/event-stream format.
func frame(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Name, payload)), nil
}

func (f *Feed) loop() {
	defer close(f.done)

	listeners := make(map[chan []byte]struct{})
	var lastStale time.Time

	fanOut := func(ev Event) {
		msg, err := frame(ev)
		if err != nil {
			return
		}
		for ch := range listeners {
			select {
			case ch <- msg:
			default:
				// slow listener, drop
			}
		}
	}

	for {
		select {
		case <-f.quit:
			for ch := range listeners {
				close(ch)
			}
			return

		case ch := <-f.joinCh:
			listeners[ch] = struct{}{}

		case ch := <-f.leaveCh:
			if _, ok := listeners[ch]; ok {
				delete(listeners, ch)
				close(ch)
			}

		case ev := <-f.sendCh:
			fanOut(ev)

		case c := <-f.noteCh:
			fanOut(Event{Name: EventNotePrefix + c.Kind, Payload: c})

			// Edits keep every key valid; only additions and removals shift
			// a listing.
			if c.Kind == "updated" {
				continue
			}
			if now := time.Now(); now.Sub(lastStale) >= f.staleEvery {
				lastStale = now
				fanOut(Event{Name: EventIndexStale, Payload: map[string]string{"hint": StaleHint}})
			}

		case resp := <-f.countCh:
			resp <- len(listeners)
		}
	}
}

// Close stops the feed and closes every listener channel.
func (f *Feed) Close() {
	if f.closed.CompareAndSwap(false, true) {
		close(f.quit)
	}
	<-f.done
}

// Listen registers a listener. The channel is closed by Leave or Close.
func (f *Feed) Listen() chan []byte {
	ch := make(chan []byte, 64)
	if f.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case f.joinCh <- ch:
	case <-f.done:
		close(ch)
	}
	return ch
}

// Leave unregisters ch and closes it.
func (f *Feed) Leave(ch chan []byte) {
	if f.closed.Load() {
		return
	}
	select {
	case f.leaveCh <- ch:
	case <-f.done:
	}
}

// Listeners returns the number of registered listeners.
func (f *Feed) Listeners() int {
	if f.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case f.countCh <- resp:
	case <-f.done:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-f.done:
		return 0
	}
}

// Send broadcasts ev to every listener.
func (f *Feed) Send(ev Event) {
	if f.closed.Load() {
		return
	}
	select {
	case f.sendCh <- ev:
	case <-f.done:
	}
}

// Notify broadcasts a note change. It matches catalog.EventCallback.
func (f *Feed) Notify(kind, path string) {
	if f.closed.Load() {
		return
	}
	select {
	case f.noteCh <- Change{Kind: kind, Path: path}:
	case <-f.done:
	}
}

// ServeHTTP streams events to the client until it disconnects or the feed
// closes.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := f.Listen()
	defer f.Leave(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
