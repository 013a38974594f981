// CLAUDE:SUMMARY Per-session WebSocket UI feed: subscriber hub with non-blocking broadcast.
package editor

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Feed fans session events out to WebSocket subscribers. Broadcast never
// blocks an edit: a subscriber whose buffer is full loses the event, which
// the UI tolerates by re-reading session state on reconnect.
type Feed struct {
	logger *slog.Logger
	buffer int

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

// NewFeed creates a feed with the given per-subscriber buffer.
func NewFeed(buffer int, logger *slog.Logger) *Feed {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		logger: logger,
		buffer: buffer,
		subs:   make(map[chan []byte]struct{}),
	}
}

// Subscribe registers a new subscriber channel.
func (f *Feed) Subscribe() chan []byte {
	ch := make(chan []byte, f.buffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (f *Feed) Unsubscribe(ch chan []byte) {
	f.mu.Lock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
	f.mu.Unlock()
}

// Broadcast marshals the event once and hands it to every subscriber.
func (f *Feed) Broadcast(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		f.logger.Warn("feed: marshal event", "type", evt.Type, "error", err)
		return
	}
	f.mu.Lock()
	for ch := range f.subs {
		select {
		case ch <- data:
		default:
			f.logger.Debug("feed: subscriber full, event dropped", "type", evt.Type)
		}
	}
	f.mu.Unlock()
}

// Close drops every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	for ch := range f.subs {
		delete(f.subs, ch)
		close(ch)
	}
	f.mu.Unlock()
}

// ServeWS upgrades the request and streams feed events until the client
// goes away. The read side only watches for close; clients talk to the
// editor through the HTTP API, not the feed.
func (f *Feed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("feed: websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	ch := f.Subscribe()
	defer f.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					f.logger.Debug("feed: websocket read", "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
