package replication

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milk9111/actionengine/metrics"
	"go.uber.org/zap"
)

const (
	writeWait             = 5 * time.Second
	pongWait              = 30 * time.Second
	pingPeriod            = pongWait * 9 / 10
	DefaultSubscriberSize = 256
)

var ErrHubClosed = errors.New("replication: hub closed")

// Hub fans published messages out to websocket subscribers. Publish never
// blocks: a subscriber whose buffer is full loses the message and the drop
// is counted.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	closed   bool
	upgrader websocket.Upgrader
	buffer   int
	log      *zap.Logger
	metrics  *metrics.Collectors
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	mu   sync.Mutex
	once sync.Once
}

// WriteMessage sends a websocket message guarded by the subscriber's mutex
// and write deadline.
func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	if s == nil || s.conn == nil {
		return errors.New("subscriber closed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

func NewHub(log *zap.Logger, m *metrics.Collectors, buffer int) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = DefaultSubscriberSize
	}
	return &Hub{
		subs:    map[*subscriber]struct{}{},
		buffer:  buffer,
		log:     log.Named("hub"),
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// observers are read-only; any origin may watch
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish encodes msg once and queues it for every subscriber.
func (h *Hub) Publish(msg Message) {
	if h == nil {
		return
	}
	data, err := msg.Encode()
	if err != nil {
		h.log.Warn("encode replication message", zap.Error(err), zap.String("kind", string(msg.Kind)))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			h.metrics.MessageDropped("hub")
		}
	}
}

// Subscribers returns the number of connected observers.
func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request to a websocket and streams messages until
// the peer goes away or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, h.buffer)}
	if err := h.add(sub); err != nil {
		_ = conn.Close()
		return
	}
	h.log.Debug("subscriber joined", zap.String("remote", r.RemoteAddr))

	go h.writeLoop(sub)
	h.readLoop(sub)
}

func (h *Hub) add(sub *subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.subs[sub] = struct{}{}
	return nil
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		sub.close()
	}
	h.mu.Unlock()
}

// readLoop discards inbound frames; it exists to process control frames
// and notice disconnects.
func (h *Hub) readLoop(sub *subscriber) {
	defer func() {
		h.remove(sub)
		_ = sub.conn.Close()
	}()
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-sub.send:
			if !ok {
				_ = sub.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = sub.conn.Close()
				return
			}
		case <-ticker.C:
			if err := sub.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = sub.conn.Close()
				return
			}
		}
	}
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.close()
	}
}
