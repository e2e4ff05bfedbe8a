package nowplaying

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	greetTimeout   = 10 * time.Second
)

type clientMessage struct {
	Type string `json:"type"`
}

var pongMessage = []byte(`{"type":"pong"}`)

type subscriber struct {
	id    uuid.UUID
	conn  *websocket.Conn
	queue *sendQueue
}

// Broadcaster owns the websocket clients and fans snapshots out to them.
type Broadcaster struct {
	source     SnapshotSource
	sendBuffer int
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	mu          sync.RWMutex
	subscribers map[uuid.UUID]*subscriber
	closed      bool
}

var (
	_ Publisher    = (*Broadcaster)(nil)
	_ http.Handler = (*Broadcaster)(nil)
)

// NewBroadcaster returns a Broadcaster that greets new clients with a
// snapshot from source.
func NewBroadcaster(source SnapshotSource, sendBuffer int, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		source:     source,
		sendBuffer: sendBuffer,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subscribers: make(map[uuid.UUID]*subscriber),
	}
}

// Publish queues a track_change message for every connected client. Clients
// that are closing or not keeping up are skipped.
func (b *Broadcaster) Publish(snap Snapshot) {
	data, err := json.Marshal(snap.TrackChange())
	if err != nil {
		b.logger.Error("failed to encode track change", "err", err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if !sub.queue.Offer(data) {
			metricMessagesDropped.Inc()
			b.logger.Debug("dropped message for client", "id", sub.id)
		}
	}
}

func (b *Broadcaster) subscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// ServeHTTP upgrades the request and serves the client until it goes away.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		b.logger.Debug("websocket upgrade failed", "err", err, "remote", r.RemoteAddr)
		return
	}

	sub := &subscriber{
		id:    uuid.New(),
		conn:  conn,
		queue: newSendQueue(b.sendBuffer),
	}
	if !b.register(sub) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	b.logger.Info("websocket client connected", "id", sub.id, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.writeLoop(sub)
	}()
	go func() {
		defer wg.Done()
		b.greet(ctx, sub)
	}()

	b.readLoop(sub)

	cancel()
	b.unregister(sub)
	wg.Wait()
	_ = conn.Close()

	b.logger.Info("websocket client disconnected", "id", sub.id)
}

// Close disconnects every client. Later connections are refused.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for _, sub := range b.subscribers {
		_ = sub.conn.Close()
	}
}

func (b *Broadcaster) register(sub *subscriber) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.subscribers[sub.id] = sub
	metricSubscribers.Inc()
	return true
}

func (b *Broadcaster) unregister(sub *subscriber) {
	b.mu.Lock()
	if _, ok := b.subscribers[sub.id]; ok {
		delete(b.subscribers, sub.id)
		metricSubscribers.Dec()
	}
	b.mu.Unlock()

	_ = sub.queue.Close()
}

// greet sends the client the current state right after it connects.
func (b *Broadcaster) greet(ctx context.Context, sub *subscriber) {
	ctx, cancel := context.WithTimeout(ctx, greetTimeout)
	defer cancel()

	snap, err := b.source.Snapshot(ctx)
	if err != nil {
		b.logger.Warn("failed to build snapshot for new client", "id", sub.id, "err", err)
		return
	}

	data, err := json.Marshal(snap.TrackChange())
	if err != nil {
		b.logger.Error("failed to encode track change", "err", err)
		return
	}
	sub.queue.Offer(data)
}

// writeLoop is the only writer of data frames on the connection.
func (b *Broadcaster) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.queue.ch:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				b.logger.Debug("websocket write failed", "id", sub.id, "err", err)
				_ = sub.conn.Close()
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = sub.conn.Close()
				return
			}
		}
	}
}

func (b *Broadcaster) readLoop(sub *subscriber) {
	sub.conn.SetReadLimit(maxMessageSize)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := sub.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				b.logger.Debug("websocket read failed", "id", sub.id, "err", err)
			}
			return
		}
		_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Warn("ignoring malformed websocket message", "id", sub.id, "err", err)
			continue
		}

		switch msg.Type {
		case "ping":
			sub.queue.Offer(pongMessage)
		default:
			b.logger.Debug("ignoring websocket message", "id", sub.id, "type", msg.Type)
		}
	}
}
