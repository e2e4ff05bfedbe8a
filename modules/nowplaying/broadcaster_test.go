package nowplaying

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroadcaster(t *testing.T, source SnapshotSource) (*Broadcaster, string) {
	t.Helper()

	b := NewBroadcaster(source, 4, testLogger())
	srv := httptest.NewServer(b)
	t.Cleanup(func() {
		b.Close()
		srv.Close()
	})

	return b, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// noSnapshot fails every call, so clients are not greeted.
func noSnapshot() *scriptedSource {
	return &scriptedSource{}
}

func TestBroadcaster_GreetsNewClient(t *testing.T) {
	src := &scriptedSource{snaps: []Snapshot{snapOf(track("Daft Punk", "Aerodynamic"))}}
	_, url := newTestBroadcaster(t, src)

	conn := dialWS(t, url)
	msg := readJSON(t, conn)

	assert.Equal(t, "track_change", msg["type"])
	require.IsType(t, map[string]any{}, msg["track"])
	assert.Equal(t, "Aerodynamic", msg["track"].(map[string]any)["title"])
	assert.Equal(t, "2024-05-01T12:00:00.000Z", msg["timestamp"])
}

func TestBroadcaster_GreetsIdleClient(t *testing.T) {
	src := &scriptedSource{snaps: []Snapshot{snapOf(nil)}}
	_, url := newTestBroadcaster(t, src)

	msg := readJSON(t, dialWS(t, url))
	assert.Equal(t, "track_change", msg["type"])
	assert.Nil(t, msg["track"])
}

func TestBroadcaster_PublishFansOut(t *testing.T) {
	b, url := newTestBroadcaster(t, noSnapshot())

	first := dialWS(t, url)
	second := dialWS(t, url)
	require.Eventually(t, func() bool { return b.subscriberCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	b.Publish(snapOf(track("Justice", "Genesis")))

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readJSON(t, conn)
		assert.Equal(t, "track_change", msg["type"])
		assert.Equal(t, "Genesis", msg["track"].(map[string]any)["title"])
	}
}

func TestBroadcaster_PingPong(t *testing.T) {
	b, url := newTestBroadcaster(t, noSnapshot())
	conn := dialWS(t, url)
	require.Eventually(t, func() bool { return b.subscriberCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, map[string]any{"type": "pong"}, readJSON(t, conn))
}

func TestBroadcaster_MalformedMessageKeepsConnection(t *testing.T) {
	b, url := newTestBroadcaster(t, noSnapshot())
	conn := dialWS(t, url)
	require.Eventually(t, func() bool { return b.subscriberCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	assert.Equal(t, map[string]any{"type": "pong"}, readJSON(t, conn))
	assert.Equal(t, 1, b.subscriberCount())
}

func TestBroadcaster_ClientDisconnect(t *testing.T) {
	b, url := newTestBroadcaster(t, noSnapshot())
	conn := dialWS(t, url)
	require.Eventually(t, func() bool { return b.subscriberCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	_ = conn.Close()

	require.Eventually(t, func() bool { return b.subscriberCount() == 0 }, 2*time.Second, 5*time.Millisecond)

	// Publishing with nobody connected is a no-op.
	b.Publish(snapOf(track("A", "B")))
}

func TestBroadcaster_Close(t *testing.T) {
	b, url := newTestBroadcaster(t, noSnapshot())
	conn := dialWS(t, url)
	require.Eventually(t, func() bool { return b.subscriberCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	b.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	require.Eventually(t, func() bool { return b.subscriberCount() == 0 }, 2*time.Second, 5*time.Millisecond)

	// New clients are turned away.
	late := dialWS(t, url)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestSendQueue(t *testing.T) {
	q := newSendQueue(2)

	assert.True(t, q.Offer([]byte("a")))
	assert.True(t, q.Offer([]byte("b")))
	assert.False(t, q.Offer([]byte("c")), "full queue rejects")

	assert.Equal(t, []byte("a"), <-q.ch)
	assert.True(t, q.Offer([]byte("c")))

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	assert.False(t, q.Offer([]byte("d")), "closed queue rejects")

	var drained []string
	for msg := range q.ch {
		drained = append(drained, string(msg))
	}
	assert.Equal(t, []string{"b", "c"}, drained)
}
