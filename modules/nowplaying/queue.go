package nowplaying

import "sync"

// sendQueue is the outbound buffer of one websocket client. Offer never
// blocks; Close is idempotent and safe to race with Offer.
type sendQueue struct {
	sync.Mutex
	ch     chan []byte
	closed bool
}

func newSendQueue(size int) *sendQueue {
	if size <= 0 {
		size = defaultSendBuffer
	}
	return &sendQueue{
		ch: make(chan []byte, size),
	}
}

// Offer queues p and reports whether it was accepted. A closed or full queue
// rejects it.
func (q *sendQueue) Offer(p []byte) bool {
	q.Lock()
	defer q.Unlock()

	if q.closed {
		return false
	}

	select {
	case q.ch <- p:
		return true
	default:
		return false
	}
}

func (q *sendQueue) Close() error {
	q.Lock()
	defer q.Unlock()

	if !q.closed {
		close(q.ch)
		q.closed = true
	}

	return nil
}
