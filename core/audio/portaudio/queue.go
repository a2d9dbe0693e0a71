package portaudio

import (
	"context"
	"sync"
)

// pcmQueue hands queued playback audio to the writer one buffer at a time.
type pcmQueue struct {
	mu      sync.Mutex
	pending []byte
	ready   chan struct{}
}

func (q *pcmQueue) signal() chan struct{} {
	if q.ready == nil {
		q.ready = make(chan struct{}, 1)
	}
	return q.ready
}

func (q *pcmQueue) write(audio []byte) {
	q.mu.Lock()
	q.pending = append(q.pending, audio...)
	ready := q.signal()
	q.mu.Unlock()

	select {
	case ready <- struct{}{}:
	default:
	}
}

// next blocks until audio is queued and fills frame with it, padding with
// silence. It returns false once ctx is done.
func (q *pcmQueue) next(ctx context.Context, frame []byte) bool {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			n := copy(frame, q.pending)
			clear(frame[n:])
			q.pending = q.pending[n:]
			q.mu.Unlock()
			return true
		}
		ready := q.signal()
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return false
		case <-ready:
		}
	}
}

func (q *pcmQueue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
}
