// Package transport carries handraise messages between clients. Every
// implementation is best effort: Send never blocks on the network, a full
// send buffer drops the message, and nothing is retried.
package transport

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/rise-hand/internal/handraise"
)

var (
	ErrClosed       = errors.New("transport closed")
	ErrBackpressure = errors.New("send buffer full, message dropped")
)

const DefaultSendBuffer = 64

// pump is the part shared by network transports: a bounded outbox drained by
// a writer goroutine and a registered listener fed by a reader goroutine.
type pump struct {
	out  chan []byte
	done chan struct{}
	once sync.Once
	log  *zap.Logger

	mu      sync.RWMutex
	handler func(handraise.Message)
}

func newPump(buffer int, log *zap.Logger) *pump {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &pump{
		out:  make(chan []byte, buffer),
		done: make(chan struct{}),
		log:  log,
	}
}

func (p *pump) Listen(fn func(handraise.Message)) {
	p.mu.Lock()
	p.handler = fn
	p.mu.Unlock()
}

func (p *pump) deliver(m handraise.Message) {
	p.mu.RLock()
	fn := p.handler
	p.mu.RUnlock()
	if fn != nil {
		fn(m)
	}
}

func (p *pump) enqueue(b []byte) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.out <- b:
		return nil
	default:
		return ErrBackpressure
	}
}

func (p *pump) close() {
	p.once.Do(func() { close(p.done) })
}
