package transport

import (
	"sync"

	"github.com/DoyleJ11/rise-hand/internal/handraise"
)

// Bus is an in-process broadcast channel. Delivery is synchronous on the
// sender's goroutine, which keeps multi-client tests deterministic.
type Bus struct {
	mu    sync.Mutex
	peers []*MemoryEndpoint
}

func NewBus() *Bus { return &Bus{} }

type MemoryEndpoint struct {
	bus *Bus

	mu      sync.RWMutex
	handler func(handraise.Message)
	left    bool
}

func (b *Bus) Join() *MemoryEndpoint {
	e := &MemoryEndpoint{bus: b}
	b.mu.Lock()
	b.peers = append(b.peers, e)
	b.mu.Unlock()
	return e
}

func (e *MemoryEndpoint) Send(m handraise.Message) error {
	e.mu.RLock()
	left := e.left
	e.mu.RUnlock()
	if left {
		return ErrClosed
	}

	e.bus.mu.Lock()
	peers := make([]*MemoryEndpoint, 0, len(e.bus.peers))
	for _, p := range e.bus.peers {
		if p != e {
			peers = append(peers, p)
		}
	}
	e.bus.mu.Unlock()

	for _, p := range peers {
		p.mu.RLock()
		fn := p.handler
		p.mu.RUnlock()
		if fn != nil {
			fn(m)
		}
	}
	return nil
}

func (e *MemoryEndpoint) Listen(fn func(handraise.Message)) {
	e.mu.Lock()
	e.handler = fn
	e.mu.Unlock()
}

// Leave detaches the endpoint; later sends fail with ErrClosed.
func (e *MemoryEndpoint) Leave() {
	e.mu.Lock()
	e.left = true
	e.mu.Unlock()

	e.bus.mu.Lock()
	defer e.bus.mu.Unlock()
	for i, p := range e.bus.peers {
		if p == e {
			e.bus.peers = append(e.bus.peers[:i], e.bus.peers[i+1:]...)
			return
		}
	}
}
