// Package session runs a handraise.Manager on a single goroutine. Local
// commands and messages arriving from the transport both go through one
// inbox, so the Manager never sees concurrent calls.
package session

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/DoyleJ11/rise-hand/internal/handraise"
)

var ErrStopped = errors.New("session stopped")

const DefaultInbox = 64

type Msg interface{ isSessionMsg() }

type Raise struct {
	Priority handraise.Priority
	Reply    chan error
}

type Lower struct {
	Reply chan error
}

type GiveWord struct {
	UserID string
	Reply  chan error
}

type Remove struct {
	UserID string
	Reply  chan error
}

type Clear struct {
	Reply chan error
}

type GetQueue struct {
	Reply chan []handraise.Request
}

// GetPosition replies with the 1-based position of UserID, or -1.
type GetPosition struct {
	UserID string
	Reply  chan int
}

// FromPeer carries a message received from another client.
type FromPeer struct {
	Message handraise.Message
}

type Shutdown struct{}

func (Raise) isSessionMsg()       {}
func (Lower) isSessionMsg()       {}
func (GiveWord) isSessionMsg()    {}
func (Remove) isSessionMsg()      {}
func (Clear) isSessionMsg()       {}
func (GetQueue) isSessionMsg()    {}
func (GetPosition) isSessionMsg() {}
func (FromPeer) isSessionMsg()    {}
func (Shutdown) isSessionMsg()    {}

type Options struct {
	// Transport, when set, has its listener pointed at this session.
	Transport handraise.Transport
	Logger    *zap.Logger
	InboxSize int
}

type Session struct {
	mgr     *handraise.Manager
	inbox   chan Msg
	dropped atomic.Int64
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, mgr *handraise.Manager, opts Options) *Session {
	ctx, cancel := context.WithCancel(parent)
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	size := opts.InboxSize
	if size <= 0 {
		size = DefaultInbox
	}
	s := &Session{
		mgr:    mgr,
		inbox:  make(chan Msg, size),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	if opts.Transport != nil {
		opts.Transport.Listen(s.push)
	}
	go s.loop()
	return s
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Raise:
				msg.Reply <- s.mgr.RaiseHand(msg.Priority)
			case Lower:
				msg.Reply <- s.mgr.LowerHand()
			case GiveWord:
				msg.Reply <- s.mgr.GiveWord(msg.UserID)
			case Remove:
				msg.Reply <- s.mgr.RemoveFromQueue(msg.UserID)
			case Clear:
				msg.Reply <- s.mgr.ClearQueue()
			case GetQueue:
				msg.Reply <- s.mgr.Queue()
			case GetPosition:
				msg.Reply <- s.mgr.UserPosition(msg.UserID)
			case FromPeer:
				// Errors were already logged by the manager.
				_ = s.mgr.HandleMessage(msg.Message)
			case Shutdown:
				s.cancel()
				return
			}
		}
	}
}

// push is the transport listener. It never blocks the transport's reader:
// with a full inbox the message is dropped.
func (s *Session) push(m handraise.Message) {
	select {
	case <-s.ctx.Done():
		return
	default:
	}
	select {
	case s.inbox <- FromPeer{Message: m}:
	default:
		s.dropped.Add(1)
		s.log.Warn("session inbox full, dropping broadcast",
			zap.String("type", string(m.Type)),
			zap.String("origin", m.Origin))
	}
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Dropped reports how many broadcasts were lost to a full inbox.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

func (s *Session) Stop() {
	select {
	case s.inbox <- Shutdown{}:
	case <-s.ctx.Done():
	}
}

func (s *Session) Raise(ctx context.Context, p handraise.Priority) error {
	reply := make(chan error, 1)
	return askErr(ctx, s, Raise{Priority: p, Reply: reply}, reply)
}

func (s *Session) Lower(ctx context.Context) error {
	reply := make(chan error, 1)
	return askErr(ctx, s, Lower{Reply: reply}, reply)
}

func (s *Session) GiveWord(ctx context.Context, userID string) error {
	reply := make(chan error, 1)
	return askErr(ctx, s, GiveWord{UserID: userID, Reply: reply}, reply)
}

func (s *Session) Remove(ctx context.Context, userID string) error {
	reply := make(chan error, 1)
	return askErr(ctx, s, Remove{UserID: userID, Reply: reply}, reply)
}

func (s *Session) Clear(ctx context.Context) error {
	reply := make(chan error, 1)
	return askErr(ctx, s, Clear{Reply: reply}, reply)
}

func (s *Session) Queue(ctx context.Context) ([]handraise.Request, error) {
	reply := make(chan []handraise.Request, 1)
	return ask(ctx, s, GetQueue{Reply: reply}, reply)
}

func (s *Session) Position(ctx context.Context, userID string) (int, error) {
	reply := make(chan int, 1)
	return ask(ctx, s, GetPosition{UserID: userID, Reply: reply}, reply)
}

// ask sends msg and waits for its reply. Replies are buffered, so giving
// up early never blocks the loop.
func ask[T any](ctx context.Context, s *Session, msg Msg, reply <-chan T) (T, error) {
	var zero T
	select {
	case s.inbox <- msg:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.ctx.Done():
		return zero, ErrStopped
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.ctx.Done():
		return zero, ErrStopped
	}
}

func askErr(ctx context.Context, s *Session, msg Msg, reply <-chan error) error {
	err, sendErr := ask(ctx, s, msg, reply)
	if sendErr != nil {
		return sendErr
	}
	return err
}
