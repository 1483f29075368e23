package lobby

import (
	"context"

	"go.uber.org/zap"
)

type Msg interface{ isLobbyMsg() }

// Publish asks the lobby to relay Payload to every member except From.
type Publish struct {
	From    string
	Payload []byte
}

func (Publish) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan []byte // frames for this client
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	Code       string
	NumClients int
	Relayed    int
	Dropped    int
}

// Lobby is one tabletop session's broadcast channel. It keeps no queue state
// of its own: clients converge from what it relays.
type Lobby struct {
	code    string
	inbox   chan Msg
	clients map[string]chan []byte
	relayed int
	dropped int
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLobby(parent context.Context, code string, log *zap.Logger) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}

	l := &Lobby{
		code:    code,
		inbox:   make(chan Msg, 64), // Small buffer
		clients: make(map[string]chan []byte),
		log:     log.With(zap.String("room", code)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = msg.Outbox
				l.log.Info("client joined", zap.String("client", msg.ClientID), zap.Int("clients", len(l.clients)))

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
					l.log.Info("client left", zap.String("client", msg.ClientID), zap.Int("clients", len(l.clients)))
				}

			case Publish:
				l.relayed++
				l.broadcast(msg.From, msg.Payload)

			case GetState:
				// test-only: reflect internal state without data races
				msg.Reply <- View{
					Code:       l.code,
					NumClients: len(l.clients),
					Relayed:    l.relayed,
					Dropped:    l.dropped,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more frames
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(from string, frame []byte) {
	for id, ch := range l.clients {
		if id == from {
			continue
		}
		select {
		case ch <- frame:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(l.clients, id)
			l.dropped++
			l.log.Warn("dropped slow client", zap.String("client", id))
		}
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Code() string { return l.code }

// Done is closed once the lobby has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }
