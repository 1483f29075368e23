package handraise

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/message"

	"github.com/DoyleJ11/rise-hand/internal/i18n"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownMessage   = errors.New("unknown message type")
)

const (
	NotifySound  = "sounds/notify.wav"
	NotifyVolume = 0.3
)

// Config wires a Manager to its host. Only Identity is required; every other
// collaborator may be nil and is then skipped.
type Config struct {
	Identity  Identity
	Transport Transport
	Notifier  Notifier
	Announcer Announcer
	Renderer  Renderer
	Sound     SoundPlayer
	Printer   *message.Printer
	Logger    *zap.Logger
	Now       func() time.Time
}

// Manager owns one client's replica of the queue. It applies local commands
// optimistically, broadcasts them, and folds in messages from other clients.
//
// A Manager is not safe for concurrent use; a process has exactly one
// goroutine driving it (see package session).
type Manager struct {
	identity  Identity
	transport Transport
	notifier  Notifier
	announcer Announcer
	renderer  Renderer
	sound     SoundPlayer
	p         *message.Printer
	log       *zap.Logger
	now       func() time.Time

	queue Queue
}

func NewManager(cfg Config) *Manager {
	m := &Manager{
		identity:  cfg.Identity,
		transport: cfg.Transport,
		notifier:  cfg.Notifier,
		announcer: cfg.Announcer,
		renderer:  cfg.Renderer,
		sound:     cfg.Sound,
		p:         cfg.Printer,
		log:       cfg.Logger,
		now:       cfg.Now,
		queue:     Queue{},
	}
	if m.identity == nil {
		m.identity = StaticIdentity{}
	}
	if m.p == nil {
		m.p = i18n.NewPrinter("en")
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m *Manager) RaiseHand(p Priority) error {
	u, ok := m.identity.Current()
	if !ok {
		return ErrNoIdentity
	}
	if p == "" {
		p = PriorityNormal
	}
	if p != PriorityNormal && p != PriorityUrgent {
		return ErrBadPriority
	}
	// Raising again with another priority moves the request; the same
	// priority is a duplicate.
	if cur, found := m.queue.Find(u.ID); found && cur.Priority == p {
		m.notify(i18n.NotifyAlreadyQueued, LevelWarn)
		return ErrAlreadyQueued
	}

	r := NewRequest(u, p, m.now())
	m.apply(m.queue.Insert(r))
	m.send(Message{Type: MsgHandRaised, Data: &r, UserID: u.ID})
	m.notify(i18n.NotifyAdded, LevelInfo)
	if p == PriorityUrgent {
		m.announce(i18n.ChatRaisedUrgent, r.UserName)
	} else {
		m.announce(i18n.ChatRaised, r.UserName)
	}
	if u.Moderator {
		m.playSound()
	}
	return nil
}

func (m *Manager) LowerHand() error {
	u, ok := m.identity.Current()
	if !ok {
		return ErrNoIdentity
	}
	r, found := m.queue.Find(u.ID)
	if !found {
		return ErrNotQueued
	}

	m.apply(m.queue.Remove(u.ID))
	m.send(Message{Type: MsgHandLowered, UserID: u.ID})
	m.notify(i18n.NotifyRemoved, LevelInfo)
	m.announce(i18n.ChatLowered, r.UserName)
	return nil
}

// GiveWord grants the floor to a queued user and takes them off the queue.
func (m *Manager) GiveWord(userID string) error {
	u, err := m.moderator()
	if err != nil {
		return err
	}
	r, found := m.queue.Find(userID)
	if !found {
		return ErrUnknownUser
	}

	m.apply(m.queue.Remove(userID))
	m.send(Message{Type: MsgWordGiven, UserID: userID})
	m.announce(i18n.ChatGivenWord, r.UserName)
	if userID == u.ID {
		// Our own broadcast never comes back to us.
		m.notify(i18n.NotifyGivenWord, LevelInfo)
	}
	return nil
}

// RemoveFromQueue is the moderator's forced removal. On the wire it is
// indistinguishable from the user lowering their own hand.
func (m *Manager) RemoveFromQueue(userID string) error {
	if _, err := m.moderator(); err != nil {
		return err
	}
	r, found := m.queue.Find(userID)
	if !found {
		return ErrUnknownUser
	}

	m.apply(m.queue.Remove(userID))
	m.send(Message{Type: MsgHandLowered, UserID: userID})
	m.announce(i18n.ChatRemoved, r.UserName)
	return nil
}

func (m *Manager) ClearQueue() error {
	if _, err := m.moderator(); err != nil {
		return err
	}

	m.apply(Queue{})
	m.send(Message{Type: MsgQueueCleared})
	m.notify(i18n.NotifyCleared, LevelInfo)
	m.announce(i18n.ChatCleared)
	return nil
}

func (m *Manager) Queue() []Request {
	return m.queue.Clone()
}

func (m *Manager) IsUserInQueue(userID string) bool {
	_, found := m.queue.Find(userID)
	return found
}

func (m *Manager) UserPosition(userID string) int {
	return m.queue.Position(userID)
}

// HandleMessage folds a message received from the channel into the local
// queue. Messages that carry our own origin were applied when they were
// sent and are skipped.
func (m *Manager) HandleMessage(msg Message) error {
	u, hasUser := m.identity.Current()
	if hasUser && msg.Origin == u.ID {
		m.log.Debug("skipping own broadcast", zap.String("type", string(msg.Type)))
		return nil
	}

	switch msg.Type {
	case MsgHandRaised:
		if msg.Data == nil || msg.Data.UserID == "" {
			return m.ignore(msg, ErrMalformedMessage)
		}
		r := *msg.Data
		if r.Priority != PriorityNormal && r.Priority != PriorityUrgent {
			return m.ignore(msg, ErrMalformedMessage)
		}
		m.apply(m.queue.Insert(r))
		if hasUser && u.Moderator {
			m.playSound()
		}

	case MsgHandLowered:
		if msg.UserID == "" {
			return m.ignore(msg, ErrMalformedMessage)
		}
		m.apply(m.queue.Remove(msg.UserID))

	case MsgWordGiven:
		if msg.UserID == "" {
			return m.ignore(msg, ErrMalformedMessage)
		}
		m.apply(m.queue.Remove(msg.UserID))
		if hasUser && msg.UserID == u.ID {
			m.notify(i18n.NotifyGivenWord, LevelInfo)
		}

	case MsgQueueCleared:
		m.apply(Queue{})
		if !hasUser || !u.Moderator {
			m.notify(i18n.NotifyClearedRemote, LevelInfo)
		}

	default:
		return m.ignore(msg, ErrUnknownMessage)
	}
	return nil
}

func (m *Manager) moderator() (User, error) {
	u, ok := m.identity.Current()
	if !ok {
		return User{}, ErrNoIdentity
	}
	if !u.Moderator {
		return User{}, ErrNotModerator
	}
	return u, nil
}

func (m *Manager) ignore(msg Message, err error) error {
	m.log.Debug("ignoring broadcast",
		zap.String("type", string(msg.Type)),
		zap.String("origin", msg.Origin),
		zap.Error(err))
	return err
}

// apply swaps in the rebuilt queue and tells the views.
func (m *Manager) apply(next Queue) {
	m.queue = next
	if m.renderer == nil {
		return
	}
	snap := m.queue.Clone()
	m.guard("render", func() error { return m.renderer.QueueChanged(snap) })
}

func (m *Manager) send(msg Message) {
	if m.transport == nil {
		return
	}
	if u, ok := m.identity.Current(); ok {
		msg.Origin = u.ID
	}
	m.guard("broadcast", func() error { return m.transport.Send(msg) })
}

func (m *Manager) notify(key string, level Level) {
	if m.notifier == nil {
		return
	}
	text := m.p.Sprintf(key)
	m.guard("notify", func() error { return m.notifier.Notify(text, level) })
}

func (m *Manager) announce(key string, args ...any) {
	if m.announcer == nil {
		return
	}
	text := m.p.Sprintf(key, args...)
	m.guard("announce", func() error { return m.announcer.Announce(text) })
}

func (m *Manager) playSound() {
	if m.sound == nil {
		return
	}
	m.guard("sound", func() error { return m.sound.Play(NotifySound, NotifyVolume) })
}

// guard runs a best-effort side effect. Failures and panics are logged and
// swallowed so the queue mutation that triggered them stands.
func (m *Manager) guard(what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn("collaborator panicked",
				zap.String("effect", what),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	if err := fn(); err != nil {
		m.log.Warn("collaborator failed", zap.String("effect", what), zap.Error(err))
	}
}
