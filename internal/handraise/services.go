package handraise

import "go.uber.org/multierr"

// User is the local identity as reported by the host application.
type User struct {
	ID        string
	Name      string
	Moderator bool
}

type Identity interface {
	// Current returns false when the host has not resolved a user yet.
	Current() (User, bool)
}

// Transport is the best-effort broadcast channel. Send must not block on the
// network; delivery is at most once and the message is never echoed back to
// the sender's own listener.
type Transport interface {
	Send(Message) error
	Listen(func(Message))
}

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Notifier interface {
	Notify(text string, level Level) error
}

// Announcer posts a line to the shared chat log.
type Announcer interface {
	Announce(text string) error
}

// Renderer is told about every queue change so views can refresh.
type Renderer interface {
	QueueChanged(snapshot []Request) error
}

type SoundPlayer interface {
	Play(src string, volume float64) error
}

// StaticIdentity is an Identity that never changes.
type StaticIdentity User

func (s StaticIdentity) Current() (User, bool) {
	if s.ID == "" {
		return User{}, false
	}
	return User(s), true
}

// Renderers fans a change out to several views. One failing view does not
// stop the others.
type Renderers []Renderer

func (rs Renderers) QueueChanged(snapshot []Request) error {
	var err error
	for _, r := range rs {
		err = multierr.Append(err, r.QueueChanged(snapshot))
	}
	return err
}
