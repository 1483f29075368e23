// Package chatlog keeps the announcements clients post while a session runs:
// who raised, lowered, got the word. It is the relay-side half of the chat
// announcement sink.
package chatlog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	DefaultSpeaker = "Rise Hand System"
	DefaultLimit   = 50
	MaxLimit       = 500
	MaxTextLen     = 2000
)

var (
	ErrEmptyText = errors.New("empty announcement")
	ErrNoRoom    = errors.New("missing room")
)

type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Room      string    `gorm:"index;size:64;not null" json:"room"`
	Speaker   string    `gorm:"size:128;not null" json:"speaker"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store interface {
	Append(ctx context.Context, e *Entry) error
	// List returns up to limit of the most recent entries, oldest first.
	List(ctx context.Context, room string, limit int) ([]Entry, error)
}

// Normalize validates e and fills defaults. Stores call it before writing.
func Normalize(e *Entry, now time.Time) error {
	e.Room = strings.TrimSpace(e.Room)
	e.Text = strings.TrimSpace(e.Text)
	if e.Room == "" {
		return ErrNoRoom
	}
	if e.Text == "" {
		return ErrEmptyText
	}
	if len(e.Text) > MaxTextLen {
		// Cut on a rune boundary; Postgres rejects invalid UTF-8.
		n := MaxTextLen
		for n > 0 && !utf8.RuneStart(e.Text[n]) {
			n--
		}
		e.Text = e.Text[:n]
	}
	if e.Speaker == "" {
		e.Speaker = DefaultSpeaker
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

type MemoryStore struct {
	mu     sync.Mutex
	nextID uint
	rooms  map[string][]Entry
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string][]Entry), now: time.Now}
}

func (s *MemoryStore) Append(_ context.Context, e *Entry) error {
	if err := Normalize(e, s.now()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.rooms[e.Room] = append(s.rooms[e.Room], *e)
	return nil
}

func (s *MemoryStore) List(_ context.Context, room string, limit int) ([]Entry, error) {
	limit = clampLimit(limit)
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.rooms[room]
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return slices.Clone(entries), nil
}
