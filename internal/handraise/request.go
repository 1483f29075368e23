package handraise

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoIdentity    = errors.New("no current identity")
	ErrAlreadyQueued = errors.New("already in queue")
	ErrNotQueued     = errors.New("not in queue")
	ErrNotModerator  = errors.New("moderator role required")
	ErrUnknownUser   = errors.New("user not in queue")
	ErrBadPriority   = errors.New("unknown priority")
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority accepts "normal" or "urgent" in any case. An empty string
// means normal.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PriorityNormal):
		return PriorityNormal, nil
	case string(PriorityUrgent):
		return PriorityUrgent, nil
	default:
		return "", ErrBadPriority
	}
}

// Request is one participant's wish to speak. Timestamp is for display only.
type Request struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
	Priority  Priority  `json:"priority"`
}

func NewRequest(u User, p Priority, now time.Time) Request {
	name := u.Name
	if name == "" {
		name = "Unknown"
	}
	return Request{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		UserName:  name,
		Timestamp: now,
		Priority:  p,
	}
}

// Queue is the ordered waiting list. Every mutation returns a fresh slice;
// callers never see a Queue change underneath them.
type Queue []Request

// Insert drops any request from the same user, then places urgent requests
// before the first normal one and appends normal requests.
func (q Queue) Insert(r Request) Queue {
	next := q.Remove(r.UserID)
	if r.Priority == PriorityUrgent {
		idx := slices.IndexFunc(next, func(x Request) bool { return x.Priority != PriorityUrgent })
		if idx >= 0 {
			return slices.Insert(next, idx, r)
		}
	}
	return append(next, r)
}

// Remove filters out the user's request. Removing an absent user yields an
// equal queue.
func (q Queue) Remove(userID string) Queue {
	next := make(Queue, 0, len(q))
	for _, r := range q {
		if r.UserID != userID {
			next = append(next, r)
		}
	}
	return next
}

func (q Queue) Find(userID string) (Request, bool) {
	idx := slices.IndexFunc(q, func(r Request) bool { return r.UserID == userID })
	if idx < 0 {
		return Request{}, false
	}
	return q[idx], true
}

// Position is 1-based, -1 when absent.
func (q Queue) Position(userID string) int {
	idx := slices.IndexFunc(q, func(r Request) bool { return r.UserID == userID })
	if idx < 0 {
		return -1
	}
	return idx + 1
}

func (q Queue) Clone() Queue {
	return slices.Clone(q)
}
