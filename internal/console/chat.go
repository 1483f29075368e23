package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/rise-hand/internal/chatlog"
)

const chatTimeout = 5 * time.Second

// ChatClient talks to the relay's chat log endpoints.
type ChatClient struct {
	Base string // relay base URL, e.g. http://localhost:8080
	Room string
	HTTP *http.Client
}

func (c ChatClient) endpoint() string {
	return strings.TrimSuffix(c.Base, "/") + "/rooms/" + url.PathEscape(c.Room) + "/chat"
}

func (c ChatClient) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c ChatClient) Post(ctx context.Context, speaker, text string) error {
	body, err := json.Marshal(struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	}{speaker, text})
	if err != nil {
		return errors.Wrap(err, "encode announcement")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client().Do(req)
	if err != nil {
		return errors.Wrap(err, "post announcement")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return errors.Errorf("post announcement: relay answered %s", resp.Status)
	}
	return nil
}

func (c ChatClient) List(ctx context.Context, limit int) ([]chatlog.Entry, error) {
	target := c.endpoint()
	if limit > 0 {
		target += fmt.Sprintf("?limit=%d", limit)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build chat request")
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch chat log")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch chat log: relay answered %s", resp.Status)
	}
	var out struct {
		Entries []chatlog.Entry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode chat log")
	}
	return out.Entries, nil
}

var (
	ErrAnnouncerFull    = errors.New("announcement queue full, announcement dropped")
	ErrAnnouncerStopped = errors.New("announcer stopped")
)

const DefaultAnnounceBuffer = 32

type AnnouncerOptions struct {
	Speaker string
	Buffer  int
	Logger  *zap.Logger
}

// ChatAnnouncer posts announcements under a fixed speaker alias. Announce
// only queues the line; one goroutine posts them in order, so a slow relay
// never holds up the queue. With no relay configured lines are only logged.
type ChatAnnouncer struct {
	chat    *ChatClient
	speaker string
	lines   chan string
	done    chan struct{}
	dropped atomic.Int64
	log     *zap.Logger
}

// NewChatAnnouncer starts the posting goroutine; it exits when ctx ends.
func NewChatAnnouncer(ctx context.Context, chat *ChatClient, opts AnnouncerOptions) *ChatAnnouncer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultAnnounceBuffer
	}
	a := &ChatAnnouncer{
		chat:    chat,
		speaker: opts.Speaker,
		lines:   make(chan string, buffer),
		done:    make(chan struct{}),
		log:     log,
	}
	go a.loop(ctx)
	return a
}

func (a *ChatAnnouncer) Announce(text string) error {
	if a.chat == nil || a.chat.Base == "" {
		a.log.Info("announcement", zap.String("speaker", a.speaker), zap.String("text", text))
		return nil
	}
	select {
	case <-a.done:
		return ErrAnnouncerStopped
	default:
	}
	select {
	case a.lines <- text:
		return nil
	default:
		a.dropped.Add(1)
		return ErrAnnouncerFull
	}
}

// Dropped reports how many announcements were lost to a full queue.
func (a *ChatAnnouncer) Dropped() int64 { return a.dropped.Load() }

// Done is closed once the posting goroutine has exited.
func (a *ChatAnnouncer) Done() <-chan struct{} { return a.done }

func (a *ChatAnnouncer) loop(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-a.lines:
			pctx, cancel := context.WithTimeout(ctx, chatTimeout)
			err := a.chat.Post(pctx, a.speaker, text)
			cancel()
			if err != nil {
				// at most once, like the broadcast itself
				a.log.Warn("announcement lost", zap.String("text", text), zap.Error(err))
			}
		}
	}
}
