package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/rise-hand/internal/config"
	"github.com/DoyleJ11/rise-hand/internal/handraise"
	"github.com/DoyleJ11/rise-hand/internal/session"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func memoryConfig(t *testing.T, user string, gm bool) *config.Config {
	t.Helper()
	cfg, err := config.FromEnv(func(string) string { return "" })
	require.NoError(t, err)
	cfg.Transport = config.TransportMemory
	cfg.Relay.URL = ""
	cfg.Identity = config.Identity{UserID: user, UserName: strings.ToUpper(user[:1]) + user[1:], Moderator: gm}
	return cfg
}

func TestJoin_PromptSession(t *testing.T) {
	var out syncBuffer
	in := strings.NewReader("raise urgent\nraise urgent\nqueue\npos\nclear\ndance\nquit\n")

	err := join(context.Background(), memoryConfig(t, "alice", false), zaptest.NewLogger(t), in, &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Added to queue")
	assert.Contains(t, got, "Already in queue")
	assert.Contains(t, got, "Alice")
	assert.Contains(t, got, "Position in queue: 1")
	assert.Contains(t, got, "unknown command")
	assert.NotContains(t, got, "Queue cleared")
}

func TestJoin_ModeratorClears(t *testing.T) {
	var out syncBuffer
	in := strings.NewReader("raise\nclear\npos\n")

	err := join(context.Background(), memoryConfig(t, "gm", true), zaptest.NewLogger(t), in, &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Queue cleared")
	assert.Contains(t, got, "You are not in the queue")
	assert.Contains(t, got, "\a")
}

func TestJoin_AbsentTargetIsSilent(t *testing.T) {
	var out syncBuffer
	in := strings.NewReader("give nobody\nremove nobody\nquit\n")

	err := join(context.Background(), memoryConfig(t, "gm", true), zaptest.NewLogger(t), in, &out)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "error:")
}

func TestReport(t *testing.T) {
	silent := []error{
		handraise.ErrAlreadyQueued,
		handraise.ErrNotQueued,
		handraise.ErrNotModerator,
		handraise.ErrUnknownUser,
	}
	for _, err := range silent {
		var out bytes.Buffer
		report(zaptest.NewLogger(t), &out, err)
		assert.Empty(t, out.String(), err.Error())
	}

	var out bytes.Buffer
	report(zaptest.NewLogger(t), &out, session.ErrStopped)
	assert.Contains(t, out.String(), "error: session stopped")
}

func TestJoin_PositionFollowsQueue(t *testing.T) {
	var out syncBuffer
	in := strings.NewReader("raise\nlower\nquit\n")

	err := join(context.Background(), memoryConfig(t, "alice", false), zaptest.NewLogger(t), in, &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Position in queue: 1")
	assert.Contains(t, got, "You are not in the queue")
}

func TestDial_UnknownTransport(t *testing.T) {
	cfg := memoryConfig(t, "alice", false)
	cfg.Transport = "pigeon"
	_, err := dial(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
