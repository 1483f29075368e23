package handraise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMessage_WireShape(t *testing.T) {
	r := Request{ID: "r1", UserID: "alice", UserName: "Alice", Timestamp: fixedNow(), Priority: PriorityUrgent}

	b, err := EncodeMessage(Message{Type: MsgHandRaised, Data: &r, UserID: "alice", Origin: "alice"})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "handRaised",
		"data": {"id":"r1","userId":"alice","userName":"Alice","timestamp":"2025-03-01T19:30:00Z","priority":"urgent"},
		"userId": "alice",
		"origin": "alice"
	}`, string(b))

	b, err = EncodeMessage(Message{Type: MsgQueueCleared, Origin: "gm"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"queueCleared","origin":"gm"}`, string(b))
}

func TestDecodeMessage(t *testing.T) {
	m, err := DecodeMessage([]byte(`{"type":"wordGiven","userId":"bob","origin":"gm"}`))
	require.NoError(t, err)
	assert.Equal(t, Message{Type: MsgWordGiven, UserID: "bob", Origin: "gm"}, m)

	m, err = DecodeMessage([]byte(`{"type":"somethingNew","extra":1}`))
	require.NoError(t, err, "unknown types decode and are dropped later")
	assert.Equal(t, MessageType("somethingNew"), m.Type)

	_, err = DecodeMessage([]byte(`{"type":`))
	require.Error(t, err)
}
