package types

import "encoding/json"

const (
	FrameBroadcast = "Broadcast"
	FrameError     = "Error"
)

// Frame is what travels over a relay websocket in either direction. The relay
// never looks inside Payload; it is a handraise.Message owned by the clients.
type Frame struct {
	Type    string          `json:"type"` // "Broadcast" | "Error"
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func ErrorFrame(msg string) []byte {
	b, _ := json.Marshal(Frame{Type: FrameError, Error: msg})
	return b
}
