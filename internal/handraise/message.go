package handraise

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type MessageType string

const (
	MsgHandRaised   MessageType = "handRaised"
	MsgHandLowered  MessageType = "handLowered"
	MsgWordGiven    MessageType = "wordGiven"
	MsgQueueCleared MessageType = "queueCleared"
)

// Message is the broadcast payload exchanged between clients.
//
//	{ type: "handRaised",   data: Request, userId, origin }
//	{ type: "handLowered",  userId, origin }
//	{ type: "wordGiven",    userId, origin }
//	{ type: "queueCleared", origin }
//
// Origin is the user id of the client that produced the message.
type Message struct {
	Type   MessageType `json:"type"`
	Data   *Request    `json:"data,omitempty"`
	UserID string      `json:"userId,omitempty"`
	Origin string      `json:"origin,omitempty"`
}

func EncodeMessage(m Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encode message")
	}
	return b, nil
}

// DecodeMessage parses a broadcast payload. It does not reject unknown types;
// that is the receiver's call.
func DecodeMessage(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, errors.Wrap(err, "decode message")
	}
	return m, nil
}
