// Package protocol defines the JSON frames exchanged between the gateway and
// its WebSocket clients.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Op names a frame's purpose.
type Op string

const (
	// Client to gateway.
	OpSubscribe   Op = "subscribe"
	OpUnsubscribe Op = "unsubscribe"
	OpPublish     Op = "publish"

	// Gateway to client.
	OpMessage Op = "message"
	OpError   Op = "error"
)

// Frame is one WebSocket text message. Data is base64 on the wire.
type Frame struct {
	Op      Op     `json:"op"`
	Channel string `json:"channel,omitempty"`
	Data    []byte `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Encode marshals f to JSON.
func Encode(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// Decode parses and validates a frame.
func Decode(b []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return Frame{}, fmt.Errorf("invalid frame: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Validate checks that the fields required by f.Op are present.
func (f Frame) Validate() error {
	switch f.Op {
	case OpSubscribe, OpUnsubscribe:
		if f.Channel == "" {
			return fmt.Errorf("%s frame requires a channel", f.Op)
		}
	case OpPublish, OpMessage:
		if f.Channel == "" {
			return fmt.Errorf("%s frame requires a channel", f.Op)
		}
		if len(f.Data) == 0 {
			return fmt.Errorf("%s frame requires data", f.Op)
		}
	case OpError:
	default:
		return fmt.Errorf("unknown op %q", f.Op)
	}
	return nil
}

// ErrorFrame builds an error frame for channel.
func ErrorFrame(channel string, err error) Frame {
	return Frame{Op: OpError, Channel: channel, Error: err.Error()}
}
