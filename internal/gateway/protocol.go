package gateway

import "encoding/json"

// FrameTypeEvent is the only frame type on the admin event stream.
const FrameTypeEvent = "event"

// EventHello is the first frame sent on a new event stream connection.
const EventHello = "hello"

// Frame is the envelope for every event stream message.
type Frame struct {
	Type    string          `json:"type"`
	Event   string          `json:"event"`
	Seq     int64           `json:"seq"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HelloPayload describes the server to a newly connected subscriber.
type HelloPayload struct {
	Version string   `json:"version"`
	ConnID  string   `json:"connId"`
	Events  []string `json:"events"`
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameTypeEvent,
		Event:   event,
		Payload: raw,
		Seq:     seq,
	}, nil
}
