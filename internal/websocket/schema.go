package websocket

import (
	"encoding/json"
)

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventHello  Event = "hello"
	EventResult Event = "result"
	EventError  Event = "error"
)

// HelloMessage is the first frame of every feed connection.
type HelloMessage struct {
	Event   Event  `json:"event"`
	Channel string `json:"channel"`
}

// ResultMessage wraps one graded result as published by the grading service.
// Data is forwarded without re-encoding.
type ResultMessage struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ErrorMessage struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
