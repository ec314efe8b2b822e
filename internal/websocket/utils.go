package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WriteTyped sends a strongly-typed message over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorMessage over the WebSocket.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorMessage{
		Event: EventError,
		Error: errMsg,
	})
}

// WriteResult forwards a raw result event. Payloads that are not valid JSON are dropped.
func WriteResult(conn *websocket.Conn, payload []byte) error {
	if !json.Valid(payload) {
		return nil
	}
	return WriteTyped(conn, ResultMessage{Event: EventResult, Data: payload})
}

// DrainReads discards client frames until the connection fails, then closes done.
// The feed is one-way; reading is still needed to process close and pong frames.
func DrainReads(conn *websocket.Conn, pongWait time.Duration, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
