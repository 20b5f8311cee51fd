package stream

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

// SignalR message type codes (JSON hub protocol).
const (
	msgInvocation = 1
	msgPing       = 6
	msgClose      = 7
)

// Frames in the SignalR JSON protocol are terminated by 0x1e.
const recordSeparator = 0x1e

type handshakeRequest struct {
	Protocol string `json:"protocol"`
	Version  int    `json:"version"`
}

type invocation struct {
	Type      int    `json:"type"`
	Target    string `json:"target,omitempty"`
	Arguments []any  `json:"arguments,omitempty"`
}

type hubMessage struct {
	Type      int               `json:"type"`
	Target    string            `json:"target"`
	Arguments []json.RawMessage `json:"arguments"`
	Error     string            `json:"error"`
}

func writeFrame(conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	payload = append(payload, recordSeparator)
	return conn.WriteMessage(websocket.TextMessage, payload)
}
