package server

// Message types exchanged on a live session.
const (
	MessageRender = "render"
	MessageEvent  = "event"
	MessageError  = "error"
	MessagePing   = "ping"
	MessagePong   = "pong"
)

// ServerMessage is sent from the server to the client.
type ServerMessage struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	HTML    string `json:"html,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ClientMessage is sent from the client to the server.
type ClientMessage struct {
	Type  string `json:"type"`
	HID   string `json:"hid,omitempty"`
	Event string `json:"event,omitempty"`
}
