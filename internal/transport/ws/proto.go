package ws

import "encoding/json"

// Reserved inbound event names. Any other inbound event is treated as a
// client-originated event subject to the relay policy.
const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
)

// Inbound is the envelope for frames coming from a connection.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// AuthData carries the client's authentication material for a subscription.
type AuthData struct {
	Token   string            `json:"token,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// SubscribeData requests a subscription to a channel.
type SubscribeData struct {
	Channel     string   `json:"channel"`
	Auth        AuthData `json:"auth,omitempty"`
	ChannelData string   `json:"channel_data,omitempty"`
}

// UnsubscribeData requests leaving a channel.
type UnsubscribeData struct {
	Channel string `json:"channel"`
	Reason  string `json:"reason,omitempty"`
}

// ClientEventData is the body of a client-originated relay event.
type ClientEventData struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound is the envelope for frames sent to a connection.
type Outbound struct {
	Event   string `json:"event"`
	Channel string `json:"channel,omitempty"`
	Data    any    `json:"data,omitempty"`
}
