package core

import (
	"context"
	"net/http"
)

// Conn is an opaque handle to a transport-level connection: a stable
// identity plus the handshake headers captured at accept time. The core
// holds no reference to it beyond the scope of a single request.
type Conn struct {
	ID      string
	Headers http.Header
}

// Cookie returns the Cookie header from the connection handshake.
func (c Conn) Cookie() string {
	if c.Headers == nil {
		return ""
	}
	return c.Headers.Get("Cookie")
}

// Transport is the connection-multiplexing layer the router drives. Join,
// Leave, BroadcastExcluding and EmitTo against an absent connection are
// safe no-ops: authentication results may arrive after a disconnect.
type Transport interface {
	Join(connID, channel string)
	Leave(connID, channel string)
	BroadcastExcluding(connID, channel, event string, payload any)
	EmitTo(connID, event string, args ...any)
	IsMember(connID, channel string) bool
}

// SubscribeRequest is a request to subscribe a connection to a channel.
type SubscribeRequest struct {
	Channel string
	// Auth is the signed token supplied by the client, forwarded verbatim
	// to the authentication authority.
	Auth string
	// Headers are client-supplied auth headers, forwarded to the authority
	// and reused as the auth context for webhook notifications.
	Headers http.Header
	// ChannelData is free-form presence metadata supplied by the client.
	// The authority's channel_data, when present, takes precedence.
	ChannelData string
}

// UnsubscribeRequest is a request to unsubscribe a connection from a channel.
type UnsubscribeRequest struct {
	Channel string
	Reason  string
	Headers http.Header
}

// AuthResult is a successful authentication outcome.
type AuthResult struct {
	// ChannelData is optional presence metadata returned by the authority.
	ChannelData string
}

// Authenticator validates a subscription request for a private or presence
// channel against the external authority. Exactly one call per subscribe
// attempt; rejections come back as *AuthError.
type Authenticator interface {
	Authenticate(ctx context.Context, conn Conn, req SubscribeRequest) (AuthResult, error)
}

// HookDispatcher delivers channel lifecycle notifications to the
// application backend. Dispatch never blocks on the delivery outcome.
type HookDispatcher interface {
	Dispatch(conn Conn, channel string, headers http.Header, event, payload string)
}
