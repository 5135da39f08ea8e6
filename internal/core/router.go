package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/avetrov/channelgate/internal/channel"
	"github.com/avetrov/channelgate/internal/metrics"
	"github.com/avetrov/channelgate/internal/store"
)

// Wire event names emitted by the router.
const (
	EventSubscriptionSucceeded = "subscription_succeeded"
	EventSubscriptionError     = "subscription_error"
)

// Webhook event kinds.
const (
	HookEventJoin        = "join"
	HookEventLeave       = "leave"
	HookEventClientEvent = "client_event"
)

// DisconnectReason is the leave reason recorded when a connection drops.
const DisconnectReason = "disconnect"

// Router is the top level of the core: it classifies incoming subscribe,
// unsubscribe and client-event requests, authenticates private-channel
// subscriptions, keeps presence bookkeeping consistent with room membership,
// enforces the client-event relay policy and triggers webhook notifications.
type Router struct {
	transport  Transport
	classifier *channel.Classifier
	auth       Authenticator
	presence   *Presence
	hooks      HookDispatcher
	events     *channel.Matcher
	journal    store.Journal
	metrics    *metrics.Metrics
	log        *zerolog.Logger
}

// RouterOptions carries the router's collaborators.
type RouterOptions struct {
	Transport     Transport
	Classifier    *channel.Classifier
	Authenticator Authenticator
	Presence      *Presence
	Hooks         HookDispatcher
	// ClientEvents is the allowed client-event name pattern set.
	ClientEvents *channel.Matcher
	// Journal may be nil; auth failures are then not recorded.
	Journal store.Journal
	Metrics *metrics.Metrics
	Logger  *zerolog.Logger
}

// NewRouter wires a router from its collaborators.
func NewRouter(opts RouterOptions) *Router {
	return &Router{
		transport:  opts.Transport,
		classifier: opts.Classifier,
		auth:       opts.Authenticator,
		presence:   opts.Presence,
		hooks:      opts.Hooks,
		events:     opts.ClientEvents,
		journal:    opts.Journal,
		metrics:    opts.Metrics,
		log:        opts.Logger,
	}
}

// Subscribe processes a subscription request for one connection. Public
// channels join immediately; private and presence channels authenticate
// first, and the connection is never joined to a private-pattern room on
// authentication failure. The call suspends only the requesting connection's
// event flow while the authority responds.
func (r *Router) Subscribe(ctx context.Context, conn Conn, req SubscribeRequest) {
	if req.Channel == "" {
		r.log.Debug().Str("socket_id", conn.ID).Msg("subscribe without channel ignored")
		return
	}

	kind := r.classifier.Classify(req.Channel)
	if kind == channel.Public {
		r.transport.Join(conn.ID, req.Channel)
		r.metrics.Subscriptions.WithLabelValues(kind.String(), "ok").Inc()
		r.transport.EmitTo(conn.ID, EventSubscriptionSucceeded, req.Channel)
		r.hooks.Dispatch(conn, req.Channel, req.Headers, HookEventJoin, "")
		return
	}

	result, err := r.auth.Authenticate(ctx, conn, req)
	if err != nil {
		r.subscribeFailed(ctx, conn, req, kind, err)
		return
	}

	r.transport.Join(conn.ID, req.Channel)
	r.metrics.Subscriptions.WithLabelValues(kind.String(), "ok").Inc()

	if kind == channel.Presence {
		data := result.ChannelData
		if data == "" {
			data = req.ChannelData
		}
		if r.presence.Join(req.Channel, conn.ID, ParseValue(data)) {
			r.metrics.PresenceMembers.Inc()
		}
		r.transport.EmitTo(conn.ID, EventSubscriptionSucceeded, req.Channel, r.presence.Members(req.Channel))
	} else {
		r.transport.EmitTo(conn.ID, EventSubscriptionSucceeded, req.Channel)
	}

	r.hooks.Dispatch(conn, req.Channel, req.Headers, HookEventJoin, "")
}

func (r *Router) subscribeFailed(ctx context.Context, conn Conn, req SubscribeRequest, kind channel.Kind, err error) {
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		authErr = &AuthError{Reason: err.Error()}
	}

	r.log.Warn().
		Str("channel", req.Channel).
		Str("socket_id", conn.ID).
		Int("status", authErr.Status).
		Str("reason", authErr.Reason).
		Msg("subscription rejected")

	r.metrics.Subscriptions.WithLabelValues(kind.String(), "rejected").Inc()
	r.transport.EmitTo(conn.ID, EventSubscriptionError, req.Channel, authErr.Status)

	if r.journal != nil {
		failure := store.AuthFailure{
			Channel:  req.Channel,
			SocketID: conn.ID,
			Status:   authErr.Status,
			Reason:   authErr.Reason,
		}
		if jerr := r.journal.RecordAuthFailure(ctx, failure); jerr != nil {
			r.log.Warn().Err(jerr).Msg("journal auth failure")
		}
	}
}

// ClientEvent relays a client-originated event to the other members of a
// channel. The event is relayed only when its name matches the allowed
// pattern set, the channel is private or presence, and the sender is
// currently a member of the channel; anything else is silently dropped.
func (r *Router) ClientEvent(conn Conn, event, ch, payload string) {
	if event == "" || ch == "" {
		return
	}

	if !r.events.Match(event) || !r.classifier.IsPrivate(ch) || !r.transport.IsMember(conn.ID, ch) {
		r.metrics.ClientEventsDropped.Inc()
		r.log.Debug().
			Str("event", event).
			Str("channel", ch).
			Str("socket_id", conn.ID).
			Msg("client event dropped by relay policy")
		return
	}

	r.transport.BroadcastExcluding(conn.ID, ch, event, ParseValue(payload))
	r.metrics.ClientEventsRelayed.Inc()
	r.hooks.Dispatch(conn, ch, nil, HookEventClientEvent, payload)
}

// Unsubscribe removes a connection from a channel. Presence bookkeeping runs
// first so the membership-removed notification reaches the remaining members
// before the connection physically leaves the room.
func (r *Router) Unsubscribe(conn Conn, req UnsubscribeRequest) {
	if req.Channel == "" {
		return
	}

	if r.classifier.IsPresence(req.Channel) {
		if r.presence.Leave(req.Channel, conn.ID) {
			r.metrics.PresenceMembers.Dec()
		}
	}
	r.transport.Leave(conn.ID, req.Channel)
	r.hooks.Dispatch(conn, req.Channel, req.Headers, HookEventLeave, req.Reason)
}

// Disconnect runs the leave path for every channel the connection occupied
// when its transport closed.
func (r *Router) Disconnect(conn Conn, channels []string) {
	for _, ch := range channels {
		r.Unsubscribe(conn, UnsubscribeRequest{Channel: ch, Reason: DisconnectReason})
	}
}
