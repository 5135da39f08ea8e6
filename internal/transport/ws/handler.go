package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avetrov/channelgate/internal/core"
)

// Handler upgrades HTTP connections and bridges them to the router. Each
// connection gets one read loop, so its operations are processed in arrival
// order; an authentication round-trip suspends only that loop.
type Handler struct {
	hub    *Hub
	router *core.Router
	log    *zerolog.Logger
}

// NewHandler builds the WebSocket endpoint handler.
func NewHandler(hub *Hub, router *core.Router, logger *zerolog.Logger) *Handler {
	return &Handler{hub: hub, router: router, log: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer wsConn.Close(websocket.StatusInternalError, "internal error")

	conn := core.Conn{ID: uuid.NewString(), Headers: r.Header.Clone()}
	c := h.hub.add(conn.ID)
	defer func() {
		occupied := h.hub.remove(conn.ID)
		h.router.Disconnect(conn, occupied)
	}()

	h.log.Debug().Str("socket_id", conn.ID).Msg("connection established")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, wsConn, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, wsConn, c)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("socket_id", conn.ID).Msg("ws connection closed with error")
		}
	}

	wsConn.Close(status, reason)
}

func (h *Handler) readLoop(ctx context.Context, wsConn *websocket.Conn, conn core.Conn) error {
	for {
		var inbound Inbound
		if err := wsjson.Read(ctx, wsConn, &inbound); err != nil {
			h.log.Warn().Err(err).Str("socket_id", conn.ID).Msg("read ws inbound")
			return err
		}
		h.dispatch(ctx, conn, inbound)
	}
}

// dispatch maps one inbound frame onto a router operation. Malformed frame
// bodies leave their fields empty and fall into the router's silent-ignore
// paths; hostile input never errors the connection.
func (h *Handler) dispatch(ctx context.Context, conn core.Conn, inbound Inbound) {
	switch inbound.Event {
	case EventSubscribe:
		var data SubscribeData
		h.decode(conn, inbound.Data, &data)
		h.router.Subscribe(ctx, conn, core.SubscribeRequest{
			Channel:     data.Channel,
			Auth:        data.Auth.Token,
			Headers:     headerFromMap(data.Auth.Headers),
			ChannelData: data.ChannelData,
		})

	case EventUnsubscribe:
		var data UnsubscribeData
		h.decode(conn, inbound.Data, &data)
		h.router.Unsubscribe(conn, core.UnsubscribeRequest{
			Channel: data.Channel,
			Reason:  data.Reason,
		})

	default:
		var data ClientEventData
		h.decode(conn, inbound.Data, &data)
		h.router.ClientEvent(conn, inbound.Event, data.Channel, string(data.Payload))
	}
}

func (h *Handler) decode(conn core.Conn, raw json.RawMessage, v any) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, v); err != nil {
		h.log.Debug().Err(err).Str("socket_id", conn.ID).Msg("malformed frame body")
	}
}

func (h *Handler) writeLoop(ctx context.Context, wsConn *websocket.Conn, c *client) error {
	for {
		select {
		case out := <-c.events:
			if err := wsjson.Write(ctx, wsConn, out); err != nil {
				h.log.Error().Err(err).Str("socket_id", c.id).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func headerFromMap(m map[string]string) http.Header {
	if len(m) == 0 {
		return nil
	}
	hdr := make(http.Header, len(m))
	for k, v := range m {
		hdr.Set(k, v)
	}
	return hdr
}
