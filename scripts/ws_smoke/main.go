// Command ws_smoke subscribes to a channel, optionally fires a client event,
// and prints everything the gateway sends back until the timeout elapses.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	channel := flag.String("channel", "test-channel", "channel to subscribe to")
	token := flag.String("auth", "", "auth token for private channels")
	channelData := flag.String("channel-data", "", "presence channel_data JSON")
	event := flag.String("event", "", "client event to send after subscribing (e.g. client-ping)")
	payload := flag.String("payload", "", "client event payload")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	sub := map[string]any{"channel": *channel}
	if *token != "" {
		sub["auth"] = map[string]any{"token": *token}
	}
	if *channelData != "" {
		sub["channel_data"] = *channelData
	}
	if err := send(ctx, conn, "subscribe", sub); err != nil {
		return err
	}

	if *event != "" {
		body := map[string]any{"channel": *channel}
		if *payload != "" {
			body["payload"] = json.RawMessage(*payload)
		}
		if err := send(ctx, conn, *event, body); err != nil {
			return err
		}
	}

	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("<- event=%s channel=%s data=%s\n", out.Event, out.Channel, out.Data)
	}
}

func send(ctx context.Context, conn *websocket.Conn, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	if err := wsjson.Write(ctx, conn, inbound{Event: event, Data: raw}); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}
