// Package hook delivers asynchronous channel lifecycle notifications to the
// application backend. Delivery is fire-and-forget: a failed notification is
// logged and journaled, never retried, and never surfaced to a connection.
package hook

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/avetrov/channelgate/internal/channel"
	"github.com/avetrov/channelgate/internal/core"
	"github.com/avetrov/channelgate/internal/metrics"
	"github.com/avetrov/channelgate/internal/store"
)

// Dispatcher implements core.HookDispatcher over HTTP POST.
type Dispatcher struct {
	client   *http.Client
	channels *channel.Matcher
	endpoint string
	signer   *Signer
	journal  store.Journal
	metrics  *metrics.Metrics
	log      *zerolog.Logger
	wg       sync.WaitGroup
}

// Options configures a Dispatcher.
type Options struct {
	Client *http.Client
	// Channels is the webhook-enabled channel pattern set. Channels outside
	// it never produce network activity.
	Channels *channel.Matcher
	// Host is the webhook host; Endpoint is appended to it.
	Host     string
	Endpoint string
	// Signer may be nil; notifications are then unsigned.
	Signer *Signer
	// Journal may be nil; delivery outcomes are then only logged.
	Journal store.Journal
	Metrics *metrics.Metrics
	Logger  *zerolog.Logger
}

// New builds a webhook dispatcher.
func New(opts Options) *Dispatcher {
	return &Dispatcher{
		client:   opts.Client,
		channels: opts.Channels,
		endpoint: opts.Host + opts.Endpoint,
		signer:   opts.Signer,
		journal:  opts.Journal,
		metrics:  opts.Metrics,
		log:      opts.Logger,
	}
}

// Dispatch shapes and sends one notification without blocking the caller.
// The channel filter runs before any network work. Headers from the auth
// context are copied onto the request, then the originating connection's
// handshake cookie and the programmatic-request marker are forced on top.
func (d *Dispatcher) Dispatch(conn core.Conn, ch string, headers http.Header, event, payload string) {
	if !d.channels.Match(ch) {
		return
	}

	form := url.Values{
		"event":   {event},
		"channel": {ch},
	}
	if payload != "" {
		form.Set("payload", payload)
	}

	hdr := make(http.Header)
	for k, vs := range headers {
		for _, v := range vs {
			hdr.Add(k, v)
		}
	}
	hdr.Set("Cookie", conn.Cookie())
	hdr.Set("X-Requested-With", "XMLHttpRequest")
	hdr.Set("Content-Type", "application/x-www-form-urlencoded")

	if d.signer != nil {
		token, err := d.signer.Token(conn.ID)
		if err != nil {
			d.log.Warn().Err(err).Msg("sign webhook token")
		} else {
			hdr.Set("X-Gateway-Token", token)
		}
	}

	d.wg.Add(1)
	go d.deliver(event, ch, form, hdr)
}

// Wait blocks until in-flight deliveries finish. The HTTP client's timeout
// bounds each of them, so this terminates.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(event, ch string, form url.Values, hdr http.Header) {
	defer d.wg.Done()

	record := store.HookDelivery{Event: event, Channel: ch}

	req, err := http.NewRequest(http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		record.Error = err.Error()
		d.finish(record, "error")
		return
	}
	req.Header = hdr

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn().Err(err).Str("event", event).Str("channel", ch).Msg("webhook delivery failed")
		record.Error = err.Error()
		d.finish(record, "error")
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	record.Status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.log.Warn().Int("status", resp.StatusCode).Str("event", event).Str("channel", ch).Msg("webhook rejected")
		d.finish(record, "rejected")
		return
	}

	d.log.Debug().Int("status", resp.StatusCode).Str("event", event).Str("channel", ch).Msg("webhook delivered")
	d.finish(record, "ok")
}

func (d *Dispatcher) finish(record store.HookDelivery, outcome string) {
	d.metrics.HookDeliveries.WithLabelValues(record.Event, outcome).Inc()
	if d.journal == nil {
		return
	}
	if err := d.journal.RecordHookDelivery(context.Background(), record); err != nil {
		d.log.Warn().Err(err).Msg("journal hook delivery")
	}
}
