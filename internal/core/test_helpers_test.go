package core

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avetrov/channelgate/internal/channel"
	"github.com/avetrov/channelgate/internal/log"
	"github.com/avetrov/channelgate/internal/metrics"
	"github.com/avetrov/channelgate/internal/store"
)

// op records one call made against the fake transport.
type op struct {
	kind    string // join, leave, broadcast, emit
	connID  string
	channel string
	event   string
	payload any
	args    []any
}

type fakeTransport struct {
	mu      sync.Mutex
	ops     []op
	members map[string]map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{members: make(map[string]map[string]bool)}
}

func (t *fakeTransport) Join(connID, ch string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.members[ch] == nil {
		t.members[ch] = make(map[string]bool)
	}
	t.members[ch][connID] = true
	t.ops = append(t.ops, op{kind: "join", connID: connID, channel: ch})
}

func (t *fakeTransport) Leave(connID, ch string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.members[ch], connID)
	t.ops = append(t.ops, op{kind: "leave", connID: connID, channel: ch})
}

func (t *fakeTransport) BroadcastExcluding(connID, ch, event string, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = append(t.ops, op{kind: "broadcast", connID: connID, channel: ch, event: event, payload: payload})
}

func (t *fakeTransport) EmitTo(connID, event string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = append(t.ops, op{kind: "emit", connID: connID, event: event, args: args})
}

func (t *fakeTransport) IsMember(connID, ch string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.members[ch][connID]
}

func (t *fakeTransport) opsOf(kind string) []op {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []op
	for _, o := range t.ops {
		if o.kind == kind {
			out = append(out, o)
		}
	}
	return out
}

func (t *fakeTransport) allOps() []op {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]op(nil), t.ops...)
}

type fakeAuth struct {
	result AuthResult
	err    error
	calls  int
	last   SubscribeRequest
}

func (a *fakeAuth) Authenticate(_ context.Context, _ Conn, req SubscribeRequest) (AuthResult, error) {
	a.calls++
	a.last = req
	return a.result, a.err
}

type hookCall struct {
	conn    Conn
	channel string
	headers http.Header
	event   string
	payload string
}

type fakeHooks struct {
	mu    sync.Mutex
	calls []hookCall
}

func (h *fakeHooks) Dispatch(conn Conn, ch string, headers http.Header, event, payload string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, hookCall{conn: conn, channel: ch, headers: headers, event: event, payload: payload})
}

func (h *fakeHooks) all() []hookCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]hookCall(nil), h.calls...)
}

type memJournal struct {
	mu        sync.Mutex
	failures  []store.AuthFailure
	delivered []store.HookDelivery
}

func (j *memJournal) RecordHookDelivery(_ context.Context, d store.HookDelivery) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.delivered = append(j.delivered, d)
	return nil
}

func (j *memJournal) RecordAuthFailure(_ context.Context, f store.AuthFailure) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.failures = append(j.failures, f)
	return nil
}

func (j *memJournal) HookStats(context.Context) (store.HookStats, error) {
	return store.HookStats{}, nil
}

func (j *memJournal) RecentAuthFailures(context.Context, int) ([]store.AuthFailure, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]store.AuthFailure(nil), j.failures...), nil
}

func (j *memJournal) Close() error { return nil }

type routerFixture struct {
	router    *Router
	transport *fakeTransport
	auth      *fakeAuth
	hooks     *fakeHooks
	journal   *memJournal
	presence  *Presence
}

func newRouterFixture() *routerFixture {
	transport := newFakeTransport()
	authenticator := &fakeAuth{}
	hooks := &fakeHooks{}
	journal := &memJournal{}
	presence := NewPresence(transport, log.Nop())

	router := NewRouter(RouterOptions{
		Transport:     transport,
		Classifier:    channel.NewClassifier([]string{"private-*", "presence-*"}, []string{"presence-*"}),
		Authenticator: authenticator,
		Presence:      presence,
		Hooks:         hooks,
		ClientEvents:  channel.NewMatcher([]string{"client-*"}),
		Journal:       journal,
		Metrics:       metrics.New(prometheus.NewRegistry()),
		Logger:        log.Nop(),
	})

	return &routerFixture{
		router:    router,
		transport: transport,
		auth:      authenticator,
		hooks:     hooks,
		journal:   journal,
		presence:  presence,
	}
}
