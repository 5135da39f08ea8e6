package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/avetrov/channelgate/internal/config"
	"github.com/avetrov/channelgate/internal/log"
	"github.com/avetrov/channelgate/internal/metrics"
	"github.com/avetrov/channelgate/internal/store"
)

type stubJournal struct {
	stats    store.HookStats
	failures []store.AuthFailure
}

func (s *stubJournal) RecordHookDelivery(context.Context, store.HookDelivery) error { return nil }
func (s *stubJournal) RecordAuthFailure(context.Context, store.AuthFailure) error   { return nil }
func (s *stubJournal) HookStats(context.Context) (store.HookStats, error) {
	return s.stats, nil
}
func (s *stubJournal) RecentAuthFailures(context.Context, int) ([]store.AuthFailure, error) {
	return s.failures, nil
}
func (s *stubJournal) Close() error { return nil }

func newTestServer(journal store.Journal) *stdhttp.Server {
	cfg := config.Default()
	return NewServer(stdhttp.NotFoundHandler(), journal, metrics.NewRegistry(), &cfg, log.Nop())
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&stubJournal{})

	req := httptest.NewRequest(stdhttp.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != "ok" {
		t.Fatalf("expected ok body, got %q", resp.Body.String())
	}
}

func TestStatsEndpoint(t *testing.T) {
	journal := &stubJournal{
		stats: store.HookStats{Delivered: 5, Failed: 2},
		failures: []store.AuthFailure{
			{Channel: "private-secret", SocketID: "s1", Status: 403, Reason: "bad signature"},
		},
	}
	server := newTestServer(journal)

	req := httptest.NewRequest(stdhttp.MethodGet, "/stats", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body StatsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if body.Hooks.Delivered != 5 || body.Hooks.Failed != 2 {
		t.Fatalf("unexpected hook stats: %+v", body.Hooks)
	}
	if len(body.AuthFailures) != 1 || body.AuthFailures[0].Status != 403 {
		t.Fatalf("unexpected failures: %+v", body.AuthFailures)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(&stubJournal{})

	req := httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.Len() == 0 {
		t.Fatal("expected metrics exposition body")
	}
}
