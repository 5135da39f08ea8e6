package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avetrov/channelgate/internal/core"
	"github.com/avetrov/channelgate/internal/log"
)

func testClient() *http.Client {
	return &http.Client{Timeout: 2 * time.Second}
}

func TestAuthenticateSuccess(t *testing.T) {
	var gotForm map[string]string
	var gotHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"socket_id":    r.PostFormValue("socket_id"),
			"channel_name": r.PostFormValue("channel_name"),
			"auth":         r.PostFormValue("auth"),
		}
		gotHeader = r.Header.Get("X-CSRF-Token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"channel_data":"{\"id\":42}"}`))
	}))
	defer ts.Close()

	a := New(testClient(), ts.URL, "/auth", log.Nop())
	result, err := a.Authenticate(context.Background(), core.Conn{ID: "s1"}, core.SubscribeRequest{
		Channel: "presence-room1",
		Auth:    "signature",
		Headers: http.Header{"X-Csrf-Token": {"tok"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ChannelData != `{"id":42}` {
		t.Fatalf("expected channel_data from authority, got %q", result.ChannelData)
	}
	if gotForm["socket_id"] != "s1" || gotForm["channel_name"] != "presence-room1" || gotForm["auth"] != "signature" {
		t.Fatalf("unexpected form: %v", gotForm)
	}
	if gotHeader != "tok" {
		t.Fatalf("client headers must ride along, got %q", gotHeader)
	}
}

func TestAuthenticateSuccessWithoutBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	a := New(testClient(), ts.URL, "/auth", log.Nop())
	result, err := a.Authenticate(context.Background(), core.Conn{ID: "s1"}, core.SubscribeRequest{Channel: "private-chat"})
	if err != nil {
		t.Fatalf("empty success body must still authenticate: %v", err)
	}
	if result.ChannelData != "" {
		t.Fatalf("expected no channel_data, got %q", result.ChannelData)
	}
}

func TestAuthenticateRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"reason":"bad signature"}`))
	}))
	defer ts.Close()

	a := New(testClient(), ts.URL, "/auth", log.Nop())
	_, err := a.Authenticate(context.Background(), core.Conn{ID: "s1"}, core.SubscribeRequest{Channel: "private-secret"})

	var authErr *core.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *core.AuthError, got %v", err)
	}
	if authErr.Status != 403 || authErr.Reason != "bad signature" {
		t.Fatalf("unexpected rejection: %+v", authErr)
	}
}

func TestAuthenticateRejectionWithoutReason(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	a := New(testClient(), ts.URL, "/auth", log.Nop())
	_, err := a.Authenticate(context.Background(), core.Conn{ID: "s1"}, core.SubscribeRequest{Channel: "private-secret"})

	var authErr *core.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *core.AuthError, got %v", err)
	}
	if authErr.Status != 401 || authErr.Reason == "" {
		t.Fatalf("expected a derived reason, got %+v", authErr)
	}
}

func TestAuthenticateUnreachableAuthority(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close() // nothing is listening anymore

	a := New(testClient(), ts.URL, "/auth", log.Nop())
	_, err := a.Authenticate(context.Background(), core.Conn{ID: "s1"}, core.SubscribeRequest{Channel: "private-secret"})

	var authErr *core.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *core.AuthError, got %v", err)
	}
	if authErr.Status != 0 {
		t.Fatalf("unreachable authority carries status 0, got %d", authErr.Status)
	}
}
