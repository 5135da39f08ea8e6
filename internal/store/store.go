package store

import (
	"context"
	"time"
)

// HookDelivery is the recorded outcome of one webhook delivery attempt.
type HookDelivery struct {
	ID        int64
	Event     string
	Channel   string
	Status    int
	Error     string
	CreatedAt time.Time
}

// AuthFailure is a rejected private-channel subscription attempt.
type AuthFailure struct {
	ID        int64
	Channel   string
	SocketID  string
	Status    int
	Reason    string
	CreatedAt time.Time
}

// HookStats aggregates webhook delivery outcomes.
type HookStats struct {
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
}

// Journal is the gateway's operational audit log. Channel state itself is
// never persisted; the journal records notification outcomes and auth
// rejections for introspection only, and every write is best-effort.
type Journal interface {
	RecordHookDelivery(ctx context.Context, d HookDelivery) error
	RecordAuthFailure(ctx context.Context, f AuthFailure) error
	HookStats(ctx context.Context) (HookStats, error)
	RecentAuthFailures(ctx context.Context, limit int) ([]AuthFailure, error)
	Close() error
}
