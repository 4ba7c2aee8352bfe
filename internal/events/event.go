// Package events records onboarding transitions so operators can see how
// a machine reached its current stage.
package events

import (
	"context"
	"time"

	"github.com/lores-mesh/site-admin/internal/stage"
)

// Trigger names what caused a transition.
type Trigger string

const (
	TriggerResolve       Trigger = "resolve"
	TriggerCreateRegion  Trigger = "create_region"
	TriggerJoinRegion    Trigger = "join_region"
	TriggerCreateLocal   Trigger = "create_local"
	TriggerBootstrapNode Trigger = "bootstrap_node"
	TriggerFailure       Trigger = "failure"
)

// Event is one applied transition. From is nil for the first resolution
// of a session; To is nil when a failure struck before any resolution.
type Event struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id"`
	Trigger   Trigger      `json:"trigger"`
	From      *stage.Stage `json:"from,omitempty"`
	To        *stage.Stage `json:"to,omitempty"`
	Region    string       `json:"region,omitempty"`
	Local     string       `json:"local,omitempty"`
	Error     string       `json:"error,omitempty"`
	At        time.Time    `json:"at"`
}

// Sink receives transition events.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// Store is a Sink that can also list what it recorded, newest first.
// An empty sessionID lists events across all sessions.
type Store interface {
	Sink
	Recent(ctx context.Context, sessionID string, limit int) ([]Event, error)
}

const DefaultLimit = 50
