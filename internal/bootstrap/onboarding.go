package bootstrap

import (
	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/events"
	"github.com/lores-mesh/site-admin/internal/gateway"
	"github.com/lores-mesh/site-admin/internal/onboarding"
	"github.com/lores-mesh/site-admin/internal/session"
)

// NewLocalService picks the local identity API for kind.
func NewLocalService(g gateway.Gateway, kind domain.ScopeKind) onboarding.LocalService {
	if kind == domain.ScopeSite {
		return gateway.NewSiteAPI(g)
	}
	return gateway.NewNodeAPI(g)
}

// NewOrchestrator wires one onboarding orchestrator against the node API.
// Node deployments also get the node bootstrap operation.
func NewOrchestrator(g gateway.Gateway, kind domain.ScopeKind, sink events.Sink, sessionID string) *onboarding.Orchestrator {
	opts := []onboarding.Option{onboarding.WithSessionID(sessionID)}
	if sink != nil {
		opts = append(opts, onboarding.WithEvents(sink))
	}

	locals := NewLocalService(g, kind)
	if nodes, ok := locals.(*gateway.NodeAPI); ok {
		opts = append(opts, onboarding.WithNodeBootstrapper(nodes))
	}

	return onboarding.New(gateway.NewRegionAPI(g), locals, opts...)
}

// NewSessionStore returns a session store whose orchestrators share g and
// sink.
func NewSessionStore(g gateway.Gateway, kind domain.ScopeKind, sink events.Sink) *session.Store {
	return session.NewStore(func(sessionID string) *onboarding.Orchestrator {
		return NewOrchestrator(g, kind, sink, sessionID)
	})
}
