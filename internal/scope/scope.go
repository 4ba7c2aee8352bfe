// Package scope carries the resolved region and local identity to code
// that runs below a Ready onboarding stage. A Scope is built once per
// successful resolution and is read-only afterwards.
package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/lores-mesh/site-admin/internal/domain"
)

var ErrIncomplete = errors.New("scope requires a region and a local identity")

// Scope is a fully populated snapshot. The zero value is the empty scope
// and is never stored in a context.
type Scope struct {
	region domain.Region
	local  domain.Local
}

// New builds a scope, refusing partial input.
func New(region domain.Region, local domain.Local) (Scope, error) {
	if region.NetworkID == "" && region.Name == "" {
		return Scope{}, fmt.Errorf("%w: region has no identifier", ErrIncomplete)
	}
	if local == nil {
		return Scope{}, fmt.Errorf("%w: local identity missing", ErrIncomplete)
	}
	return Scope{region: region, local: local}, nil
}

func (s Scope) IsZero() bool { return s.local == nil }

func (s Scope) Region() domain.Region { return s.region }

func (s Scope) Local() domain.Local { return s.local }

func (s Scope) Kind() domain.ScopeKind {
	if s.local == nil {
		return ""
	}
	return s.local.Kind()
}

// Node returns the local identity when this is a node-scoped tree.
func (s Scope) Node() (domain.Node, bool) {
	n, ok := s.local.(domain.Node)
	return n, ok
}

// Site returns the local identity when this is a site-scoped tree.
func (s Scope) Site() (domain.Site, bool) {
	site, ok := s.local.(domain.Site)
	return site, ok
}

type scopeKey struct{}

// WithScope returns a copy of ctx carrying s. An empty scope is not
// stored.
func WithScope(ctx context.Context, s Scope) context.Context {
	if s.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, s)
}

func From(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	return s, ok && !s.IsZero()
}

func Region(ctx context.Context) (domain.Region, bool) {
	s, ok := From(ctx)
	if !ok {
		return domain.Region{}, false
	}
	return s.Region(), true
}

func Node(ctx context.Context) (domain.Node, bool) {
	s, ok := From(ctx)
	if !ok {
		return domain.Node{}, false
	}
	return s.Node()
}

func Site(ctx context.Context) (domain.Site, bool) {
	s, ok := From(ctx)
	if !ok {
		return domain.Site{}, false
	}
	return s.Site()
}
