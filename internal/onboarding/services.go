package onboarding

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/result"
)

var (
	// ErrBlocked is returned by submissions while a transport failure is
	// shown. Retry clears it.
	ErrBlocked = errors.New("onboarding blocked by a failure, retry first")

	// ErrUnsupported is returned for operations the configured local scope
	// does not offer, e.g. node bootstrap on a site deployment.
	ErrUnsupported = errors.New("operation not supported for this local scope")
)

// RegionService is the region half of the node API.
type RegionService interface {
	Show(ctx context.Context) result.Lookup[domain.Region]
	Create(ctx context.Context, form domain.NewRegion) (result.Result[domain.Region], error)
	Bootstrap(ctx context.Context, form domain.JoinRegion) (result.Result[domain.Region], error)
}

// LocalService finds and creates the local identity. Its Kind fixes
// whether the orchestrator onboards a node or a site.
type LocalService interface {
	Kind() domain.ScopeKind
	FindLocal(ctx context.Context) result.Lookup[domain.Local]
	CreateLocal(ctx context.Context, form domain.NewLocal) (result.Result[domain.Local], error)
}

// NodeBootstrapper connects this node to a peer of an existing network.
type NodeBootstrapper interface {
	Bootstrap(ctx context.Context, form domain.BootstrapNode) (result.Result[json.RawMessage], error)
}
