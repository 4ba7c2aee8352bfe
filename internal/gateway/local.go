package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/result"
)

const (
	OpThisNode          = "this_node"
	OpThisNodeCreate    = "this_node/create"
	OpThisNodeBootstrap = "this_node/bootstrap"
	OpThisNodeRestart   = "this_node/restart"

	OpThisSite       = "this_site"
	OpThisSiteCreate = "this_site/create"
)

// NodeAPI is the this_node specialization of the gateway.
type NodeAPI struct {
	g Gateway
}

func NewNodeAPI(g Gateway) *NodeAPI {
	return &NodeAPI{g: g}
}

func (a *NodeAPI) Show(ctx context.Context) result.Lookup[domain.Node] {
	return result.Map(Find[domain.Node](ctx, a.g, OpThisNode), normalizeNode)
}

func (a *NodeAPI) Create(ctx context.Context, form domain.NewLocal) (result.Result[domain.Node], error) {
	res, err := Invoke[domain.Node](ctx, a.g, OpThisNodeCreate, http.MethodPost, form)
	if err != nil || !res.IsOk() {
		return res, err
	}
	node := res.Value()
	if node.Name == "" {
		node.Name = form.Name
	}
	return result.Ok(normalizeNode(node)), nil
}

// Bootstrap points this node at a peer of an existing network. The node
// answers with no payload; callers look the node up afterwards.
func (a *NodeAPI) Bootstrap(ctx context.Context, form domain.BootstrapNode) (result.Result[json.RawMessage], error) {
	return Invoke[json.RawMessage](ctx, a.g, OpThisNodeBootstrap, http.MethodPost, form)
}

func (a *NodeAPI) Restart(ctx context.Context) (result.Result[json.RawMessage], error) {
	return Invoke[json.RawMessage](ctx, a.g, OpThisNodeRestart, http.MethodPost, nil)
}

func (a *NodeAPI) Kind() domain.ScopeKind { return domain.ScopeNode }

func (a *NodeAPI) FindLocal(ctx context.Context) result.Lookup[domain.Local] {
	return result.Map(a.Show(ctx), func(n domain.Node) domain.Local { return n })
}

func (a *NodeAPI) CreateLocal(ctx context.Context, form domain.NewLocal) (result.Result[domain.Local], error) {
	res, err := a.Create(ctx, form)
	if err != nil {
		return result.Result[domain.Local]{}, err
	}
	if !res.IsOk() {
		return result.Err[domain.Local](res.Error()), nil
	}
	return result.Ok[domain.Local](res.Value()), nil
}

func normalizeNode(n domain.Node) domain.Node {
	if n.ID == "" {
		n.ID = n.PandaNodeID
	}
	if n.Addr.NodeID == "" {
		n.Addr.NodeID = n.PandaNodeID
	}
	if n.Peers == nil {
		n.Peers = []domain.NodeAddr{}
	}
	return n
}

// SiteAPI is the this_site specialization of the gateway.
type SiteAPI struct {
	g Gateway
}

func NewSiteAPI(g Gateway) *SiteAPI {
	return &SiteAPI{g: g}
}

func (a *SiteAPI) Show(ctx context.Context) result.Lookup[domain.Site] {
	return Find[domain.Site](ctx, a.g, OpThisSite)
}

func (a *SiteAPI) Create(ctx context.Context, form domain.NewLocal) (result.Result[domain.Site], error) {
	res, err := Invoke[domain.Site](ctx, a.g, OpThisSiteCreate, http.MethodPost, form)
	if err != nil || !res.IsOk() {
		return res, err
	}
	site := res.Value()
	if site.Name == "" {
		site.Name = form.Name
	}
	return result.Ok(site), nil
}

func (a *SiteAPI) Kind() domain.ScopeKind { return domain.ScopeSite }

func (a *SiteAPI) FindLocal(ctx context.Context) result.Lookup[domain.Local] {
	return result.Map(a.Show(ctx), func(s domain.Site) domain.Local { return s })
}

func (a *SiteAPI) CreateLocal(ctx context.Context, form domain.NewLocal) (result.Result[domain.Local], error) {
	res, err := a.Create(ctx, form)
	if err != nil {
		return result.Result[domain.Local]{}, err
	}
	if !res.IsOk() {
		return result.Err[domain.Local](res.Error()), nil
	}
	return result.Ok[domain.Local](res.Value()), nil
}
