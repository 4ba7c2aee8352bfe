package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/result"
)

const (
	OpThisPandaNode        = "this_p2panda_node"
	OpThisPandaNodeRestart = "this_p2panda_node/restart"
	OpApps                 = "apps"
)

// PandaNodeAPI reads and restarts the running network node.
type PandaNodeAPI struct {
	g Gateway
}

func NewPandaNodeAPI(g Gateway) *PandaNodeAPI {
	return &PandaNodeAPI{g: g}
}

func (a *PandaNodeAPI) Show(ctx context.Context) result.Lookup[domain.PandaNode] {
	return result.Map(Find[domain.PandaNode](ctx, a.g, OpThisPandaNode), func(n domain.PandaNode) domain.PandaNode {
		if n.Peers == nil {
			n.Peers = []domain.NodeAddr{}
		}
		return n
	})
}

func (a *PandaNodeAPI) Restart(ctx context.Context) (result.Result[json.RawMessage], error) {
	return Invoke[json.RawMessage](ctx, a.g, OpThisPandaNodeRestart, http.MethodPost, nil)
}

// AppsAPI lists the applications installed on this site.
type AppsAPI struct {
	g Gateway
}

func NewAppsAPI(g Gateway) *AppsAPI {
	return &AppsAPI{g: g}
}

func (a *AppsAPI) List(ctx context.Context) (result.Result[[]domain.App], error) {
	res, err := Invoke[[]domain.App](ctx, a.g, OpApps, http.MethodGet, nil)
	if err != nil || !res.IsOk() {
		return res, err
	}
	if res.Value() == nil {
		return result.Ok([]domain.App{}), nil
	}
	return res, nil
}
