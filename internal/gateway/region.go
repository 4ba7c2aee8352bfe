package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/result"
)

const (
	OpThisRegion          = "this_region"
	OpThisRegionCreate    = "this_region/create"
	OpThisRegionBootstrap = "this_region/bootstrap"
	OpThisRegionNodes     = "this_region/nodes"
	OpThisRegionSites     = "this_region/sites"
)

// RegionAPI is the this_region specialization of the gateway.
type RegionAPI struct {
	g Gateway
}

func NewRegionAPI(g Gateway) *RegionAPI {
	return &RegionAPI{g: g}
}

// Show looks up the region this machine belongs to.
func (a *RegionAPI) Show(ctx context.Context) result.Lookup[domain.Region] {
	return result.Map(Find[domain.Region](ctx, a.g, OpThisRegion), normalizeRegion)
}

func (a *RegionAPI) Create(ctx context.Context, form domain.NewRegion) (result.Result[domain.Region], error) {
	res, err := Invoke[domain.Region](ctx, a.g, OpThisRegionCreate, http.MethodPost, form)
	if err != nil || !res.IsOk() {
		return res, err
	}
	region := res.Value()
	if region.Name == "" {
		region.Name = form.Name
	}
	if region.Description == "" {
		region.Description = form.Description
	}
	return result.Ok(normalizeRegion(region)), nil
}

// Bootstrap joins (or starts) the named network. The node answers with
// the region, its identifier, or nothing; all three fold into a Region.
func (a *RegionAPI) Bootstrap(ctx context.Context, form domain.JoinRegion) (result.Result[domain.Region], error) {
	res, err := Invoke[json.RawMessage](ctx, a.g, OpThisRegionBootstrap, http.MethodPost, form)
	if err != nil {
		return result.Result[domain.Region]{}, err
	}
	if !res.IsOk() {
		return result.Err[domain.Region](res.Error()), nil
	}

	region := domain.Region{NetworkID: form.NetworkName, Name: form.NetworkName}
	payload := bytes.TrimSpace(res.Value())
	switch {
	case isNull(payload):
	case payload[0] == '"':
		var id string
		if err := json.Unmarshal(payload, &id); err != nil {
			return result.Result[domain.Region]{}, &TransportError{Operation: OpThisRegionBootstrap, Err: fmt.Errorf("decode payload: %w", err)}
		}
		if id != "" {
			region.ID = id
			region.NetworkID = id
		}
	case payload[0] == '{':
		var decoded domain.Region
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return result.Result[domain.Region]{}, &TransportError{Operation: OpThisRegionBootstrap, Err: fmt.Errorf("decode payload: %w", err)}
		}
		if decoded.Name == "" {
			decoded.Name = form.NetworkName
		}
		region = decoded
	}
	return result.Ok(normalizeRegion(region)), nil
}

func (a *RegionAPI) Nodes(ctx context.Context) (result.Result[[]domain.Node], error) {
	res, err := Invoke[[]domain.Node](ctx, a.g, OpThisRegionNodes, http.MethodGet, nil)
	if err != nil || !res.IsOk() {
		return res, err
	}
	nodes := res.Value()
	if nodes == nil {
		nodes = []domain.Node{}
	}
	for i := range nodes {
		nodes[i] = normalizeNode(nodes[i])
	}
	return result.Ok(nodes), nil
}

func (a *RegionAPI) Sites(ctx context.Context) (result.Result[[]domain.Site], error) {
	res, err := Invoke[[]domain.Site](ctx, a.g, OpThisRegionSites, http.MethodGet, nil)
	if err != nil || !res.IsOk() {
		return res, err
	}
	if res.Value() == nil {
		return result.Ok([]domain.Site{}), nil
	}
	return res, nil
}

// normalizeRegion fills the identifiers the node leaves implicit: older
// nodes only send network_id, newer ones also send id and name.
func normalizeRegion(r domain.Region) domain.Region {
	if r.NetworkID == "" {
		r.NetworkID = r.Name
	}
	if r.Name == "" {
		r.Name = r.NetworkID
	}
	if r.ID == "" {
		r.ID = r.NetworkID
	}
	return r
}
