package onboarding

import (
	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/stage"
)

// Screen is the render decision for the current state.
type Screen string

const (
	ScreenLoading      Screen = "loading"
	ScreenFailed       Screen = "failed"
	ScreenRegionChoice Screen = "region_choice"
	ScreenLocalSetup   Screen = "local_setup"
	ScreenReady        Screen = "ready"
)

// Form names used in FormError.
const (
	FormNewRegion     = "new_region"
	FormJoinRegion    = "join_region"
	FormNewLocal      = "new_local"
	FormBootstrapNode = "bootstrap_node"
)

// FormError is a domain error shown next to the form that produced it.
type FormError struct {
	Form    string `json:"form"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// View is a snapshot of everything a front-end needs to render.
// Stage is nil until a resolution has succeeded.
type View struct {
	Screen    Screen           `json:"screen"`
	Stage     *stage.Stage     `json:"stage"`
	Loading   bool             `json:"loading"`
	ScopeKind domain.ScopeKind `json:"scope_kind"`
	Region    *domain.Region   `json:"region,omitempty"`
	Local     domain.Local     `json:"local,omitempty"`
	FormError *FormError       `json:"form_error,omitempty"`
	Failure   string           `json:"failure,omitempty"`
	Version   uint64           `json:"version"`
}

// screenFor applies the render order: loading, failure, then stage.
func screenFor(loading, resolved bool, failure error, st stage.Stage) Screen {
	switch {
	case loading:
		return ScreenLoading
	case failure != nil:
		return ScreenFailed
	case !resolved:
		return ScreenLoading
	case st == stage.NoRegion:
		return ScreenRegionChoice
	case st == stage.RegionPendingNode:
		return ScreenLocalSetup
	default:
		return ScreenReady
	}
}
