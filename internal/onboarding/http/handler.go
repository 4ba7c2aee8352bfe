package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lores-mesh/site-admin/internal/events"
	"github.com/lores-mesh/site-admin/internal/gateway"
	"github.com/lores-mesh/site-admin/internal/onboarding"
	"github.com/lores-mesh/site-admin/internal/result"
	"github.com/lores-mesh/site-admin/internal/scope"
	"github.com/lores-mesh/site-admin/internal/session"
)

const defaultWaitTimeout = 10 * time.Second

// Deps are the collaborators of Handler.
type Deps struct {
	Gateway     gateway.Gateway
	Events      events.Store
	Metrics     *gateway.Metrics
	Sessions    *session.Store
	WaitTimeout time.Duration
}

// Handler serves the onboarding flow and the views that need a resolved
// scope.
type Handler struct {
	regions     *gateway.RegionAPI
	nodes       *gateway.NodeAPI
	panda       *gateway.PandaNodeAPI
	apps        *gateway.AppsAPI
	events      events.Store
	metrics     *gateway.Metrics
	sessions    *session.Store
	waitTimeout time.Duration
}

func New(dep Deps) *Handler {
	if dep.WaitTimeout <= 0 {
		dep.WaitTimeout = defaultWaitTimeout
	}
	return &Handler{
		regions:     gateway.NewRegionAPI(dep.Gateway),
		nodes:       gateway.NewNodeAPI(dep.Gateway),
		panda:       gateway.NewPandaNodeAPI(dep.Gateway),
		apps:        gateway.NewAppsAPI(dep.Gateway),
		events:      dep.Events,
		metrics:     dep.Metrics,
		sessions:    dep.Sessions,
		waitTimeout: dep.WaitTimeout,
	}
}

// orchestrator fetches the session's orchestrator or answers 500.
func orchestrator(c *gin.Context) (*onboarding.Orchestrator, bool) {
	o, ok := session.Orchestrator(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no onboarding session"})
		return nil, false
	}
	return o, true
}

// waitResolved mounts the orchestrator and waits, bounded by the
// handler's wait timeout, for the resolution to settle.
func (h *Handler) waitResolved(c *gin.Context, o *onboarding.Orchestrator) {
	o.Mount(c.Request.Context())
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.waitTimeout)
	defer cancel()
	_ = o.Wait(ctx)
}

// provider is the scope.RequireReady lookup.
func (h *Handler) provider(c *gin.Context) (scope.Provider, bool) {
	o, ok := session.Orchestrator(c)
	if !ok {
		return nil, false
	}
	h.waitResolved(c, o)
	return o, true
}

func respondSubmission(c *gin.Context, v onboarding.View, err error) {
	var domainErr *result.DomainError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "view": v})
	case errors.Is(err, onboarding.ErrUnsupported):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error(), "view": v})
	case onboarding.IsWrongStage(err), errors.Is(err, onboarding.ErrBlocked):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error(), "view": v})
	case errors.As(err, &domainErr):
		c.JSON(domainStatus(domainErr), gin.H{"ok": false, "error": domainErr.Message, "code": domainErr.Code, "view": v})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error(), "view": v})
	}
}

// respondResult writes a node API answer under key.
func respondResult[T any](c *gin.Context, key string, res result.Result[T], err error) {
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !res.IsOk() {
		domainErr := res.Error()
		c.JSON(domainStatus(domainErr), gin.H{"ok": false, "error": domainErr.Message, "code": domainErr.Code})
		return
	}
	c.JSON(http.StatusOK, gin.H{key: res.Value()})
}

func respondLookup[T any](c *gin.Context, key string, l result.Lookup[T]) {
	switch l.State() {
	case result.StatePresent:
		v, _ := l.Value()
		c.JSON(http.StatusOK, gin.H{key: v})
	case result.StateAbsent:
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": key + " not found"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": l.Cause().Error()})
	}
}

func domainStatus(e *result.DomainError) int {
	if e.Status >= 400 && e.Status < 600 {
		return e.Status
	}
	return http.StatusUnprocessableEntity
}
