package http

import "github.com/gin-gonic/gin"

// Register registers the onboarding and ready-scoped routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/onboarding", h.GetOnboarding)
	rg.GET("/onboarding/stream", h.StreamOnboarding)
	rg.GET("/onboarding/events", h.ListEvents)
	rg.POST("/onboarding/region", h.CreateRegion)
	rg.POST("/onboarding/region/join", h.JoinRegion)
	rg.POST("/onboarding/local", h.CreateLocal)
	rg.POST("/onboarding/node/bootstrap", h.BootstrapNode)
	rg.POST("/onboarding/retry", h.Retry)

	ready := rg.Group("", h.requireReady())
	ready.GET("/region", h.GetRegion)
	ready.GET("/region/nodes", h.ListNodes)
	ready.GET("/region/nodes/:id", h.GetNode)
	ready.GET("/region/sites", h.ListSites)
	ready.GET("/region/sites/:id", h.GetSite)
	ready.GET("/node", h.GetNetworkNode)
	ready.POST("/node/restart", h.RestartNode)
	ready.POST("/node/p2panda/restart", h.RestartPandaNode)
	ready.GET("/apps", h.ListApps)
}

// RegisterMetrics mounts the counters outside the session middleware so
// scrapes do not mint sessions.
func (h *Handler) RegisterMetrics(rg *gin.RouterGroup) {
	rg.GET("/metrics", h.Metrics)
}
