package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/scope"
)

func (h *Handler) requireReady() gin.HandlerFunc {
	return scope.RequireReady(h.provider)
}

// GetRegion returns the resolved region and local identity.
func (h *Handler) GetRegion(c *gin.Context) {
	s := scope.Must(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"region":     s.Region(),
		"local":      s.Local(),
		"scope_kind": s.Kind(),
	})
}

func (h *Handler) ListNodes(c *gin.Context) {
	res, err := h.regions.Nodes(c.Request.Context())
	respondResult(c, "nodes", res, err)
}

func (h *Handler) GetNode(c *gin.Context) {
	res, err := h.regions.Nodes(c.Request.Context())
	if err != nil || !res.IsOk() {
		respondResult(c, "node", res, err)
		return
	}
	id := c.Param("id")
	for _, n := range res.Value() {
		if n.ID == id {
			c.JSON(http.StatusOK, gin.H{"node": n})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "node not found"})
}

func (h *Handler) ListSites(c *gin.Context) {
	res, err := h.regions.Sites(c.Request.Context())
	respondResult(c, "sites", res, err)
}

func (h *Handler) GetSite(c *gin.Context) {
	res, err := h.regions.Sites(c.Request.Context())
	if err != nil || !res.IsOk() {
		respondResult(c, "site", res, err)
		return
	}
	id := c.Param("id")
	for _, s := range res.Value() {
		if s.ID == id {
			c.JSON(http.StatusOK, gin.H{"site": s})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "site not found"})
}

// GetNetworkNode returns this node's network identity and peers.
func (h *Handler) GetNetworkNode(c *gin.Context) {
	respondLookup(c, "node", h.panda.Show(c.Request.Context()))
}

func (h *Handler) RestartNode(c *gin.Context) {
	if s := scope.Must(c.Request.Context()); s.Kind() != domain.ScopeNode {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "restart is only available on node deployments"})
		return
	}
	res, err := h.nodes.Restart(c.Request.Context())
	if err != nil || !res.IsOk() {
		respondResult(c, "result", res, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) RestartPandaNode(c *gin.Context) {
	res, err := h.panda.Restart(c.Request.Context())
	if err != nil || !res.IsOk() {
		respondResult(c, "result", res, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) ListApps(c *gin.Context) {
	res, err := h.apps.List(c.Request.Context())
	respondResult(c, "apps", res, err)
}
