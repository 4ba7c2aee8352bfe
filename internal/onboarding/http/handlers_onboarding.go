package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/events"
	"github.com/lores-mesh/site-admin/internal/session"
)

// GetOnboarding starts the resolution for this session and returns the
// current view. With ?wait=true it first waits for loading to finish.
func (h *Handler) GetOnboarding(c *gin.Context) {
	o, ok := orchestrator(c)
	if !ok {
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		h.waitResolved(c, o)
	} else {
		o.Mount(c.Request.Context())
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "view": o.View()})
}

// Submissions on a fresh session resolve first, bounded by the wait timeout.
func (h *Handler) CreateRegion(c *gin.Context) {
	o, ok := orchestrator(c)
	if !ok {
		return
	}
	var form domain.NewRegion
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	h.waitResolved(c, o)
	v, err := o.CreateRegion(c.Request.Context(), form)
	respondSubmission(c, v, err)
}

func (h *Handler) JoinRegion(c *gin.Context) {
	o, ok := orchestrator(c)
	if !ok {
		return
	}
	var form domain.JoinRegion
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	h.waitResolved(c, o)
	v, err := o.JoinRegion(c.Request.Context(), form)
	respondSubmission(c, v, err)
}

func (h *Handler) CreateLocal(c *gin.Context) {
	o, ok := orchestrator(c)
	if !ok {
		return
	}
	var form domain.NewLocal
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	h.waitResolved(c, o)
	v, err := o.CreateLocal(c.Request.Context(), form)
	respondSubmission(c, v, err)
}

func (h *Handler) BootstrapNode(c *gin.Context) {
	o, ok := orchestrator(c)
	if !ok {
		return
	}
	var form domain.BootstrapNode
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	h.waitResolved(c, o)
	v, err := o.BootstrapNode(c.Request.Context(), form)
	respondSubmission(c, v, err)
}

// Retry clears a blocking failure and resolves again.
func (h *Handler) Retry(c *gin.Context) {
	o, ok := orchestrator(c)
	if !ok {
		return
	}
	err := o.Retry(c.Request.Context())
	respondSubmission(c, o.View(), err)
}

// ListEvents returns recent transitions, for this session by default or
// across sessions with ?all=true.
func (h *Handler) ListEvents(c *gin.Context) {
	if h.events == nil {
		c.JSON(http.StatusOK, gin.H{"events": []events.Event{}})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(events.DefaultLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "limit must be a positive integer"})
		return
	}

	sessionID := session.ID(c)
	if all, _ := strconv.ParseBool(c.Query("all")); all {
		sessionID = ""
	}

	list, err := h.events.Recent(c.Request.Context(), sessionID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": list})
}

// Metrics reports gateway call counters and the number of live sessions.
func (h *Handler) Metrics(c *gin.Context) {
	body := gin.H{}
	if h.metrics != nil {
		body["gateway"] = h.metrics.Snapshot()
	}
	if h.sessions != nil {
		body["sessions"] = h.sessions.Len()
	}
	c.JSON(http.StatusOK, body)
}
