package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 15 * time.Second

// StreamOnboarding streams the session's view using Server-Sent Events
// (SSE): an initial event, then an update whenever the view changes.
func (h *Handler) StreamOnboarding(c *gin.Context) {
	o, ok := orchestrator(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	changed := o.Changed()
	o.Mount(c.Request.Context())

	view := o.View()
	initialData, _ := json.Marshal(gin.H{"view": view})
	fmt.Fprintf(c.Writer, "event: initial\ndata: %s\n\n", string(initialData))
	flusher.Flush()

	ctx := c.Request.Context()
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	lastVersion := view.Version
	for {
		select {
		case <-ctx.Done():
			// Client disconnected
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case <-changed:
			changed = o.Changed()
			view := o.View()
			if view.Version == lastVersion {
				continue
			}
			lastVersion = view.Version

			eventData, _ := json.Marshal(gin.H{"view": view})
			fmt.Fprintf(c.Writer, "event: update\ndata: %s\n\n", string(eventData))
			flusher.Flush()
		}
	}
}
