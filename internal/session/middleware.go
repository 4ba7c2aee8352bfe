package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lores-mesh/site-admin/internal/onboarding"
)

const (
	CookieName = "lores_admin_session"

	CtxSessionID    = "session_id"
	CtxOrchestrator = "onboarding"
)

// Middleware attaches the session's orchestrator to the request, issuing
// a session cookie when the request has none.
func Middleware(store *Store, path string, secure bool) gin.HandlerFunc {
	if path == "" {
		path = "/"
	}
	return func(c *gin.Context) {
		id, err := c.Cookie(CookieName)
		if err != nil || uuid.Validate(strings.TrimSpace(id)) != nil {
			id = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CookieName, id, 0, path, "", secure, true)
		}

		c.Set(CtxSessionID, id)
		c.Set(CtxOrchestrator, store.Get(id))
		c.Next()
	}
}

// Orchestrator returns the orchestrator attached by Middleware.
func Orchestrator(c *gin.Context) (*onboarding.Orchestrator, bool) {
	v, ok := c.Get(CtxOrchestrator)
	if !ok {
		return nil, false
	}
	o, ok := v.(*onboarding.Orchestrator)
	return o, ok && o != nil
}

func ID(c *gin.Context) string {
	return c.GetString(CtxSessionID)
}
