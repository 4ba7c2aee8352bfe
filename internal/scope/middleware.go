package scope

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lores-mesh/site-admin/internal/stage"
)

const CtxScope = "scope"

// Provider exposes a resolved scope. Implemented by the onboarding
// orchestrator.
type Provider interface {
	Stage() (stage.Stage, bool)
	Scope() (Scope, bool)
}

// RequireReady guards routes that only make sense once onboarding is
// complete. lookup finds the provider for the current request; requests
// that are not Ready are aborted with 409 and the current stage.
func RequireReady(lookup func(c *gin.Context) (Provider, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := lookup(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "no onboarding session"})
			return
		}

		s, ok := p.Scope()
		if !ok {
			body := gin.H{"ok": false, "error": "onboarding not complete", "stage": nil}
			if st, resolved := p.Stage(); resolved {
				body["stage"] = st
			}
			c.AbortWithStatusJSON(http.StatusConflict, body)
			return
		}

		c.Set(CtxScope, s)
		c.Request = c.Request.WithContext(WithScope(c.Request.Context(), s))
		c.Next()
	}
}

// FromGin returns the scope stored by RequireReady.
func FromGin(c *gin.Context) (Scope, bool) {
	v, ok := c.Get(CtxScope)
	if !ok {
		return Scope{}, false
	}
	s, ok := v.(Scope)
	return s, ok && !s.IsZero()
}
