package bootstrap

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/lores-mesh/site-admin/internal/api/http"
	"github.com/lores-mesh/site-admin/internal/api/http/middleware"
	"github.com/lores-mesh/site-admin/internal/events"
	"github.com/lores-mesh/site-admin/internal/gateway"
	onboardinghttp "github.com/lores-mesh/site-admin/internal/onboarding/http"
	"github.com/lores-mesh/site-admin/internal/session"
)

type RouterDeps struct {
	ServiceName  string
	Version      string
	BasePath     string
	CORSOrigins  []string
	SecureCookie bool
	Client       *gateway.Client
	Events       events.Store
	Redis        *redis.Client
	Sessions     *session.Store
	WaitTimeout  time.Duration
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestIDMiddleware())

	if len(dep.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     dep.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
			ExposeHeaders:    []string{middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	basePath := "/" + strings.Trim(dep.BasePath, "/")
	if basePath == "/" {
		basePath = ""
	}
	admin := r.Group(basePath)

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Redis, dep.Client.Metrics())
	healthHandler.RegisterRoutes(admin)

	handler := onboardinghttp.New(onboardinghttp.Deps{
		Gateway:     dep.Client,
		Events:      dep.Events,
		Metrics:     dep.Client.Metrics(),
		Sessions:    dep.Sessions,
		WaitTimeout: dep.WaitTimeout,
	})
	handler.RegisterMetrics(admin)

	cookiePath := basePath
	if cookiePath == "" {
		cookiePath = "/"
	}

	api := admin.Group("/api")
	api.Use(session.Middleware(dep.Sessions, cookiePath, dep.SecureCookie))
	handler.Register(api)

	return r
}
