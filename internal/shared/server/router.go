package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "coach-backend/internal/auth"
	"coach-backend/internal/billing"
	"coach-backend/internal/coach"
	"coach-backend/internal/credits"
	"coach-backend/internal/dashboard"
	"coach-backend/internal/interviews"
	"coach-backend/internal/missions"
	"coach-backend/internal/resumes"
	"coach-backend/internal/shared/config"
	"coach-backend/internal/shared/metrics"
	"coach-backend/internal/shared/server/middleware"
	"coach-backend/internal/shared/server/respond"
	"coach-backend/internal/users"
)

// RouterDeps carries the handlers the router mounts. Bootstrap fills it in.
type RouterDeps struct {
	Config           config.Config
	UsersHandler     *users.Handler
	CreditsHandler   *credits.Handler
	MissionsHandler  *missions.Handler
	InterviewHandler *interviews.Handler
	ResumesHandler   *resumes.Handler
	DashboardHandler *dashboard.Handler
	CoachHandler     *coach.Handler
	BillingHandler   *billing.Handler
	GoogleAuth       *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Auth runs before the rate limiter so authenticated traffic is
	// throttled per user rather than per client IP.
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(rateLimitConfig()),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.CreditsHandler != nil {
		deps.CreditsHandler.RegisterRoutes(api)
	}
	if deps.MissionsHandler != nil {
		deps.MissionsHandler.RegisterRoutes(api)
	}
	if deps.InterviewHandler != nil {
		deps.InterviewHandler.RegisterRoutes(api)
	}
	if deps.ResumesHandler != nil {
		deps.ResumesHandler.RegisterRoutes(api)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterRoutes(api)
	}
	if deps.CoachHandler != nil {
		deps.CoachHandler.RegisterRoutes(api)
	}
	if deps.Config.Env == "dev" && deps.CreditsHandler != nil {
		dev := api.Group("/dev")
		deps.CreditsHandler.RegisterDevRoutes(dev)
	}

	// Billing keeps its own top-level group so the auth middleware skip
	// list can match it; identity is re-checked in the handlers.
	if deps.BillingHandler != nil {
		deps.BillingHandler.RegisterRoutes(r.Group("/billing"))
	}

	return r
}

// rateLimitConfig throttles LLM-backed routes harder than plain reads.
func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 10, Burst: 20},
			"LLM":     {Rate: 1, Burst: 5},
		},
		GroupFor: func(c *gin.Context) string {
			path := c.Request.URL.Path
			if strings.HasPrefix(path, "/api/v1/coach") ||
				strings.HasPrefix(path, "/api/v1/interviews") {
				return "LLM"
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
