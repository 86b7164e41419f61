package credits

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coach-backend/internal/shared/server/middleware"
	"coach-backend/internal/shared/server/respond"
)

// Handler exposes credit endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches credit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/credits", h.getCredits)
}

// RegisterDevRoutes attaches dev-only credit routes.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/credits/reset", h.resetCredits)
}

func (h *Handler) getCredits(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	snap, err := h.Svc.EnsurePeriod(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch credits", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"plan":      snap.Plan,
		"unlimited": snap.Unlimited,
		"balances":  snap.Balances,
		"resetsAt":  snap.ResetsAt,
	})
}

func (h *Handler) resetCredits(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	snap, err := h.Svc.Reset(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to reset credits", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"plan":      snap.Plan,
		"unlimited": snap.Unlimited,
		"balances":  snap.Balances,
		"resetsAt":  snap.ResetsAt,
	})
}
