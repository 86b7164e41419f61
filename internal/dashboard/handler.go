package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coach-backend/internal/shared/server/middleware"
	"coach-backend/internal/shared/server/respond"
)

// Handler exposes the dashboard endpoint.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.getDashboard)
}

func (h *Handler) getDashboard(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	view, err := h.Svc.Build(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build dashboard", nil)
		return
	}
	respond.JSON(c, http.StatusOK, view)
}
