package missions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coach-backend/internal/shared/server/middleware"
	"coach-backend/internal/shared/server/respond"
)

// Handler exposes mission endpoints.
type Handler struct {
	Repo Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/mission", h.getMission)
	rg.PUT("/mission", h.putMission)
}

func (h *Handler) getMission(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	mission, err := h.Repo.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "mission not set", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load mission", nil)
		return
	}
	respond.JSON(c, http.StatusOK, mission)
}

type putMissionRequest struct {
	TargetRole     string `json:"targetRole"`
	TargetCompany  string `json:"targetCompany"`
	Seniority      string `json:"seniority"`
	JobDescription string `json:"jobDescription"`
	Timeline       string `json:"timeline"`
}

func (h *Handler) putMission(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req putMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	mission := Mission{
		UserID:         userID,
		TargetRole:     strings.TrimSpace(req.TargetRole),
		TargetCompany:  strings.TrimSpace(req.TargetCompany),
		Seniority:      strings.TrimSpace(req.Seniority),
		JobDescription: strings.TrimSpace(req.JobDescription),
		Timeline:       strings.TrimSpace(req.Timeline),
	}
	if mission.Empty() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "mission requires a target role, company, or job description", nil)
		return
	}
	if err := h.Repo.Put(c.Request.Context(), mission); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store mission", nil)
		return
	}
	respond.JSON(c, http.StatusOK, mission)
}
