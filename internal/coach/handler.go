package coach

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coach-backend/internal/credits"
	"coach-backend/internal/shared/server/middleware"
	"coach-backend/internal/shared/server/respond"
	"coach-backend/internal/speech"
)

// Handler wires the action dispatcher and its dedicated routes.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/coach", h.dispatch)
	rg.POST("/optimize", h.optimize)
	rg.POST("/analyze-jd", h.analyzeJD)
	rg.POST("/get-feedback", h.getFeedback)
	rg.POST("/generate-model-answer", h.generateModelAnswer)
	rg.POST("/speak", h.speak)
}

func (h *Handler) dispatch(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	if req.Action == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "action is required", []map[string]string{
			{"field": "action", "issue": "required"},
		})
		return
	}

	result, err := h.Svc.Run(c.Request.Context(), userID, req)
	if err != nil {
		h.respondActionError(c, req.Action, err)
		return
	}
	respond.Data(c, result)
}

func (h *Handler) respondActionError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, ErrUnknownAction):
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown action", []map[string]string{
			{"field": "action", "issue": "unknown"},
		})
	case errors.Is(err, ErrMissingInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "missing input for action "+action, nil)
	case errors.Is(err, credits.ErrInsufficientCredits):
		respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You're out of credits for this feature. Upgrade your plan to continue.", []map[string]string{
			{"field": "credits", "issue": "insufficient"},
		})
	case errors.Is(err, speech.ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "not_configured", "speech provider is not configured", nil)
	default:
		respond.Error(c, http.StatusBadGateway, "upstream_error", "the coach could not complete this action", nil)
	}
}

type optimizeRequest struct {
	Text           string `json:"text"`
	JobDescription string `json:"jobDescription"`
}

func (h *Handler) optimize(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	result, err := h.Svc.Run(c.Request.Context(), userID, Request{
		Action:         ActionOptimize,
		Text:           req.Text,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		h.respondActionError(c, ActionOptimize, err)
		return
	}
	respond.Data(c, result)
}

type analyzeJDRequest struct {
	JobDescription string `json:"jobDescription"`
}

func (h *Handler) analyzeJD(c *gin.Context) {
	var req analyzeJDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	result, err := h.Svc.AnalyzeJD(c.Request.Context(), req.JobDescription)
	if err != nil {
		h.respondActionError(c, "analyze_jd", err)
		return
	}
	respond.Data(c, result)
}

type feedbackRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *Handler) getFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	result, err := h.Svc.Feedback(c.Request.Context(), req.Question, req.Answer)
	if err != nil {
		h.respondActionError(c, "get_feedback", err)
		return
	}
	respond.Data(c, result)
}

type modelAnswerRequest struct {
	Question       string `json:"question"`
	JobDescription string `json:"jobDescription"`
}

func (h *Handler) generateModelAnswer(c *gin.Context) {
	var req modelAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	result, err := h.Svc.ModelAnswer(c.Request.Context(), req.Question, req.JobDescription)
	if err != nil {
		h.respondActionError(c, "generate_model_answer", err)
		return
	}
	respond.Data(c, result)
}

type speakRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (h *Handler) speak(c *gin.Context) {
	var req speakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	audio, err := h.Svc.Speak(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		h.respondActionError(c, "speak", err)
		return
	}
	respond.Data(c, gin.H{"audio": audio})
}
