package interviews

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coach-backend/internal/credits"
	"coach-backend/internal/interviews/audioqueue"
	"coach-backend/internal/shared/server/middleware"
	"coach-backend/internal/shared/server/respond"
	"coach-backend/internal/speech"
)

// Handler wires HTTP handlers to the interview service.
type Handler struct {
	Svc    *Service
	Speech speech.Client
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, speechClient speech.Client) *Handler {
	return &Handler{Svc: svc, Speech: speechClient}
}

// RegisterRoutes attaches interview routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/interviews", h.startSession)
	rg.GET("/interviews/:id", h.getSession)
	rg.POST("/interviews/:id/replies", h.postReply)
	rg.GET("/interviews/:id/report", h.getReport)
	rg.POST("/interviews/practice", h.practice)
}

type startRequest struct {
	JobContext string `json:"jobContext"`
	Voice      string `json:"voice"`
}

func (h *Handler) startSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	session, err := h.Svc.Start(ctx, userID, req.JobContext, req.Voice)
	if err != nil {
		switch {
		case errors.Is(err, ErrJobContextEmpty):
			respond.Error(c, http.StatusBadRequest, "validation_error", "job context is required", []map[string]string{
				{"field": "jobContext", "issue": "required"},
			})
		case errors.Is(err, credits.ErrInsufficientCredits):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You're out of interview credits. Upgrade your plan to continue.", []map[string]string{
				{"field": "credits", "issue": "insufficient"},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start interview", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, BuildSnapshot(session, session.CreatedAt))
}

func (h *Handler) getSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")

	snap, err := h.Svc.Get(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load session", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, snap)
}

type replyRequest struct {
	Answer  string `json:"answer"`
	TurnSeq int    `json:"turnSeq"`
}

func (h *Handler) postReply(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "answer is required", []map[string]string{
			{"field": "answer", "issue": "required"},
		})
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	result, err := h.Svc.Reply(ctx, userID, sessionID, req.Answer, req.TurnSeq)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		case errors.Is(err, ErrStaleTurn):
			respond.Error(c, http.StatusConflict, "stale_turn", "This answer was submitted against an outdated turn.", nil)
		case errors.Is(err, ErrSessionComplete):
			respond.Error(c, http.StatusConflict, "session_complete", "The interview has ended.", nil)
		case errors.Is(err, ErrCountdownActive):
			respond.Error(c, http.StatusConflict, "countdown_active", "The interview has not started yet.", nil)
		case errors.Is(err, ErrReplyInFlight):
			respond.Error(c, http.StatusConflict, "reply_in_flight", "A previous answer is still being processed.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process reply", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, result)
}

func (h *Handler) getReport(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")

	report, err := h.Svc.Report(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrReportNotStarted):
			respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
		case errors.Is(err, ErrReportNotReady):
			respond.JSON(c, http.StatusAccepted, gin.H{"status": "generating"})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load report", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"report": report})
}

type practiceRequest struct {
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
	Voice    string   `json:"voice"`
}

type practiceEntry struct {
	Phase string `json:"phase"`
	Audio string `json:"audio"`
}

func (h *Handler) practice(c *gin.Context) {
	var req practiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	if strings.TrimSpace(req.Question) == "" || len(req.Answers) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "question and answers are required", nil)
		return
	}
	if h.Speech == nil {
		respond.Error(c, http.StatusServiceUnavailable, "not_configured", "speech synthesis is not configured", nil)
		return
	}

	voice := req.Voice
	if voice == "" && h.Svc != nil {
		voice = h.Svc.Voice
	}
	entries, err := audioqueue.Build(c.Request.Context(), h.Speech, voice, req.Question, req.Answers)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "synthesis_failed", "failed to synthesize practice audio", nil)
		return
	}

	out := make([]practiceEntry, len(entries))
	for i, entry := range entries {
		out[i] = practiceEntry{
			Phase: entry.Phase,
			Audio: base64.StdEncoding.EncodeToString(entry.Audio),
		}
	}
	respond.JSON(c, http.StatusOK, gin.H{"entries": out})
}
