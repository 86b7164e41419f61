package resumes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"coach-backend/internal/shared/server/middleware"
	"coach-backend/internal/shared/server/respond"
)

// Handler exposes resume draft endpoints.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

const maxImportSize = 10 << 20

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resume-draft", h.getDraft)
	rg.PUT("/resume-draft", h.putDraft)
	rg.POST("/resume-imports", h.importFile)
}

func (h *Handler) importFile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	result, err := h.Svc.ImportFile(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to import resume", err.Error())
		return
	}
	respond.JSON(c, http.StatusCreated, result)
}

func (h *Handler) getDraft(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	raw, err := h.Svc.GetDraft(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "no draft saved", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load draft", nil)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (h *Handler) putDraft(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read body", nil)
		return
	}
	if !json.Valid(raw) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}

	stored, err := h.Svc.SaveDraft(c.Request.Context(), userID, raw)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "draft does not match the expected shape", nil)
		return
	}
	c.Data(http.StatusOK, "application/json", stored)
}
