package handler

import (
	"context"
	"errors"
	"net/http"

	"review-service/internal/ledger"
	"review-service/internal/models"
	"review-service/internal/repository"
	"review-service/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	sessions   *session.Manager
	records    *repository.RecordRepository
	votes      ledger.Ledger
	datasets   []string
	partitions map[string]string
	logger     *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(sessions *session.Manager, records *repository.RecordRepository, votes ledger.Ledger, datasets []string, partitions map[string]string, logger *zap.Logger) *Handler {
	return &Handler{
		sessions:   sessions,
		records:    records,
		votes:      votes,
		datasets:   datasets,
		partitions: partitions,
		logger:     logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Review sessions
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/dataset", h.SelectDataset)
		api.POST("/sessions/:id/reviewer", h.SetReviewer)
		api.POST("/sessions/:id/next", h.Next)
		api.POST("/sessions/:id/prev", h.Prev)
		api.POST("/sessions/:id/vote", h.SubmitVote)

		// Stateless record access
		api.GET("/datasets", h.ListDatasets)
		api.GET("/records/:dataset", h.ListRecords)
		api.GET("/records/:dataset/:key", h.GetRecord)
		api.GET("/votes/:key", h.GetVotes)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// CreateSessionRequest optionally pre-selects a dataset and reviewer
type CreateSessionRequest struct {
	Dataset  string `json:"dataset"`
	Reviewer string `json:"reviewer"`
}

// SelectRequest names a dataset or reviewer to switch to
type SelectRequest struct {
	Name string `json:"name" binding:"required"`
}

// VoteRequest mirrors the ledger wire shape
type VoteRequest struct {
	UserName string `json:"user_name"`
	Explicit string `json:"explicit_selected"`
	Moderate string `json:"moderate_selected"`
	NoLeak   string `json:"no_leak_selected"`
	Comments string `json:"comments"`
}

// CreateSession starts a new review session
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "details": err.Error()})
			return
		}
	}

	id, ctl := h.sessions.Create()

	if req.Reviewer != "" {
		if err := ctl.SetReviewer(req.Reviewer); err != nil {
			h.errorResponse(c, err)
			return
		}
	}

	if req.Dataset != "" {
		if err := ctl.SelectDataset(c.Request.Context(), req.Dataset); err != nil {
			// The session exists; report the listing failure in the
			// snapshot rather than failing creation.
			h.logger.Warn("Initial dataset selection failed",
				zap.String("session_id", id), zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": id,
		"session":    ctl.Snapshot(),
	})
}

// GetSession returns the session snapshot
func (h *Handler) GetSession(c *gin.Context) {
	ctl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ctl.Snapshot())
}

// SelectDataset switches the session's active dataset
func (h *Handler) SelectDataset(c *gin.Context) {
	ctl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found", "details": err.Error()})
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "details": err.Error()})
		return
	}

	if err := ctl.SelectDataset(c.Request.Context(), req.Name); err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, ctl.Snapshot())
}

// SetReviewer switches the selected reviewer. Reconciliation re-runs on
// the cached entries; no record or vote reload happens.
func (h *Handler) SetReviewer(c *gin.Context) {
	ctl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found", "details": err.Error()})
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "details": err.Error()})
		return
	}

	if err := ctl.SetReviewer(req.Name); err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, ctl.Snapshot())
}

// Next advances to the next record
func (h *Handler) Next(c *gin.Context) {
	h.step(c, (*session.Controller).Advance)
}

// Prev moves back to the previous record
func (h *Handler) Prev(c *gin.Context) {
	h.step(c, (*session.Controller).Retreat)
}

func (h *Handler) step(c *gin.Context, move func(*session.Controller, context.Context) error) {
	ctl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found", "details": err.Error()})
		return
	}

	if err := move(ctl, c.Request.Context()); err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, ctl.Snapshot())
}

// SubmitVote records a reviewer's judgments for the current record
func (h *Handler) SubmitVote(c *gin.Context) {
	ctl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found", "details": err.Error()})
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation", "details": err.Error()})
		return
	}

	judgments := models.Judgments{
		Explicit: models.ParseJudgment(req.Explicit),
		Moderate: models.ParseJudgment(req.Moderate),
		NoLeak:   models.ParseJudgment(req.NoLeak),
	}

	if err := ctl.SubmitVote(c.Request.Context(), req.UserName, judgments, req.Comments); err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": ctl.Snapshot(),
	})
}

// ListDatasets returns the configured dataset names
func (h *Handler) ListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasets": h.datasets})
}

// ListRecords returns the record keys of a dataset
func (h *Handler) ListRecords(c *gin.Context) {
	keys, err := h.records.ListRecords(c.Request.Context(), c.Param("dataset"))
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": keys,
		"total":   len(keys),
	})
}

// GetRecord returns one record's content
func (h *Handler) GetRecord(c *gin.Context) {
	rec, err := h.records.GetRecord(c.Request.Context(), c.Param("dataset"), c.Param("key"))
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// GetVotes returns the raw ledger entries for a record key. An optional
// dataset query routes the read to that dataset's ledger partition.
func (h *Handler) GetVotes(c *gin.Context) {
	partition := h.partitions[c.Query("dataset")]

	entries, err := h.votes.Votes(c.Request.Context(), c.Param("key"), partition)
	if err != nil {
		h.errorResponse(c, err)
		return
	}

	if entries == nil {
		entries = []models.VoteEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "review-service",
		"sessions": h.sessions.Count(),
	})
}

func (h *Handler) errorResponse(c *gin.Context, err error) {
	var status int
	var class string

	switch {
	case errors.Is(err, models.ErrValidation):
		status, class = http.StatusBadRequest, "validation"
	case errors.Is(err, models.ErrRecordNotFound):
		status, class = http.StatusNotFound, "record_not_found"
	case errors.Is(err, models.ErrRecordUnreadable):
		status, class = http.StatusBadGateway, "record_unreadable"
	case errors.Is(err, models.ErrListingUnavailable):
		status, class = http.StatusBadGateway, "listing_unavailable"
	case errors.Is(err, models.ErrLedgerUnavailable):
		status, class = http.StatusBadGateway, "ledger_unavailable"
	case errors.Is(err, models.ErrLedgerWrite):
		status, class = http.StatusBadGateway, "ledger_write_failed"
	default:
		status, class = http.StatusInternalServerError, "internal"
	}

	c.JSON(status, gin.H{"error": class, "details": err.Error()})
}
