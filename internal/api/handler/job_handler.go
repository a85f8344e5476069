package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/duaneandrea/digitalk-test/internal/api/dto"
	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/engine"
	"github.com/gin-gonic/gin"
)

// CreateJob handles POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		badRequest(c, "Invalid request body")
		return
	}

	immediate, ok := dto.ParseImmediate(req.Immediate)
	if !ok {
		h.writeError(c, domain.NewValidationError("immediate", "must be yes or no"))
		return
	}

	job, err := h.engine.CreateJob(c.Request.Context(), Actor(c).ID, engine.CreateJobInput{
		FromLanguageID: req.FromLanguageID,
		Immediate:      immediate,
		DueDate:        req.DueDate,
		DueTime:        req.DueTime,
		Duration:       req.Duration,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromJob(job))
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.engine.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := dto.JobDetailResponse{Job: dto.FromJob(job)}
	if d, err := h.tracker.Get(c.Request.Context(), jobID); err == nil {
		resp.Distance = dto.FromDistance(d)
	}

	c.JSON(http.StatusOK, resp)
}

// ListJobs handles GET /api/v1/jobs
// With user_id it returns that user's listing; without it, admins get every job.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Invalid query parameters", slog.String("error", err.Error()))
		badRequest(c, "Invalid query parameters")
		return
	}

	actor := Actor(c)

	if req.UserID != 0 {
		if req.UserID != actor.ID && !actor.IsAdminOrSuperAdmin() {
			c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "cannot list jobs of another user"})
			return
		}

		listing, err := h.engine.ListForUser(c.Request.Context(), req.UserID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.FromListing(listing))
		return
	}

	if !actor.IsAdminOrSuperAdmin() {
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "user_id is required"})
		return
	}

	q := engine.JobQuery{
		CustomerID: req.CustomerID,
		Page:       req.Page,
		PageSize:   req.PageSize,
	}

	if req.PageSize > 100 {
		q.PageSize = 100
	}

	if req.Status != "" {
		status := domain.Status(req.Status)
		if !status.Valid() {
			badRequest(c, "Invalid status")
			return
		}
		q.Statuses = []domain.Status{status}
	}

	switch engine.SortOrder(req.Order) {
	case engine.DueAscending, engine.DueDescending, "":
		q.Order = engine.SortOrder(req.Order)
	default:
		badRequest(c, "Invalid order")
		return
	}

	page, err := h.engine.ListAll(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:  dto.FromJobs(page.Jobs),
		Total: page.Total,
		Page:  page.Page,
	})
}

// History handles GET /api/v1/jobs/history
func (h *JobHandler) History(c *gin.Context) {
	var req dto.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	history, err := h.engine.ListHistoryForUser(c.Request.Context(), Actor(c).ID, req.Page)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromHistory(history))
}

// UpdateJob handles PATCH /api/v1/jobs/:job_id
func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req dto.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		badRequest(c, "Invalid request body")
		return
	}

	in := engine.UpdateJobInput{
		FromLanguageID: req.FromLanguageID,
		DueDate:        req.DueDate,
		DueTime:        req.DueTime,
		Duration:       req.Duration,
	}
	if req.Immediate != nil {
		immediate, ok := dto.ParseImmediate(*req.Immediate)
		if !ok {
			h.writeError(c, domain.NewValidationError("immediate", "must be yes or no"))
			return
		}
		in.Immediate = &immediate
	}

	job, err := h.engine.UpdateJob(c.Request.Context(), c.Param("job_id"), Actor(c).ID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

func (h *JobHandler) transition(fn func(ctx context.Context, jobID string, actorID int64) (*domain.Job, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := fn(c.Request.Context(), c.Param("job_id"), Actor(c).ID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.FromJob(job))
	}
}

// AcceptJob handles POST /api/v1/jobs/:job_id/accept
func (h *JobHandler) AcceptJob() gin.HandlerFunc {
	return h.transition(h.engine.AcceptJob)
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
func (h *JobHandler) CancelJob() gin.HandlerFunc {
	return h.transition(h.engine.CancelJob)
}

// StartJob handles POST /api/v1/jobs/:job_id/start
func (h *JobHandler) StartJob() gin.HandlerFunc {
	return h.transition(h.engine.StartJob)
}

// CompleteJob handles POST /api/v1/jobs/:job_id/complete
func (h *JobHandler) CompleteJob() gin.HandlerFunc {
	return h.transition(h.engine.CompleteJob)
}

// DistanceFeed handles POST /api/v1/distance-feed
func (h *JobHandler) DistanceFeed(c *gin.Context) {
	var req dto.DistanceFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		badRequest(c, "Invalid request body")
		return
	}

	d, err := h.tracker.Upsert(c.Request.Context(), req.JobID, *req.Distance)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromDistance(d))
}
