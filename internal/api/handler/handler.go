package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/duaneandrea/digitalk-test/internal/api/dto"
	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/engine"
	"github.com/gin-gonic/gin"
)

// ActorContextKey is where the actor middleware stores the resolved *domain.User
const ActorContextKey = "actor"

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Engine  *engine.Engine
	Tracker *engine.DistanceTracker
	Users   engine.UserDirectory
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger  *slog.Logger
	engine  *engine.Engine
	tracker *engine.DistanceTracker
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:  deps.Logger,
		engine:  deps.Engine,
		tracker: deps.Tracker,
	}
}

// Actor returns the user the request acts as
func Actor(c *gin.Context) *domain.User {
	v, ok := c.Get(ActorContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: message})
}

// writeError maps a domain error onto its HTTP status
func (h *JobHandler) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: verr.Message, FieldName: verr.Field})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: domain.ErrConflict.Error()})
	default:
		h.logger.Error("Request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}
