package router

import (
	"context"
	"net/http"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/api/handler"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options holds router settings that don't belong to handlers
type Options struct {
	ServiceName string

	// HealthCheck reports backing service health; nil means always healthy
	HealthCheck func(ctx context.Context) error

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, opts Options) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		if opts.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := opts.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": opts.ServiceName,
					"error":   err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	v1.Use(ActorMiddleware(deps.Users, deps.Logger))
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.CreateJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/history", jobHandler.History)
			jobs.GET("/:job_id", jobHandler.GetJob)
			jobs.PATCH("/:job_id", jobHandler.UpdateJob)
			jobs.POST("/:job_id/accept", jobHandler.AcceptJob())
			jobs.POST("/:job_id/cancel", jobHandler.CancelJob())
			jobs.POST("/:job_id/start", jobHandler.StartJob())
			jobs.POST("/:job_id/complete", jobHandler.CompleteJob())
		}

		feed := []gin.HandlerFunc{}
		if opts.RateLimitEnabled {
			feed = append(feed, NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, 5*time.Minute).Middleware())
		}
		feed = append(feed, jobHandler.DistanceFeed)
		v1.POST("/distance-feed", feed...)
	}

	return r
}
