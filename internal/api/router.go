package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every route onto a gin engine with recovery and request
// logging.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(h.logger))

	r.GET("/healthz", h.Health)
	r.POST("/graphs", h.GenerateGraph)

	jobs := r.Group("/jobs")
	{
		jobs.POST("", h.CreateJob)
		jobs.GET("", h.ListJobs)
		jobs.GET("/:id", h.GetJob)
		jobs.PATCH("/:id", h.UpdateJob)
		jobs.PUT("/:id/dimensions", h.PutDimensions)
		jobs.GET("/:id/dimensions", h.GetDimensions)
		jobs.GET("/:id/models", h.ListModels)
		jobs.POST("/:id/models", h.DraftModel)
		jobs.GET("/:id/models/latest", h.LatestModel)
		jobs.POST("/:id/models/supersede", h.SupersedeModel)
	}

	models := r.Group("/models")
	{
		models.GET("/:id", h.GetModel)
		models.POST("/:id/publish", h.PublishModel)
		models.GET("/:id/materials", h.ListMaterials)
		models.POST("/:id/retakeoff", h.Retakeoff)
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
