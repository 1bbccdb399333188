package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "invoicegrid/docs"
	"invoicegrid/internal/handler"
	"invoicegrid/internal/metrics"
	"invoicegrid/internal/middleware"
)

// Options carries the cross-cutting dependencies of the HTTP engine.
type Options struct {
	Logger      logrus.FieldLogger
	Metrics     *metrics.Metrics
	CORSOrigins []string
	// MaxUploadMB bounds the multipart memory buffer; larger parts spill to disk.
	MaxUploadMB int64
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	opts Options,
	extractH *handler.ExtractHandler,
	sessionH *handler.SessionHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()
	if opts.MaxUploadMB > 0 {
		r.MaxMultipartMemory = opts.MaxUploadMB << 20
	}

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.CORS(opts.CORSOrigins))

	// Health checks and operations
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// One-shot extraction
	v1.POST("/extract", extractH.Extract)
	v1.POST("/export", extractH.Export)

	// Sessions
	sessions := v1.Group("/sessions")
	sessions.POST("", sessionH.Create)
	sessions.GET("", sessionH.List)
	sessions.GET("/:id", sessionH.GetByID)
	sessions.GET("/:id/download", sessionH.Download)
	sessions.GET("/:id/files/:fileId/line-items", sessionH.ListLineItems)
	sessions.GET("/:id/files/:fileId/invoice", sessionH.GetInvoice)

	return r
}
