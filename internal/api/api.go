package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partscout/partscout/internal/cache"
	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/logger"
	"github.com/partscout/partscout/internal/scheduler"
)

// BatchScheduler defines the batch operations the API exposes.
type BatchScheduler interface {
	Submit(parts []domain.PartRequest, opts scheduler.BatchOptions) (domain.BatchSnapshot, error)
	Status(batchID string) (domain.BatchSnapshot, error)
	OfferSet(batchID, partID string) (*domain.OfferSet, domain.PartStatus, error)
	Cancel(batchID string) error
	Clear(batchID string) (domain.BatchSnapshot, error)
}

// CacheInspector defines the cache operations the API exposes.
type CacheInspector interface {
	Stats() cache.Stats
	Sweep() int
	Clear() error
}

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(log logger.Interface, scheduler BatchScheduler, cacheStore CacheInspector) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &batchHandler{scheduler: scheduler, log: log}

	v1 := router.Group("/api/v1")
	v1.POST("/batches", h.submit)
	v1.GET("/batches/:id", h.status)
	v1.GET("/batches/:id/parts/:part_id", h.offerSet)
	v1.POST("/batches/:id/cancel", h.cancel)
	v1.DELETE("/batches/:id", h.clear)

	if cacheStore != nil {
		ch := &cacheHandler{store: cacheStore, log: log}
		v1.GET("/cache/stats", ch.stats)
		v1.POST("/cache/sweep", ch.sweep)
		v1.DELETE("/cache", ch.clear)
	}

	return router
}
