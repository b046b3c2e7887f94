package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partscout/partscout/internal/logger"
)

// cacheHandler serves the cache maintenance routes.
type cacheHandler struct {
	store CacheInspector
	log   logger.Interface
}

func (h *cacheHandler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

func (h *cacheHandler) sweep(c *gin.Context) {
	removed := h.store.Sweep()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *cacheHandler) clear(c *gin.Context) {
	if err := h.store.Clear(); err != nil {
		h.log.Error("cache clear failed", "error", err.Error())
		respondInternalError(c, "cache clear failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}
