package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/logger"
	"github.com/partscout/partscout/internal/scheduler"
)

// batchHandler serves the batch lifecycle routes.
type batchHandler struct {
	scheduler BatchScheduler
	log       logger.Interface
}

// submitRequest is the POST /batches payload.
type submitRequest struct {
	Parts   []submitPart   `json:"parts" binding:"required"`
	Options *submitOptions `json:"options"`
}

type submitPart struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code"`
	Keywords string `json:"keywords"`
}

// submitOptions are per-batch overrides; durations are Go duration
// strings ("30m", "1h"). Absent fields keep the configured values.
type submitOptions struct {
	MaxWorkers   int     `json:"max_workers"`
	CandidateCap int     `json:"candidate_cap"`
	MinScore     float64 `json:"min_score"`
	CacheTTL     string  `json:"cache_ttl"`
	BatchTimeout string  `json:"batch_timeout"`
}

func (o *submitOptions) batchOptions() (scheduler.BatchOptions, error) {
	if o == nil {
		return scheduler.BatchOptions{}, nil
	}
	opts := scheduler.BatchOptions{
		MaxWorkers:   o.MaxWorkers,
		CandidateCap: o.CandidateCap,
		MinScore:     o.MinScore,
	}
	var err error
	if o.CacheTTL != "" {
		if opts.CacheTTL, err = time.ParseDuration(o.CacheTTL); err != nil {
			return scheduler.BatchOptions{}, fmt.Errorf("cache_ttl: %w", err)
		}
	}
	if o.BatchTimeout != "" {
		if opts.BatchTimeout, err = time.ParseDuration(o.BatchTimeout); err != nil {
			return scheduler.BatchOptions{}, fmt.Errorf("batch_timeout: %w", err)
		}
	}
	return opts, nil
}

func (h *batchHandler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	opts, err := req.Options.batchOptions()
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	parts := make([]domain.PartRequest, 0, len(req.Parts))
	for _, p := range req.Parts {
		parts = append(parts, domain.PartRequest{
			Name:     p.Name,
			Code:     p.Code,
			Keywords: p.Keywords,
		})
	}

	snap, err := h.scheduler.Submit(parts, opts)
	if err != nil {
		if errors.Is(err, scheduler.ErrEmptyBatch) || errors.Is(err, domain.ErrMissingPartName) {
			respondBadRequest(c, err.Error())
			return
		}
		h.log.Error("batch submit failed", "error", err.Error())
		respondInternalError(c, "batch submit failed")
		return
	}

	c.JSON(http.StatusAccepted, snap)
}

func (h *batchHandler) status(c *gin.Context) {
	snap, err := h.scheduler.Status(c.Param("id"))
	if err != nil {
		if errors.Is(err, scheduler.ErrBatchNotFound) {
			respondNotFound(c, "batch")
			return
		}
		respondInternalError(c, "batch status failed")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *batchHandler) offerSet(c *gin.Context) {
	set, status, err := h.scheduler.OfferSet(c.Param("id"), c.Param("part_id"))
	switch {
	case errors.Is(err, scheduler.ErrBatchNotFound):
		respondNotFound(c, "batch")
	case errors.Is(err, scheduler.ErrPartNotFound):
		respondNotFound(c, "part")
	case errors.Is(err, scheduler.ErrNoResult):
		// The part exists but has no offer set yet (or failed).
		c.JSON(http.StatusAccepted, gin.H{"status": status})
	case err != nil:
		respondInternalError(c, "offer set lookup failed")
	default:
		c.JSON(http.StatusOK, gin.H{"status": status, "offer_set": set})
	}
}

func (h *batchHandler) cancel(c *gin.Context) {
	if err := h.scheduler.Cancel(c.Param("id")); err != nil {
		if errors.Is(err, scheduler.ErrBatchNotFound) {
			respondNotFound(c, "batch")
			return
		}
		respondInternalError(c, "batch cancel failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "batch cancelled"})
}

func (h *batchHandler) clear(c *gin.Context) {
	snap, err := h.scheduler.Clear(c.Param("id"))
	if err != nil {
		if errors.Is(err, scheduler.ErrBatchNotFound) {
			respondNotFound(c, "batch")
			return
		}
		respondInternalError(c, "batch delete failed")
		return
	}
	c.JSON(http.StatusOK, snap)
}
