// controllers/digest.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tsamuels62019/myanchor-daily-digest/models"
	"github.com/tsamuels62019/myanchor-daily-digest/services"
)

// DigestRunner triggers one dispatcher pass.
type DigestRunner interface {
	Run(ctx context.Context) (*models.RunSummary, error)
}

// RunStore reads back persisted run summaries for the ops endpoints.
type RunStore interface {
	RecentRunSummaries(ctx context.Context, limit int) ([]models.RunSummary, error)
}

// DigestController exposes the serve-mode ops surface: health, manual
// trigger, recent runs.
type DigestController struct {
	Runner DigestRunner
	Runs   RunStore
	DB     *gorm.DB
}

// Health reports liveness and pings the database.
func (dc *DigestController) Health(c *gin.Context) {
	if dc.DB != nil {
		sqlDB, err := dc.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TriggerRun starts a digest run immediately. The run still honors the
// configured window and force flag; this endpoint only controls *when* the
// dispatcher looks, not what it decides.
func (dc *DigestController) TriggerRun(c *gin.Context) {
	summary, err := dc.Runner.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "A digest run is already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Digest run failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListRuns returns the most recent run summaries, newest first.
func (dc *DigestController) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	if limit > 100 {
		limit = 100
	}

	runs, err := dc.Runs.RecentRunSummaries(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch runs"})
		return
	}
	c.JSON(http.StatusOK, runs)
}
