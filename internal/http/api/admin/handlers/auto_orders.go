package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/autoorder"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/cutoff"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
)

// AutoOrderAdminHandler handles batch run triggering and outcome logs.
type AutoOrderAdminHandler struct {
	db     *gorm.DB
	runner *autoorder.Runner
}

// NewAutoOrderAdminHandler constructs an AutoOrderAdminHandler.
func NewAutoOrderAdminHandler(db *gorm.DB, runner *autoorder.Runner) *AutoOrderAdminHandler {
	return &AutoOrderAdminHandler{db: db, runner: runner}
}

// runRequest defines the request body for a manual batch run.
type runRequest struct {
	Window string `json:"window"`
	DryRun bool   `json:"dry_run"`
}

// Run triggers an auto-order pass for one meal window.
func (h *AutoOrderAdminHandler) Run(c *gin.Context) {
	var body runRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	window := strings.ToUpper(strings.TrimSpace(body.Window))
	if !cutoff.ValidWindow(window) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window must be LUNCH or DINNER"})
		return
	}

	stats, errRun := h.runner.Run(c.Request.Context(), window, body.DryRun)
	if errRun != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errRun.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":     stats.RunID,
		"window":     stats.Window,
		"processed":  stats.Processed,
		"succeeded":  stats.Succeeded,
		"skipped":    stats.Skipped,
		"failed":     stats.Failed,
		"elapsed_ms": stats.Elapsed.Milliseconds(),
		"dry_run":    body.DryRun,
	})
}

// Logs returns batch outcome rows, newest first, filterable by run, status,
// subscription and order date.
func (h *AutoOrderAdminHandler) Logs(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.AutoOrderLog{})

	if runID := strings.TrimSpace(c.Query("run_id")); runID != "" {
		query = query.Where("cron_run_id = ?", runID)
	}
	if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
		query = query.Where("status = ?", status)
	}
	if rawSub := strings.TrimSpace(c.Query("subscription_id")); rawSub != "" {
		subID, errParse := strconv.ParseUint(rawSub, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription_id"})
			return
		}
		query = query.Where("subscription_id = ?", subID)
	}
	if rawDate := strings.TrimSpace(c.Query("date")); rawDate != "" {
		day, errParse := time.Parse("2006-01-02", rawDate)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		query = query.Where("order_date >= ? AND order_date < ?", day, day.AddDate(0, 0, 1))
	}

	limit := 200
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		if parsed, errParse := strconv.Atoi(rawLimit); errParse == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	var rows []models.AutoOrderLog
	if errFind := query.Order("id DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query logs failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": rows})
}
