package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/settings"
)

// SettingsAdminHandler handles the runtime business configuration.
type SettingsAdminHandler struct {
	db *gorm.DB
}

// NewSettingsAdminHandler constructs a SettingsAdminHandler.
func NewSettingsAdminHandler(db *gorm.DB) *SettingsAdminHandler {
	return &SettingsAdminHandler{db: db}
}

// knownSettingKeys are the keys the ordering core reads.
var knownSettingKeys = map[string]bool{
	settings.CutoffLunchKey:               true,
	settings.CutoffDinnerKey:              true,
	settings.CancellationWindowMinutesKey: true,
	settings.CancelAfterAcceptedKey:       true,
	settings.AutoAcceptOrdersKey:          true,
}

// Get returns the effective runtime configuration snapshot.
func (h *SettingsAdminHandler) Get(c *gin.Context) {
	cfg := settings.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"settings": gin.H{
			settings.CutoffLunchKey:               cfg.CutoffLunch,
			settings.CutoffDinnerKey:              cfg.CutoffDinner,
			settings.CancellationWindowMinutesKey: cfg.CancellationWindowMinutes,
			settings.CancelAfterAcceptedKey:       cfg.CancelAfterAccepted,
			settings.AutoAcceptOrdersKey:          cfg.AutoAcceptOrders,
		},
		"updated_at": settings.DBConfigUpdatedAt(),
	})
}

// Put upserts setting rows and refreshes the in-process snapshot so the
// change takes effect immediately.
func (h *SettingsAdminHandler) Put(c *gin.Context) {
	var body map[string]json.RawMessage
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings given"})
		return
	}
	for key := range body {
		if !knownSettingKeys[key] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting: " + key})
			return
		}
	}

	now := time.Now().UTC()
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for key, value := range body {
			row := models.Setting{Key: key, Value: value, UpdatedAt: now}
			if errUpsert := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error; errUpsert != nil {
				return errUpsert
			}
		}
		return nil
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save settings failed"})
		return
	}

	if errRefresh := settings.RefreshDBConfigSnapshot(c.Request.Context(), h.db); errRefresh != nil {
		log.WithError(errRefresh).Warn("settings: snapshot refresh after update")
	}
	h.Get(c)
}
