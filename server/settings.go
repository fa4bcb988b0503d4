package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ncngteam/miniapp/model"
	. "github.com/ncngteam/miniapp/utils/log"
)

// GetSettings returns all app settings ordered by key. Public: the client
// reads feature switches and display texts from here.
func (h *Handler) GetSettings(c *gin.Context) {
	var settings []*model.AppSetting
	if err := h.DB.Order("key").Find(&settings).Error; err != nil {
		serverError(c, "Failed to fetch settings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

type updateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// UpdateSetting sets one setting value. The route carries the admin gate.
func (h *Handler) UpdateSetting(c *gin.Context) {
	key := c.Param("key")

	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Value is required")
		return
	}

	res := h.DB.Model(&model.AppSetting{}).Where("key = ?", key).
		Updates(map[string]interface{}{"value": req.Value, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		serverError(c, "Failed to update setting", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Setting not found"})
		return
	}

	var setting model.AppSetting
	if err := h.DB.Where("key = ?", key).First(&setting).Error; err != nil && err != gorm.ErrRecordNotFound {
		serverError(c, "Failed to fetch updated setting", err)
		return
	}

	Log.Info("setting updated: ", key)
	c.JSON(http.StatusOK, gin.H{"message": "Setting updated successfully", "setting": setting})
}
