package api

import (
	"log"
	"net/http"

	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/service"

	"github.com/gin-gonic/gin"
)

type PreferencesHandler struct {
	prefsService service.PreferencesService
	logService   service.LogService
}

func NewPreferencesHandler(prefsService service.PreferencesService, logService service.LogService) *PreferencesHandler {
	return &PreferencesHandler{prefsService: prefsService, logService: logService}
}

// @Summary Get notification preferences
// @Description Retrieves the authenticated user's notification preferences
// @Tags Preferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.NotificationPreferences
// @Failure 500 {object} map[string]string "Failed to retrieve preferences"
// @Router /preferences [get]
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	userID := c.GetString("user_id")
	prefs, err := h.prefsService.GetPreferences(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve preferences"})
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// @Summary Update notification preferences
// @Description Replaces the authenticated user's notification preferences
// @Tags Preferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param preferences body models.NotificationPreferences true "Preferences"
// @Success 200 {object} map[string]string "Preferences updated"
// @Failure 400 {object} map[string]string "Invalid JSON or parameters"
// @Failure 500 {object} map[string]string "Failed to update preferences"
// @Router /preferences [put]
func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	var prefs models.NotificationPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	userID := c.GetString("user_id")
	prefs.UserID = userID

	if err := h.prefsService.UpdatePreferences(&prefs); err != nil {
		if models.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	metadata := map[string]interface{}{
		"max_per_day":  prefs.MaxNotificationsPerDay,
		"max_per_hour": prefs.MaxNotificationsPerHour,
	}
	if err := h.logService.LogAction(userID, "UpdatePreferences", "Notification preferences updated", c.ClientIP(), metadata); err != nil {
		log.Printf("error: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "Preferences updated"})
}
