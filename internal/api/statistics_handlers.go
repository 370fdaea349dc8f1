package api

import (
	"net/http"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/service"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statsService service.StatisticsService
}

func NewStatisticsHandler(statsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statsService: statsService}
}

// @Summary Get alert statistics
// @Description Aggregates delivery statistics for the authenticated user over a period
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Param from query string false "Period start (RFC3339), defaults to 30 days ago"
// @Param to query string false "Period end (RFC3339), defaults to now"
// @Success 200 {object} models.AlertStatistics
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 500 {object} map[string]string "Failed to build statistics"
// @Router /statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	userID := c.GetString("user_id")

	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from timestamp"})
			return
		}
		from = parsed
	}
	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to timestamp"})
			return
		}
		to = parsed
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Period start must be before end"})
		return
	}

	stats, err := h.statsService.GetUserStatistics(userID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
