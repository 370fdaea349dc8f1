package api

import (
	"net/http"
	"strconv"

	"github.com/pricewatch-dev/pricewatch/internal/service"

	"github.com/gin-gonic/gin"
)

type LogHandler struct {
	logService service.LogService
}

func NewLogHandler(logService service.LogService) *LogHandler {
	return &LogHandler{logService: logService}
}

// @Summary Get all logs
// @Description Retrieves a page of the audit log (internal only)
// @Tags Logs
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Param limit query int false "Page size"
// @Success 200 {array} models.LogEntry
// @Failure 500 {object} map[string]string "Failed to retrieve logs"
// @Router /internal/logs [get]
func (h *LogHandler) GetAllLogs(c *gin.Context) {
	page, limit := pagination(c)
	logs, err := h.logService.GetAllLogs(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// @Summary Get logs by user ID
// @Description Retrieves audit log entries for a specific user (internal only)
// @Tags Logs
// @Produce json
// @Param user_id path string true "User ID"
// @Param page query int false "Page number, starting at 1"
// @Param limit query int false "Page size"
// @Success 200 {array} models.LogEntry
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Router /internal/logs/user/{user_id} [get]
func (h *LogHandler) GetLogsByUser(c *gin.Context) {
	userID := c.Param("user_id")
	page, limit := pagination(c)
	logs, err := h.logService.GetLogsByUserID(userID, page, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 50
	}
	return page, limit
}
