package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AlertHandler struct {
	alertService service.AlertService
	logService   service.LogService
}

func NewAlertHandler(alertService service.AlertService, logService service.LogService) *AlertHandler {
	return &AlertHandler{alertService: alertService, logService: logService}
}

type AlertRequest struct {
	ProductID           string               `json:"product_id" binding:"required"`
	ConditionID         string               `json:"condition_id"`
	Type                models.AlertType     `json:"type" binding:"required"`
	Priority            models.AlertPriority `json:"priority"`
	Title               string               `json:"title" binding:"required"`
	Message             string               `json:"message"`
	Channels            []models.Channel     `json:"channels"`
	Payload             json.RawMessage      `json:"payload"`
	MaxDeliveryAttempts int                  `json:"max_delivery_attempts"`
}

// @Summary Create a new alert
// @Description Creates a pending alert for the authenticated user
// @Tags Alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param alert body AlertRequest true "Alert data"
// @Success 201 {object} map[string]string "Alert created"
// @Failure 400 {object} map[string]string "Invalid JSON or parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create alert"
// @Router /alerts [post]
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	userID := c.GetString("user_id")

	var payload models.AlertPayload
	if len(req.Payload) > 0 {
		var err error
		payload, err = models.DecodePayloadJSON(req.Type, req.Payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var conditionID *primitive.ObjectID
	if req.ConditionID != "" {
		objID, err := primitive.ObjectIDFromHex(req.ConditionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid condition ID"})
			return
		}
		conditionID = &objID
	}

	alert, err := h.alertService.CreateAlert(service.CreateAlertInput{
		UserID:              userID,
		ProductID:           req.ProductID,
		ConditionID:         conditionID,
		Type:                req.Type,
		Priority:            req.Priority,
		Title:               req.Title,
		Message:             req.Message,
		Channels:            req.Channels,
		Payload:             payload,
		MaxDeliveryAttempts: req.MaxDeliveryAttempts,
	})
	if err != nil {
		if models.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert"})
		return
	}

	metadata := map[string]interface{}{
		"alert_id":   alert.ID.Hex(),
		"product_id": alert.ProductID,
		"type":       alert.Type,
	}
	if err := h.logService.LogAction(userID, "CreateAlert", "Alert created", c.ClientIP(), metadata); err != nil {
		log.Printf("error: %v", err)
	}

	c.JSON(http.StatusCreated, gin.H{"status": "Alert created", "alert_id": alert.ID.Hex()})
}

// @Summary Get user alerts
// @Description Retrieves all alerts for the authenticated user
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Alert
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Failure 500 {object} map[string]string "Failed to retrieve alerts"
// @Router /alerts [get]
func (h *AlertHandler) GetUserAlerts(c *gin.Context) {
	userID := c.GetString("user_id")
	alerts, err := h.alertService.GetAlertsByUserID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}

	c.JSON(http.StatusOK, alerts)
}

// @Summary Get alert by ID
// @Description Retrieves details of a specific alert
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} models.Alert
// @Failure 400 {object} map[string]string "Invalid alert ID"
// @Failure 404 {object} map[string]string "Alert not found"
// @Router /alerts/{id} [get]
func (h *AlertHandler) GetAlert(c *gin.Context) {
	alertID := c.Param("id")
	alert, err := h.alertService.GetAlert(alertID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert ID"})
		return
	}
	if alert == nil || alert.UserID != c.GetString("user_id") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}

	c.JSON(http.StatusOK, alert)
}
