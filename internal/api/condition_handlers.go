package api

import (
	"log"
	"net/http"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/service"

	"github.com/gin-gonic/gin"
)

type ConditionHandler struct {
	conditionService service.ConditionService
	alertService     service.AlertService
	logService       service.LogService
}

func NewConditionHandler(conditionService service.ConditionService, alertService service.AlertService, logService service.LogService) *ConditionHandler {
	return &ConditionHandler{conditionService: conditionService, alertService: alertService, logService: logService}
}

type ConditionRequest struct {
	ProductID string                  `json:"product_id" binding:"required"`
	Subtype   models.ConditionSubtype `json:"subtype" binding:"required"`
	Value     float64                 `json:"value"`
	Threshold int                     `json:"threshold"`
	ExpiresAt *time.Time              `json:"expires_at"`
}

type TriggerRequest struct {
	ProductName string  `json:"product_name" binding:"required"`
	OldPrice    float64 `json:"old_price"`
	NewPrice    float64 `json:"new_price"`
	PreviousLow float64 `json:"previous_low"`
	Quantity    int     `json:"quantity"`
	Store       string  `json:"store"`
	Currency    string  `json:"currency"`
}

// @Summary Create a watch condition
// @Description Creates a price or stock watch condition for the authenticated user
// @Tags Conditions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param condition body ConditionRequest true "Condition data"
// @Success 201 {object} map[string]string "Condition created"
// @Failure 400 {object} map[string]string "Invalid JSON or parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create condition"
// @Router /conditions [post]
func (h *ConditionHandler) CreateCondition(c *gin.Context) {
	var req ConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	userID := c.GetString("user_id")

	var condition *models.AlertCondition
	var err error
	switch req.Subtype {
	case models.ConditionBelowTarget, models.ConditionPercentageDrop:
		condition, err = h.conditionService.CreatePriceCondition(userID, req.ProductID, req.Subtype, req.Value, req.ExpiresAt)
	case models.ConditionBackInStock, models.ConditionLowStock:
		condition, err = h.conditionService.CreateStockCondition(userID, req.ProductID, req.Subtype, req.Threshold, req.ExpiresAt)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown condition subtype"})
		return
	}
	if err != nil {
		if models.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create condition"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "Condition created", "condition_id": condition.ID.Hex()})
}

// @Summary Get user conditions
// @Description Retrieves all watch conditions for the authenticated user
// @Tags Conditions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AlertCondition
// @Failure 500 {object} map[string]string "Failed to retrieve conditions"
// @Router /conditions [get]
func (h *ConditionHandler) GetUserConditions(c *gin.Context) {
	userID := c.GetString("user_id")
	conditions, err := h.conditionService.GetConditionsByUserID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve conditions"})
		return
	}

	c.JSON(http.StatusOK, conditions)
}

// @Summary Delete a condition
// @Description Deletes one of the authenticated user's watch conditions
// @Tags Conditions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Condition ID"
// @Success 200 {object} map[string]string "Condition deleted"
// @Failure 400 {object} map[string]string "Invalid condition ID"
// @Failure 404 {object} map[string]string "Condition not found"
// @Router /conditions/{id} [delete]
func (h *ConditionHandler) DeleteCondition(c *gin.Context) {
	userID := c.GetString("user_id")
	conditionID := c.Param("id")

	if err := h.conditionService.DeleteCondition(userID, conditionID); err != nil {
		switch err.Error() {
		case "invalid condition ID":
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid condition ID"})
		case "condition not found", "condition does not belong to user":
			c.JSON(http.StatusNotFound, gin.H{"error": "Condition not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete condition"})
		}
		return
	}

	metadata := map[string]interface{}{
		"condition_id": conditionID,
	}
	if err := h.logService.LogAction(userID, "DeleteCondition", "Watch condition deleted", c.ClientIP(), metadata); err != nil {
		log.Printf("error: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "Condition deleted"})
}

// @Summary Trigger a condition
// @Description Fired by the condition evaluation pipeline when a watch rule matches
// @Tags Conditions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Condition ID"
// @Param trigger body TriggerRequest true "Observed product state"
// @Success 201 {object} map[string]string "Alert created"
// @Failure 400 {object} map[string]string "Invalid JSON or condition state"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to trigger condition"
// @Router /internal/conditions/{id}/trigger [post]
func (h *ConditionHandler) TriggerCondition(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	alert, err := h.alertService.TriggerCondition(c.Request.Context(), service.TriggerInput{
		ConditionID: c.Param("id"),
		ProductName: req.ProductName,
		OldPrice:    req.OldPrice,
		NewPrice:    req.NewPrice,
		PreviousLow: req.PreviousLow,
		Quantity:    req.Quantity,
		Store:       req.Store,
		Currency:    req.Currency,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   "Alert created",
		"alert_id": alert.ID.Hex(),
	})
}
