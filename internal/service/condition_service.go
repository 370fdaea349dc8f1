package service

import (
	"errors"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConditionService interface {
	CreatePriceCondition(userID, productID string, subtype models.ConditionSubtype, value float64, expiresAt *time.Time) (*models.AlertCondition, error)
	CreateStockCondition(userID, productID string, subtype models.ConditionSubtype, threshold int, expiresAt *time.Time) (*models.AlertCondition, error)
	GetConditionsByUserID(userID string) ([]*models.AlertCondition, error)
	DeleteCondition(userID, conditionID string) error
}

type conditionService struct {
	conditionRepo repository.ConditionRepository
	logService    LogService
	now           func() time.Time
}

func NewConditionService(conditionRepo repository.ConditionRepository, logService LogService, now func() time.Time) ConditionService {
	if now == nil {
		now = time.Now
	}
	return &conditionService{conditionRepo: conditionRepo, logService: logService, now: now}
}

func (s *conditionService) CreatePriceCondition(userID, productID string, subtype models.ConditionSubtype, value float64, expiresAt *time.Time) (*models.AlertCondition, error) {
	condition, err := models.NewPriceCondition(userID, productID, subtype, value, s.now(), expiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.conditionRepo.SaveCondition(condition); err != nil {
		return nil, err
	}
	s.logCreated(condition)
	return condition, nil
}

func (s *conditionService) CreateStockCondition(userID, productID string, subtype models.ConditionSubtype, threshold int, expiresAt *time.Time) (*models.AlertCondition, error) {
	condition, err := models.NewStockCondition(userID, productID, subtype, threshold, s.now(), expiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.conditionRepo.SaveCondition(condition); err != nil {
		return nil, err
	}
	s.logCreated(condition)
	return condition, nil
}

func (s *conditionService) GetConditionsByUserID(userID string) ([]*models.AlertCondition, error) {
	return s.conditionRepo.GetConditionsByUserID(userID)
}

func (s *conditionService) DeleteCondition(userID, conditionID string) error {
	objID, err := primitive.ObjectIDFromHex(conditionID)
	if err != nil {
		return errors.New("invalid condition ID")
	}
	condition, err := s.conditionRepo.GetConditionByID(objID)
	if err != nil {
		return err
	}
	if condition == nil {
		return errors.New("condition not found")
	}
	if condition.UserID != userID {
		return errors.New("condition does not belong to user")
	}
	return s.conditionRepo.DeleteCondition(objID)
}

func (s *conditionService) logCreated(condition *models.AlertCondition) {
	if s.logService == nil {
		return
	}
	metadata := map[string]interface{}{
		"condition_id": condition.ID.Hex(),
		"product_id":   condition.ProductID,
		"subtype":      condition.Subtype,
	}
	s.logService.LogAction(condition.UserID, "CreateCondition", "Watch condition created", "", metadata)
}
