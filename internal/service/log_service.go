package service

import (
	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/repository"
)

type LogService interface {
	LogAction(userID, action, description, ipAddress string, metadata map[string]interface{}) error
	GetAllLogs(page, limit int) ([]*models.LogEntry, error)
	GetLogsByUserID(userID string, page, limit int) ([]*models.LogEntry, error)
}

type logService struct {
	logRepo repository.LogRepository
}

func NewLogService(logRepo repository.LogRepository) LogService {
	return &logService{logRepo: logRepo}
}

func (s *logService) LogAction(userID, action, description, ipAddress string, metadata map[string]interface{}) error {
	entry := &models.LogEntry{
		UserID:      userID,
		Action:      action,
		Description: description,
		IPAddress:   ipAddress,
		Metadata:    metadata,
	}
	return s.logRepo.SaveLog(entry)
}

func (s *logService) GetAllLogs(page, limit int) ([]*models.LogEntry, error) {
	return s.logRepo.GetAllLogs(page, limit)
}

func (s *logService) GetLogsByUserID(userID string, page, limit int) ([]*models.LogEntry, error) {
	return s.logRepo.GetLogsByUserID(userID, page, limit)
}
