package service

import (
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StatisticsService interface {
	GetUserStatistics(userID string, from, to time.Time) (*models.AlertStatistics, error)
}

type statisticsService struct {
	alertRepo  repository.AlertRepository
	resultRepo repository.DeliveryResultRepository
	now        func() time.Time
}

func NewStatisticsService(alertRepo repository.AlertRepository, resultRepo repository.DeliveryResultRepository, now func() time.Time) StatisticsService {
	if now == nil {
		now = time.Now
	}
	return &statisticsService{alertRepo: alertRepo, resultRepo: resultRepo, now: now}
}

func (s *statisticsService) GetUserStatistics(userID string, from, to time.Time) (*models.AlertStatistics, error) {
	alerts, err := s.alertRepo.GetAlertsByUserInPeriod(userID, from, to)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(alerts))
	for _, alert := range alerts {
		ids = append(ids, alert.ID)
	}

	var results []*models.AlertDeliveryResult
	if len(ids) > 0 {
		results, err = s.resultRepo.GetResultsByAlertIDs(ids)
		if err != nil {
			return nil, err
		}
	}

	period := models.StatisticsPeriod{From: from, To: to}
	return BuildStatistics(userID, period, alerts, results, s.now()), nil
}

// BuildStatistics rolls alert and delivery-result history up into the
// per-user report. Alerts belonging to other users are ignored, as are
// delivery results for their alerts. TotalSent counts alerts, not channel
// attempts.
func BuildStatistics(userID string, period models.StatisticsPeriod, alerts []*models.Alert, results []*models.AlertDeliveryResult, now time.Time) *models.AlertStatistics {
	stats := &models.AlertStatistics{
		UserID:      userID,
		Period:      period,
		ByType:      make(map[models.AlertType]models.DeliveryCounts),
		ByChannel:   make(map[models.Channel]models.DeliveryCounts),
		GeneratedAt: now,
	}

	typeByAlert := make(map[primitive.ObjectID]models.AlertType)
	for _, alert := range alerts {
		if alert.UserID != userID {
			continue
		}
		stats.TotalSent++
		typeByAlert[alert.ID] = alert.Type

		counts := stats.ByType[alert.Type]
		counts.Sent++
		stats.ByType[alert.Type] = counts
	}

	var successTotalMs int64
	var successCount int

	for _, result := range results {
		alertType, mine := typeByAlert[result.AlertID]
		if !mine {
			continue
		}

		channelCounts := stats.ByChannel[result.Channel]
		channelCounts.Sent++

		typeCounts := stats.ByType[alertType]

		switch result.Outcome {
		case models.DeliverySuccess:
			stats.TotalDelivered++
			channelCounts.Delivered++
			typeCounts.Delivered++
			successTotalMs += result.ResponseTimeMs
			successCount++
		case models.DeliveryFailed:
			stats.TotalFailed++
			channelCounts.Failed++
			typeCounts.Failed++
		}

		stats.ByChannel[result.Channel] = channelCounts
		stats.ByType[alertType] = typeCounts
	}

	if successCount > 0 {
		stats.AverageDeliveryTimeMs = float64(successTotalMs) / float64(successCount)
	}
	if stats.TotalSent > 0 {
		stats.DeliveryRate = float64(stats.TotalDelivered) / float64(stats.TotalSent)
	}
	return stats
}
