// Package service holds the business rules: ownership checks, validation at
// the request boundary, booking conflicts and review uniqueness.
package service

import (
	"time"

	"spotbnb/internal/domain"
	"spotbnb/internal/models"

	"github.com/rs/zerolog"
)

// publishEvent never fails the calling operation.
func publishEvent(pub domain.EventPublisher, logger *zerolog.Logger, eventType string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.PublishJSON(eventType, payload); err != nil {
		logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}

func today(now func() time.Time) models.Date {
	return models.NewDate(now())
}
