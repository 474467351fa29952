package processor

import (
	"context"

	"yarmarka/pkg/logger"
	"yarmarka/reviews-service/internal/app/reviews/service"

	"github.com/robfig/cron/v3"
)

// RatingScheduler периодически пересчитывает агрегированные рейтинги
// товаров и записывает их в read-model для карточек каталога
type RatingScheduler struct {
	cron      *cron.Cron
	reviewSvc service.ReviewServiceInterface
}

func NewRatingScheduler(reviewSvc service.ReviewServiceInterface) *RatingScheduler {
	return &RatingScheduler{
		cron:      cron.New(),
		reviewSvc: reviewSvc,
	}
}

// Start регистрирует задачу и запускает планировщик
// Первый пересчет выполняется сразу, чтобы после рестарта сервиса
// рейтинги не ждали следующего тика
func (s *RatingScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting rating aggregation scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.reviewSvc.RecalculateRatings(ctx); err != nil {
			logger.Error().Err(err).Msg("Rating aggregation failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()

	if err := s.reviewSvc.RecalculateRatings(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial rating aggregation failed")
	}

	return nil
}

// Stop останавливает планировщик и дожидается бегущих задач
func (s *RatingScheduler) Stop() {
	logger.Info().Msg("Stopping rating aggregation scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Rating aggregation scheduler stopped")
}
