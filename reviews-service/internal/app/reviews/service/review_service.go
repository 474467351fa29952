package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"yarmarka/pkg/logger"
	"yarmarka/pkg/metrics"
	"yarmarka/reviews-service/internal/app/reviews/entity"
	"yarmarka/reviews-service/internal/app/reviews/infrastructure"
	"yarmarka/reviews-service/internal/app/reviews/repository"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrProductNotFound  = errors.New("product not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrAlreadyReviewed  = errors.New("product already reviewed by this user")
	ErrNotReviewAuthor  = errors.New("review belongs to another user")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrEmptyDescription = errors.New("description is required")
)

// ReviewService обрабатывает бизнес-логику отзывов
// Сервис stateless: личность пользователя всегда приходит аргументом
// (из проверенного JWT), состояние между запросами не хранится
type ReviewService struct {
	reviewRepo    repository.ReviewRepository
	productRepo   repository.ProductReadRepository
	kafkaProducer infrastructure.MessagePublisher
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductReadRepository,
	kafkaProducer infrastructure.MessagePublisher,
) *ReviewService {
	return &ReviewService{
		reviewRepo:    reviewRepo,
		productRepo:   productRepo,
		kafkaProducer: kafkaProducer,
	}
}

// GetProductReview возвращает отзыв пользователя на товар
// Отсутствие отзыва - валидный результат (nil, nil), а не ошибка:
// клиент по нему решает показать форму создания или редактирования
func (s *ReviewService) GetProductReview(ctx context.Context, userID, productID string) (*entity.Review, error) {
	if err := s.checkProductExists(ctx, productID); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetByProductAndUser(ctx, productID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// CreateReview создает новый отзыв
// Порядок проверок важен: существование товара, затем уникальность,
// затем запись. Предварительная проверка уникальности дает понятную
// ошибку, а уникальный индекс в MongoDB закрывает гонку между
// конкурентными запросами одного пользователя
func (s *ReviewService) CreateReview(ctx context.Context, userID string, req *entity.CreateReviewRequest) (*entity.Review, error) {
	description, err := validateReviewPayload(req.Rating, req.Description)
	if err != nil {
		return nil, err
	}

	if err := s.checkProductExists(ctx, req.ProductID); err != nil {
		return nil, err
	}

	_, err = s.reviewRepo.GetByProductAndUser(ctx, req.ProductID, userID)
	if err == nil {
		metrics.ReviewConflicts.Inc()
		return nil, ErrAlreadyReviewed
	}
	if !errors.Is(err, repository.ErrReviewNotFound) {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}

	review := &entity.Review{
		ProductID:   req.ProductID,
		UserID:      userID,
		Rating:      req.Rating,
		Description: description,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		// Конкурентный запрос успел записаться между проверкой и вставкой
		if errors.Is(err, repository.ErrDuplicateReview) {
			metrics.ReviewConflicts.Inc()
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	metrics.ReviewsCreated.Inc()

	s.publishReviewEvent(ctx, "REVIEW_CREATED", review)

	return review, nil
}

// UpdateReview обновляет отзыв с проверкой прав доступа
// Автор сверяется с user_id сохраненного документа, а не с данными
// запроса - подделать владельца через тело запроса нельзя
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID string, userID string, req *entity.UpdateReviewRequest) (*entity.Review, error) {
	description, err := validateReviewPayload(req.Rating, req.Description)
	if err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if review.UserID != userID {
		metrics.ReviewForbidden.Inc()
		return nil, ErrNotReviewAuthor
	}

	review.Rating = req.Rating
	review.Description = description

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.publishReviewEvent(ctx, "REVIEW_UPDATED", review)

	return review, nil
}

// DeleteReview удаляет отзыв с проверкой прав доступа
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string, userID string) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to get review: %w", err)
	}

	if review.UserID != userID {
		metrics.ReviewForbidden.Inc()
		return ErrNotReviewAuthor
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.publishReviewEvent(ctx, "REVIEW_DELETED", review)

	return nil
}

// GetReviewsByProduct получает все отзывы по ID товара
func (s *ReviewService) GetReviewsByProduct(ctx context.Context, productID string) ([]entity.Review, error) {
	if err := s.checkProductExists(ctx, productID); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

// GetUserReviews получает все отзывы пользователя
func (s *ReviewService) GetUserReviews(ctx context.Context, userID string) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user reviews: %w", err)
	}

	return reviews, nil
}

// GetProductRatingSummary возвращает средний рейтинг и количество отзывов товара
// Считает по живым данным; карточки товаров используют поля read-model,
// которые пересчитывает cron
func (s *ReviewService) GetProductRatingSummary(ctx context.Context, productID string) (*entity.RatingSummary, error) {
	if err := s.checkProductExists(ctx, productID); err != nil {
		return nil, err
	}

	summary, err := s.reviewRepo.RatingSummary(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}

	return summary, nil
}

// ApplyProductEvent применяет событие Catalog Service к read-model товаров
func (s *ReviewService) ApplyProductEvent(ctx context.Context, event *entity.ProductEvent) error {
	switch event.EventType {
	case "PRODUCT_CREATED", "PRODUCT_UPDATED", "PRODUCT_ARCHIVED":
		product := &entity.Product{
			ID:         event.ProductID,
			Name:       event.Name,
			TenantSlug: event.TenantSlug,
			IsArchived: event.IsArchived,
		}
		if err := s.productRepo.Upsert(ctx, product); err != nil {
			return fmt.Errorf("failed to apply product event: %w", err)
		}
	case "PRODUCT_DELETED":
		if err := s.productRepo.Delete(ctx, event.ProductID); err != nil {
			return fmt.Errorf("failed to apply product event: %w", err)
		}
	default:
		logger.Warn().
			Str("event_type", event.EventType).
			Str("product_id", event.ProductID).
			Msg("Skipping unknown product event")
	}

	return nil
}

// RecalculateRatings пересчитывает агрегированные рейтинги всех товаров
// Вызывается cron-задачей; ошибки по отдельным товарам не прерывают проход
func (s *ReviewService) RecalculateRatings(ctx context.Context) error {
	summaries, err := s.reviewRepo.RatingSummaries(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	for _, summary := range summaries {
		if err := s.productRepo.SetRating(ctx, summary.ProductID, summary.RatingAvg, summary.RatingCount); err != nil {
			// Товар мог быть удален из каталога после оставления отзывов
			logger.Warn().
				Err(err).
				Str("product_id", summary.ProductID).
				Msg("Failed to store product rating")
		}
	}

	logger.Info().
		Int("products", len(summaries)).
		Msg("Recalculated product ratings")

	return nil
}

// checkProductExists проверяет что товар существует и не архивирован
// Архивный товар для отзывов эквивалентен отсутствующему
func (s *ReviewService) checkProductExists(ctx context.Context, productID string) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}

	if product.IsArchived {
		return ErrProductNotFound
	}

	return nil
}

// validateReviewPayload проверяет общие ограничения create и update
// Возвращает описание с обрезанными пробелами - хранится именно оно
func validateReviewPayload(rating int, description string) (string, error) {
	if rating < 1 || rating > 5 {
		return "", ErrInvalidRating
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrEmptyDescription
	}

	return description, nil
}

// publishReviewEvent отправляет событие об отзыве в Kafka
// Ошибки Kafka не прерывают запрос: отзыв уже записан в MongoDB
func (s *ReviewService) publishReviewEvent(ctx context.Context, eventType string, review *entity.Review) {
	event := entity.ReviewEvent{
		EventType: eventType,
		ReviewID:  review.ID.Hex(),
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Timestamp: time.Now(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal review event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ProductID, eventData); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("review_id", event.ReviewID).
			Msg("Failed to publish review event")
	}
}
