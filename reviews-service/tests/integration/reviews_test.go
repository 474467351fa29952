//go:build integration

package integration

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"yarmarka/pkg/logger"
	"yarmarka/reviews-service/internal/app/reviews/entity"
	"yarmarka/reviews-service/internal/app/reviews/repository"
	"yarmarka/reviews-service/internal/app/reviews/service"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MockKafkaProducer struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockKafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	return nil
}

func (m *MockKafkaProducer) Close() error { return nil }

// ReviewsIntegrationTestSuite гоняет сервис отзывов против настоящей MongoDB
// Запуск: go test -tags=integration ./reviews-service/tests/integration/
type ReviewsIntegrationTestSuite struct {
	suite.Suite
	client        *mongo.Client
	db            *mongo.Database
	reviewService *service.ReviewService
	productRepo   repository.ProductReadRepository
}

func TestReviewsIntegrationSuite(t *testing.T) {
	suite.Run(t, new(ReviewsIntegrationTestSuite))
}

func (s *ReviewsIntegrationTestSuite) SetupSuite() {
	logger.InitWithWriter("reviews-service", "error", io.Discard)

	mongoURI := getEnv("TEST_MONGODB_URI", "mongodb://localhost:27018")
	dbName := getEnv("TEST_MONGODB_DATABASE", "reviews_test_db")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	s.Require().NoError(err)
	s.Require().NoError(client.Ping(ctx, nil))

	s.client = client
	s.db = client.Database(dbName)
}

func (s *ReviewsIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.db.Drop(ctx)
		_ = s.client.Disconnect(ctx)
	}
}

func (s *ReviewsIntegrationTestSuite) SetupTest() {
	ctx := context.Background()
	_ = s.db.Collection("reviews").Drop(ctx)
	_ = s.db.Collection("products").Drop(ctx)

	reviewRepo := repository.NewReviewRepository(s.db)
	s.productRepo = repository.NewProductReadRepository(s.db)
	s.reviewService = service.NewReviewService(reviewRepo, s.productRepo, &MockKafkaProducer{})

	// Товар p1 существует в read-model
	s.Require().NoError(s.productRepo.Upsert(ctx, &entity.Product{
		ID:         "p1",
		Name:       "Smartwatch",
		TenantSlug: "acme",
	}))
}

// TestReviewLifecycle повторяет полный сценарий:
// create -> getOne -> duplicate create -> update владельцем -> update чужим
func (s *ReviewsIntegrationTestSuite) TestReviewLifecycle() {
	ctx := context.Background()

	// Отзыва еще нет
	review, err := s.reviewService.GetProductReview(ctx, "u1", "p1")
	s.Require().NoError(err)
	s.Require().Nil(review)

	// u1 создает отзыв
	created, err := s.reviewService.CreateReview(ctx, "u1", &entity.CreateReviewRequest{
		ProductID:   "p1",
		Rating:      5,
		Description: "Great",
	})
	s.Require().NoError(err)
	s.Require().NotNil(created)

	// getOne возвращает его же
	review, err = s.reviewService.GetProductReview(ctx, "u1", "p1")
	s.Require().NoError(err)
	s.Require().NotNil(review)
	s.Equal(5, review.Rating)
	s.Equal("Great", review.Description)

	// Повторный отзыв того же пользователя отклоняется
	_, err = s.reviewService.CreateReview(ctx, "u1", &entity.CreateReviewRequest{
		ProductID:   "p1",
		Rating:      3,
		Description: "x",
	})
	s.Require().ErrorIs(err, service.ErrAlreadyReviewed)

	// Исходный отзыв не изменился
	review, err = s.reviewService.GetProductReview(ctx, "u1", "p1")
	s.Require().NoError(err)
	s.Equal(5, review.Rating)

	// Автор обновляет отзыв
	updated, err := s.reviewService.UpdateReview(ctx, created.ID.Hex(), "u1", &entity.UpdateReviewRequest{
		Rating:      4,
		Description: "Updated",
	})
	s.Require().NoError(err)
	s.Equal(4, updated.Rating)
	s.Equal("Updated", updated.Description)

	// Чужой пользователь обновить не может
	_, err = s.reviewService.UpdateReview(ctx, created.ID.Hex(), "u2", &entity.UpdateReviewRequest{
		Rating:      1,
		Description: "hijack",
	})
	s.Require().ErrorIs(err, service.ErrNotReviewAuthor)

	review, err = s.reviewService.GetProductReview(ctx, "u1", "p1")
	s.Require().NoError(err)
	s.Equal(4, review.Rating)
	s.Equal("Updated", review.Description)
}

// TestConcurrentDuplicateCreate бьет по гонке check-then-create:
// уникальный индекс должен пропустить ровно один отзыв
func (s *ReviewsIntegrationTestSuite) TestConcurrentDuplicateCreate() {
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.reviewService.CreateReview(ctx, "u1", &entity.CreateReviewRequest{
				ProductID:   "p1",
				Rating:      5,
				Description: "race",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.Require().ErrorIs(err, service.ErrAlreadyReviewed)
		}
	}
	s.Equal(1, succeeded)

	count, err := s.db.Collection("reviews").CountDocuments(ctx, bson.M{
		"product_id": "p1",
		"user_id":    "u1",
	})
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *ReviewsIntegrationTestSuite) TestCreateAgainstMissingProduct() {
	_, err := s.reviewService.CreateReview(context.Background(), "u1", &entity.CreateReviewRequest{
		ProductID:   "no-such-product",
		Rating:      5,
		Description: "text",
	})
	s.Require().ErrorIs(err, service.ErrProductNotFound)

	count, countErr := s.db.Collection("reviews").CountDocuments(context.Background(), bson.M{})
	s.Require().NoError(countErr)
	s.Equal(int64(0), count)
}

func (s *ReviewsIntegrationTestSuite) TestRatingSummaryAndRecalculation() {
	ctx := context.Background()

	_, err := s.reviewService.CreateReview(ctx, "u1", &entity.CreateReviewRequest{ProductID: "p1", Rating: 5, Description: "great"})
	s.Require().NoError(err)
	_, err = s.reviewService.CreateReview(ctx, "u2", &entity.CreateReviewRequest{ProductID: "p1", Rating: 2, Description: "meh"})
	s.Require().NoError(err)

	summary, err := s.reviewService.GetProductRatingSummary(ctx, "p1")
	s.Require().NoError(err)
	s.Equal(2, summary.RatingCount)
	s.InDelta(3.5, summary.RatingAvg, 0.001)

	s.Require().NoError(s.reviewService.RecalculateRatings(ctx))

	product, err := s.productRepo.GetByID(ctx, "p1")
	s.Require().NoError(err)
	s.Equal(2, product.RatingCount)
	s.InDelta(3.5, product.RatingAvg, 0.001)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
