package service

import (
	"context"

	"yarmarka/reviews-service/internal/app/reviews/entity"
)

type ReviewServiceInterface interface {
	GetProductReview(ctx context.Context, userID, productID string) (*entity.Review, error)
	CreateReview(ctx context.Context, userID string, req *entity.CreateReviewRequest) (*entity.Review, error)
	UpdateReview(ctx context.Context, reviewID string, userID string, req *entity.UpdateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, reviewID string, userID string) error
	GetReviewsByProduct(ctx context.Context, productID string) ([]entity.Review, error)
	GetUserReviews(ctx context.Context, userID string) ([]entity.Review, error)
	GetProductRatingSummary(ctx context.Context, productID string) (*entity.RatingSummary, error)
	ApplyProductEvent(ctx context.Context, event *entity.ProductEvent) error
	RecalculateRatings(ctx context.Context) error
}
