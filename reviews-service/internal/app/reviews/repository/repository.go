package repository

import (
	"context"

	"yarmarka/reviews-service/internal/app/reviews/entity"
)

// ReviewRepository определяет методы для работы с отзывами в MongoDB
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	GetByProductAndUser(ctx context.Context, productID, userID string) (*entity.Review, error)
	GetByProductID(ctx context.Context, productID string) ([]entity.Review, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id string) error
	RatingSummary(ctx context.Context, productID string) (*entity.RatingSummary, error)
	RatingSummaries(ctx context.Context) ([]entity.RatingSummary, error)
}

// ProductReadRepository определяет методы для работы с read-model товаров
// Коллекция products заполняется событиями из Catalog Service
type ProductReadRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Upsert(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error
	SetRating(ctx context.Context, productID string, avg float64, count int) error
}
