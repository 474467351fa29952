package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yarmarka/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

type productReadRepository struct {
	collection *mongo.Collection
}

// NewProductReadRepository создает репозиторий read-model товаров
func NewProductReadRepository(db *mongo.Database) ProductReadRepository {
	return &productReadRepository{
		collection: db.Collection("products"),
	}
}

// GetByID получает товар по ID
func (r *productReadRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var product entity.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// Upsert создает или обновляет товар в read-model
// Рейтинговые поля не трогаем - их ведет cron пересчета
func (r *productReadRepository) Upsert(ctx context.Context, product *entity.Product) error {
	filter := bson.M{"_id": product.ID}
	update := bson.M{
		"$set": bson.M{
			"name":        product.Name,
			"tenant_slug": product.TenantSlug,
			"is_archived": product.IsArchived,
			"updated_at":  time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

// Delete удаляет товар из read-model
// Отсутствие документа не считается ошибкой: событие могло прийти повторно
func (r *productReadRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

// SetRating записывает агрегированный рейтинг на документ товара
func (r *productReadRepository) SetRating(ctx context.Context, productID string, avg float64, count int) error {
	filter := bson.M{"_id": productID}
	update := bson.M{
		"$set": bson.M{
			"rating_avg":   avg,
			"rating_count": count,
			"updated_at":   time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set product rating: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}
