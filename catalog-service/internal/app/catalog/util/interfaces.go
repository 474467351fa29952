package util

import (
	"context"
	"time"

	"yarmarka/catalog-service/internal/app/catalog/entity"
)

// CategoryCache интерфейс для кеша дерева категорий
// Используется для dependency injection и упрощения тестирования
type CategoryCache interface {
	SetCategoryTree(ctx context.Context, tree []entity.CategoryNode, ttl time.Duration) error
	GetCategoryTree(ctx context.Context) ([]entity.CategoryNode, error)
	DeleteCategoryTree(ctx context.Context) error
	Close() error
}

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
