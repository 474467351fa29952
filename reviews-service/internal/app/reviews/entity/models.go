package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review - отзыв пользователя о товаре
// Пара (product_id, user_id) уникальна: один пользователь оставляет
// не более одного отзыва на товар, пара закреплена уникальным индексом
type Review struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID   string             `json:"product_id" bson:"product_id"` // UUID товара из Catalog Service
	UserID      string             `json:"user_id" bson:"user_id"`       // UUID автора из Auth Service
	Rating      int                `json:"rating" bson:"rating"`         // Оценка от 1 до 5
	Description string             `json:"description" bson:"description"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// Product - read-model товара из Catalog Service
// Заполняется consumer'ом топика product_events, сервис отзывов его не создает
type Product struct {
	ID          string    `json:"id" bson:"_id"` // UUID товара (совпадает с Catalog Service)
	Name        string    `json:"name" bson:"name"`
	TenantSlug  string    `json:"tenant_slug" bson:"tenant_slug"`
	IsArchived  bool      `json:"is_archived" bson:"is_archived"`
	RatingAvg   float64   `json:"rating_avg" bson:"rating_avg"`
	RatingCount int       `json:"rating_count" bson:"rating_count"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// RatingSummary - агрегат рейтинга по одному товару
type RatingSummary struct {
	ProductID   string  `json:"product_id" bson:"_id"`
	RatingAvg   float64 `json:"rating_avg" bson:"rating_avg"`
	RatingCount int     `json:"rating_count" bson:"rating_count"`
}

// ReviewEvent - событие об отзыве для Kafka
type ReviewEvent struct {
	EventType string    `json:"event_type"` // REVIEW_CREATED, REVIEW_UPDATED, REVIEW_DELETED
	ReviewID  string    `json:"review_id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductEvent - входящее событие о товаре из Catalog Service
type ProductEvent struct {
	EventType  string    `json:"event_type"` // PRODUCT_CREATED, PRODUCT_UPDATED, PRODUCT_ARCHIVED, PRODUCT_DELETED
	ProductID  string    `json:"product_id"`
	Name       string    `json:"name"`
	TenantSlug string    `json:"tenant_slug"`
	IsArchived bool      `json:"is_archived"`
	Timestamp  time.Time `json:"timestamp"`
}
