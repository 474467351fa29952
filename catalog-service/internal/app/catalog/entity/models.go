package entity

import (
	"time"

	"github.com/google/uuid"
)

// Tenant - продавец со своей витриной
// Создается при онбординге продавца, каталог его только читает
type Tenant struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Category представляет категорию товаров
// Подкатегория - это категория с заполненным parent_id
type Category struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string     `json:"name" gorm:"not null"`
	Slug      string     `json:"slug" gorm:"uniqueIndex;not null"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt time.Time  `json:"created_at"`
}

// CategoryNode - категория с подкатегориями для меню витрины
type CategoryNode struct {
	Category
	Subcategories []Category `json:"subcategories"`
}

// Product представляет товар в каталоге
type Product struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID `json:"tenant_id" gorm:"type:uuid;index;not null"`
	CategoryID   uuid.UUID `json:"category_id" gorm:"type:uuid;index;not null"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	Price        float64   `json:"price" gorm:"not null"`
	RefundPolicy string    `json:"refund_policy" gorm:"default:30-day"`
	IsArchived   bool      `json:"is_archived" gorm:"default:false"`
	IsPrivate    bool      `json:"is_private" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductEvent представляет событие изменения товара для Kafka
// Consumer в Reviews Service строит по этим событиям свою read-model
type ProductEvent struct {
	EventType  string    `json:"event_type"` // PRODUCT_CREATED, PRODUCT_UPDATED, PRODUCT_ARCHIVED, PRODUCT_DELETED
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	TenantSlug string    `json:"tenant_slug"`
	IsArchived bool      `json:"is_archived"`
	Timestamp  time.Time `json:"timestamp"`
}
