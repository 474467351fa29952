package repository

import (
	"context"

	"yarmarka/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
)

// ProductFilter - фильтр выборки товаров
// Сервис заранее разрешает слаги категорий и продавцов в конкретные ID,
// репозиторий работает только с равенствами и диапазонами
type ProductFilter struct {
	Search         string
	CategoryIDs    []uuid.UUID
	TenantID       *uuid.UUID
	MinPrice       float64
	MaxPrice       float64
	Sort           string // newest, price_asc, price_desc
	IncludePrivate bool
}

// CategoryRepository определяет методы для работы с категориями в PostgreSQL
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Category, error)
	GetAll(ctx context.Context) ([]entity.Category, error)
	GetChildren(ctx context.Context, parentID uuid.UUID) ([]entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductRepository определяет методы для работы с товарами в PostgreSQL
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TenantRepository определяет методы для чтения продавцов
type TenantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error)
}
