package service

import (
	"context"

	"yarmarka/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
)

type CatalogServiceInterface interface {
	CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetCategoryTree(ctx context.Context) ([]entity.CategoryNode, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	BrowseProducts(ctx context.Context, query *entity.ProductQuery) ([]entity.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	CreateProduct(ctx context.Context, tenantSlug string, req *entity.CreateProductRequest) (*entity.Product, error)
	UpdateProduct(ctx context.Context, tenantSlug string, id uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error)
	ArchiveProduct(ctx context.Context, tenantSlug string, id uuid.UUID) error
	DeleteProduct(ctx context.Context, tenantSlug string, id uuid.UUID) error
}
