package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yarmarka/catalog-service/internal/app/catalog/entity"
	"yarmarka/catalog-service/internal/app/catalog/repository"
	"yarmarka/catalog-service/internal/app/catalog/util"
	"yarmarka/pkg/logger"
	"yarmarka/pkg/metrics"

	"github.com/google/uuid"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrNotProductOwner  = errors.New("product belongs to another tenant")
)

const categoryTreeCacheTTL = time.Hour

// CatalogService обрабатывает бизнес-логику каталога товаров
// Координирует работу репозиториев, Redis кеша и Kafka producer
type CatalogService struct {
	categoryRepo  repository.CategoryRepository
	productRepo   repository.ProductRepository
	tenantRepo    repository.TenantRepository
	cache         util.CategoryCache
	kafkaProducer util.MessagePublisher
}

// NewCatalogService создает новый сервис каталога с внедрением зависимостей
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	tenantRepo repository.TenantRepository,
	cache util.CategoryCache,
	kafkaProducer util.MessagePublisher,
) *CatalogService {
	return &CatalogService{
		categoryRepo:  categoryRepo,
		productRepo:   productRepo,
		tenantRepo:    tenantRepo,
		cache:         cache,
		kafkaProducer: kafkaProducer,
	}
}

// === CATEGORIES ===

// CreateCategory создает категорию или подкатегорию и инвалидирует кеш
func (s *CatalogService) CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	if req.ParentID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to verify parent category: %w", err)
		}
	}

	category := &entity.Category{
		ID:        uuid.New(),
		Name:      req.Name,
		Slug:      req.Slug,
		ParentID:  req.ParentID,
		CreatedAt: time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidateCategoryTree(ctx)

	return category, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// GetCategoryTree возвращает дерево категорий с подкатегориями
// Сначала проверяет кеш Redis, при промахе собирает из PostgreSQL
func (s *CatalogService) GetCategoryTree(ctx context.Context) ([]entity.CategoryNode, error) {
	tree, err := s.cache.GetCategoryTree(ctx)
	if err == nil && tree != nil {
		return tree, nil
	}
	if err != nil {
		// Недоступный Redis не должен ронять витрину
		logger.Warn().Err(err).Msg("Failed to read category tree cache")
	}

	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	tree = buildCategoryTree(categories)

	if err := s.cache.SetCategoryTree(ctx, tree, categoryTreeCacheTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache category tree")
	}

	return tree, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	category.Name = req.Name

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidateCategoryTree(ctx)

	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.invalidateCategoryTree(ctx)

	return nil
}

// === PRODUCTS ===

// BrowseProducts - публичный браузинг каталога покупателем
// Слаги категории и продавца разрешаются в ID до похода в репозиторий;
// фильтр по категории включает и ее подкатегории
func (s *CatalogService) BrowseProducts(ctx context.Context, query *entity.ProductQuery) ([]entity.Product, error) {
	filter := repository.ProductFilter{
		Search:   query.Search,
		MinPrice: query.MinPrice,
		MaxPrice: query.MaxPrice,
		Sort:     query.Sort,
	}

	if query.Search != "" {
		metrics.ProductSearches.Inc()
	}

	if query.CategorySlug != "" {
		category, err := s.categoryRepo.GetBySlug(ctx, query.CategorySlug)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to resolve category: %w", err)
		}

		children, err := s.categoryRepo.GetChildren(ctx, category.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get subcategories: %w", err)
		}

		filter.CategoryIDs = append(filter.CategoryIDs, category.ID)
		for _, child := range children {
			filter.CategoryIDs = append(filter.CategoryIDs, child.ID)
		}
	}

	if query.TenantSlug != "" {
		tenant, err := s.tenantRepo.GetBySlug(ctx, query.TenantSlug)
		if err != nil {
			if errors.Is(err, repository.ErrTenantNotFound) {
				return nil, ErrTenantNotFound
			}
			return nil, fmt.Errorf("failed to resolve tenant: %w", err)
		}

		filter.TenantID = &tenant.ID
		// На витрине продавца видны и его приватные товары
		filter.IncludePrivate = true
	}

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// GetProduct получает товар по ID
// Архивный товар для покупателя эквивалентен отсутствующему
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product.IsArchived {
		return nil, ErrProductNotFound
	}

	return product, nil
}

// CreateProduct создает товар от имени продавца caller'а
// tenantSlug приходит из JWT claims, не из тела запроса
func (s *CatalogService) CreateProduct(ctx context.Context, tenantSlug string, req *entity.CreateProductRequest) (*entity.Product, error) {
	tenant, err := s.resolveTenant(ctx, tenantSlug)
	if err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to verify category: %w", err)
	}

	refundPolicy := req.RefundPolicy
	if refundPolicy == "" {
		refundPolicy = "30-day"
	}

	product := &entity.Product{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		RefundPolicy: refundPolicy,
		IsPrivate:    req.IsPrivate,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	metrics.ProductsPublished.WithLabelValues(tenant.Slug).Inc()

	s.publishProductEvent(ctx, "PRODUCT_CREATED", product, tenant.Slug)

	return product, nil
}

// UpdateProduct обновляет товар с проверкой владельца
// Владелец сверяется с tenant_id сохраненного товара
func (s *CatalogService) UpdateProduct(ctx context.Context, tenantSlug string, id uuid.UUID, req *entity.UpdateProductRequest) (*entity.Product, error) {
	product, tenant, err := s.getOwnedProduct(ctx, tenantSlug, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Price > 0 {
		product.Price = req.Price
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to verify category: %w", err)
		}
		product.CategoryID = *req.CategoryID
	}
	if req.IsPrivate != nil {
		product.IsPrivate = *req.IsPrivate
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.publishProductEvent(ctx, "PRODUCT_UPDATED", product, tenant.Slug)

	return product, nil
}

// ArchiveProduct скрывает товар с витрины не удаляя его
func (s *CatalogService) ArchiveProduct(ctx context.Context, tenantSlug string, id uuid.UUID) error {
	product, tenant, err := s.getOwnedProduct(ctx, tenantSlug, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.SetArchived(ctx, id, true); err != nil {
		return fmt.Errorf("failed to archive product: %w", err)
	}

	product.IsArchived = true
	s.publishProductEvent(ctx, "PRODUCT_ARCHIVED", product, tenant.Slug)

	return nil
}

// DeleteProduct удаляет товар с проверкой владельца
func (s *CatalogService) DeleteProduct(ctx context.Context, tenantSlug string, id uuid.UUID) error {
	product, tenant, err := s.getOwnedProduct(ctx, tenantSlug, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.publishProductEvent(ctx, "PRODUCT_DELETED", product, tenant.Slug)

	return nil
}

// === helpers ===

func (s *CatalogService) resolveTenant(ctx context.Context, tenantSlug string) (*entity.Tenant, error) {
	if tenantSlug == "" {
		return nil, ErrTenantNotFound
	}

	tenant, err := s.tenantRepo.GetBySlug(ctx, tenantSlug)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	return tenant, nil
}

// getOwnedProduct загружает товар и сверяет владельца с caller'ом
func (s *CatalogService) getOwnedProduct(ctx context.Context, tenantSlug string, id uuid.UUID) (*entity.Product, *entity.Tenant, error) {
	tenant, err := s.resolveTenant(ctx, tenantSlug)
	if err != nil {
		return nil, nil, err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product.TenantID != tenant.ID {
		return nil, nil, ErrNotProductOwner
	}

	return product, tenant, nil
}

func (s *CatalogService) invalidateCategoryTree(ctx context.Context) {
	// Кеш не критичен: при ошибке данные протухнут по TTL
	if err := s.cache.DeleteCategoryTree(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate category tree cache")
	}
}

// buildCategoryTree группирует плоский список в корневые категории
// с подкатегориями
func buildCategoryTree(categories []entity.Category) []entity.CategoryNode {
	childrenByParent := make(map[uuid.UUID][]entity.Category)
	var roots []entity.Category

	for _, category := range categories {
		if category.ParentID == nil {
			roots = append(roots, category)
			continue
		}
		childrenByParent[*category.ParentID] = append(childrenByParent[*category.ParentID], category)
	}

	tree := make([]entity.CategoryNode, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, entity.CategoryNode{
			Category:      root,
			Subcategories: childrenByParent[root.ID],
		})
	}

	return tree
}

// publishProductEvent отправляет событие о товаре в Kafka
// Ошибки Kafka не прерывают запрос: каталог уже обновлен
func (s *CatalogService) publishProductEvent(ctx context.Context, eventType string, product *entity.Product, tenantSlug string) {
	event := entity.ProductEvent{
		EventType:  eventType,
		ProductID:  product.ID,
		Name:       product.Name,
		TenantSlug: tenantSlug,
		IsArchived: product.IsArchived,
		Timestamp:  time.Now(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal product event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ProductID.String(), eventData); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("product_id", event.ProductID.String()).
			Msg("Failed to publish product event")
	}
}
