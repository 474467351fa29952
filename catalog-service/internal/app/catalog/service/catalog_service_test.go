package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"

	"yarmarka/catalog-service/internal/app/catalog/entity"
	"yarmarka/catalog-service/internal/app/catalog/repository"
	"yarmarka/catalog-service/internal/app/catalog/repository/mocks"
	"yarmarka/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter("catalog-service", "debug", io.Discard)
	os.Exit(m.Run())
}

type testDeps struct {
	categoryRepo *mocks.MockCategoryRepository
	productRepo  *mocks.MockProductRepository
	tenantRepo   *mocks.MockTenantRepository
	cache        *mocks.MockCategoryCache
	producer     *mocks.MockMessagePublisher
}

func newTestService() (*CatalogService, *testDeps) {
	deps := &testDeps{
		categoryRepo: new(mocks.MockCategoryRepository),
		productRepo:  new(mocks.MockProductRepository),
		tenantRepo:   new(mocks.MockTenantRepository),
		cache:        new(mocks.MockCategoryCache),
		producer:     new(mocks.MockMessagePublisher),
	}

	svc := NewCatalogService(deps.categoryRepo, deps.productRepo, deps.tenantRepo, deps.cache, deps.producer)
	return svc, deps
}

func testTenant() *entity.Tenant {
	return &entity.Tenant{
		ID:   uuid.New(),
		Slug: "gadget-lab",
		Name: "Gadget Lab",
	}
}

// === категории ===

func TestGetCategoryTree_CacheHit(t *testing.T) {
	svc, deps := newTestService()

	cached := []entity.CategoryNode{
		{Category: entity.Category{ID: uuid.New(), Name: "Электроника", Slug: "electronics"}},
	}
	deps.cache.On("GetCategoryTree", mock.Anything).Return(cached, nil)

	tree, err := svc.GetCategoryTree(context.Background())

	require.NoError(t, err)
	assert.Equal(t, cached, tree)
	// При попадании в кеш PostgreSQL не трогаем
	deps.categoryRepo.AssertNotCalled(t, "GetAll", mock.Anything)
}

func TestGetCategoryTree_CacheMiss(t *testing.T) {
	svc, deps := newTestService()

	rootID := uuid.New()
	flat := []entity.Category{
		{ID: rootID, Name: "Электроника", Slug: "electronics"},
		{ID: uuid.New(), Name: "Смартфоны", Slug: "smartphones", ParentID: &rootID},
		{ID: uuid.New(), Name: "Ноутбуки", Slug: "laptops", ParentID: &rootID},
	}

	deps.cache.On("GetCategoryTree", mock.Anything).Return(nil, nil)
	deps.categoryRepo.On("GetAll", mock.Anything).Return(flat, nil)
	deps.cache.On("SetCategoryTree", mock.Anything, mock.Anything, categoryTreeCacheTTL).Return(nil)

	tree, err := svc.GetCategoryTree(context.Background())

	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "electronics", tree[0].Slug)
	assert.Len(t, tree[0].Subcategories, 2)
	deps.cache.AssertExpectations(t)
}

func TestGetCategoryTree_CacheErrorFallsBackToDB(t *testing.T) {
	svc, deps := newTestService()

	deps.cache.On("GetCategoryTree", mock.Anything).Return(nil, errors.New("redis: connection refused"))
	deps.categoryRepo.On("GetAll", mock.Anything).Return([]entity.Category{}, nil)
	deps.cache.On("SetCategoryTree", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	tree, err := svc.GetCategoryTree(context.Background())

	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestCreateCategory_InvalidatesCache(t *testing.T) {
	svc, deps := newTestService()

	deps.categoryRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Category")).Return(nil)
	deps.cache.On("DeleteCategoryTree", mock.Anything).Return(nil)

	category, err := svc.CreateCategory(context.Background(), &entity.CreateCategoryRequest{
		Name: "Книги",
		Slug: "books",
	})

	require.NoError(t, err)
	assert.Equal(t, "books", category.Slug)
	assert.NotEqual(t, uuid.Nil, category.ID)
	deps.cache.AssertCalled(t, "DeleteCategoryTree", mock.Anything)
}

func TestCreateCategory_MissingParent(t *testing.T) {
	svc, deps := newTestService()

	parentID := uuid.New()
	deps.categoryRepo.On("GetByID", mock.Anything, parentID).Return(nil, repository.ErrCategoryNotFound)

	_, err := svc.CreateCategory(context.Background(), &entity.CreateCategoryRequest{
		Name:     "Смартфоны",
		Slug:     "smartphones",
		ParentID: &parentID,
	})

	assert.ErrorIs(t, err, ErrCategoryNotFound)
	deps.categoryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeleteCategory_NotFound(t *testing.T) {
	svc, deps := newTestService()

	id := uuid.New()
	deps.categoryRepo.On("Delete", mock.Anything, id).Return(repository.ErrCategoryNotFound)

	err := svc.DeleteCategory(context.Background(), id)

	assert.ErrorIs(t, err, ErrCategoryNotFound)
	deps.cache.AssertNotCalled(t, "DeleteCategoryTree", mock.Anything)
}

// === браузинг ===

func TestBrowseProducts_CategoryIncludesSubcategories(t *testing.T) {
	svc, deps := newTestService()

	category := &entity.Category{ID: uuid.New(), Name: "Электроника", Slug: "electronics"}
	children := []entity.Category{
		{ID: uuid.New(), Name: "Смартфоны", Slug: "smartphones", ParentID: &category.ID},
	}

	deps.categoryRepo.On("GetBySlug", mock.Anything, "electronics").Return(category, nil)
	deps.categoryRepo.On("GetChildren", mock.Anything, category.ID).Return(children, nil)
	deps.productRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ProductFilter) bool {
		return len(f.CategoryIDs) == 2 && !f.IncludePrivate
	})).Return([]entity.Product{}, nil)

	_, err := svc.BrowseProducts(context.Background(), &entity.ProductQuery{CategorySlug: "electronics"})

	require.NoError(t, err)
	deps.productRepo.AssertExpectations(t)
}

func TestBrowseProducts_TenantStorefrontIncludesPrivate(t *testing.T) {
	svc, deps := newTestService()

	tenant := testTenant()
	deps.tenantRepo.On("GetBySlug", mock.Anything, tenant.Slug).Return(tenant, nil)
	deps.productRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.ProductFilter) bool {
		return f.TenantID != nil && *f.TenantID == tenant.ID && f.IncludePrivate
	})).Return([]entity.Product{}, nil)

	_, err := svc.BrowseProducts(context.Background(), &entity.ProductQuery{TenantSlug: tenant.Slug})

	require.NoError(t, err)
	deps.productRepo.AssertExpectations(t)
}

func TestBrowseProducts_UnknownCategory(t *testing.T) {
	svc, deps := newTestService()

	deps.categoryRepo.On("GetBySlug", mock.Anything, "missing").Return(nil, repository.ErrCategoryNotFound)

	_, err := svc.BrowseProducts(context.Background(), &entity.ProductQuery{CategorySlug: "missing"})

	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestGetProduct_ArchivedHidden(t *testing.T) {
	svc, deps := newTestService()

	id := uuid.New()
	deps.productRepo.On("GetByID", mock.Anything, id).Return(&entity.Product{
		ID:         id,
		Name:       "Старый телефон",
		IsArchived: true,
	}, nil)

	_, err := svc.GetProduct(context.Background(), id)

	assert.ErrorIs(t, err, ErrProductNotFound)
}

// === товары продавца ===

func TestCreateProduct_Success(t *testing.T) {
	svc, deps := newTestService()

	tenant := testTenant()
	categoryID := uuid.New()

	deps.tenantRepo.On("GetBySlug", mock.Anything, tenant.Slug).Return(tenant, nil)
	deps.categoryRepo.On("GetByID", mock.Anything, categoryID).Return(&entity.Category{ID: categoryID}, nil)
	deps.productRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Product")).Return(nil)
	deps.producer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	product, err := svc.CreateProduct(context.Background(), tenant.Slug, &entity.CreateProductRequest{
		Name:        "Беспроводные наушники",
		Description: "Наушники с активным шумоподавлением",
		Price:       4990,
		CategoryID:  categoryID,
	})

	require.NoError(t, err)
	assert.Equal(t, tenant.ID, product.TenantID)
	assert.Equal(t, "30-day", product.RefundPolicy)

	require.Len(t, deps.producer.Messages, 1)
	var event entity.ProductEvent
	require.NoError(t, json.Unmarshal(deps.producer.Messages[0], &event))
	assert.Equal(t, "PRODUCT_CREATED", event.EventType)
	assert.Equal(t, product.ID, event.ProductID)
	assert.Equal(t, tenant.Slug, event.TenantSlug)
}

func TestCreateProduct_UnknownTenant(t *testing.T) {
	svc, deps := newTestService()

	deps.tenantRepo.On("GetBySlug", mock.Anything, "ghost").Return(nil, repository.ErrTenantNotFound)

	_, err := svc.CreateProduct(context.Background(), "ghost", &entity.CreateProductRequest{
		Name:        "Товар",
		Description: "Описание товара",
		Price:       100,
		CategoryID:  uuid.New(),
	})

	assert.ErrorIs(t, err, ErrTenantNotFound)
	deps.productRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_KafkaErrorDoesNotFailRequest(t *testing.T) {
	svc, deps := newTestService()

	tenant := testTenant()
	categoryID := uuid.New()

	deps.tenantRepo.On("GetBySlug", mock.Anything, tenant.Slug).Return(tenant, nil)
	deps.categoryRepo.On("GetByID", mock.Anything, categoryID).Return(&entity.Category{ID: categoryID}, nil)
	deps.productRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	deps.producer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("kafka: broker unreachable"))

	product, err := svc.CreateProduct(context.Background(), tenant.Slug, &entity.CreateProductRequest{
		Name:        "Чайник",
		Description: "Электрический чайник 1.7 литра",
		Price:       1990,
		CategoryID:  categoryID,
	})

	require.NoError(t, err)
	assert.NotNil(t, product)
}

func TestUpdateProduct_ForbiddenForOtherTenant(t *testing.T) {
	svc, deps := newTestService()

	owner := testTenant()
	caller := &entity.Tenant{ID: uuid.New(), Slug: "other-shop", Name: "Other Shop"}
	productID := uuid.New()

	deps.tenantRepo.On("GetBySlug", mock.Anything, caller.Slug).Return(caller, nil)
	deps.productRepo.On("GetByID", mock.Anything, productID).Return(&entity.Product{
		ID:       productID,
		TenantID: owner.ID,
		Name:     "Чужой товар",
	}, nil)

	_, err := svc.UpdateProduct(context.Background(), caller.Slug, productID, &entity.UpdateProductRequest{
		Name: "Перехваченный товар",
	})

	assert.ErrorIs(t, err, ErrNotProductOwner)
	deps.productRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	assert.Empty(t, deps.producer.Messages)
}

func TestUpdateProduct_PartialUpdate(t *testing.T) {
	svc, deps := newTestService()

	tenant := testTenant()
	productID := uuid.New()
	existing := &entity.Product{
		ID:          productID,
		TenantID:    tenant.ID,
		CategoryID:  uuid.New(),
		Name:        "Наушники",
		Description: "Старое описание товара",
		Price:       4990,
	}

	deps.tenantRepo.On("GetBySlug", mock.Anything, tenant.Slug).Return(tenant, nil)
	deps.productRepo.On("GetByID", mock.Anything, productID).Return(existing, nil)
	deps.productRepo.On("Update", mock.Anything, mock.AnythingOfType("*entity.Product")).Return(nil)
	deps.producer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateProduct(context.Background(), tenant.Slug, productID, &entity.UpdateProductRequest{
		Price: 3990,
	})

	require.NoError(t, err)
	assert.Equal(t, 3990.0, updated.Price)
	assert.Equal(t, "Наушники", updated.Name)
	assert.Equal(t, existing.CategoryID, updated.CategoryID)
}

func TestArchiveProduct_PublishesEvent(t *testing.T) {
	svc, deps := newTestService()

	tenant := testTenant()
	productID := uuid.New()

	deps.tenantRepo.On("GetBySlug", mock.Anything, tenant.Slug).Return(tenant, nil)
	deps.productRepo.On("GetByID", mock.Anything, productID).Return(&entity.Product{
		ID:       productID,
		TenantID: tenant.ID,
		Name:     "Снятый с продажи товар",
	}, nil)
	deps.productRepo.On("SetArchived", mock.Anything, productID, true).Return(nil)
	deps.producer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := svc.ArchiveProduct(context.Background(), tenant.Slug, productID)

	require.NoError(t, err)
	require.Len(t, deps.producer.Messages, 1)

	var event entity.ProductEvent
	require.NoError(t, json.Unmarshal(deps.producer.Messages[0], &event))
	assert.Equal(t, "PRODUCT_ARCHIVED", event.EventType)
	assert.True(t, event.IsArchived)
}

func TestDeleteProduct_Success(t *testing.T) {
	svc, deps := newTestService()

	tenant := testTenant()
	productID := uuid.New()

	deps.tenantRepo.On("GetBySlug", mock.Anything, tenant.Slug).Return(tenant, nil)
	deps.productRepo.On("GetByID", mock.Anything, productID).Return(&entity.Product{
		ID:       productID,
		TenantID: tenant.ID,
	}, nil)
	deps.productRepo.On("Delete", mock.Anything, productID).Return(nil)
	deps.producer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := svc.DeleteProduct(context.Background(), tenant.Slug, productID)

	require.NoError(t, err)

	var event entity.ProductEvent
	require.Len(t, deps.producer.Messages, 1)
	require.NoError(t, json.Unmarshal(deps.producer.Messages[0], &event))
	assert.Equal(t, "PRODUCT_DELETED", event.EventType)
}

func TestBuildCategoryTree_EmptyInput(t *testing.T) {
	tree := buildCategoryTree(nil)
	assert.Empty(t, tree)
}
