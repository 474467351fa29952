package handler

import (
	"errors"
	"net/http"

	"yarmarka/catalog-service/internal/app/catalog/entity"
	"yarmarka/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
	validator      *validator.Validate
}

func NewCatalogHandler(catalogService service.CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validator:      validator.New(),
	}
}

// === категории ===

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req entity.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		h.writeServiceError(c, err, "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, category)
}

// GetCategoryTree отдает дерево категорий для меню витрины
func (h *CatalogHandler) GetCategoryTree(c *gin.Context) {
	tree, err := h.catalogService.GetCategoryTree(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "Failed to get categories")
		return
	}

	c.JSON(http.StatusOK, entity.CategoryTreeResponse{
		Categories: tree,
		Total:      len(tree),
	})
}

func (h *CatalogHandler) GetCategory(c *gin.Context) {
	categoryID, ok := pathUUID(c, "category_id")
	if !ok {
		return
	}

	category, err := h.catalogService.GetCategory(c.Request.Context(), categoryID)
	if err != nil {
		h.writeServiceError(c, err, "Failed to get category")
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	categoryID, ok := pathUUID(c, "category_id")
	if !ok {
		return
	}

	var req entity.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), categoryID, &req)
	if err != nil {
		h.writeServiceError(c, err, "Failed to update category")
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	categoryID, ok := pathUUID(c, "category_id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		h.writeServiceError(c, err, "Failed to delete category")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Category deleted successfully",
	})
}

// === браузинг ===

// BrowseProducts - публичный поиск по каталогу
// Фильтры: search, category (слаг), tenant (слаг), min_price, max_price, sort
func (h *CatalogHandler) BrowseProducts(c *gin.Context) {
	var query entity.ProductQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if err := h.validator.Struct(query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	products, err := h.catalogService.BrowseProducts(c.Request.Context(), &query)
	if err != nil {
		h.writeServiceError(c, err, "Failed to list products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Products: products,
		Total:    len(products),
	})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.writeServiceError(c, err, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// GetTenantProducts - витрина конкретного продавца
func (h *CatalogHandler) GetTenantProducts(c *gin.Context) {
	tenantSlug := c.Param("tenant_slug")
	if tenantSlug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tenant slug is required"})
		return
	}

	products, err := h.catalogService.BrowseProducts(c.Request.Context(), &entity.ProductQuery{
		TenantSlug: tenantSlug,
	})
	if err != nil {
		h.writeServiceError(c, err, "Failed to list tenant products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Products: products,
		Total:    len(products),
	})
}

// === товары продавца ===

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	tenantSlug, ok := currentTenantSlug(c)
	if !ok {
		return
	}

	var req entity.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), tenantSlug, &req)
	if err != nil {
		h.writeServiceError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	tenantSlug, ok := currentTenantSlug(c)
	if !ok {
		return
	}

	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}

	var req entity.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), tenantSlug, productID, &req)
	if err != nil {
		h.writeServiceError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) ArchiveProduct(c *gin.Context) {
	tenantSlug, ok := currentTenantSlug(c)
	if !ok {
		return
	}

	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}

	if err := h.catalogService.ArchiveProduct(c.Request.Context(), tenantSlug, productID); err != nil {
		h.writeServiceError(c, err, "Failed to archive product")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Product archived successfully",
	})
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	tenantSlug, ok := currentTenantSlug(c)
	if !ok {
		return
	}

	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), tenantSlug, productID); err != nil {
		h.writeServiceError(c, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Product deleted successfully",
	})
}

// writeServiceError переводит ошибки бизнес-логики в HTTP статусы
// 403 не уточняет какому продавцу принадлежит товар
func (h *CatalogHandler) writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, service.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
	case errors.Is(err, service.ErrNotProductOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func currentTenantSlug(c *gin.Context) (string, bool) {
	tenantSlug := c.GetString("tenant_slug")
	if tenantSlug == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Tenant account required"})
		return "", false
	}

	return tenantSlug, true
}

func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return uuid.Nil, false
	}

	return id, true
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
