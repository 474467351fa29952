package entity

import "github.com/google/uuid"

type CreateCategoryRequest struct {
	Name     string     `json:"name" validate:"required,min=2,max=100"`
	Slug     string     `json:"slug" validate:"required,min=2,max=100,lowercase"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type CreateProductRequest struct {
	Name         string    `json:"name" validate:"required,min=2,max=200"`
	Description  string    `json:"description" validate:"required,min=10,max=2000"`
	Price        float64   `json:"price" validate:"required,gt=0"`
	CategoryID   uuid.UUID `json:"category_id" validate:"required"`
	RefundPolicy string    `json:"refund_policy" validate:"omitempty,oneof=30-day 14-day 7-day 3-day 1-day no-refunds"`
	IsPrivate    bool      `json:"is_private"`
}

type UpdateProductRequest struct {
	Name        string     `json:"name" validate:"omitempty,min=2,max=200"`
	Description string     `json:"description" validate:"omitempty,min=10,max=2000"`
	Price       float64    `json:"price" validate:"omitempty,gt=0"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	IsPrivate   *bool      `json:"is_private,omitempty"`
}

// ProductQuery - параметры браузинга каталога покупателем
type ProductQuery struct {
	Search       string  `form:"search"`
	CategorySlug string  `form:"category"`
	TenantSlug   string  `form:"tenant"`
	MinPrice     float64 `form:"min_price"`
	MaxPrice     float64 `form:"max_price"`
	Sort         string  `form:"sort" validate:"omitempty,oneof=newest price_asc price_desc"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

type CategoryTreeResponse struct {
	Categories []CategoryNode `json:"categories"`
	Total      int            `json:"total"`
}
