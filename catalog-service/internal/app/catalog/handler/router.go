package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yarmarka/pkg/logger"
	"yarmarka/pkg/metrics"
)

func SetupRoutes(catalogHandler *CatalogHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("catalog-service"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "catalog-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	categories := router.Group("/categories")
	{
		// Дерево категорий публичное: его рисует меню витрины
		categories.GET("", catalogHandler.GetCategoryTree)
		categories.GET("/:category_id", catalogHandler.GetCategory)

		protected := categories.Group("")
		protected.Use(authMiddleware.Authenticate())
		{
			protected.POST("", catalogHandler.CreateCategory)
			protected.PATCH("/:category_id", catalogHandler.UpdateCategory)
			protected.DELETE("/:category_id", catalogHandler.DeleteCategory)
		}
	}

	products := router.Group("/products")
	{
		products.GET("", catalogHandler.BrowseProducts)
		products.GET("/:product_id", catalogHandler.GetProduct)

		protected := products.Group("")
		protected.Use(authMiddleware.Authenticate(), authMiddleware.RequireTenant())
		{
			protected.POST("", catalogHandler.CreateProduct)
			protected.PATCH("/:product_id", catalogHandler.UpdateProduct)
			protected.POST("/:product_id/archive", catalogHandler.ArchiveProduct)
			protected.DELETE("/:product_id", catalogHandler.DeleteProduct)
		}
	}

	// Витрина продавца: все его публичные и приватные товары
	router.GET("/tenants/:tenant_slug/products", catalogHandler.GetTenantProducts)

	return router
}
