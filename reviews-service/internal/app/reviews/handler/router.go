package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yarmarka/pkg/logger"
	"yarmarka/pkg/metrics"
)

func SetupRoutes(reviewHandler *ReviewHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("reviews-service"))

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
			"service": "reviews-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	reviews := router.Group("/reviews")
	{
		// Публичные маршруты: отзывы и рейтинг товара видны без входа
		reviews.GET("/product/:product_id", reviewHandler.GetReviewsByProduct)
		reviews.GET("/product/:product_id/summary", reviewHandler.GetProductRatingSummary)

		protected := reviews.Group("")
		protected.Use(authMiddleware.Authenticate())
		{
			protected.POST("", reviewHandler.CreateReview)
			protected.GET("/me", reviewHandler.GetMyReviews)
			protected.GET("/product/:product_id/me", reviewHandler.GetMyProductReview)
			protected.PATCH("/:review_id", reviewHandler.UpdateReview)
			protected.DELETE("/:review_id", reviewHandler.DeleteReview)
		}
	}

	return router
}
