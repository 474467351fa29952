package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"yarmarka/pkg/logger"
	"yarmarka/reviews-service/internal/app/reviews/config"
	"yarmarka/reviews-service/internal/app/reviews/handler"
	"yarmarka/reviews-service/internal/app/reviews/infrastructure/messaging"
	"yarmarka/reviews-service/internal/app/reviews/processor"
	"yarmarka/reviews-service/internal/app/reviews/repository"
	"yarmarka/reviews-service/internal/app/reviews/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitFromEnv("reviews-service")

	mongoClient, err := connectMongoDB(cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}()
	logger.Info().
		Str("database", cfg.MongoDB.Database).
		Msg("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB.Database)

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.ReviewTopic)
	defer kafkaProducer.Close()
	logger.Info().
		Str("topic", cfg.Kafka.ReviewTopic).
		Msg("Initialized Kafka producer")

	reviewRepo := repository.NewReviewRepository(db)
	productRepo := repository.NewProductReadRepository(db)
	reviewService := service.NewReviewService(reviewRepo, productRepo, kafkaProducer)

	ctx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	productConsumer := processor.NewProductConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.ProductTopic,
		cfg.Kafka.ConsumerGroup,
		reviewService,
	)
	productConsumer.Start(ctx)

	ratingScheduler := processor.NewRatingScheduler(reviewService)
	if err := ratingScheduler.Start(ctx, cfg.Aggregation.Schedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start rating scheduler")
	}

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	reviewHandler := handler.NewReviewHandler(reviewService)
	router := handler.SetupRoutes(reviewHandler, authMiddleware)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Reviews Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Reviews Service...")

	ratingScheduler.Stop()
	productConsumer.Stop()
	cancelConsumers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Reviews Service stopped gracefully")
}

func connectMongoDB(cfg config.MongoDBConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err = mongo.Connect(ctx, clientOptions)
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pingCancel()

			if err = client.Ping(pingCtx, nil); err == nil {
				return client, nil
			}
		}

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}
