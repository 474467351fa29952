package util

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"yarmarka/catalog-service/internal/app/catalog/entity"
	"yarmarka/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const categoryTreeCacheKey = "categories:tree"

// RedisClient кеширует дерево категорий витрины
// Меню категорий читается на каждой странице, а меняется редко
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// NewRedisConnection подключается к Redis и проверяет соединение
func NewRedisConnection(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func (r *RedisClient) SetCategoryTree(ctx context.Context, tree []entity.CategoryNode, ttl time.Duration) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal category tree: %w", err)
	}

	if err := r.client.Set(ctx, categoryTreeCacheKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set category tree in cache: %w", err)
	}

	return nil
}

// GetCategoryTree возвращает (nil, nil) при промахе кеша
func (r *RedisClient) GetCategoryTree(ctx context.Context) ([]entity.CategoryNode, error) {
	data, err := r.client.Get(ctx, categoryTreeCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss("catalog-service", "categories")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category tree from cache: %w", err)
	}

	var tree []entity.CategoryNode
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category tree: %w", err)
	}

	metrics.RecordCacheHit("catalog-service", "categories")

	return tree, nil
}

func (r *RedisClient) DeleteCategoryTree(ctx context.Context) error {
	if err := r.client.Del(ctx, categoryTreeCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to delete category tree from cache: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
