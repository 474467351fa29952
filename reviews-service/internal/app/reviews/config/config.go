package config

import (
	"os"
)

// Config содержит все настройки Reviews Service
type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	Kafka       KafkaConfig
	JWT         JWTConfig
	Aggregation AggregationConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8083)
}

// MongoDBConfig - настройки подключения к MongoDB
// В одной базе живут коллекции reviews и products (read-model каталога)
type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB
	Database string // Имя базы данных
}

type KafkaConfig struct {
	Brokers       []string // Список брокеров Kafka (формат: host:port)
	ReviewTopic   string   // Топик для исходящих событий REVIEW_*
	ProductTopic  string   // Топик входящих событий PRODUCT_* от Catalog Service
	ConsumerGroup string   // Consumer group для чтения product_events
}

type JWTConfig struct {
	Secret string // Секретный ключ для проверки JWT токенов (должен совпадать с Auth Service)
}

// AggregationConfig - расписание пересчёта агрегированных рейтингов товаров
type AggregationConfig struct {
	Schedule string // Формат robfig/cron, например "@every 5m"
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8083"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "reviews_service"),
		},
		Kafka: KafkaConfig{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ReviewTopic:   getEnv("KAFKA_REVIEW_TOPIC", "review_events"),
			ProductTopic:  getEnv("KAFKA_PRODUCT_TOPIC", "product_events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "reviews-service"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Aggregation: AggregationConfig{
			Schedule: getEnv("RATING_AGGREGATION_SCHEDULE", "@every 5m"),
		},
	}, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
