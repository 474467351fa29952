//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"yarmarka/reviews-service/internal/app/reviews/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BaseURL - адрес запущенного reviews-service
// Для E2E тестов стек должен быть поднят через docker-compose,
// включая Mongo и Kafka; catalog-service должен успеть опубликовать
// товар E2E_PRODUCT_ID в product_events
var BaseURL = envOr("E2E_REVIEWS_URL", "http://localhost:8083")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func signToken(t *testing.T, userID string) string {
	t.Helper()

	secret := envOr("E2E_JWT_SECRET", "your-secret-key-change-this-in-production")
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   userID + "@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, client *http.Client, method, path, userID string, body interface{}) *http.Response {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, BaseURL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func productID() string {
	return envOr("E2E_PRODUCT_ID", "e2e-product-1")
}

// TestFullReviewFlow тестирует полный цикл: создание отзыва,
// чтение своего отзыва, конфликт повторного отзыва, обновление,
// запрет чужого обновления и удаление
func TestFullReviewFlow(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	author := "e2e-user-" + uuid.NewString()
	stranger := "e2e-user-" + uuid.NewString()

	// До первого отзыва getOne отдает null
	resp := doRequest(t, client, http.MethodGet, "/reviews/product/"+productID()+"/me", author, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var probe map[string]*entity.Review
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&probe))
	resp.Body.Close()
	assert.Nil(t, probe["review"])

	// Создание
	resp = doRequest(t, client, http.MethodPost, "/reviews", author, map[string]interface{}{
		"product_id":  productID(),
		"rating":      5,
		"description": "Отличный товар, полностью оправдал ожидания",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var review entity.Review
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&review))
	resp.Body.Close()
	assert.Equal(t, 5, review.Rating)

	reviewID := review.ID.Hex()

	defer func() {
		resp := doRequest(t, client, http.MethodDelete, "/reviews/"+reviewID, author, nil)
		resp.Body.Close()
	}()

	// Повторный отзыв того же пользователя - конфликт
	resp = doRequest(t, client, http.MethodPost, "/reviews", author, map[string]interface{}{
		"product_id":  productID(),
		"rating":      1,
		"description": "Попытка перезаписать свой же отзыв",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Обновление автором
	resp = doRequest(t, client, http.MethodPatch, "/reviews/"+reviewID, author, map[string]interface{}{
		"rating":      4,
		"description": "После месяца использования снизил оценку",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&review))
	resp.Body.Close()
	assert.Equal(t, 4, review.Rating)

	// Чужой пользователь не может ни обновить, ни удалить
	resp = doRequest(t, client, http.MethodPatch, "/reviews/"+reviewID, stranger, map[string]interface{}{
		"rating":      1,
		"description": "Попытка испортить чужой отзыв",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, client, http.MethodDelete, "/reviews/"+reviewID, stranger, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateReviewForMissingProduct(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp := doRequest(t, client, http.MethodPost, "/reviews", "e2e-user-"+uuid.NewString(), map[string]interface{}{
		"product_id":  "missing-product-" + uuid.NewString(),
		"rating":      5,
		"description": "Отзыв на несуществующий товар",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUnauthorizedAccess(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp := doRequest(t, client, http.MethodPost, "/reviews", "", map[string]interface{}{
		"product_id":  productID(),
		"rating":      5,
		"description": "Запрос без токена",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateReview_ValidationErrors(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}
	author := "e2e-user-" + uuid.NewString()

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"rating above range", map[string]interface{}{
			"product_id": productID(), "rating": 6, "description": "Оценка вне диапазона",
		}},
		{"rating below range", map[string]interface{}{
			"product_id": productID(), "rating": 0, "description": "Оценка вне диапазона",
		}},
		{"missing description", map[string]interface{}{
			"product_id": productID(), "rating": 5,
		}},
		{"missing product", map[string]interface{}{
			"rating": 5, "description": "Без товара",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, client, http.MethodPost, "/reviews", author, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestHealthCheck(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(BaseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
