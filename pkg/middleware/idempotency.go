package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/surajpaudel2/sports-ticketing/pkg/response"
)

const (
	// IdempotencyKeyHeader is the header carrying the client's dedup key
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// ContextKeyIdempotencyKey is the gin context key for the extracted key
	ContextKeyIdempotencyKey = "idempotency_key"

	idempotencyKeyPrefix = "idempotency:"
)

// IdempotencyStatus represents the status of an idempotency record
type IdempotencyStatus string

const (
	StatusProcessing IdempotencyStatus = "processing"
	StatusCompleted  IdempotencyStatus = "completed"
)

// IdempotencyRecord stores the state of an idempotent request
type IdempotencyRecord struct {
	Key          string            `json:"key"`
	Status       IdempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// RedisClient is the subset of redis operations the middleware needs
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Redis RedisClient
	// TTL for completed records; a repeat within this window replays the
	// stored response
	TTL time.Duration
	// ProcessingTTL bounds the in-flight marker so a crashed handler does
	// not block the key forever
	ProcessingTTL time.Duration
}

// Idempotency dedupes mutating requests keyed by X-Idempotency-Key.
// Same key + same request replays the first response; same key with a
// different body is rejected; a concurrent in-flight request conflicts.
// Redis errors fail open.
func Idempotency(cfg *IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.ProcessingTTL == 0 {
		cfg.ProcessingTTL = 60 * time.Second
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			// Idempotency is opt-in per request
			c.Next()
			return
		}
		c.Set(ContextKeyIdempotencyKey, key)

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		requestHash := hashRequest(c.Request.Method, c.Request.URL.Path, bodyBytes)
		redisKey := idempotencyKeyPrefix + key
		ctx := c.Request.Context()

		existing, err := getRecord(ctx, cfg.Redis, redisKey)
		if err != nil && !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}

		if existing != nil {
			replayRecord(c, existing, requestHash)
			return
		}

		record := &IdempotencyRecord{
			Key:         key,
			Status:      StatusProcessing,
			RequestHash: requestHash,
			CreatedAt:   time.Now(),
		}

		if !trySetRecord(ctx, cfg.Redis, redisKey, record, cfg.ProcessingTTL) {
			// Lost the SetNX race, the other request owns the key
			if existing, _ = getRecord(ctx, cfg.Redis, redisKey); existing != nil {
				replayRecord(c, existing, requestHash)
				return
			}
		}

		rw := &captureWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = rw

		c.Next()

		now := time.Now()
		record.Status = StatusCompleted
		record.ResponseCode = rw.Status()
		record.ResponseBody = rw.body.String()
		record.CompletedAt = &now

		saveRecord(ctx, cfg.Redis, redisKey, record, cfg.TTL)
	}
}

func replayRecord(c *gin.Context, record *IdempotencyRecord, requestHash string) {
	if record.RequestHash != requestHash {
		abortError(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED",
			"Idempotency key already used with a different request")
		return
	}
	if record.Status == StatusProcessing {
		abortError(c, http.StatusConflict, "REQUEST_IN_PROGRESS",
			"A request with this idempotency key is already being processed")
		return
	}
	c.Data(record.ResponseCode, "application/json", []byte(record.ResponseBody))
	c.Abort()
}

// GetIdempotencyKey extracts the idempotency key from the gin context
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	key, exists := c.Get(ContextKeyIdempotencyKey)
	if !exists {
		return "", false
	}
	k, ok := key.(string)
	return k, ok
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, response.Response{
		Success: false,
		Error:   &response.ErrorData{Code: code, Message: message},
	})
}

// captureWriter records the response so it can be replayed on a repeat
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func hashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func getRecord(ctx context.Context, rdb RedisClient, key string) (*IdempotencyRecord, error) {
	result, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var record IdempotencyRecord
	if err := json.Unmarshal([]byte(result), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func trySetRecord(ctx context.Context, rdb RedisClient, key string, record *IdempotencyRecord, ttl time.Duration) bool {
	data, err := json.Marshal(record)
	if err != nil {
		return false
	}
	ok, err := rdb.SetNX(ctx, key, string(data), ttl).Result()
	return err == nil && ok
}

func saveRecord(ctx context.Context, rdb RedisClient, key string, record *IdempotencyRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, string(data), ttl).Err()
}
