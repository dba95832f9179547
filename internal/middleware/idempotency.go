package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventix/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyKeyHeader     = "X-Idempotency-Key"
	idempotencyContextKey    = "idempotency_key"
	idempotencyKeyPrefix     = "idempotency:"
	idempotencyProcessingTTL = 60 * time.Second
)

type idempotencyStatus string

const (
	idempotencyProcessing idempotencyStatus = "processing"
	idempotencyCompleted  idempotencyStatus = "completed"
)

type idempotencyRecord struct {
	Status       idempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code,omitempty"`
	ResponseBody string            `json:"response_body,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// IdempotencyStore is the subset of the Redis client the middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Idempotency replays the stored response when a client retries a write with
// the same X-Idempotency-Key. Keys are scoped to the authenticated user.
// Requests without the header pass through untouched, and only successful
// responses are stored so a failed attempt can be retried.
func Idempotency(store IdempotencyStore, ttl time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		owner := "anonymous"
		if user, ok := CurrentUser(c); ok {
			owner = user.UserID
		}
		redisKey := idempotencyKeyPrefix + owner + ":" + key
		hash := requestHash(c.Request.Method, c.Request.URL.Path, body)
		ctx := c.Request.Context()

		record := &idempotencyRecord{
			Status:      idempotencyProcessing,
			RequestHash: hash,
			CreatedAt:   time.Now().UTC(),
		}
		data, _ := json.Marshal(record)

		acquired, err := store.SetNX(ctx, redisKey, string(data), idempotencyProcessingTTL).Result()
		if err != nil {
			// fail open: the booking ledger still refuses double confirmation
			logger.Warn("Idempotency store unavailable", "error", err)
			c.Next()
			return
		}

		if !acquired {
			existing, err := loadIdempotencyRecord(ctx, store, redisKey)
			if err != nil {
				logger.Warn("Failed to read idempotency record", "key", redisKey, "error", err)
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Request with this idempotency key is already being processed"})
				return
			}
			switch {
			case existing.RequestHash != hash:
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "Idempotency key already used with a different request"})
			case existing.Status == idempotencyProcessing:
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Request with this idempotency key is already being processed"})
			default:
				metrics.IdempotentReplay()
				c.Header("Idempotent-Replayed", "true")
				c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
				c.Abort()
			}
			return
		}

		c.Set(idempotencyContextKey, key)
		rw := &capturingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rw

		c.Next()

		status := rw.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			if err := store.Del(ctx, redisKey).Err(); err != nil {
				logger.Warn("Failed to release idempotency key", "key", redisKey, "error", err)
			}
			return
		}

		record.Status = idempotencyCompleted
		record.ResponseCode = status
		record.ResponseBody = rw.body.String()
		data, _ = json.Marshal(record)
		if err := store.Set(ctx, redisKey, string(data), ttl).Err(); err != nil {
			logger.Warn("Failed to store idempotent response", "key", redisKey, "error", err)
		}
	}
}

// IdempotencyKey returns the key the current request is being processed under.
func IdempotencyKey(c *gin.Context) string {
	return c.GetString(idempotencyContextKey)
}

func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func loadIdempotencyRecord(ctx context.Context, store IdempotencyStore, key string) (*idempotencyRecord, error) {
	raw, err := store.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.New("idempotency record vanished")
		}
		return nil, err
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

type capturingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
