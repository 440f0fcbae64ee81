package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/freema/convcom/internal/redisclient"
)

// RateLimiter implements Redis-based sliding window rate limiting per
// Bearer token.
type RateLimiter struct {
	redis  *redisclient.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per window.
// A limit below 1 is raised to 1.
func NewRateLimiter(rdb *redisclient.Client, limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		redis:  rdb,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Middleware returns an HTTP middleware that enforces the limit. Requests
// without a Bearer token pass through; auth rejects them later.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := extractClientID(r)
			if clientID == "" {
				next.ServeHTTP(w, r)
				return
			}

			remaining, retryAfter, err := rl.allow(r.Context(), clientID)
			if err != nil {
				// Fail open on Redis errors.
				slog.Warn("rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			if retryAfter > 0 {
				secs := int(retryAfter.Round(time.Second).Seconds())
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "rate_limit_exceeded",
					"message": fmt.Sprintf("rate limit exceeded, retry after %ds", secs),
				})
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// allow records the request and returns how many requests remain in the
// window, or how long to wait when the limit is already reached.
func (rl *RateLimiter) allow(ctx context.Context, clientID string) (int, time.Duration, error) {
	key := rl.redis.Key("ratelimit", hashToken(clientID))

	now := rl.now().UnixMilli()
	windowStart := now - rl.window.Milliseconds()

	pipe := rl.redis.Unwrap().TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	count := int(countCmd.Val())
	if count >= rl.limit {
		retryAfter := rl.window / time.Duration(rl.limit)
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			retryAfter = time.Duration(int64(oldest[0].Score)+rl.window.Milliseconds()-now) * time.Millisecond
		}
		return 0, retryAfter, nil
	}

	pipe = rl.redis.Unwrap().TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: strconv.FormatInt(now, 10) + "-" + uuid.NewString()})
	pipe.Expire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return rl.limit - count - 1, 0, nil
}

func extractClientID(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if auth == token {
		return ""
	}
	return token
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:8])
}
