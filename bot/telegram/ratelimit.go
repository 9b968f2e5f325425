package telegram

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	"golang.org/x/time/rate"
)

// Logger is the logging surface used by the rate limiter.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// RateLimiter paces outgoing requests per chat. An optional global limiter
// caps the total rate across chats.
type RateLimiter struct {
	limiters map[int64]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	global   *rate.Limiter
	logger   Logger
}

// NewRateLimiter creates a limiter allowing msgPerSec per chat.
func NewRateLimiter(msgPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[int64]*rate.Limiter),
		rate:     rate.Limit(msgPerSec),
		burst:    burst,
	}
}

// SetGlobalRate caps the combined rate across all chats. Zero or negative
// removes the cap.
func (rl *RateLimiter) SetGlobalRate(msgPerSec float64, burst int) {
	if msgPerSec <= 0 {
		rl.global = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	rl.global = rate.NewLimiter(rate.Limit(msgPerSec), burst)
}

func (rl *RateLimiter) SetLogger(logger Logger) {
	rl.logger = logger
}

func (rl *RateLimiter) logError(msg string, args ...any) {
	if rl.logger != nil {
		rl.logger.Error(msg, args...)
	} else {
		log.Printf("ERROR: "+msg, args...)
	}
}

func (rl *RateLimiter) getLimiter(chatID int64) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[chatID]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[chatID]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[chatID] = limiter
	return limiter
}

// Wait blocks until a request to chatID is allowed.
func (rl *RateLimiter) Wait(ctx context.Context, chatID int64) error {
	if rl.global != nil {
		if err := rl.global.Wait(ctx); err != nil {
			return err
		}
	}
	return rl.getLimiter(chatID).Wait(ctx)
}

type APIError struct {
	Code       int
	Message    string
	RetryAfter int
}

var retryAfterPattern = regexp.MustCompile(`(?i)retry\s+after[:\s]+(\d+)`)

func (e *APIError) Error() string {
	return e.Message
}

func parseRetryAfter(err error) (int, bool) {
	if err == nil {
		return 0, false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter, true
	}

	errMsg := err.Error()
	if matches := retryAfterPattern.FindStringSubmatch(errMsg); len(matches) == 2 {
		if parsed, parseErr := strconv.Atoi(matches[1]); parseErr == nil {
			return parsed, parsed > 0
		}
	}

	if parsed, parseErr := strconv.Atoi(strings.TrimSpace(errMsg)); parseErr == nil {
		return parsed, parsed > 0
	}
	return 0, false
}

// IsMessageNotModified reports Telegram's "message is not modified" error,
// which edits hit when the content did not change.
func IsMessageNotModified(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}

// WithRetry runs fn after waiting on the limiter and retries when Telegram
// answers with retry-after. A nil limiter runs fn once.
func WithRetry(ctx context.Context, rl *RateLimiter, chatID int64, fn func() error) error {
	if fn == nil {
		return nil
	}
	if rl == nil {
		return fn()
	}
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := rl.Wait(ctx, chatID); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}

		retryAfter, shouldRetry := parseRetryAfter(err)
		if !shouldRetry {
			return err
		}

		if attempt < maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(retryAfter) * time.Second):
			}
		}
	}

	return &APIError{Code: 429, Message: "max retries exceeded"}
}

func extractChatID(chatID any) int64 {
	switch v := chatID.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case telego.ChatID:
		return v.ID
	case *telego.ChatID:
		if v == nil {
			return 0
		}
		return v.ID
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	default:
		return 0
	}
}

// call runs fn through WithRetry and keeps the last Telegram error, which is
// more useful to callers than the generic retry exhaustion error.
func call[T any](ctx context.Context, rl *RateLimiter, chatID int64, op string, fn func() (T, error)) (T, error) {
	var (
		result  T
		lastErr error
	)
	err := WithRetry(ctx, rl, chatID, func() error {
		out, err := fn()
		if err != nil {
			lastErr = err
			return err
		}
		result = out
		return nil
	})
	if err == nil {
		return result, nil
	}
	if lastErr == nil {
		lastErr = err
	}
	if rl != nil && op != "" && !IsMessageNotModified(lastErr) {
		rl.logError(op+" failed", "chat_id", chatID, "error", lastErr)
	}
	return result, lastErr
}

func SendMessageWithRetry(ctx context.Context, rl *RateLimiter, b *telego.Bot, params *telego.SendMessageParams) (*telego.Message, error) {
	return call(ctx, rl, extractChatID(params.ChatID), "SendMessage", func() (*telego.Message, error) {
		return b.SendMessage(ctx, params)
	})
}

func EditMessageTextWithRetry(ctx context.Context, rl *RateLimiter, b *telego.Bot, params *telego.EditMessageTextParams) (*telego.Message, error) {
	return call(ctx, rl, extractChatID(params.ChatID), "EditMessageText", func() (*telego.Message, error) {
		return b.EditMessageText(ctx, params)
	})
}

// EditMessageMediaWithRetry does not log failures; inline delivery falls
// back to a text edit and logs there.
func EditMessageMediaWithRetry(ctx context.Context, rl *RateLimiter, b *telego.Bot, params *telego.EditMessageMediaParams) (*telego.Message, error) {
	return call(ctx, rl, extractChatID(params.ChatID), "", func() (*telego.Message, error) {
		return b.EditMessageMedia(ctx, params)
	})
}
