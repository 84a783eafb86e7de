package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix    = "login-code:"
	attemptKeyPrefix = "login-code-attempts:"
	codeMin          = 10000
	codeSpan         = 90000

	// MaxCodeAttempts wrong guesses discard the issued code.
	MaxCodeAttempts = 5
)

// CodeStore keeps one-time login codes in Redis.
type CodeStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCodeStore constructs a CodeStore whose codes expire after ttl.
func NewCodeStore(client *redis.Client, ttl time.Duration) *CodeStore {
	return &CodeStore{client: client, ttl: ttl}
}

// Issue generates a five digit code for email, replacing any previous one.
func (s *CodeStore) Issue(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("auth: generate code: %w", err)
	}
	code := strconv.FormatInt(n.Int64()+codeMin, 10)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, codeKey(email), code, s.ttl)
		pipe.Del(ctx, attemptKey(email))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: store code: %w", err)
	}
	return code, nil
}

// Consume reports whether code matches the one issued for email. A matching
// code is deleted so it cannot be replayed.
func (s *CodeStore) Consume(ctx context.Context, email, code string) (bool, error) {
	key := codeKey(email)
	stored, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: read code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		return false, s.recordMiss(ctx, email)
	}
	if err := s.client.Del(ctx, key, attemptKey(email)).Err(); err != nil {
		return false, fmt.Errorf("auth: delete code: %w", err)
	}
	return true, nil
}

// recordMiss counts a wrong guess and drops the code once MaxCodeAttempts is
// reached. The counter lives no longer than the code it guards.
func (s *CodeStore) recordMiss(ctx context.Context, email string) error {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, attemptKey(email))
		pipe.Expire(ctx, attemptKey(email), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("auth: count code attempt: %w", err)
	}
	if incr.Val() < MaxCodeAttempts {
		return nil
	}
	if err := s.client.Del(ctx, codeKey(email), attemptKey(email)).Err(); err != nil {
		return fmt.Errorf("auth: discard code: %w", err)
	}
	return nil
}

func codeKey(email string) string {
	return codeKeyPrefix + normalizeEmail(email)
}

func attemptKey(email string) string {
	return attemptKeyPrefix + normalizeEmail(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
