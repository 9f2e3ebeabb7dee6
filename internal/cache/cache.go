package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("key not found in cache")
	ErrInvalidKey = errors.New("invalid cache key")
	ErrClosed     = errors.New("cache is closed")
)

// DefaultTTL applies when Set is called with a zero ttl.
const DefaultTTL = time.Hour

// Cache holds short-lived values such as sign-in verifiers. Strings are stored
// as-is, anything else as JSON.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Get(ctx context.Context, key string, value interface{}) error

	Delete(ctx context.Context, key string) error

	Close() error
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

func decode(raw []byte, value interface{}) error {
	switch v := value.(type) {
	case *string:
		*v = string(raw)
		return nil
	case *[]byte:
		*v = append((*v)[:0], raw...)
		return nil
	default:
		return json.Unmarshal(raw, v)
	}
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
