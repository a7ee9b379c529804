package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// TypedCache wraps a CacheService with typed, JSON-round-tripping access.
type TypedCache[T any] struct {
	cache CacheService
}

func NewTypedCache[T any](cache CacheService) *TypedCache[T] {
	return &TypedCache[T]{cache: cache}
}

func (tc *TypedCache[T]) Set(key string, value T, expiration time.Duration) error {
	return tc.cache.SetCache(key, value, expiration)
}

// Get retrieves key and decodes it as T. L1 hits come back as the
// original value; L2 hits come back as a JSON string and are decoded.
func (tc *TypedCache[T]) Get(key string) (T, bool, error) {
	var zero T

	rawValue, exists := tc.cache.GetCache(key)
	if !exists {
		return zero, false, nil
	}
	result, err := tc.decode(rawValue)
	if err != nil {
		return zero, true, err
	}
	return result, true, nil
}

// GetOrLoad serves key from the cache, or runs load once across
// concurrent callers (singleflight underneath) and caches the result.
func (tc *TypedCache[T]) GetOrLoad(key string, expiration time.Duration, load func() (T, error)) (T, error) {
	rawValue, err := tc.cache.GetOrLoad(key, expiration, func() (interface{}, error) {
		return load()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return tc.decode(rawValue)
}

func (tc *TypedCache[T]) decode(rawValue interface{}) (T, error) {
	var zero T

	if typedValue, ok := rawValue.(T); ok {
		return typedValue, nil
	}

	var result T
	switch v := rawValue.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &result); err != nil {
			return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
		return result, nil
	case []byte:
		if err := json.Unmarshal(v, &result); err != nil {
			return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
		return result, nil
	default:
		jsonData, err := json.Marshal(rawValue)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal intermediate value: %w", err)
		}
		if err := json.Unmarshal(jsonData, &result); err != nil {
			return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
		return result, nil
	}
}

func (tc *TypedCache[T]) Delete(key string) error {
	return tc.cache.DelCache(key)
}
