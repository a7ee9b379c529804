package cache

import (
	"context"
	"time"
)

// CacheService is the layered L1+L2 cache surface.
type CacheService interface {
	GetCache(key string) (interface{}, bool)
	SetCache(key string, value interface{}, expiration time.Duration) error
	DelCache(key string) error
	GetOrLoad(key string, expiration time.Duration, load func() (interface{}, error)) (interface{}, error)
}

// MessageQueue is the redis-list task queue surface.
type MessageQueue interface {
	PushToQueue(queueName string, value interface{}) error
	PopFromQueue(queueName string) (string, error)
	BlockingPopFromQueue(ctx context.Context, queueName string, timeout time.Duration) (string, error)
}
