package queue

import (
	"context"
	"time"

	"docpipe_backend/platform/cache"
)

// MessageQueueService fronts the redis-backed queue so services and
// workers depend on the MessageQueue interface, not the redis client.
type MessageQueueService struct {
	MQ cache.MessageQueue
}

func NewMessageService(mq cache.MessageQueue) cache.MessageQueue {
	return &MessageQueueService{MQ: mq}
}

func (mq *MessageQueueService) PushToQueue(queueName string, value interface{}) error {
	return mq.MQ.PushToQueue(queueName, value)
}

func (mq *MessageQueueService) PopFromQueue(queueName string) (string, error) {
	return mq.MQ.PopFromQueue(queueName)
}

func (mq *MessageQueueService) BlockingPopFromQueue(ctx context.Context, queueName string, timeout time.Duration) (string, error) {
	return mq.MQ.BlockingPopFromQueue(ctx, queueName, timeout)
}
