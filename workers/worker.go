package workers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"docpipe_backend/models"
	"docpipe_backend/pkg/logging"
	"docpipe_backend/platform/cache"
	"docpipe_backend/services"

	"github.com/redis/go-redis/v9"
)

const popTimeout = 5 * time.Second

// Pool consumes the document task queue and dispatches each message to
// the matching worker service. Jobs on different documents are fully
// independent; concurrent retries on one document are last-writer-wins.
type Pool struct {
	queue         cache.MessageQueue
	conversion    *services.ConversionService
	transcription *services.TranscriptionService
	workers       int
}

func NewPool(
	queue cache.MessageQueue,
	conversion *services.ConversionService,
	transcription *services.TranscriptionService,
	workers int,
) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		queue:         queue,
		conversion:    conversion,
		transcription: transcription,
		workers:       workers,
	}
}

// Run blocks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) {
	logging.Logger.Info("document worker pool started", "workers", p.workers)
	done := make(chan struct{})
	for i := 0; i < p.workers; i++ {
		go func(id int) {
			defer func() { done <- struct{}{} }()
			p.consume(ctx, id)
		}(i)
	}
	for i := 0; i < p.workers; i++ {
		<-done
	}
	logging.Logger.Info("document worker pool stopped")
}

func (p *Pool) consume(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload, err := p.queue.BlockingPopFromQueue(ctx, services.DocumentTaskQueue, popTimeout)
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			logging.Logger.Error("fail popping task", "worker", id, "error", err)
			time.Sleep(time.Second)
			continue
		}

		var task models.TaskMessage
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			logging.Logger.Error("fail decoding task", "worker", id, "error", err)
			continue
		}
		p.dispatch(ctx, id, task)
	}
}

func (p *Pool) dispatch(ctx context.Context, id int, task models.TaskMessage) {
	log := logging.Logger.With("worker", id, "kind", task.Kind, "documentID", task.DocumentID)
	log.Info("task started")

	switch task.Kind {
	case models.TaskConvertToImages:
		res := p.conversion.ProcessDocument(ctx, task.DocumentID, task.UserID)
		if !res.Success {
			log.Warn("conversion task failed", "error", res.Error)
			return
		}
		log.Info("conversion task done", "pages", res.PageCount)
	case models.TaskProcessText:
		res := p.transcription.ProcessText(ctx, task.DocumentID)
		if !res.Success {
			log.Warn("transcription task failed", "error", res.Error)
			return
		}
		log.Info("transcription task done", "pages", res.PageCount)
	default:
		log.Warn("unknown task kind dropped")
	}
}
