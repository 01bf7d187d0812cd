package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"socialpush/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const CHANGE_EVENT_QUEUE = "entity_change_queue"

// QueueService читает события изменений из списка Redis и передаёт их в Router
type QueueService struct {
	client  *redis.Client
	router  *Router
	workers int
}

func NewQueueService(client *redis.Client, router *Router, workers int) *QueueService {
	if workers <= 0 {
		workers = 1
	}
	return &QueueService{client: client, router: router, workers: workers}
}

// StartWorkers запускает воркеры; они останавливаются по отмене ctx
func (qs *QueueService) StartWorkers(ctx context.Context) {
	for i := 0; i < qs.workers; i++ {
		go qs.worker(ctx, i)
	}
}

func (qs *QueueService) worker(ctx context.Context, workerID int) {
	logger.Info("change event worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			logger.Info("change event worker stopping", zap.Int("worker_id", workerID))
			return
		default:
		}

		// блокирующее чтение с таймаутом, чтобы регулярно проверять ctx
		result, err := qs.client.BLPop(ctx, 5*time.Second, CHANGE_EVENT_QUEUE).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			logger.Error("failed to pop change event", zap.Int("worker_id", workerID), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		qs.process(ctx, []byte(result[1]), workerID)
	}
}

// process обрабатывает одно сообщение; битые и нераспознанные события отбрасываются
func (qs *QueueService) process(ctx context.Context, body []byte, workerID int) {
	ev, err := DecodeChangeEvent(body)
	if err != nil {
		logger.Error("dropping malformed change event", zap.Int("worker_id", workerID), zap.Error(err))
		return
	}
	if _, err := qs.router.Route(ctx, ev); err != nil {
		logger.Error("dropping change event", zap.Int("worker_id", workerID), zap.String("event_id", ev.ID), zap.Error(err))
	}
}

// EnqueueChangeEvent кладёт событие в очередь
func EnqueueChangeEvent(ctx context.Context, client *redis.Client, ev *ChangeEvent) error {
	if client == nil {
		return fmt.Errorf("redis not available")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := client.RPush(ctx, CHANGE_EVENT_QUEUE, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue change event: %w", err)
	}
	return nil
}

// GetStats возвращает статистику очереди
func (qs *QueueService) GetStats(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"queue_name":   CHANGE_EVENT_QUEUE,
		"queue_length": qs.client.LLen(ctx, CHANGE_EVENT_QUEUE).Val(),
		"worker_count": qs.workers,
	}
}
