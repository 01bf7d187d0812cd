package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"socialpush/config"
	"socialpush/logger"
	"socialpush/services"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// publish_events - утилита для ручной проверки: публикует события изменений из JSON-файла
// в RabbitMQ или в очередь Redis, откуда их заберёт основной сервис.
func main() {
	var (
		configPath string
		eventsPath string
		target     string
	)
	flag.StringVar(&configPath, "config", "config/app.yaml", "Path to the configuration file")
	flag.StringVar(&eventsPath, "events", "events.json", "JSON array of change events")
	flag.StringVar(&target, "target", "amqp", "amqp or redis")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	log, err := logger.InitLogger(config.AppConfig.Logs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	data, err := os.ReadFile(eventsPath)
	if err != nil {
		log.Fatal("failed to read events file", zap.Error(err))
	}
	var events []*services.ChangeEvent
	if err := json.Unmarshal(data, &events); err != nil {
		log.Fatal("failed to parse events file", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	publish, closeFn, err := publisher(target)
	if err != nil {
		log.Fatal("failed to init publisher", zap.String("target", target), zap.Error(err))
	}
	defer closeFn()

	published := 0
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		if err := publish(ctx, ev); err != nil {
			log.Error("failed to publish event", zap.String("event_id", ev.ID), zap.Error(err))
			continue
		}
		published++
	}
	log.Info("events published", zap.Int("published", published), zap.Int("total", len(events)))
}

func publisher(target string) (func(context.Context, *services.ChangeEvent) error, func(), error) {
	switch target {
	case "amqp":
		if err := services.InitRabbitMQ(config.AppConfig.RabbitMQ.URL); err != nil {
			return nil, nil, err
		}
		return services.PublishChangeEvent, func() { _ = services.CloseRabbitMQ() }, nil
	case "redis":
		if err := services.InitRedis(config.AppConfig.Redis); err != nil {
			return nil, nil, err
		}
		enqueue := func(ctx context.Context, ev *services.ChangeEvent) error {
			return services.EnqueueChangeEvent(ctx, services.RedisClient, ev)
		}
		return enqueue, func() { _ = services.CloseRedis() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown target %q", target)
	}
}
