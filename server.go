package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialpush/api/handlers"
	"socialpush/api/routes"
	"socialpush/config"
	"socialpush/db"
	"socialpush/logger"
	"socialpush/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/app.yaml", "Path to the configuration file")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	conf := config.AppConfig

	log, err := logger.InitLogger(conf.Logs)
	if err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log.Info("Starting socialpush",
		zap.String("push_driver", conf.Push.Driver),
		zap.String("source_driver", conf.Sources.Driver),
		zap.String("attendance_policy", conf.Plans.AttendancePolicy),
	)

	// Все клиенты создаются один раз до запуска источников событий и дальше только читаются
	if err := db.ConnectDB(); err != nil {
		log.Fatal("Failed to connect to the database", zap.Error(err))
	}
	defer db.CloseDB()

	needRabbit := conf.Push.Driver == "amqp" || conf.Sources.Driver == "amqp"
	if needRabbit {
		if err := services.InitRabbitMQ(conf.RabbitMQ.URL); err != nil {
			log.Fatal("Failed to init RabbitMQ", zap.Error(err))
		}
		defer services.CloseRabbitMQ()
	}

	store := services.NewUserStore()
	var tokens services.TokenStore = store
	var tokenCache *services.CachedTokenStore
	if conf.Redis.TokenTTLSeconds > 0 || conf.Sources.Driver == "redis" {
		if err := services.InitRedis(conf.Redis); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer services.CloseRedis()
		if conf.Redis.TokenTTLSeconds > 0 {
			tokenCache = services.NewCachedTokenStore(services.RedisClient, store, time.Duration(conf.Redis.TokenTTLSeconds)*time.Second)
			tokens = tokenCache
		}
	}

	pusher, err := newPusher(conf.Push.Driver)
	if err != nil {
		log.Fatal("Failed to init push channel", zap.Error(err))
	}

	notifier := services.NewNotifier(
		services.NewResolver(tokens),
		services.NewDispatcher(pusher, conf.Push.Parallelism),
	)
	router := services.NewRouter(
		services.NewFriendRequestHandler(notifier, store, store),
		services.NewAttendanceClassifier(notifier, store, services.AttendancePolicy(conf.Plans.AttendancePolicy)),
		services.NewFieldChangeClassifier(notifier),
		services.NewPlanDeletionHandler(notifier),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var queue *services.QueueService
	switch conf.Sources.Driver {
	case "amqp":
		if err := services.StartChangeEventConsumer(ctx, conf.RabbitMQ.ChangeQueue, router); err != nil {
			log.Fatal("Failed to start change event consumer", zap.Error(err))
		}
	case "redis":
		queue = services.NewQueueService(services.RedisClient, router, conf.Redis.Workers)
		queue.StartWorkers(ctx)
	case "none":
	default:
		log.Fatal("Unknown sources driver", zap.String("driver", conf.Sources.Driver))
	}

	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())

	var invalidator handlers.TokenInvalidator
	if tokenCache != nil {
		invalidator = tokenCache
	}
	api := routes.PublicApi(engine, handlers.NewEventHandlers(router), handlers.NewProfileHandlers(store, invalidator))
	if queue != nil {
		api.GET("queue/stats", handlers.QueueStats(queue))
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port),
		Handler: engine,
	}
	go func() {
		log.Info("HTTP server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
}

func newPusher(driver string) (services.Pusher, error) {
	switch driver {
	case "amqp":
		return services.NewAMQPPusher()
	case "ws":
		return services.NewWSPusher(services.GlobalWSConnManager), nil
	default:
		return nil, fmt.Errorf("unknown push driver %q", driver)
	}
}
