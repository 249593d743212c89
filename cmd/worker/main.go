package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sf7293/widget-manager/configs"
	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/pipeline"
	"github.com/sf7293/widget-manager/internal/postgres"
	"github.com/sf7293/widget-manager/internal/rabbitmq"
	"github.com/sf7293/widget-manager/internal/redis"
	"github.com/sf7293/widget-manager/internal/taskqueue"
	"github.com/sf7293/widget-manager/pkg/email"
)

var postgresIsReady, rabbitIsReady, redisIsReady bool

func main() {
	cfg := configs.InitConfig()
	configs.SetupLogger(cfg.LogLevel)

	args := os.Args
	slog.Info("Running job_worker command", "args", args, "len_args", len(args))
	workerPriority, workerNumber, err := parseArgs(args[1:])
	if err != nil {
		log.Fatal(err)
		return
	}

	pipelineCfg, err := cfg.Pipeline.ToPipelineConfig(cfg.Mail)
	if err != nil {
		log.Fatal(err)
	}

	// ctx is cancelled on SIGINT/SIGTERM, which stops the consumers and every running attempt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rabbitClient, err := rabbitmq.NewRabbitMQClient(ctx, cfg.RabbitMQ.ToRabbitConnectionUri(), cfg.RabbitMQ.GetMainQueueNames())
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		err = rabbitClient.Close()
		if err != nil {
			slog.Error("An error occurred while closing RabbitMQ connection", "error", err.Error())
		}
	}()
	rabbitIsReady = true
	slog.Info("RabbitMQ connection has been initialized successfully")

	redisClient, err := redis.NewClient(ctx, cfg.RedisConfig.ToRedisConnectionUri())
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		err = redisClient.Close()
		if err != nil {
			slog.Error("An error occurred while closing Redis connection", "error", err.Error())
		}
	}()
	redisIsReady = true
	slog.Info("Redis connection has been initialized successfully")

	storage, err := postgres.NewStorage(ctx, cfg.Database.ToDbConnectionUri())
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Close()
	postgresIsReady = true
	slog.Info("Postgres connection has been initialized successfully")

	transport, err := email.NewTransport(ctx, cfg.Mail.Driver, cfg.Mail.ToSMTPConfig(), cfg.Mail.AWSRegion)
	if err != nil {
		log.Fatal(err)
	}
	mailer := email.NewMailer(cfg.Mail.From, transport)

	queueNames := cfg.RabbitMQ.ToQueueNames()
	registry := pipeline.NewRegistry(storage, mailer, redisClient, taskqueue.NewClient(rabbitClient, queueNames), pipelineCfg)
	worker := taskqueue.NewWorker(rabbitClient, queueNames, registry, taskqueue.WithInitialInterval(cfg.Pipeline.RetryInitialInterval()))

	// The consumer name must be unique for each worker, so workerNumber is part of it
	consumerName := "worker:" + workerNumber
	err = worker.Run(ctx, consumerName, workerPriority, cfg.WorkerConcurrency)
	if err != nil {
		log.Fatalf("Failed to start consuming messages: %v", err)
	}
	slog.Info("Consumer is created successfully", "priority", workerPriority, "consumer_name", consumerName)

	// Running HTTP Server in order to have liveness and readiness HTTP APIs
	srv := &http.Server{
		Addr:    ":" + cfg.WorkerHealthPort,
		Handler: setUpHealthCheckerAPIs(storage, rabbitClient, redisClient),
	}
	go func() {
		slog.Info("Starting health server", "port", cfg.WorkerHealthPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen failed", "error", err.Error())
		}
	}()

	slog.Info("Worker is running. To exit press CTRL+C", "worker_num", workerNumber)
	<-ctx.Done()
	slog.Info("Worker is shutting down...", "worker_num", workerNumber)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerTimeOutInSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Health server forced to shutdown", "error", err.Error())
	}
}

// parseArgs reads the worker priority ('high','normal','low') and the worker number. The number
// only has to be unique among the workers, it does not need to be numeric.
func parseArgs(args []string) (domain.TaskPriority, string, error) {
	// In the Kubernetes helm, both args are passed as one string arg: "{priority} {number}"
	if len(args) == 1 && strings.Contains(args[0], " ") {
		args = strings.Fields(args[0])
	}
	if len(args) < 2 {
		return "", "", errors.New("insufficient arguments are provided in calling the command, expected <priority> <worker_number>")
	}

	priority := domain.TaskPriority(args[0])
	if priority != domain.High && priority != domain.Normal && priority != domain.Low {
		return "", "", errors.New("invalid argument is set for priority, it can only be high, normal, or low")
	}

	return priority, args[1], nil
}

func setUpHealthCheckerAPIs(storage domain.Storage, queue domain.Queue, locker domain.DistributedLock) *gin.Engine {
	r := gin.Default()
	r.GET("/readiness", func(c *gin.Context) {
		if postgresIsReady && rabbitIsReady && redisIsReady {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}

		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
	})
	r.GET("/liveness", func(c *gin.Context) {
		ctx := c.Request.Context()
		err := storage.Ping(ctx)
		if err != nil {
			slog.Error("Postgresql seem not to be pingable in liveness API", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not healthy"})
			return
		}

		isRabbitHealthy := queue.IsHealthy()
		if !isRabbitHealthy {
			slog.Error("Rabbit is not healthy")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not healthy"})
			return
		}

		err = locker.Ping(ctx)
		if err != nil {
			slog.Error("Redis seem not to be pingable in liveness API", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not healthy"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
