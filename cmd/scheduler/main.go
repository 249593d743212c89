package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sf7293/widget-manager/configs"
	"github.com/sf7293/widget-manager/internal/pipeline"
	"github.com/sf7293/widget-manager/internal/rabbitmq"
	"github.com/sf7293/widget-manager/internal/redis"
	"github.com/sf7293/widget-manager/internal/scheduler"
	"github.com/sf7293/widget-manager/internal/taskqueue"
)

func main() {
	cfg := configs.InitConfig()
	configs.SetupLogger(cfg.LogLevel)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	pipelineCfg, err := cfg.Pipeline.ToPipelineConfig(cfg.Mail)
	if err != nil {
		log.Fatal(err)
	}

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
	slog.Info("Redis connection has been initialized successfully")

	facade := pipeline.NewFacade(taskqueue.NewClient(rabbitClient, cfg.RabbitMQ.ToQueueNames()), pipelineCfg)
	s, err := scheduler.New(cfg.Scheduler.DailyReportCron, location, redisClient, facade, cfg.Scheduler.LeaderLockKey)
	if err != nil {
		log.Fatal(err)
	}

	slog.Info("Scheduler is running. To exit press CTRL+C", "daily_report_cron", cfg.Scheduler.DailyReportCron, "timezone", location.String())
	s.Run(ctx)
}
