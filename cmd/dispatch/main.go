package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/sf7293/widget-manager/configs"
	"github.com/sf7293/widget-manager/internal/pipeline"
	"github.com/sf7293/widget-manager/internal/rabbitmq"
	"github.com/sf7293/widget-manager/internal/taskqueue"
)

// dispatch enqueues pipeline tasks by hand:
//
//	dispatch batch [widget_id ...]   processes unprocessed widgets, or the given ones
//	dispatch report                  generates today's report
func main() {
	cfg := configs.InitConfig()
	configs.SetupLogger(cfg.LogLevel)

	cmd, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
		return
	}

	pipelineCfg, err := cfg.Pipeline.ToPipelineConfig(cfg.Mail)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
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
	slog.Info("RabbitMQ has been initialized successfully")

	facade := pipeline.NewFacade(taskqueue.NewClient(rabbitClient, cfg.RabbitMQ.ToQueueNames()), pipelineCfg)
	handle, err := cmd.run(ctx, facade)
	if err != nil {
		slog.Error("Error occurred while dispatching", "command", cmd.name, "error", err.Error())
		return
	}

	slog.Info("Task is dispatched", "command", cmd.name, "widget_ids", cmd.widgetIDs, "task_id", handle)
}

type command struct {
	name      string
	widgetIDs []int64
}

func (c command) run(ctx context.Context, facade *pipeline.Facade) (string, error) {
	if c.name == "report" {
		return facade.DispatchDailyReport(ctx)
	}

	return facade.DispatchBatch(ctx, c.widgetIDs)
}

func parseArgs(args []string) (command, error) {
	if len(args) < 1 {
		return command{}, errors.New("insufficient arguments are provided in calling the command, expected batch [widget_id ...] or report")
	}

	switch args[0] {
	case "report":
		if len(args) > 1 {
			return command{}, errors.New("report takes no arguments")
		}
		return command{name: "report"}, nil
	case "batch":
		cmd := command{name: "batch"}
		for _, arg := range args[1:] {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil || id <= 0 {
				return command{}, fmt.Errorf("invalid widget id %q, it must be a positive integer", arg)
			}
			cmd.widgetIDs = append(cmd.widgetIDs, id)
		}
		return cmd, nil
	default:
		return command{}, fmt.Errorf("unknown command %q, expected batch or report", args[0])
	}
}
