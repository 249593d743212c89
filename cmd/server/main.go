package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sf7293/widget-manager/configs"
	db2 "github.com/sf7293/widget-manager/db"
	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/errval"
	"github.com/sf7293/widget-manager/internal/pipeline"
	"github.com/sf7293/widget-manager/internal/postgres"
	"github.com/sf7293/widget-manager/internal/rabbitmq"
	"github.com/sf7293/widget-manager/internal/server"
	"github.com/sf7293/widget-manager/internal/taskqueue"

	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
)

var postgresIsReady, rabbitIsReady bool

func main() {
	cfg := configs.InitConfig()
	configs.SetupLogger(cfg.LogLevel)

	d, err := iofs.New(db2.Migrations, "migrations")
	if err != nil {
		log.Fatal(err)
		return
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, cfg.Database.ToMigrationUri())
	if err != nil {
		log.Fatal(err)
		return
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal(err)
		}
	}
	slog.Info("Migrations ran successfully")

	pipelineCfg, err := cfg.Pipeline.ToPipelineConfig(cfg.Mail)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	storage, err := postgres.NewStorage(ctx, cfg.Database.ToDbConnectionUri())
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Close()
	postgresIsReady = true
	slog.Info("Postgres connection has been initialized successfully")

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
	slog.Info("RabbitMQ has been initialized successfully")

	taskClient := taskqueue.NewClient(rabbitClient, cfg.RabbitMQ.ToQueueNames())
	serverLogic := server.NewServerLogic(storage, pipeline.NewFacade(taskClient, pipelineCfg))

	router := setupHTTPServer(storage, rabbitClient, serverLogic, time.Duration(cfg.ServerTimeOutInSeconds)*time.Second)
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// Initializing the server in a goroutine so that
	// it won't block the graceful shutdown handling below
	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen failed", "error", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerTimeOutInSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err.Error())
	}

	slog.Info("Server exiting")
}

func setupHTTPServer(storage domain.Storage, queue domain.Queue, serverLogic *server.ServerLogic, requestTimeout time.Duration) *gin.Engine {
	r := gin.Default()
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("validate_widget_status", validateWidgetStatus)
		if err != nil {
			log.Fatal("failed to bind validation rule of validate_widget_status")
		}
	}

	// Every request is limited to requestTimeout
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	widgets := r.Group("/widgets")
	widgets.POST("", func(c *gin.Context) {
		req := domain.RouterRequestAddWidget{}
		// Request binding and validation
		err := c.ShouldBindBodyWith(&req, binding.JSON)
		if err != nil {
			slog.Error("error occurred while binding request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		widget, err := serverLogic.AddWidget(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"widget": widget})
	})

	widgets.GET("/:id", func(c *gin.Context) {
		id, ok := widgetIDParam(c)
		if !ok {
			return
		}

		widget, err := serverLogic.GetWidget(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"widget": widget})
	})

	widgets.PATCH("/:id", func(c *gin.Context) {
		id, ok := widgetIDParam(c)
		if !ok {
			return
		}

		req := domain.RouterRequestUpdateWidget{}
		err := c.ShouldBindBodyWith(&req, binding.JSON)
		if err != nil {
			slog.Error("error occurred while binding request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		widget, err := serverLogic.UpdateWidget(c.Request.Context(), id, req)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"widget": widget})
	})

	widgets.DELETE("/:id", func(c *gin.Context) {
		id, ok := widgetIDParam(c)
		if !ok {
			return
		}

		if err := serverLogic.DeleteWidget(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	})

	widgets.POST("/:id/process", func(c *gin.Context) {
		id, ok := widgetIDParam(c)
		if !ok {
			return
		}

		handle, err := serverLogic.ProcessWidget(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"task_id": handle})
	})

	widgets.POST("/:id/follow-up", func(c *gin.Context) {
		id, ok := widgetIDParam(c)
		if !ok {
			return
		}

		handle, err := serverLogic.FollowUpWidget(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"task_id": handle})
	})

	pipelineGroup := r.Group("/pipeline")
	pipelineGroup.POST("/batch", func(c *gin.Context) {
		req := domain.RouterRequestDispatchBatch{}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
				slog.Error("error occurred while binding request", "error", err)
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		handle, err := serverLogic.DispatchBatch(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"task_id": handle})
	})

	pipelineGroup.POST("/daily-report", func(c *gin.Context) {
		handle, err := serverLogic.DispatchDailyReport(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"task_id": handle})
	})

	r.GET("/readiness", func(c *gin.Context) {
		if postgresIsReady && rabbitIsReady {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		}
	})
	r.GET("/liveness", func(c *gin.Context) {
		// Checking health of depending upon infra connections
		err := storage.Ping(c.Request.Context())
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

		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func widgetIDParam(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		slog.Error("Invalid id parameter, error occurred while casting id str to int", "id", idStr)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}

	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errval.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{})
	case errors.Is(err, errval.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": errval.ErrInternal.Error()})
	}
}

var validateWidgetStatus validator.Func = func(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range domain.WidgetStatuses {
		if status == string(s) {
			return true
		}
	}

	return false
}
