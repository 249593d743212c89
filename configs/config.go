package configs

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sf7293/widget-manager/internal/domain"
	"github.com/sf7293/widget-manager/internal/pipeline"
	"github.com/sf7293/widget-manager/internal/taskqueue"
	"github.com/sf7293/widget-manager/pkg/email"
)

type Config struct {
	ServerPort             string `envconfig:"SERVER_PORT" default:"8080"`
	ServerTimeOutInSeconds int64  `envconfig:"SERVER_TIME_OUT_IN_SECONDS" default:"5"`
	WorkerHealthPort       string `envconfig:"WORKER_HEALTH_PORT" default:"8081"`
	WorkerConcurrency      int    `envconfig:"WORKER_CONCURRENCY" default:"4"`
	LogLevel               string `envconfig:"LOG_LEVEL" default:"info"`
	Database               DatabaseConfig
	RabbitMQ               RabbitMQConfig
	RedisConfig            RedisConfig
	Mail                   MailConfig
	Pipeline               PipelineConfig
	Scheduler              SchedulerConfig
}

type DatabaseConfig struct {
	Username     string `envconfig:"DB_USERNAME"`
	Password     string `envconfig:"DB_PASSWORD"`
	Host         string `envconfig:"DB_HOST"`
	Port         string `envconfig:"DB_PORT"`
	Database     string `envconfig:"DB_DATABASE"`
	DatabaseTest string `envconfig:"DB_DATABASE_TEST"`
	SSLMode      string `envconfig:"DB_SSL_MODE" default:"require"`
	PoolMaxConns int    `envconfig:"DB_POOL_MAX_CONNS" default:"4"`
}

type RabbitMQConfig struct {
	Username                    string `envconfig:"RABBIT_USERNAME"`
	Password                    string `envconfig:"RABBIT_PASSWORD"`
	Host                        string `envconfig:"RABBIT_HOST"`
	Port                        string `envconfig:"RABBIT_PORT"`
	HighPriorityJobsQueueName   string `envconfig:"HIGH_PRIORITY_JOBS_QUEUE_NAME" default:"high_priority_jobs"`
	NormalPriorityJobsQueueName string `envconfig:"NORMAL_PRIORITY_JOBS_QUEUE_NAME" default:"normal_priority_jobs"`
	LowPriorityJobsQueueName    string `envconfig:"LOW_PRIORITY_JOBS_QUEUE_NAME" default:"low_priority_jobs"`
	FailedJobsQueueName         string `envconfig:"FAILED_JOBS_QUEUE_NAME" default:"failed_jobs"`
}

type RedisConfig struct {
	Username string `envconfig:"REDIS_USERNAME"`
	Password string `envconfig:"REDIS_PASSWORD"`
	Host     string `envconfig:"REDIS_HOST"`
	Port     string `envconfig:"REDIS_PORT"`
	DBIndex  int32  `envconfig:"REDIS_DB_INDEX"`
}

type MailConfig struct {
	// Driver is one of log, smtp or ses
	Driver       string `envconfig:"MAIL_DRIVER" default:"log"`
	From         string `envconfig:"MAIL_FROM" default:"no-reply@example.com"`
	Target       string `envconfig:"MAIL_TARGET" default:"admin@example.com"`
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`
}

type PipelineConfig struct {
	ProcessingMaxAttempts        int     `envconfig:"PROCESSING_MAX_ATTEMPTS" default:"3"`
	ProcessingTimeOutInSeconds   int     `envconfig:"PROCESSING_TIME_OUT_IN_SECONDS" default:"60"`
	FollowUpMaxAttempts          int     `envconfig:"FOLLOW_UP_MAX_ATTEMPTS" default:"3"`
	FollowUpTimeOutInSeconds     int     `envconfig:"FOLLOW_UP_TIME_OUT_IN_SECONDS" default:"30"`
	FollowUpDelayInHours         int     `envconfig:"FOLLOW_UP_DELAY_IN_HOURS" default:"24"`
	BatchMaxAttempts             int     `envconfig:"BATCH_MAX_ATTEMPTS" default:"2"`
	BatchTimeOutInSeconds        int     `envconfig:"BATCH_TIME_OUT_IN_SECONDS" default:"300"`
	BatchSize                    int32   `envconfig:"BATCH_SIZE" default:"50"`
	ReportMaxAttempts            int     `envconfig:"REPORT_MAX_ATTEMPTS" default:"2"`
	ReportTimeOutInSeconds       int     `envconfig:"REPORT_TIME_OUT_IN_SECONDS" default:"120"`
	ReportTimezone               string  `envconfig:"REPORT_TIMEZONE" default:"Local"`
	HighValueThreshold           float64 `envconfig:"HIGH_VALUE_THRESHOLD" default:"1000"`
	RetryInitialIntervalInMillis int     `envconfig:"RETRY_INITIAL_INTERVAL_IN_MILLIS" default:"1000"`
}

type SchedulerConfig struct {
	DailyReportCron string `envconfig:"SCHEDULER_DAILY_REPORT_CRON" default:"0 9 * * *"`
	Timezone        string `envconfig:"SCHEDULER_TIMEZONE" default:"America/New_York"`
	LeaderLockKey   string `envconfig:"SCHEDULER_LEADER_LOCK_KEY" default:"lock:scheduler:daily-report"`
}

// ToMigrationUri returns a string specifically for the migration package with the right prefix
func (d DatabaseConfig) ToMigrationUri() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
		d.SSLMode,
	)
}

// ToTestMigrationUri returns a string specifically for the migration package with the right prefix for test database
func (d DatabaseConfig) ToTestMigrationUri() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.DatabaseTest,
		d.SSLMode,
	)
}

// ToDbConnectionUri returns a connection URI to be used with the pgx package
func (d DatabaseConfig) ToDbConnectionUri() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%d",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
		d.SSLMode,
		d.PoolMaxConns,
	)
}

// ToTestDBConnectionUri returns a string specifically for running the integration tests
func (d DatabaseConfig) ToTestDBConnectionUri() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%d",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.DatabaseTest,
		d.SSLMode,
		d.PoolMaxConns,
	)
}

// ToRabbitConnectionUri returns a connection URI to be used with the rabbitmq/amqp091-go package
func (d RabbitMQConfig) ToRabbitConnectionUri() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
	)
}

// GetMainQueueNames returns a list of important queue names which must be defined before running workers
func (d RabbitMQConfig) GetMainQueueNames() []string {
	return []string{d.HighPriorityJobsQueueName, d.NormalPriorityJobsQueueName, d.LowPriorityJobsQueueName, d.FailedJobsQueueName}
}

func (d RabbitMQConfig) ToQueueNames() taskqueue.QueueNames {
	return taskqueue.QueueNames{
		High:   d.HighPriorityJobsQueueName,
		Normal: d.NormalPriorityJobsQueueName,
		Low:    d.LowPriorityJobsQueueName,
		Failed: d.FailedJobsQueueName,
	}
}

// ToRedisConnectionUri returns a connection URI to be used with the redis/go-redis/v9 package
func (d RedisConfig) ToRedisConnectionUri() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/%d",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.DBIndex,
	)
}

func (m MailConfig) ToSMTPConfig() email.SMTPConfig {
	return email.SMTPConfig{
		Host:     m.SMTPHost,
		Port:     m.SMTPPort,
		Username: m.SMTPUsername,
		Password: m.SMTPPassword,
	}
}

// ToPipelineConfig builds the configuration handed to every pipeline component. The report
// recipient comes from the mail settings.
func (p PipelineConfig) ToPipelineConfig(mail MailConfig) (pipeline.Config, error) {
	location, err := time.LoadLocation(p.ReportTimezone)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("load report timezone %q: %w", p.ReportTimezone, err)
	}

	cfg := pipeline.DefaultConfig()
	cfg.Processing = domain.RetryPolicy{MaxAttempts: p.ProcessingMaxAttempts, Timeout: seconds(p.ProcessingTimeOutInSeconds)}
	cfg.FollowUp = domain.RetryPolicy{MaxAttempts: p.FollowUpMaxAttempts, Timeout: seconds(p.FollowUpTimeOutInSeconds)}
	cfg.Batch = domain.RetryPolicy{MaxAttempts: p.BatchMaxAttempts, Timeout: seconds(p.BatchTimeOutInSeconds)}
	cfg.Report = domain.RetryPolicy{MaxAttempts: p.ReportMaxAttempts, Timeout: seconds(p.ReportTimeOutInSeconds)}
	cfg.FollowUpDelay = time.Duration(p.FollowUpDelayInHours) * time.Hour
	// the lock has to outlive one follow-up attempt
	cfg.FollowUpLockTTL = 2 * cfg.FollowUp.Timeout
	cfg.BatchSize = p.BatchSize
	cfg.HighValueThreshold = p.HighValueThreshold
	cfg.ReportRecipient = mail.Target
	cfg.Location = location

	return cfg, nil
}

func (p PipelineConfig) RetryInitialInterval() time.Duration {
	return time.Duration(p.RetryInitialIntervalInMillis) * time.Millisecond
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// SetupLogger installs a text handler on stderr as the default slog logger.
func SetupLogger(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

func InitConfig() *Config {
	err := godotenv.Load()

	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("Unable to load .env %v", err)
	}

	var cfg Config
	err = envconfig.Process("", &cfg)
	if err != nil {
		log.Fatalf("Cannot load env: %v", err)
	}

	return &cfg
}
