// internal/config/config.go
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the handlers and daemons.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	Environment string         `mapstructure:"environment"`
	Log         LogConfig      `mapstructure:"log"`
	Tracing     TracingConfig  `mapstructure:"tracing"`
	Queue       QueueConfig    `mapstructure:"queue"`
	SQS         SQSConfig      `mapstructure:"sqs"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	InfluxDB    InfluxConfig   `mapstructure:"influxdb"`
	DB          DBConfig       `mapstructure:"db"`
	Worker      WorkerConfig   `mapstructure:"worker"`
	Scheduler   SchedConfig    `mapstructure:"scheduler"`
	Etcd        EtcdConfig     `mapstructure:"etcd"`
	Pipeline    PipelineConfig `mapstructure:"pipeline"`

	LeaderElectionTTL time.Duration `mapstructure:"leader_election_ttl"`
}

type LogConfig struct {
	Format string `mapstructure:"format"` // json or text
	Level  string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// QueueConfig selects the transport the dispatcher publishes to.
type QueueConfig struct {
	Backend string `mapstructure:"backend"` // sqs, redis or kafka
}

type SQSConfig struct {
	QueueURL string `mapstructure:"queue_url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	QueueKey string `mapstructure:"queue_key"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type InfluxConfig struct {
	URL       string `mapstructure:"url"`
	Org       string `mapstructure:"org"`
	Bucket    string `mapstructure:"bucket"`
	SecretARN string `mapstructure:"secret_arn"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

type WorkerConfig struct {
	Concurrency       int           `mapstructure:"concurrency"`
	BatchSize         int           `mapstructure:"batch_size"`
	PollWait          time.Duration `mapstructure:"poll_wait"`
	GRPCListenAddr    string        `mapstructure:"grpc_listen_addr"`
	MetricsListenAddr string        `mapstructure:"metrics_listen_addr"`
	WorkLogEnabled    bool          `mapstructure:"work_log_enabled"`
}

type SchedConfig struct {
	CronExpr       string `mapstructure:"cron_expr"`
	HTTPListenAddr string `mapstructure:"http_listen_addr"`
}

type EtcdConfig struct {
	Endpoints []string      `mapstructure:"endpoints"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type PipelineConfig struct {
	Stage      string  `mapstructure:"stage"` // process, validate or notify
	DelayScale float64 `mapstructure:"delay_scale"`
}

// QueueID returns the destination identifier for the configured backend.
func (c *Config) QueueID() string {
	switch c.Queue.Backend {
	case "redis":
		return c.Redis.QueueKey
	case "kafka":
		return c.Kafka.Topic
	default:
		return c.SQS.QueueURL
	}
}

// DBEnabled reports whether a database host is configured.
func (c *Config) DBEnabled() bool {
	return c.DB.Host != ""
}

// defaults are registered for every key so AutomaticEnv can see them during Unmarshal.
var defaults = map[string]any{
	"environment":                "unknown",
	"log.format":                 "json",
	"log.level":                  "info",
	"tracing.enabled":            false,
	"queue.backend":              "sqs",
	"sqs.queue_url":              "",
	"redis.addr":                 "localhost:6379",
	"redis.queue_key":            "workqueue:items",
	"kafka.brokers":              []string{"localhost:9092"},
	"kafka.topic":                "work-items",
	"influxdb.url":               "",
	"influxdb.org":               "",
	"influxdb.bucket":            "",
	"influxdb.secret_arn":        "",
	"db.host":                    "",
	"db.port":                    5432,
	"db.name":                    "",
	"db.username":                "",
	"db.password":                "",
	"db.sslmode":                 "require",
	"worker.concurrency":         1,
	"worker.batch_size":          10,
	"worker.poll_wait":           "2s",
	"worker.grpc_listen_addr":    ":50052",
	"worker.metrics_listen_addr": ":9102",
	"worker.work_log_enabled":    false,
	"scheduler.cron_expr":        "0 */5 * * * *",
	"scheduler.http_listen_addr": ":8080",
	"etcd.endpoints":             []string{"localhost:2379"},
	"etcd.timeout":               "5s",
	"leader_election_ttl":        "10s",
	"pipeline.stage":             "",
	"pipeline.delay_scale":       1.0,
}

// Load loads configuration from an optional .env file, a config file and
// environment variables. Nested keys map to env vars by replacing "." with
// "_", so db.username is read from DB_USERNAME.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = "unknown"
	}
	if cfg.Worker.Concurrency < 1 {
		cfg.Worker.Concurrency = 1
	}
	return &cfg, nil
}
