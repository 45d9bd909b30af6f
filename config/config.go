package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Postgres PostgresConfig
	StockAPI StockAPIConfig
	Retailer RetailerConfig
	Sync     SyncConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
}

type ServerConfig struct {
	AppEnv      string
	GRPCPort    string
	MetricsPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type DatabaseConfig struct {
	Driver     string // postgres or sqlite3
	SQLitePath string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type StockAPIConfig struct {
	BaseURL        string
	Token          string
	RequestTimeout time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration
	CallDelay      time.Duration
	BatchPause     time.Duration
}

type RetailerConfig struct {
	ID  string
	GLN string
}

type SyncConfig struct {
	SuppliersConfigPath string
	BatchSize           int
	MaxWorkers          int
	LockTTL             time.Duration
	StatisticsTTL       time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers          []string
	SyncRequestTopic string
	BatchTopic       string
	GroupID          string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:      getEnv("APP_ENV", "dev"),
			GRPCPort:    getEnv("GRPC_PORT", ":8085"),
			MetricsPort: getEnv("METRICS_PORT", ":9095"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			SQLitePath: getEnv("SQLITE_PATH", "stock_sync.db"),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_stock"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		StockAPI: StockAPIConfig{
			BaseURL:        getEnv("STOCK_API_BASE_URL", "https://api.global-stock.example/v1"),
			Token:          getEnv("STOCK_API_TOKEN", ""),
			RequestTimeout: getEnvDuration("STOCK_API_REQUEST_TIMEOUT", 30*time.Second),
			MaxAttempts:    getEnvInt("STOCK_API_MAX_ATTEMPTS", 3),
			RetryDelay:     getEnvDuration("STOCK_API_RETRY_DELAY", 5*time.Second),
			CallDelay:      getEnvDuration("STOCK_API_CALL_DELAY", 100*time.Millisecond),
			BatchPause:     getEnvDuration("STOCK_API_BATCH_PAUSE", time.Second),
		},
		Retailer: RetailerConfig{
			ID:  getEnv("RETAILER_ID", ""),
			GLN: getEnv("RETAILER_GLN", ""),
		},
		Sync: SyncConfig{
			SuppliersConfigPath: getEnv("SUPPLIERS_CONFIG_PATH", "config/suppliers.json"),
			BatchSize:           getEnvInt("SYNC_BATCH_SIZE", 100),
			MaxWorkers:          getEnvInt("SYNC_MAX_WORKERS", 1),
			LockTTL:             getEnvDuration("SYNC_LOCK_TTL", 6*time.Hour),
			StatisticsTTL:       getEnvDuration("SYNC_STATISTICS_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:          getEnvSlice("KAFKA_BROKERS", nil),
			SyncRequestTopic: getEnv("KAFKA_TOPIC_SYNC_REQUESTS", "stock.sync.requests"),
			BatchTopic:       getEnv("KAFKA_TOPIC_STOCK_BATCHES", "stock.batches"),
			GroupID:          getEnv("KAFKA_GROUP_STOCK_SYNC", "stock-sync"),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", nil),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:     getEnv("ELASTICSEARCH_STOCK_INDEX", "supplier_stock"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvSlice splits on commas and drops blank entries, so an empty
// variable yields an empty slice.
func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := []string{}
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		return parts
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
