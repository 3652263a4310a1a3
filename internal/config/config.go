package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ストレージドライバ
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config はアプリケーション設定を表す
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Booking  BookingConfig
	Worker   WorkerConfig
}

// AppConfig はアプリケーション全体の設定
type AppConfig struct {
	Env      string
	LogLevel string
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StorageConfig は永続化ドライバの選択
type StorageConfig struct {
	Driver string
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MongoConfig は MongoDB 設定
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig はRedis設定。Host が空の場合は Redis を使わない
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	SeatTTL  time.Duration

	PoolSize    int
	DialTimeout time.Duration
}

// AMQPConfig は通知用 RabbitMQ 設定。URL が空の場合はログ出力のみ
type AMQPConfig struct {
	URL   string
	Queue string
}

// BookingConfig は予約処理の設定
type BookingConfig struct {
	LockTTL         time.Duration
	LockRetries     int
	LockRetryDelay  time.Duration
	CASMaxAttempts  int
	CASInitialDelay time.Duration
	CASMaxDelay     time.Duration
	QueryTimeout    time.Duration
}

// WorkerConfig はバックグラウンドワーカーの設定
type WorkerConfig struct {
	ReconcileInterval  time.Duration
	ReconcileBatchSize int
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	return &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", ""),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "cinema"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "migrations"),

			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "cinema"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			SeatTTL:  getDurationEnv("REDIS_SEAT_CACHE_TTL", 30*time.Second),

			PoolSize:    getIntEnv("REDIS_POOL_SIZE", 20),
			DialTimeout: getDurationEnv("REDIS_DIAL_TIMEOUT", 3*time.Second),
		},
		AMQP: AMQPConfig{
			URL:   getEnv("AMQP_URL", ""),
			Queue: getEnv("AMQP_QUEUE", "ticket.notifications"),
		},
		Booking: BookingConfig{
			LockTTL:         getDurationEnv("BOOKING_LOCK_TTL", 10*time.Second),
			LockRetries:     getIntEnv("BOOKING_LOCK_RETRIES", 50),
			LockRetryDelay:  getDurationEnv("BOOKING_LOCK_RETRY_DELAY", 20*time.Millisecond),
			CASMaxAttempts:  getIntEnv("BOOKING_CAS_MAX_ATTEMPTS", 5),
			CASInitialDelay: getDurationEnv("BOOKING_CAS_INITIAL_DELAY", 10*time.Millisecond),
			CASMaxDelay:     getDurationEnv("BOOKING_CAS_MAX_DELAY", 200*time.Millisecond),
			QueryTimeout:    getDurationEnv("DB_QUERY_TIMEOUT", 5*time.Second),
		},
		Worker: WorkerConfig{
			ReconcileInterval:  getDurationEnv("RECONCILE_INTERVAL", 30*time.Second),
			ReconcileBatchSize: getIntEnv("RECONCILE_BATCH_SIZE", 100),
		},
	}
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Enabled は Redis が設定されているかを返す
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
