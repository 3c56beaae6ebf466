package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	BcryptCost int
	Database   DatabaseConfig
	JWT        JWTConfig
	Admin      AdminConfig
	Log        LogConfig
	Storage    StorageConfig
	MQ         MQConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// JWTConfig controls bearer token issuance and validation.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Leeway is the tolerated clock skew when checking expiry. Zero means none.
	Leeway time.Duration
}

// AdminConfig is the account guaranteed to exist with the ADMIN role.
type AdminConfig struct {
	Email    string
	Username string
	Password string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects the document storage backend ("minio", "gcs" or "" for none).
type StorageConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

// MQConfig selects the event backend ("rabbitmq", "pubsub" or "" for none).
type MQConfig struct {
	Backend      string
	AccountTopic string
	RabbitMQ     RabbitMQConfig
	PubSub       PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// RedisConfig is optional; an empty Addr disables Redis-backed features.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	LoginAttempts int
	LoginWindow   time.Duration
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "propmgr"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "propmgr_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		BcryptCost: getEnvInt("BCRYPT_COST", 10),
		Database:   dbConfig,
		JWT: JWTConfig{
			Secret: strings.TrimSpace(getEnv("JWT_SECRET", "")),
			Issuer: getEnv("JWT_ISSUER", "propmgr-apiserver"),
			TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
			Leeway: getEnvDuration("JWT_LEEWAY", 0),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "")),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "documents"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		MQ: MQConfig{
			Backend:      strings.ToLower(getEnv("MQ_BACKEND", "")),
			AccountTopic: getEnv("MQ_ACCOUNT_TOPIC", "account-events"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 0),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 10),
			LoginWindow:   getEnvDuration("LOGIN_WINDOW", 15*time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90m") or bare seconds ("5400").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueStr = strings.TrimSpace(valueStr)
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
