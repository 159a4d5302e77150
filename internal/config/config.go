package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DBConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	MigrationsPath string

	KafkaBrokerURL      string
	KafkaAuditTopic     string
	AuditStreamEnabled  bool
	AuditStreamInterval time.Duration

	LockoutWindow    time.Duration
	LockoutThreshold int

	SuspiciousTransferThreshold decimal.Decimal
	TransferRetryAttempts       int
}

func LoadConfig() (*Config, error) {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.DBConfig.Host = getEnvOrDefault("BANKCORE_DB_HOST", "localhost")
	cfg.DBConfig.Port = getEnvAsInt("BANKCORE_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("BANKCORE_DB_USER", "bankcore")
	cfg.DBConfig.Password = getEnvOrDefault("BANKCORE_DB_PASSWORD", "bankcore")
	cfg.DBConfig.Name = getEnvOrDefault("BANKCORE_DB_NAME", "bankcore_db")
	cfg.DBConfig.SSLMode = getEnvOrDefault("BANKCORE_DB_SSLMODE", "disable")

	cfg.MigrationsPath = getEnvOrDefault("BANKCORE_MIGRATIONS_PATH", "migrations")

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaAuditTopic = getEnvOrDefault("KAFKA_AUDIT_TOPIC", "audit_events")
	cfg.AuditStreamEnabled = getEnvAsBool("AUDIT_STREAM_ENABLED", false)
	cfg.AuditStreamInterval = getEnvAsDuration("AUDIT_STREAM_INTERVAL", 1*time.Second)

	cfg.LockoutWindow = getEnvAsDuration("LOGIN_LOCKOUT_WINDOW", 600*time.Second)
	cfg.LockoutThreshold = getEnvAsInt("LOGIN_LOCKOUT_THRESHOLD", 5)

	threshold := getEnvOrDefault("SUSPICIOUS_TRANSFER_THRESHOLD", "10000")
	d, err := decimal.NewFromString(threshold)
	if err != nil {
		return nil, fmt.Errorf("invalid SUSPICIOUS_TRANSFER_THRESHOLD %q: %w", threshold, err)
	}
	cfg.SuspiciousTransferThreshold = d

	cfg.TransferRetryAttempts = getEnvAsInt("TRANSFER_RETRY_ATTEMPTS", 3)

	return cfg, nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnvOrDefault(key, strconv.FormatBool(defaultValue))
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
