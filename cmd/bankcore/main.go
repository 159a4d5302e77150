// Command bankcore is the operational entrypoint for the ledger core:
// schema migration, admin seeding and the audit stream publisher. The web
// layer embeds the library directly and is not part of this binary.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankcore/internal/app/audit"
	"bankcore/internal/config"
	"bankcore/internal/domain"
	"bankcore/internal/infrastructure/database"
	kafka_infra "bankcore/internal/infrastructure/kafka"
	"bankcore/internal/storage/postgres"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "migrate":
		err = runMigrations(cfg, logger)
	case "seed-admin":
		err = seedAdmin(cfg, logger, os.Args[2:])
	case "audit-stream":
		err = runAuditStream(cfg, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: bankcore <migrate|seed-admin|audit-stream> [flags]")
}

func connectDB(cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.Name,
		SSLMode:  cfg.DBConfig.SSLMode,
	}

	var db *sql.DB
	var err error
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			logger.Info("connected to PostgreSQL")
			return db, nil
		}
		logger.Warn(fmt.Sprintf("failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
}

func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("running database migrations", zap.String("path", cfg.MigrationsPath))
	m, err := migrate.New(
		"file://"+cfg.MigrationsPath,
		cfg.GetDBMigrationConnectionString(),
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("database migrations completed")
	return nil
}

// seedAdmin creates the initial admin user if it does not exist yet.
func seedAdmin(cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("seed-admin", flag.ExitOnError)
	email := fs.String("email", "admin@example.com", "admin email")
	password := fs.String("password", "Admin123!", "admin password")
	name := fs.String("name", "Admin User", "admin full name")
	fs.Parse(args)

	db, err := connectDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	store := postgres.NewStore(db, logger.With(zap.String("component", "Store")))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := store.GetUserByEmail(ctx, *email); err == nil {
		logger.Info("admin user already exists", zap.String("email", *email))
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &domain.User{
		FullName:     *name,
		Email:        *email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateUser(ctx, admin); err != nil {
		return err
	}
	logger.Info("admin user created", zap.String("email", *email), zap.Int64("user_id", admin.ID))
	return nil
}

// runAuditStream publishes pending audit events to Kafka until interrupted.
func runAuditStream(cfg *config.Config, logger *zap.Logger) error {
	if !cfg.AuditStreamEnabled {
		return fmt.Errorf("audit stream is disabled, set AUDIT_STREAM_ENABLED=true to run it")
	}

	db, err := connectDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = ensureKafkaTopics(ctx, cfg.GetKafkaBrokers(), []string{cfg.KafkaAuditTopic}, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to ensure Kafka topics: %w", err)
	}

	producer := kafka_infra.NewProducer(
		cfg.GetKafkaBrokers(),
		cfg.KafkaAuditTopic,
		logger.With(zap.String("component", "KafkaProducer")),
	)
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Error("error closing Kafka producer", zap.Error(err))
		}
	}()

	store := postgres.NewStore(db, logger.With(zap.String("component", "Store")))
	processor := audit.NewStreamProcessor(
		store,
		producer,
		cfg.KafkaAuditTopic,
		cfg.AuditStreamInterval,
		logger.With(zap.String("component", "AuditStreamProcessor")),
	)

	ctxMain, cancelMain := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		processor.Start(ctxMain)
		close(done)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down audit stream")
	cancelMain()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("audit stream processor did not stop cleanly within 5 seconds")
	}
	return nil
}

func ensureKafkaTopics(ctx context.Context, brokerURLs []string, topics []string, logger *zap.Logger) error {
	conn, err := kafka.DialContext(ctx, "tcp", brokerURLs[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker for admin operations: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get kafka controller: %w", err)
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("failed to dial kafka controller: %w", err)
	}
	defer controllerConn.Close()

	topicConfigs := make([]kafka.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}

	if err := controllerConn.CreateTopics(topicConfigs...); err != nil {
		if err == kafka.TopicAlreadyExists {
			logger.Info("Kafka topics already exist, skipping creation")
			return nil
		}
		return fmt.Errorf("failed to create Kafka topics: %w", err)
	}
	logger.Info("Kafka topics ensured", zap.Strings("topics", topics))
	return nil
}
