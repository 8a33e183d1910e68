package main

import (
	"context"
	"encoding/base64"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mansoorceksport/gymledger/internal/config"
	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/mansoorceksport/gymledger/internal/repository"
	"github.com/mansoorceksport/gymledger/internal/scheduler"
	"github.com/mansoorceksport/gymledger/internal/server"
	"github.com/mansoorceksport/gymledger/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("Starting GymLedger Service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Grafana Cloud requires Basic auth with instanceId:apiToken base64 encoded
	authString := cfg.OTEL.InstanceID + ":" + cfg.OTEL.Token
	authEncoded := base64.StdEncoding.EncodeToString([]byte(authString))

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.OTEL.ServiceName,
		ServiceVersion: cfg.OTEL.ServiceVersion,
		Environment:    cfg.OTEL.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
		OTLPHeaders: map[string]string{
			"Authorization": "Basic " + authEncoded,
		},
		Enabled:    cfg.OTEL.Enabled,
		Prometheus: cfg.OTEL.PrometheusEnabled,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize OpenTelemetry: %v", err)
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelProvider.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error shutting down OpenTelemetry: %v", err)
			}
		}()
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		log.Printf("Warning: Failed to create metrics: %v", err)
	}

	var mongoDB *mongo.Database
	var redisClient *redis.Client

	switch cfg.Server.StorageDriver {
	case "memory":
		// Development mode: in-memory stores and an embedded Redis
		mr, err := miniredis.Run()
		if err != nil {
			log.Fatalf("Failed to start embedded Redis: %v", err)
		}
		defer mr.Close()
		redisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		log.Println("✓ Embedded Redis started")

	default:
		mongoDB = connectMongo(cfg)
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()

		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		log.Println("✓ Redis connected")
	}
	defer redisClient.Close()

	var files domain.FileRepository
	if cfg.S3.Enabled() {
		s3Repo, err := repository.NewS3FileRepository(ctx, cfg.S3)
		if err != nil {
			log.Printf("Warning: Failed to initialize S3 repository, billing archive disabled: %v", err)
		} else {
			files = s3Repo
			log.Println("✓ Object storage ready")
		}
	}

	// Initialize App using Server package
	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		MongoDB:     mongoDB,
		RedisClient: redisClient,
		Files:       files,
		Metrics:     metrics,
	})

	jobs := scheduler.New(scheduler.Config{
		Enabled:  cfg.Scheduler.Enabled,
		Schedule: cfg.Scheduler.NotificationCron,
		Location: cfg.Location(),
		Timeout:  5 * time.Minute,
	}, app.NotificationJob)
	if err := jobs.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("Shutting down gracefully...")
		jobs.Stop()
		if err := app.HTTP.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	// Start server
	log.Printf("🚀 Server starting on port %s", cfg.Server.Port)
	if err := app.HTTP.Listen(":" + cfg.Server.Port); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
	<-jobs.Done()
}

// connectMongo connects with OpenTelemetry instrumentation when enabled and verifies the connection
func connectMongo(cfg *config.Config) *mongo.Database {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.OTEL.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}

	client, err := mongo.Connect(ctx, mongoOpts)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("✓ MongoDB connected")

	return client.Database(cfg.MongoDB.Database)
}
