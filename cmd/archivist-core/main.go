package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/archivist-labs/archivist-core/internal/adapters/driven/embedding"
	"github.com/archivist-labs/archivist-core/internal/adapters/driven/objectstore"
	"github.com/archivist-labs/archivist-core/internal/adapters/driven/ocr"
	redisqueue "github.com/archivist-labs/archivist-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/archivist-labs/archivist-core/internal/adapters/driven/redis"
	"github.com/archivist-labs/archivist-core/internal/adapters/driven/searchindex"
	httpapi "github.com/archivist-labs/archivist-core/internal/adapters/driving/http"
	"github.com/archivist-labs/archivist-core/internal/chunk"
	"github.com/archivist-labs/archivist-core/internal/coordinator"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
	"github.com/archivist-labs/archivist-core/internal/core/services"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	log.Printf("archivist-core %s starting", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// ===== Object store (S3-compatible) =====
	store, err := objectstore.New(ctx, objectstore.Config{
		Bucket:          mustEnv("OBJECT_STORE_BUCKET"),
		Region:          getEnv("OBJECT_STORE_REGION", "us-east-1"),
		Endpoint:        getEnv("OBJECT_STORE_ENDPOINT", ""),
		AccessKeyID:     getEnv("OBJECT_STORE_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("OBJECT_STORE_SECRET_ACCESS_KEY", ""),
		UsePathStyle:    getEnvBool("OBJECT_STORE_PATH_STYLE", false),
	})
	if err != nil {
		log.Fatalf("failed to initialize object store: %v", err)
	}

	// ===== Search index (Elasticsearch) =====
	index, err := searchindex.New(searchindex.Config{
		Addresses: strings.Split(getEnv("SEARCH_INDEX_ADDRESSES", "http://localhost:9200"), ","),
		Username:  getEnv("SEARCH_INDEX_USERNAME", ""),
		Password:  getEnv("SEARCH_INDEX_PASSWORD", ""),
		IndexName: getEnv("SEARCH_INDEX_NAME", "archivist-documents"),
	})
	if err != nil {
		log.Fatalf("failed to initialize search index: %v", err)
	}

	// ===== Embedding service =====
	embedSvc, err := embedding.New(ctx, embedding.Config{
		BaseURL:   mustEnv("EMBEDDING_SERVICE_URL"),
		Model:     getEnv("EMBEDDING_MODEL", "default"),
		Normalize: getEnvBool("EMBEDDING_NORMALIZE", true),
		Timeout:   time.Duration(getEnvInt("EMBEDDING_TIMEOUT_SEC", 30)) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to initialize embedding service: %v", err)
	}
	defer embedSvc.Close()

	if err := index.EnsureIndex(ctx, embedSvc.Dimensions()); err != nil {
		log.Fatalf("failed to ensure search index mapping: %v", err)
	}

	// ===== OCR (one static backend per process: fast endpoint, vision-LM, or none) =====
	var ocrClient driven.OCRClient
	switch mode := getEnv("OCR_MODE", "fast"); mode {
	case "fast":
		ocrClient = ocr.NewFastClient(mustEnv("OCR_FAST_ENDPOINT"), time.Duration(getEnvInt("OCR_TIMEOUT_SEC", 120))*time.Second)
	case "vision":
		ocrClient = ocr.NewVisionClient(
			mustEnv("OCR_VISION_API_KEY"),
			getEnv("OCR_VISION_BASE_URL", ""),
			getEnv("OCR_VISION_MODEL", "gpt-4o"),
			time.Duration(getEnvInt("OCR_TIMEOUT_SEC", 120))*time.Second,
		)
	case "none":
		ocrClient = nil
	default:
		log.Fatalf("unknown OCR_MODE %q (use: fast, vision, none)", mode)
	}

	// ===== Redis (event queue + distributed lock) =====
	redisOpts, err := redis.ParseURL(mustEnv("REDIS_URL"))
	if err != nil {
		log.Fatalf("failed to parse REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	eventQueue, err := redisqueue.NewQueue(redisClient, fmt.Sprintf("archivist-%d", os.Getpid()))
	if err != nil {
		log.Fatalf("failed to initialize event queue: %v", err)
	}
	defer eventQueue.Close()

	lock := redisadapter.NewLock(redisClient)

	// ===== Ingestion Pipeline and Event Coordinator =====
	pipeline := services.NewPipeline(store, index, chunk.NewEmbedder(embedSvc), ocrClient, logger)

	prefixes := []string{""}
	if raw := getEnv("SCAN_PREFIXES", ""); raw != "" {
		prefixes = strings.Split(raw, ",")
	}

	coord := coordinator.New(coordinator.Config{
		Pipeline:                 pipeline,
		Queue:                    eventQueue,
		Store:                    store,
		Index:                    index,
		Lock:                     lock,
		Logger:                   logger,
		NumLanes:                 getEnvInt("COORDINATOR_NUM_LANES", 8),
		LaneBuffer:               getEnvInt("COORDINATOR_LANE_BUFFER", 64),
		ScanOnStartup:            getEnvBool("SCAN_ON_STARTUP", false),
		ScanPrefixes:             prefixes,
		ReconcileInterval:        time.Duration(getEnvInt("RECONCILE_INTERVAL_SEC", 21600)) * time.Second,
		ReconcileReingestDrifted: getEnvBool("RECONCILE_REINGEST_DRIFTED", false),
		QueueWaitTimeout:         time.Duration(getEnvInt("QUEUE_WAIT_TIMEOUT_SEC", 20)) * time.Second,
		QueueBatchSize:           getEnvInt("QUEUE_BATCH_SIZE", 10),
		DrainTimeout:             time.Duration(getEnvInt("DRAIN_TIMEOUT_SEC", 30)) * time.Second,
	})

	go func() {
		if err := coord.Run(ctx); err != nil {
			log.Fatalf("coordinator stopped with error: %v", err)
		}
	}()

	// ===== HTTP health/stats surface =====
	httpCfg := httpapi.Config{
		Host:    "0.0.0.0",
		Port:    getEnvInt("PORT", 8080),
		Version: version,
	}
	server := httpapi.NewServer(httpCfg, coord, httpapi.Dependencies{
		Store: store,
		Index: index,
		Queue: eventQueue,
		Lock:  lock,
	}, logger)

	if err := server.Start(ctx); err != nil {
		log.Fatalf("http server error: %v", err)
	}

	logger.Info("archivist-core stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("required environment variable %s is not set", key)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
