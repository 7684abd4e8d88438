package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eduvid/videogen-worker/internal/clients"
	"github.com/eduvid/videogen-worker/internal/config"
	"github.com/eduvid/videogen-worker/internal/notify"
	"github.com/eduvid/videogen-worker/internal/pipeline"
	"github.com/eduvid/videogen-worker/internal/queue"
	"github.com/eduvid/videogen-worker/internal/render"
	"github.com/eduvid/videogen-worker/internal/service"
	"github.com/eduvid/videogen-worker/internal/stages"
	"github.com/eduvid/videogen-worker/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// "worker enqueue [file]" submits a job instead of consuming; content
	// comes from the file (pdf, docx or txt) or stdin when no file is given.
	if len(os.Args) > 1 && os.Args[1] == "enqueue" {
		runEnqueue(os.Args[2:])
		return
	}
	runWorker()
}

// runEnqueue submits one generation job and prints its id.
func runEnqueue(args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()
	store, err := storage.NewStore(cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	producer, err := queue.NewProducer(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize queue producer")
	}
	defer producer.Close()

	svc := service.New(store, producer, notify.NewRegistry(nil))

	var jobID string
	if len(args) > 0 {
		fileBytes, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("file", args[0]).Msg("failed to read input file")
		}
		ext := strings.TrimPrefix(filepath.Ext(args[0]), ".")
		jobID, err = svc.StartJobFromDocument(ctx, fileBytes, ext)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to enqueue job")
		}
	} else {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read stdin")
		}
		jobID, err = svc.StartJob(ctx, string(content))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to enqueue job")
		}
	}
	fmt.Println(jobID)
}

func runWorker() {
	log.Info().Msg("videogen worker starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	// 1. Durable job store
	store, err := storage.NewStore(cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()
	log.Info().Msg("storage initialized")

	// 2. Redis client for the progress channel
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse Redis URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	// 3. Blob store for finished videos
	blobs, err := storage.NewBlobStore(ctx, storage.BlobStoreConfig{
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		BaseURL:   cfg.S3BaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize blob store")
	}

	// 4. Generation providers
	completion := clients.NewCompletionClient(cfg.CompletionURL, cfg.CompletionKey, cfg.CompletionModel, 120*time.Second)

	speech, err := clients.NewSpeechClient(cfg.SpeechEndpoint, cfg.SpeechKey, cfg.Generation.Voice, filepath.Join(cfg.TempDir, "audio"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize speech client")
	}

	images, err := clients.NewImageClient(cfg.ImageURL, cfg.ImageKey, cfg.ImageModel, filepath.Join(cfg.TempDir, "images"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize image client")
	}

	diagrams, err := render.NewDiagramRenderer(filepath.Join(cfg.TempDir, "diagrams"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize diagram renderer")
	}

	renderer, err := render.NewFFmpegRenderer(filepath.Join(cfg.TempDir, "render"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize video renderer")
	}
	log.Info().Msg("providers initialized")

	// 5. Progress notifications: in-process subscribers plus the Redis channel
	publisher := notify.NewRedisPublisher(redisClient, "")
	registry := notify.NewRegistry(publisher)

	// 6. Pipeline
	coordinator := pipeline.New(
		store,
		registry,
		stages.NewAnalyzer(completion),
		stages.NewScriptWriter(completion),
		stages.NewVisualPlanner(cfg.Generation.VisualStyle, cfg.Generation.ColorScheme),
		stages.NewAssetGenerator(diagrams, images, cfg.AssetConcurrency),
		stages.NewComposer(speech, renderer, blobs, cfg.Generation.Voice),
	)

	// 7. Queue consumer
	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:    cfg.RedisURL,
		Concurrency: cfg.WorkerConcurrency,
		Coordinator: coordinator,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize queue consumer")
	}

	// 8. Metrics endpoint
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := consumer.Start(); err != nil {
			errChan <- err
		}
	}()

	log.Info().
		Int("concurrency", cfg.WorkerConcurrency).
		Str("tempDir", cfg.TempDir).
		Msg("videogen worker ready, waiting for jobs")

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received, stopping gracefully...")
		consumer.Stop()
	case err := <-errChan:
		log.Fatal().Err(err).Msg("worker error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown failed")
	}

	log.Info().Msg("videogen worker stopped")
}
