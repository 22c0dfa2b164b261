package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/minio/minio-go/v7"

	"propertyrag/internal/api"
	"propertyrag/internal/cache"
	"propertyrag/internal/config"
	"propertyrag/internal/database/kafka"
	milvusdb "propertyrag/internal/database/milvus"
	miniodb "propertyrag/internal/database/minio"
	"propertyrag/internal/database/mysql"
	redisdb "propertyrag/internal/database/redis"
	"propertyrag/internal/events"
	"propertyrag/internal/llm"
	"propertyrag/internal/objectstore"
	"propertyrag/internal/parser"
	"propertyrag/internal/rag/classify"
	"propertyrag/internal/rag/embeddings"
	"propertyrag/internal/rag/extract"
	"propertyrag/internal/rag/pipeline"
	"propertyrag/internal/rag/splitter"
	"propertyrag/internal/rag/tokenizer"
	"propertyrag/internal/rag/vectorstore"
	"propertyrag/internal/store"
	"propertyrag/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.Log.Level)
	serviceLogger := logger.New("propertyrag")

	ctx := context.Background()

	// MySQL
	db, err := mysql.Connect(&cfg.MySQL)
	if err != nil {
		serviceLogger.WithField("error", err.Error()).Fatal("Failed to connect to MySQL")
	}
	if err := mysql.Migrate(db); err != nil {
		serviceLogger.WithField("error", err.Error()).Fatal("Failed to run database migrations")
	}
	serviceLogger.Info("Successfully connected to MySQL")

	// Milvus
	milvusClient, err := milvusdb.Connect(ctx, &cfg.Milvus)
	if err != nil {
		serviceLogger.WithField("error", err.Error()).Fatal("Failed to connect to Milvus")
	}
	err = milvusdb.EnsureCollection(ctx, milvusClient, cfg.Milvus.Collection, cfg.OpenAI.EmbeddingDimensions)
	if err != nil {
		serviceLogger.WithField("error", err.Error()).Fatal("Failed to prepare Milvus collection")
	}
	serviceLogger.Info("Successfully connected to Milvus")

	healthChecks := map[string]api.HealthCheck{
		"mysql": func(ctx context.Context) error {
			return mysql.HealthCheck(ctx, db)
		},
		"milvus": func(ctx context.Context) error {
			return milvusdb.HealthCheck(ctx, milvusClient)
		},
	}

	// Redis (optional answer cache)
	var answerCache *cache.AnswerCache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisdb.Connect(ctx, &cfg.Redis)
		if err != nil {
			serviceLogger.WithField("error", err.Error()).Fatal("Failed to connect to Redis")
		}
		answerCache = cache.NewAnswerCache(redisClient, time.Duration(cfg.Redis.AnswerTTL)*time.Second, logger.New("answer_cache"))
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisdb.HealthCheck(ctx, redisClient)
		}
		serviceLogger.Info("Successfully connected to Redis")
	}

	// MinIO (optional raw PDF archive)
	var objectStore *objectstore.DocumentStore
	var minioClient *minio.Client
	if cfg.MinIO.Enabled {
		minioClient, err = miniodb.Connect(ctx, &cfg.MinIO)
		if err != nil {
			serviceLogger.WithField("error", err.Error()).Fatal("Failed to connect to MinIO")
		}
		objectStore = objectstore.NewDocumentStore(minioClient, cfg.MinIO.Bucket, logger.New("objectstore"))
		healthChecks["minio"] = func(ctx context.Context) error {
			return miniodb.HealthCheck(ctx, minioClient)
		}
		serviceLogger.Info("Successfully connected to MinIO")
	}

	// Kafka (optional lifecycle events)
	var publisher *events.KafkaPublisher
	if cfg.Kafka.Enabled {
		writer, err := kafka.NewWriter(&cfg.Kafka)
		if err != nil {
			serviceLogger.WithField("error", err.Error()).Fatal("Failed to connect to Kafka")
		}
		publisher = events.NewKafkaPublisher(writer, logger.New("events"))
		serviceLogger.Info("Successfully connected to Kafka")
	}

	// RAG components
	tok, err := tokenizer.NewCL100K()
	if err != nil {
		serviceLogger.WithField("error", err.Error()).Fatal("Failed to load tokenizer")
	}

	chat := llm.NewOpenAIChat(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)
	embedder := embeddings.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel, cfg.OpenAI.EmbeddingDimensions, logger.New("embeddings"))

	documentDAL := store.NewDocumentDAL(db)
	chunkDAL := store.NewChunkDAL(db)
	projectDAL := store.NewProjectDAL(db)
	extractedDAL := store.NewExtractedDAL(db)
	vectors := vectorstore.NewMilvusStore(milvusClient, cfg.Milvus.Collection, logger.New("vectorstore"))

	ingestionDeps := pipeline.IngestionDeps{
		Parser:     parser.NewPDF(logger.New("parser")),
		Splitter:   splitter.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap, tok),
		Embedder:   embedder,
		Classifier: classify.New(chat, logger.New("classify")),
		Extractor:  extract.New(chat, logger.New("extract")),
		Documents:  documentDAL,
		Chunks:     chunkDAL,
		Extracted:  extractedDAL,
		Vectors:    vectors,
	}
	if publisher != nil {
		ingestionDeps.Events = publisher
	}
	ingestion := pipeline.NewIngestionPipeline(ingestionDeps, logger.New("ingestion"))

	retrieval := pipeline.NewRetrievalEngine(embedder, vectors, chunkDAL, documentDAL, cfg.RAG.TopK, logger.New("retrieval"))
	answers := pipeline.NewAnswerEngine(retrieval, chat, answerCache, pipeline.AnswerOptions{
		TopK:          cfg.RAG.TopK,
		ContextChunks: cfg.RAG.ContextChunks,
		MaxTokens:     cfg.RAG.MaxAnswerTokens,
		Temperature:   cfg.RAG.Temperature,
		Language:      cfg.RAG.AnswerLanguage,
	}, logger.New("answers"))

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	apiHandler := api.NewAPI(api.Deps{
		Ingestion: ingestion,
		Answers:   answers,
		Documents: documentDAL,
		Projects:  projectDAL,
		Extracted: extractedDAL,
		Vectors:   vectors,
		Objects:   objectStore,
		Health:    healthChecks,
	}, logger.New("api"))
	router := api.NewRouter(apiHandler)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithField("error", err.Error()).Fatal("HTTP server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithField("error", err.Error()).Error("Server forced to shutdown")
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			serviceLogger.WithField("error", err.Error()).Error("Error closing Kafka publisher")
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			serviceLogger.WithField("error", err.Error()).Error("Error closing Redis client")
		}
	}
	if err := milvusClient.Close(); err != nil {
		serviceLogger.WithField("error", err.Error()).Error("Error closing Milvus client")
	}
	if err := mysql.Close(db); err != nil {
		serviceLogger.WithField("error", err.Error()).Error("Error closing MySQL connection")
	}

	serviceLogger.Info("Server gracefully stopped")
}
