package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listen settings.
type ServerConfig struct {
	Address string `yaml:"address"` // e.g. ":8080"
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// MySQLConfig holds the MySQL connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// MilvusConfig holds the Milvus connection and collection settings.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
}

// RedisConfig holds the Redis connection settings. Redis is optional and
// only used for the query answer cache.
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	AnswerTTL  int    `yaml:"answerTTL"` // seconds
}

// MinIOConfig holds the MinIO object storage settings. MinIO is optional
// and only used to retain the raw uploaded PDFs.
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// KafkaConfig holds the Kafka settings for document lifecycle events.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// OpenAIConfig holds the OpenAI API settings used for chat and embeddings.
type OpenAIConfig struct {
	APIKey              string `yaml:"apiKey"`
	ChatModel           string `yaml:"chatModel"`
	EmbeddingModel      string `yaml:"embeddingModel"`
	EmbeddingDimensions int    `yaml:"embeddingDimensions"`
}

// RAGConfig holds chunking, retrieval and answering parameters.
type RAGConfig struct {
	ChunkSize       int     `yaml:"chunkSize"`    // max tokens per chunk
	ChunkOverlap    int     `yaml:"chunkOverlap"` // tokens repeated between chunks
	TopK            int     `yaml:"topK"`
	MinScore        float64 `yaml:"minScore"`
	ContextChunks   int     `yaml:"contextChunks"`
	MaxAnswerTokens int     `yaml:"maxAnswerTokens"`
	Temperature     float32 `yaml:"temperature"`
	AnswerLanguage  string  `yaml:"answerLanguage"`
}

// Config is the full application configuration. It is constructed once at
// process start and threaded into each component's constructor; there is
// no ambient global state.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Milvus MilvusConfig `yaml:"milvus"`
	Redis  RedisConfig  `yaml:"redis"`
	MinIO  MinIOConfig  `yaml:"minio"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	OpenAI OpenAIConfig `yaml:"openai"`
	RAG    RAGConfig    `yaml:"rag"`
}

// LoadConfig reads and parses the YAML configuration file at path, then
// fills in defaults for any unset tuning parameters.
func LoadConfig(path string) (*Config, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Milvus.Collection == "" {
		c.Milvus.Collection = "property_chunks"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.EmbeddingDimensions == 0 {
		c.OpenAI.EmbeddingDimensions = 1536
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 512
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 50
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 5
	}
	if c.RAG.MinScore == 0 {
		c.RAG.MinScore = 0.3
	}
	if c.RAG.ContextChunks == 0 {
		c.RAG.ContextChunks = 1
	}
	if c.RAG.MaxAnswerTokens == 0 {
		c.RAG.MaxAnswerTokens = 1000
	}
	if c.RAG.Temperature == 0 {
		c.RAG.Temperature = 0.1
	}
	if c.RAG.AnswerLanguage == "" {
		c.RAG.AnswerLanguage = "Deutsch"
	}
	if c.Redis.AnswerTTL == 0 {
		c.Redis.AnswerTTL = 300
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "document.lifecycle"
	}
}
