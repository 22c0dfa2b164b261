package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
mysql:
  address: "db:3306"
  username: "app"
  password: "secret"
  database: "propertyrag"
milvus:
  address: "milvus:19530"
openai:
  apiKey: "sk-test"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MySQL.Address != "db:3306" {
		t.Errorf("expected mysql address from file, got %q", cfg.MySQL.Address)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default server address, got %q", cfg.Server.Address)
	}
	if cfg.Milvus.Collection != "property_chunks" {
		t.Errorf("expected default collection, got %q", cfg.Milvus.Collection)
	}
	if cfg.RAG.ChunkSize != 512 || cfg.RAG.ChunkOverlap != 50 {
		t.Errorf("expected default chunking 512/50, got %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.TopK != 5 {
		t.Errorf("expected default topK 5, got %d", cfg.RAG.TopK)
	}
	if cfg.RAG.MinScore != 0.3 {
		t.Errorf("expected default minScore 0.3, got %v", cfg.RAG.MinScore)
	}
	if cfg.RAG.AnswerLanguage != "Deutsch" {
		t.Errorf("expected default answer language, got %q", cfg.RAG.AnswerLanguage)
	}
	if cfg.OpenAI.EmbeddingDimensions != 1536 {
		t.Errorf("expected default embedding dimensions, got %d", cfg.OpenAI.EmbeddingDimensions)
	}
	if cfg.Redis.Enabled || cfg.MinIO.Enabled || cfg.Kafka.Enabled {
		t.Error("expected optional backends to default to disabled")
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  address: ":9090"
rag:
  chunkSize: 256
  topK: 10
  answerLanguage: "Englisch"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Errorf("expected server address :9090, got %q", cfg.Server.Address)
	}
	if cfg.RAG.ChunkSize != 256 {
		t.Errorf("expected chunkSize 256, got %d", cfg.RAG.ChunkSize)
	}
	if cfg.RAG.TopK != 10 {
		t.Errorf("expected topK 10, got %d", cfg.RAG.TopK)
	}
	if cfg.RAG.AnswerLanguage != "Englisch" {
		t.Errorf("expected answer language override, got %q", cfg.RAG.AnswerLanguage)
	}
	if cfg.RAG.ChunkOverlap != 50 {
		t.Errorf("expected untouched default overlap 50, got %d", cfg.RAG.ChunkOverlap)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
