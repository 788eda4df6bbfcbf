package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Server    ServerConfig
	Ollama    OllamaConfig
	Retrieval RetrievalConfig
	Storage   StorageConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type OllamaConfig struct {
	BaseURL    string
	ChatModel  string
	EmbedModel string
}

type RetrievalConfig struct {
	TopK             int
	MaxContextTokens int
	ChunkSize        int
	ChunkOverlap     int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

// UploadDir is where uploaded files are parked until ingestion finishes.
func (s StorageConfig) UploadDir() string {
	return filepath.Join(s.DataDir, "tmp_uploads")
}

// ConversationsFile is the path of the JSON interaction log.
func (s StorageConfig) ConversationsFile() string {
	return filepath.Join(s.DataDir, "conversations.json")
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Ollama: OllamaConfig{
			BaseURL:    "http://localhost:11434",
			ChatModel:  "phi3.5",
			EmbedModel: "nomic-embed-text",
		},
		Retrieval: RetrievalConfig{
			TopK:             4,
			MaxContextTokens: 4000,
			ChunkSize:        1000,
			ChunkOverlap:     150,
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults overridden by DOCCHAT_*
// environment variables. A .env file, if present, is loaded by the CLI
// entrypoint before this runs.
func Load() (Config, error) {
	cfg := defaults()
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DOCCHAT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DOCCHAT_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("DOCCHAT_OLLAMA_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("DOCCHAT_CHAT_MODEL"); v != "" {
		cfg.Ollama.ChatModel = v
	}
	if v := os.Getenv("DOCCHAT_EMBED_MODEL"); v != "" {
		cfg.Ollama.EmbedModel = v
	}
	if v := os.Getenv("DOCCHAT_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("DOCCHAT_TOP_K"); v != "" {
		topK, err := strconv.Atoi(v)
		if err != nil || topK <= 0 {
			return fmt.Errorf("invalid DOCCHAT_TOP_K %q", v)
		}
		cfg.Retrieval.TopK = topK
	}
	if v := os.Getenv("DOCCHAT_CHUNK_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return fmt.Errorf("invalid DOCCHAT_CHUNK_SIZE %q", v)
		}
		cfg.Retrieval.ChunkSize = size
	}
	if v := os.Getenv("DOCCHAT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}
