package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	StoreChromem  = "chromem"
	StorePGVector = "pgvector"
)

type Config struct {
	Debug        bool              `yaml:"debug"`
	Server       ServerConfig      `yaml:"server"`
	Documents    DocumentsConfig   `yaml:"documents"`
	EmbedLLM     LLMConfig         `yaml:"embed_llm"`
	InferenceLLM LLMConfig         `yaml:"inference_llm"`
	RAG          RAGConfig         `yaml:"rag"`
	VectorStore  VectorStoreConfig `yaml:"vector_store"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DocumentsConfig names the two source files, relative to Dir.
type DocumentsConfig struct {
	Dir       string `yaml:"dir"`
	Menu      string `yaml:"menu"`
	Allergens string `yaml:"allergens"`
}

// LLMConfig addresses either an Ollama server or an OpenAI-compatible API.
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	Key       string `yaml:"key"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

type VectorStoreConfig struct {
	Type          string `yaml:"type"`
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	ExportPath    string `yaml:"export_path"`
	EncryptionKey string `yaml:"encryption_key"`
	DSN           string `yaml:"dsn"`
}

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
	defaultTopK         = 4
	defaultModel        = "mistral:latest"
	defaultOllamaURL    = "http://localhost:11434"
	defaultOpenAIURL    = "https://api.openai.com/v1"
	defaultCollection   = "bella_napoli_pizza"
	defaultStorePath    = "./chromemdb"
	defaultPort         = 7860
)

// LoadConfig reads the YAML file at path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := seed()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

func Default() *Config {
	cfg := seed()
	ApplyDefaults(cfg)
	return cfg
}

// seed presets the fields whose zero value is a valid setting, so an
// explicit 0 in the file survives while an absent key keeps the default.
func seed() *Config {
	return &Config{RAG: RAGConfig{ChunkOverlap: defaultChunkOverlap}}
}

// ApplyDefaults fills every zero value with its default and resolves API
// keys from the environment.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Documents.Dir == "" {
		cfg.Documents.Dir = "data"
	}
	if cfg.Documents.Menu == "" {
		cfg.Documents.Menu = "Menu.pdf"
	}
	if cfg.Documents.Allergens == "" {
		cfg.Documents.Allergens = "Liste_allergenes.pdf"
	}
	applyLLMDefaults(&cfg.EmbedLLM)
	applyLLMDefaults(&cfg.InferenceLLM)

	if cfg.RAG.ChunkSize <= 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap < 0 {
		cfg.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		cfg.RAG.ChunkOverlap = cfg.RAG.ChunkSize / 2
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = defaultTopK
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = StoreChromem
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = defaultStorePath
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = defaultCollection
	}
}

func applyLLMDefaults(c *LLMConfig) {
	if c.Provider == "" {
		c.Provider = ProviderOllama
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.BaseURL == "" {
		switch c.Provider {
		case ProviderOpenAI:
			c.BaseURL = defaultOpenAIURL
		default:
			c.BaseURL = defaultOllamaURL
		}
	}
	if c.Key == "" && c.APIKeyEnv != "" {
		c.Key = os.Getenv(c.APIKeyEnv)
	}
}

// MenuPath returns the full path of the menu document.
func (d DocumentsConfig) MenuPath() string {
	return filepath.Join(d.Dir, d.Menu)
}

// AllergensPath returns the full path of the allergen list.
func (d DocumentsConfig) AllergensPath() string {
	return filepath.Join(d.Dir, d.Allergens)
}
