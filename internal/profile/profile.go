package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol).
	LLMProvider    string  // Provider identifier: openai, deepseek, siliconflow, ollama, ...
	LLMAPIKey      string  // LLM API key
	LLMBaseURL     string  // LLM base URL (optional, has default per provider)
	LLMModel       string  // Model name: gpt-4o-mini, deepseek-chat, etc.
	LLMMaxTokens   int     // Max completion tokens (default: 3000)
	LLMTemperature float32 // Sampling temperature (default: 0.7)
	LLMTimeout     int     // LLM request timeout in seconds (default: 120)

	// Embedding configuration
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// Summary model configuration. When SummaryModel is empty the
	// conversation summarizer falls back to deterministic formatting.
	SummaryModel   string
	SummaryAPIKey  string
	SummaryBaseURL string

	// Document and persona inputs
	DocumentsDir string // {documents}/{location}/{class_name}/*.txt
	PersonaDir   string // {personas}/{location}/{class_name}.txt
	PersonaWatch bool   // reload personas on file change

	// Retrieval tuning
	RetrievalTopK        int     // documents returned per question (default: 3)
	RetrievalFetchFactor int     // candidate oversampling multiplier (default: 3)
	RetrievalLambda      float32 // relevance weight in diversity selection (default: 0.6)
	FingerprintLength    int     // dedup prefix length in runes (default: 100)

	// Chunking
	ChunkSize    int // target chunk window in runes (default: 500)
	ChunkOverlap int // overlap between windows in runes (default: 100)

	// Conversation
	ContextWindow int    // turns kept in a summary (default: 5)
	DefaultMuseum string // location used when the request omits one

	// Server / storage
	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string
	DSN     string
	Version string

	// Reindex forces a rebuild of every vector collection at startup.
	Reindex bool
}

// Provider default configurations for the LLM.
// Used when DOCENT_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the generation provider is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float32 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("DOCENT_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("DOCENT_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("DOCENT_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("DOCENT_LLM_MODEL", "")
	p.LLMMaxTokens = getEnvOrDefaultInt("DOCENT_LLM_MAX_TOKENS", 3000)
	p.LLMTemperature = getEnvOrDefaultFloat("DOCENT_LLM_TEMPERATURE", 0.7)
	p.LLMTimeout = getEnvOrDefaultInt("DOCENT_LLM_TIMEOUT_SECONDS", 120)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	p.EmbeddingProvider = getEnvOrDefault("DOCENT_EMBEDDING_PROVIDER", "siliconflow")
	p.EmbeddingModel = getEnvOrDefault("DOCENT_EMBEDDING_MODEL", "BAAI/bge-m3")
	p.EmbeddingAPIKey = getEnvOrDefault("DOCENT_EMBEDDING_API_KEY", p.LLMAPIKey)
	p.EmbeddingBaseURL = getEnvOrDefault("DOCENT_EMBEDDING_BASE_URL", "https://api.siliconflow.cn/v1")
	p.EmbeddingDimensions = getEnvOrDefaultInt("DOCENT_EMBEDDING_DIMENSIONS", 1024)

	p.SummaryModel = getEnvOrDefault("DOCENT_SUMMARY_MODEL", "")
	p.SummaryAPIKey = getEnvOrDefault("DOCENT_SUMMARY_API_KEY", p.LLMAPIKey)
	p.SummaryBaseURL = getEnvOrDefault("DOCENT_SUMMARY_BASE_URL", p.LLMBaseURL)

	p.DocumentsDir = getEnvOrDefault("DOCENT_DOCUMENTS_DIR", "documents/rag")
	p.PersonaDir = getEnvOrDefault("DOCENT_PERSONA_DIR", "documents/personas")
	p.PersonaWatch = getEnvOrDefault("DOCENT_PERSONA_WATCH", "false") == "true"

	p.RetrievalTopK = getEnvOrDefaultInt("DOCENT_RETRIEVAL_TOP_K", 3)
	p.RetrievalFetchFactor = getEnvOrDefaultInt("DOCENT_RETRIEVAL_FETCH_FACTOR", 3)
	p.RetrievalLambda = getEnvOrDefaultFloat("DOCENT_RETRIEVAL_LAMBDA", 0.6)
	p.FingerprintLength = getEnvOrDefaultInt("DOCENT_RETRIEVAL_FINGERPRINT", 100)

	p.ChunkSize = getEnvOrDefaultInt("DOCENT_CHUNK_SIZE", 500)
	p.ChunkOverlap = getEnvOrDefaultInt("DOCENT_CHUNK_OVERLAP", 100)

	p.ContextWindow = getEnvOrDefaultInt("DOCENT_CONTEXT_WINDOW", 5)
	p.DefaultMuseum = getEnvOrDefault("DOCENT_DEFAULT_MUSEUM", "louvre")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "docent")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/docent"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver: %s", p.Driver)
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("docent_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	if p.ChunkOverlap >= p.ChunkSize {
		p.ChunkOverlap = p.ChunkSize / 4
	}
	if p.RetrievalTopK <= 0 {
		p.RetrievalTopK = 3
	}
	if p.RetrievalFetchFactor < 1 {
		p.RetrievalFetchFactor = 3
	}
	if p.RetrievalLambda < 0 || p.RetrievalLambda > 1 {
		p.RetrievalLambda = 0.6
	}
	if p.FingerprintLength <= 0 {
		p.FingerprintLength = 100
	}
	if p.ContextWindow <= 0 {
		p.ContextWindow = 5
	}

	return nil
}
