// Package env reads process settings from the environment and .env files.
package env

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrInvalidSetting is returned when a setting has an unsupported value.
var ErrInvalidSetting = errors.New("invalid setting")

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// State backends.
const (
	StateFile   = "file"
	StateSQLite = "sqlite"
	StateBadger = "badger"
	StateMemory = "memory"
)

// Embedding providers.
const (
	EmbedderOpenAI = "openai"
	EmbedderGemini = "gemini"
)

// Settings are the process-level settings.
type Settings struct {
	Store       string `envconfig:"RAGSYNC_STORE" default:"sqlite"`
	State       string `envconfig:"RAGSYNC_STATE" default:"file"`
	DataDir     string `envconfig:"RAGSYNC_DATA_DIR"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	Embedder       string `envconfig:"RAGSYNC_EMBEDDER" default:"openai"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL"`
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`

	GoogleCredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	GoogleClientID        string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRefreshToken    string `envconfig:"GOOGLE_REFRESH_TOKEN"`
	GoogleAccessToken     string `envconfig:"GOOGLE_ACCESS_TOKEN"`
}

// Load reads .env from the working directory and from configDir (when
// set), then the environment. Variables already set in the environment
// win over .env files.
func Load(configDir string) (*Settings, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	if configDir != "" {
		_ = godotenv.Load(filepath.Join(configDir, ".env"))
	}

	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks enumerated settings and their dependencies.
func (s *Settings) Validate() error {
	if !slices.Contains([]string{StoreMemory, StoreSQLite, StorePostgres}, s.Store) {
		return fmt.Errorf("%w: RAGSYNC_STORE=%q", ErrInvalidSetting, s.Store)
	}
	if !slices.Contains([]string{StateFile, StateSQLite, StateBadger, StateMemory}, s.State) {
		return fmt.Errorf("%w: RAGSYNC_STATE=%q", ErrInvalidSetting, s.State)
	}
	if !slices.Contains([]string{EmbedderOpenAI, EmbedderGemini}, s.Embedder) {
		return fmt.Errorf("%w: RAGSYNC_EMBEDDER=%q", ErrInvalidSetting, s.Embedder)
	}
	if s.Store == StorePostgres && s.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL is required with RAGSYNC_STORE=postgres", ErrInvalidSetting)
	}
	return nil
}

// DataPath returns DataDir, defaulting to <configDir>/data.
func (s *Settings) DataPath(configDir string) string {
	if s.DataDir != "" {
		return s.DataDir
	}
	return filepath.Join(configDir, "data")
}

// EmbeddingAPIKey returns the key for the selected provider.
func (s *Settings) EmbeddingAPIKey() string {
	if s.Embedder == EmbedderGemini {
		return s.GeminiAPIKey
	}
	return s.OpenAIAPIKey
}
