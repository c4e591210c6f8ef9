// Package config loads service configuration from config.yaml and the
// environment.
package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/oneiriclabs/reverie/internal/api/clipdrop"
	"github.com/oneiriclabs/reverie/internal/domain"
)

type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Storage       StorageConfig       `koanf:"storage"`
	Transcription TranscriptionConfig `koanf:"transcription"`
	Chat          ChatConfig          `koanf:"chat"`
	Image         ImageConfig         `koanf:"image"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, file
	SQLite SQLiteConfig `koanf:"sqlite"`
	File   FileConfig   `koanf:"file"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type FileConfig struct {
	Path string `koanf:"path"`
}

type TranscriptionConfig struct {
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`
	Model    string `koanf:"model"`
	Language string `koanf:"language"`
}

type ChatConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

type ImageConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Variant string `koanf:"variant"` // url, bytes

	Style          string `koanf:"style"`
	NegativePrompt string `koanf:"negative_prompt"`
	Width          int    `koanf:"width"`
	Height         int    `koanf:"height"`
	Steps          int    `koanf:"steps"`
	GuidanceScale  int    `koanf:"guidance_scale"`
}

// Params returns the optional generation parameters, or nil when none are
// set.
func (c ImageConfig) Params() *clipdrop.GenerationParams {
	p := &clipdrop.GenerationParams{
		Style:          c.Style,
		NegativePrompt: c.NegativePrompt,
		Width:          c.Width,
		Height:         c.Height,
		Steps:          c.Steps,
		GuidanceScale:  c.GuidanceScale,
	}
	if *p == (clipdrop.GenerationParams{}) {
		return nil
	}
	return p
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load from config.yaml file first
	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider("REVERIE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "REVERIE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	defaults := map[string]any{
		"server.port":            8090,
		"storage.type":           "sqlite",
		"storage.sqlite.path":    "./data/dreams.db",
		"storage.file.path":      "./data/dream_history.json",
		"transcription.model":    "whisper-large-v3-turbo",
		"transcription.language": "fr",
		"chat.model":             "mistral-large-latest",
		"image.variant":          "url",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in API keys
	cfg.Transcription.APIKey = substituteEnvVars(cfg.Transcription.APIKey)
	cfg.Chat.APIKey = substituteEnvVars(cfg.Chat.APIKey)
	cfg.Image.APIKey = substituteEnvVars(cfg.Image.APIKey)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks the settings that must be present before any network call
// is attempted.
func (c *Config) Validate() error {
	if c.Transcription.APIKey == "" {
		return domain.ErrConfiguration("transcription.api_key is not set")
	}
	if c.Chat.APIKey == "" {
		return domain.ErrConfiguration("chat.api_key is not set")
	}
	if c.Image.APIKey == "" {
		return domain.ErrConfiguration("image.api_key is not set")
	}
	switch c.Storage.Type {
	case "sqlite", "file":
	default:
		return domain.ErrConfiguration("storage.type must be sqlite or file")
	}
	switch c.Image.Variant {
	case "url", "bytes":
	default:
		return domain.ErrConfiguration("image.variant must be url or bytes")
	}
	return nil
}
