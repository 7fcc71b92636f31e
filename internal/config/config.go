package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	PublicURL       string        `env:"PUBLIC_URL"`
	DefaultProvider string        `env:"DEFAULT_PROVIDER" envDefault:"openai"`
	DefaultModel    string        `env:"DEFAULT_MODEL" envDefault:"gpt-4o"`
	OpenAIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"`
	OllamaHost      string        `env:"OLLAMA_HOST" envDefault:"http://localhost:11434"`
	GeminiKey       string        `env:"GEMINI_API_KEY"`
	OracleTimeout   time.Duration `env:"ORACLE_TIMEOUT" envDefault:"15s"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	GuessJudge      string        `env:"GUESS_JUDGE" envDefault:"match"`
	LocationsFile   string        `env:"LOCATIONS_FILE"`
	ExportEnabled   bool          `env:"EXPORT_ENABLED" envDefault:"false"`
	ExportFile      string        `env:"EXPORT_FILE" envDefault:"./pinpoint-results.txt"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile         string        `env:"LOG_FILE"`
}

// FromEnv loads .env files (if present) into the environment and parses it.
// Variables that are already set win over .env entries.
func FromEnv(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.GuessJudge) {
	case "match", "random":
	default:
		return fmt.Errorf("invalid GUESS_JUDGE %q (want match or random)", c.GuessJudge)
	}
	switch strings.ToLower(c.DefaultProvider) {
	case "openai", "ollama", "gemini":
	default:
		return fmt.Errorf("invalid DEFAULT_PROVIDER %q", c.DefaultProvider)
	}
	if c.OracleTimeout <= 0 {
		return errors.New("ORACLE_TIMEOUT must be positive")
	}
	return nil
}
