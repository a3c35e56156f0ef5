package configuration

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgadmin/pkg/logging"
)

const Production = "production"

var DefaultEnvFiles = []string{".env", ".env.local"}

var singleton = sync.OnceValue(func() *Configuration {
	c, err := Load(DefaultEnvFiles)
	if err != nil {
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type APIOptions struct {
	BaseURL       string        `env:"ORGS_API_URL" envDefault:"http://localhost:8000/api/orgs"`
	Token         string        `env:"ORGS_API_TOKEN"`
	Timeout       time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	MaxRetries    int           `env:"API_MAX_RETRIES" envDefault:"2"`
	MaxBackoff    time.Duration `env:"API_RETRY_MAX_BACKOFF" envDefault:"5s"`
	RequestHeader string        `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
}

func (a *APIOptions) Validate() error {
	u, err := url.Parse(strings.TrimSpace(a.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid ORGS_API_URL=%q", a.BaseURL)
	}
	if a.Timeout < 0 {
		return fmt.Errorf("API_TIMEOUT must be non-negative, got %s", a.Timeout)
	}
	if a.MaxRetries < 0 || a.MaxRetries > 10 {
		return fmt.Errorf("API_MAX_RETRIES must be between 0 and 10, got %d", a.MaxRetries)
	}
	return nil
}

type RateLimitOptions struct {
	Enabled bool `env:"API_RATE_LIMIT_ENABLED" envDefault:"false"`
	RPS     int  `env:"API_RATE_LIMIT_RPS" envDefault:"20"`
}

// Validate checks the client side rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.RPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive, got %d", r.RPS)
	}
	if r.RPS > 10000 {
		return fmt.Errorf("rate limit RPS too high, maximum is 10,000, got %d", r.RPS)
	}
	return nil
}

// TracingOptions configure the OTLP/HTTP span exporter.
type TracingOptions struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"true"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func (o *TracingOptions) Validate() error {
	if o.SampleRatio < 0 || o.SampleRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATIO must be within [0, 1], got %v", o.SampleRatio)
	}
	return nil
}

type Configuration struct {
	API       APIOptions
	RateLimit RateLimitOptions
	Tracing   TracingOptions

	PageSize        int    `env:"PAGE_SIZE" envDefault:"10"`
	OptionsPageSize int    `env:"OPTIONS_PAGE_SIZE" envDefault:"100"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath         string `env:"LOG_PATH"`
	// Drop list responses that arrive after a newer load was issued for the same collection.
	DiscardStaleResponses bool   `env:"DISCARD_STALE_RESPONSES" envDefault:"false"`
	GoAppEnvironment      string `env:"GO_APP_ENV" envDefault:"development"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

// Load reads the given env files (missing ones are skipped), parses the environment and
// builds the logger. Unlike Use it never panics.
func Load(envFiles []string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		for _, file := range envFiles {
			log.Printf("configuration: no env file at %s", filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	if strings.TrimSpace(c.LogPath) == "" {
		c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
		return nil
	}
	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger
	return nil
}

func (c *Configuration) validate() error {
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api configuration error: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing configuration error: %w", err)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.OptionsPageSize <= 0 {
		return fmt.Errorf("OPTIONS_PAGE_SIZE must be positive, got %d", c.OptionsPageSize)
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
		c.logFile = nil
	}
}
