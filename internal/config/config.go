// Package config reads the settings of all three binaries from the
// environment. A .env file in the working directory is loaded first when
// present; variables already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is the fallback signing key. Validate rejects it when
// APP_ENV=production.
const DevJWTSecret = "dev_secret_change_me"

// Config holds all application configuration.
type Config struct {
	Env          string
	Log          LogConfig
	Orchestrator OrchestratorConfig
	WordService  WordServiceConfig
	Accounts     AccountsConfig
}

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level  string
	Pretty bool
}

// OrchestratorConfig configures cmd/orchestrator.
type OrchestratorConfig struct {
	Port              string
	Workers           int           // concurrent requests; the rest queue
	Backlog           int           // queued requests beyond Workers before 429
	RequestTimeout    time.Duration // whole HTTP handler
	RPCTimeout        time.Duration // one call to the word or account service
	JWTSecret         string
	TokenTTL          time.Duration
	IdempotencyTTL    time.Duration // 0 keeps replies until the session ends
	IdempotencyGrace  time.Duration
	IdempotencySweep  time.Duration
	WordServiceAddr   string
	AccountServiceURL string
	ClientOrigin      string // CORS origin allowed to send credentials
}

// WordServiceConfig configures cmd/wordservice.
type WordServiceConfig struct {
	Addr      string
	DBPath    string
	WordsFile string // seed list for an empty database; embedded list if empty
}

// AccountsConfig configures cmd/accounts.
type AccountsConfig struct {
	Port           string
	DBPath         string
	RequestTimeout time.Duration
	LoginIdle      time.Duration // logins without heartbeats for this long expire; 0 disables
	LoginSweep     time.Duration
}

// Load reads configuration from .env and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
		Orchestrator: OrchestratorConfig{
			Port:              getEnv("PORT", "5175"),
			Workers:           getEnvInt("WORKERS", 20),
			Backlog:           getEnvInt("BACKLOG", 200),
			RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
			RPCTimeout:        getEnvDuration("RPC_TIMEOUT", 5*time.Second),
			JWTSecret:         getEnv("JWT_SECRET", DevJWTSecret),
			TokenTTL:          getEnvDuration("TOKEN_TTL", 24*time.Hour),
			IdempotencyTTL:    getEnvDuration("IDEMPOTENCY_TTL", 0),
			IdempotencyGrace:  getEnvDuration("IDEMPOTENCY_GRACE", 5*time.Minute),
			IdempotencySweep:  getEnvDuration("IDEMPOTENCY_SWEEP", time.Minute),
			WordServiceAddr:   getEnv("WORD_SERVICE_ADDR", "127.0.0.1:5599"),
			AccountServiceURL: getEnv("ACCOUNT_SERVICE_URL", "http://127.0.0.1:5176"),
			ClientOrigin:      getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		},
		WordService: WordServiceConfig{
			Addr:      getEnv("WORD_SERVICE_LISTEN", ":5599"),
			DBPath:    getEnv("WORDS_DB_PATH", "./data/words.db"),
			WordsFile: getEnv("WORDS_FILE", ""),
		},
		Accounts: AccountsConfig{
			Port:           getEnv("ACCOUNTS_PORT", "5176"),
			DBPath:         getEnv("ACCOUNTS_DB_PATH", "./data/accounts.db"),
			RequestTimeout: getEnvDuration("ACCOUNTS_REQUEST_TIMEOUT", 10*time.Second),
			LoginIdle:      getEnvDuration("LOGIN_IDLE_TIMEOUT", 2*time.Minute),
			LoginSweep:     getEnvDuration("LOGIN_SWEEP_INTERVAL", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	o := c.Orchestrator
	switch {
	case o.Port == "":
		return fmt.Errorf("PORT cannot be empty")
	case o.Workers <= 0:
		return fmt.Errorf("WORKERS must be > 0")
	case o.Backlog < 0:
		return fmt.Errorf("BACKLOG cannot be negative")
	case o.RPCTimeout <= 0:
		return fmt.Errorf("RPC_TIMEOUT must be > 0")
	case o.RequestTimeout < o.RPCTimeout:
		return fmt.Errorf("REQUEST_TIMEOUT must be >= RPC_TIMEOUT")
	case o.JWTSecret == "":
		return fmt.Errorf("JWT_SECRET cannot be empty")
	case c.IsProduction() && o.JWTSecret == DevJWTSecret:
		return fmt.Errorf("JWT_SECRET must be set in production")
	case o.TokenTTL <= 0:
		return fmt.Errorf("TOKEN_TTL must be > 0")
	case o.IdempotencyTTL < 0 || o.IdempotencyGrace < 0 || o.IdempotencySweep < 0:
		return fmt.Errorf("IDEMPOTENCY_* durations cannot be negative")
	case o.WordServiceAddr == "":
		return fmt.Errorf("WORD_SERVICE_ADDR cannot be empty")
	case o.AccountServiceURL == "":
		return fmt.Errorf("ACCOUNT_SERVICE_URL cannot be empty")
	}
	if c.WordService.Addr == "" || c.WordService.DBPath == "" {
		return fmt.Errorf("WORD_SERVICE_LISTEN and WORDS_DB_PATH cannot be empty")
	}
	if c.Accounts.Port == "" || c.Accounts.DBPath == "" {
		return fmt.Errorf("ACCOUNTS_PORT and ACCOUNTS_DB_PATH cannot be empty")
	}
	if c.Accounts.RequestTimeout <= 0 {
		return fmt.Errorf("ACCOUNTS_REQUEST_TIMEOUT must be > 0")
	}
	return nil
}

// IsProduction reports whether APP_ENV=production.
func (c *Config) IsProduction() bool { return strings.EqualFold(c.Env, "production") }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("1m30s") or plain seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
