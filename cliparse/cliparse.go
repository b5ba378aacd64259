package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseJSON     = "json"
)

const (
	DefaultPort    = 3318
	DefaultDataDir = "data"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	DataDir      string
	AdminKey     string
	// EmailSalt keys the voter pseudonyms written to logs. Empty means
	// the server picks one per process.
	EmailSalt      string
	AllowedOrigins []string
	LogLevel       slog.Level
}

// fileConfig is the optional YAML config file. Every field is optional.
type fileConfig struct {
	Port         int    `yaml:"port"`
	DatabaseURL  string `yaml:"database_url"`
	DatabaseType string `yaml:"database_type"`
	DataDir      string `yaml:"data_dir"`
	AdminKey     string `yaml:"admin_key"`
	EmailSalt    string `yaml:"email_salt"`
	// AllowedOrigins lists browser origins allowed cross-origin access
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

// first returns the first non-empty value
func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseFlags builds the config. Precedence: flags, then environment, then
// the YAML file named by -c or CONFIG_FILE, then defaults.
func ParseFlags(args []string) (Config, error) {
	var (
		cfg      Config
		file     string
		logLevel string
		origins  string
	)

	fs := flag.NewFlagSet("hirevote", flag.ContinueOnError)

	fs.StringVar(&file, "c", "", "YAML config file")

	// Network and storage config (can be CLI args, env or file)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or json)")
	fs.StringVar(&cfg.DataDir, "data-dir", "", "Data directory for the json backend")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&origins, "allowed-origins", "", "Comma-separated browser origins allowed cross-origin access (* for any)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin key for role management (prefer env)")
	fs.StringVar(&cfg.EmailSalt, "email-salt", "", "Salt for voter pseudonyms in logs (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	fc, err := loadFile(first(file, os.Getenv("CONFIG_FILE")))
	if err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else if fc.Port != 0 {
			cfg.Port = fc.Port
		} else {
			cfg.Port = DefaultPort
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}

	cfg.DatabaseType = strings.ToLower(first(cfg.DatabaseType, os.Getenv("DATABASE_TYPE"), fc.DatabaseType, DatabaseSQLite))
	switch cfg.DatabaseType {
	case DatabaseSQLite, DatabasePostgres, DatabaseJSON:
	default:
		return Config{}, fmt.Errorf("unsupported database type %q (use sqlite, postgres or json)", cfg.DatabaseType)
	}

	cfg.DatabaseURL = first(cfg.DatabaseURL, os.Getenv("DATABASE_URL"), fc.DatabaseURL)
	if cfg.DatabaseURL == "" && cfg.DatabaseType != DatabaseJSON {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	cfg.DataDir = first(cfg.DataDir, os.Getenv("DATA_DIR"), fc.DataDir, DefaultDataDir)

	if err := cfg.LogLevel.UnmarshalText([]byte(first(logLevel, os.Getenv("LOG_LEVEL"), fc.LogLevel, "info"))); err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	if v := first(origins, os.Getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = splitList(v)
	} else {
		cfg.AllowedOrigins = splitList(strings.Join(fc.AllowedOrigins, ","))
	}

	cfg.EmailSalt = first(cfg.EmailSalt, os.Getenv("EMAIL_SALT"), fc.EmailSalt)

	// Secrets - MUST be provided
	cfg.AdminKey = first(cfg.AdminKey, os.Getenv("ADMIN_KEY"), fc.AdminKey)
	if cfg.AdminKey == "" {
		return Config{}, errors.New("ADMIN_KEY required")
	}

	return cfg, nil
}
