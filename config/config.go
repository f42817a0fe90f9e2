package config

import "os"

// Config aggregates runtime settings for the console and tools.
type Config struct {
	DataDir string
	Logging LoggingConfig
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

const (
	defaultDataDir       = "data"
	defaultLoggingLevel  = "warn"
	defaultLoggingFormat = "text"
)

// Load reads configuration from environment variables, applying defaults.
func Load() Config {
	return Config{
		DataDir: valueOrDefault("BIBLIOTECH_DATA_DIR", defaultDataDir),
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format: valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
		},
	}
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
