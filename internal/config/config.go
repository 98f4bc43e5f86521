package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config holds runtime settings for the server.
type Config struct {
	ServerAddr             string   `toml:"server_addr"`
	VideosDir              string   `toml:"videos_dir"`
	DefaultContentType     string   `toml:"default_content_type"`
	StreamChunkBytes       int      `toml:"stream_chunk_bytes"`
	StreamWriteTimeoutSecs int      `toml:"stream_write_timeout_seconds"`
	ShutdownTimeoutSecs    int      `toml:"shutdown_timeout_seconds"`
	CORSAllowedOrigins     []string `toml:"cors_allowed_origins"`

	Logging Logging `toml:"logging"`
}

// Logging holds logger settings.
type Logging struct {
	Type   string `toml:"type"`
	Output string `toml:"output"`
	Target string `toml:"target"`
	Level  string `toml:"level"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		ServerAddr:             ":8080",
		VideosDir:              "./videos",
		DefaultContentType:     "video/mp4",
		StreamChunkBytes:       8 * 1024,
		StreamWriteTimeoutSecs: 30,
		ShutdownTimeoutSecs:    10,
		CORSAllowedOrigins:     []string{"*"},
		Logging: Logging{
			Type:   "text",
			Output: "console",
			Target: "/var/log",
			Level:  "info",
		},
	}
}

// Load reads the optional CONFIG_FILE and then environment variables.
// Environment values take precedence over the file.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.ServerAddr = getEnv("SERVER_ADDR", cfg.ServerAddr)
	cfg.VideosDir = getEnv("VIDEOS_DIR", cfg.VideosDir)
	cfg.DefaultContentType = getEnv("DEFAULT_CONTENT_TYPE", cfg.DefaultContentType)
	cfg.StreamChunkBytes = getEnvInt("STREAM_CHUNK_BYTES", cfg.StreamChunkBytes)
	cfg.StreamWriteTimeoutSecs = getEnvInt("STREAM_WRITE_TIMEOUT_SECONDS", cfg.StreamWriteTimeoutSecs)
	cfg.ShutdownTimeoutSecs = getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeoutSecs)
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.CORSAllowedOrigins = splitList(origins)
	}

	cfg.Logging.Type = getEnv("LOGGING_TYPE", cfg.Logging.Type)
	cfg.Logging.Output = getEnv("LOGGING_OUTPUT", cfg.Logging.Output)
	cfg.Logging.Target = getEnv("LOGGING_TARGET", cfg.Logging.Target)
	cfg.Logging.Level = getEnv("LOGGING_LEVEL", cfg.Logging.Level)

	return cfg, nil
}

// StreamWriteTimeout is the per-chunk write deadline of the streamer.
func (c Config) StreamWriteTimeout() time.Duration {
	return time.Duration(c.StreamWriteTimeoutSecs) * time.Second
}

// ShutdownTimeout bounds graceful shutdown.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open configuration file")
	}
	defer file.Close()

	var fileCfg Config
	if err := toml.NewDecoder(file).Decode(&fileCfg); err != nil {
		return errors.Wrapf(err, "failed to decode TOML config %s", path)
	}
	cfg.merge(fileCfg)
	return nil
}

// merge copies the non-zero settings of other onto c.
func (c *Config) merge(other Config) {
	setString(&c.ServerAddr, other.ServerAddr)
	setString(&c.VideosDir, other.VideosDir)
	setString(&c.DefaultContentType, other.DefaultContentType)
	setInt(&c.StreamChunkBytes, other.StreamChunkBytes)
	setInt(&c.StreamWriteTimeoutSecs, other.StreamWriteTimeoutSecs)
	setInt(&c.ShutdownTimeoutSecs, other.ShutdownTimeoutSecs)
	if len(other.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = other.CORSAllowedOrigins
	}
	setString(&c.Logging.Type, other.Logging.Type)
	setString(&c.Logging.Output, other.Logging.Output)
	setString(&c.Logging.Target, other.Logging.Target)
	setString(&c.Logging.Level, other.Logging.Level)
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func setInt(dst *int, value int) {
	if value > 0 {
		*dst = value
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out int
	_, err := fmt.Sscanf(value, "%d", &out)
	if err != nil || out <= 0 {
		return fallback
	}
	return out
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
