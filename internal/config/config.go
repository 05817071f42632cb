// Package config loads mediaconv configuration from a TOML file, applies
// environment overrides, and validates the result.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sethvargo/go-envconfig"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths locates the external tools and the mediaconv binary itself.
type Paths struct {
	FFmpeg string `toml:"ffmpeg" env:"MEDIACONV_FFMPEG, overwrite" validate:"required"`
	Magick string `toml:"magick" env:"MEDIACONV_MAGICK, overwrite" validate:"required"`
	// Self is the mediaconv executable used in remote re-invocations.
	// Empty means the running executable.
	Self string `toml:"self" env:"MEDIACONV_SELF, overwrite"`
}

// Defaults holds conversion defaults.
type Defaults struct {
	Padding             int     `toml:"padding" env:"MEDIACONV_PADDING, overwrite"`
	FrameRate           float64 `toml:"frame_rate" env:"MEDIACONV_FRAME_RATE, overwrite" validate:"gt=0"`
	Method              string  `toml:"method" env:"MEDIACONV_METHOD, overwrite" validate:"oneof=local smedge spool deadline"`
	DeleteExisting      bool    `toml:"delete_existing" env:"MEDIACONV_DELETE_EXISTING, overwrite"`
	BestEffortSequences bool    `toml:"best_effort_sequences" env:"MEDIACONV_BEST_EFFORT_SEQUENCES, overwrite"`
}

// Resolution holds named output resolutions in WIDTHxHEIGHT form.
type Resolution struct {
	Thumb       string `toml:"thumb" validate:"resolution"`
	ThumbCine   string `toml:"thumb_cine" validate:"resolution"`
	VideoReview string `toml:"video_review" validate:"resolution"`
	Title       string `toml:"title" validate:"resolution"`
}

// Title holds title card defaults.
type Title struct {
	Font       string `toml:"font" validate:"required"`
	FontSize   int    `toml:"font_size" validate:"gt=0"`
	FontColor  string `toml:"font_color" validate:"hexadecimal"`
	Background string `toml:"background" validate:"required"`
}

// Logging configures the slog handler.
type Logging struct {
	Format string `toml:"format" env:"MEDIACONV_LOG_FORMAT, overwrite" validate:"oneof=text json"`
	Level  string `toml:"level" env:"MEDIACONV_LOG_LEVEL, overwrite" validate:"oneof=debug info warn warning error"`
}

// Metadata selects where job descriptors are recorded.
type Metadata struct {
	Backend    string `toml:"backend" env:"MEDIACONV_METADATA_BACKEND, overwrite" validate:"oneof=none memory dir sqlite s3"`
	DirPath    string `toml:"dir_path" env:"MEDIACONV_METADATA_DIR_PATH, overwrite"`
	SQLitePath string `toml:"sqlite_path" env:"MEDIACONV_METADATA_SQLITE_PATH, overwrite"`
	S3Bucket   string `toml:"s3_bucket" env:"MEDIACONV_S3_BUCKET, overwrite"`
	S3Region   string `toml:"s3_region" env:"MEDIACONV_S3_REGION, overwrite"`
	S3Endpoint string `toml:"s3_endpoint" env:"MEDIACONV_S3_ENDPOINT, overwrite"`
	S3Prefix   string `toml:"s3_prefix" env:"MEDIACONV_S3_PREFIX, overwrite"`

	AWSAccessKeyID     string `toml:"-" env:"AWS_ACCESS_KEY_ID, overwrite"`
	AWSSecretAccessKey string `toml:"-" env:"AWS_SECRET_ACCESS_KEY, overwrite"`
}

// Farm configures the render-farm queue used by the smedge method.
type Farm struct {
	URL            string `toml:"url" env:"MEDIACONV_FARM_URL, overwrite" validate:"omitempty,url"`
	Token          string `toml:"token" env:"MEDIACONV_FARM_TOKEN, overwrite"`
	Pool           string `toml:"pool" env:"MEDIACONV_FARM_POOL, overwrite"`
	MaxRetries     int    `toml:"max_retries" validate:"gte=0,lte=10"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gt=0"`
}

// Spool configures the local spool queue.
type Spool struct {
	Path     string `toml:"path" env:"MEDIACONV_SPOOL_PATH, overwrite" validate:"required"`
	LockPath string `toml:"lock_path" env:"MEDIACONV_SPOOL_LOCK_PATH, overwrite" validate:"required"`
}

// Config encapsulates all configuration values for mediaconv.
//
// Configuration sections:
//   - Paths: tool binaries
//   - Defaults: padding, frame rate, method, output policy
//   - Resolution: named resolutions
//   - Title: title card defaults
//   - ExtMap: file extension to file type
//   - Logging: log format and level
//   - Metadata: descriptor sink backend
//   - Farm: render-farm queue
//   - Spool: local spool queue
type Config struct {
	Paths      Paths             `toml:"paths"`
	Defaults   Defaults          `toml:"defaults"`
	Resolution Resolution        `toml:"resolution"`
	Title      Title             `toml:"title"`
	ExtMap     map[string]string `toml:"ext_map" validate:"dive,oneof=movie sequence image"`
	Logging    Logging           `toml:"logging"`
	Metadata   Metadata          `toml:"metadata"`
	Farm       Farm              `toml:"farm"`
	Spool      Spool             `toml:"spool"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediaconv/config.toml")
}

// Load locates, parses, and validates a configuration file. Values are
// layered as compiled defaults, then the TOML file, then environment
// variables. It returns the config, the resolved path, and whether the
// file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// A file [ext_map] replaces the compiled map instead of merging into it.
		defaultExtMap := cfg.ExtMap
		cfg.ExtMap = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if cfg.ExtMap == nil {
			cfg.ExtMap = defaultExtMap
		}
	}

	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, "", false, fmt.Errorf("config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediaconv.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	ext := make(map[string]string, len(c.ExtMap))
	for k, v := range c.ExtMap {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if !strings.HasPrefix(key, ".") {
			key = "." + key
		}
		ext[key] = strings.ToLower(strings.TrimSpace(v))
	}
	c.ExtMap = ext

	var err error
	if c.Metadata.DirPath, err = expandPath(c.Metadata.DirPath); err != nil {
		return fmt.Errorf("metadata dir_path: %w", err)
	}
	if c.Metadata.SQLitePath, err = expandPath(c.Metadata.SQLitePath); err != nil {
		return fmt.Errorf("metadata sqlite_path: %w", err)
	}
	if c.Spool.Path, err = expandPath(c.Spool.Path); err != nil {
		return fmt.Errorf("spool path: %w", err)
	}
	if c.Spool.LockPath, err = expandPath(c.Spool.LockPath); err != nil {
		return fmt.Errorf("spool lock_path: %w", err)
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Farm.URL = strings.TrimRight(strings.TrimSpace(c.Farm.URL), "/")
	return nil
}

// S3Enabled returns true if the S3 metadata sink is selected and configured.
func (c *Config) S3Enabled() bool {
	return c.Metadata.Backend == "s3" && c.Metadata.S3Bucket != "" && c.Metadata.S3Region != ""
}

// NewLogger creates a structured logger based on the configuration.
// Logs go to stderr so stdout stays clean for command results.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stderr)
}

func (c *Config) newLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.Logging.Level)}

	var handler slog.Handler
	if strings.ToLower(c.Logging.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{FFmpeg: %s, Magick: %s, Method: %s, Padding: %d, FrameRate: %g, Metadata: %s, FarmURL: %s, Spool: %s, LogFormat: %s, LogLevel: %s}",
		c.Paths.FFmpeg,
		c.Paths.Magick,
		c.Defaults.Method,
		c.Defaults.Padding,
		c.Defaults.FrameRate,
		c.Metadata.Backend,
		c.Farm.URL,
		c.Spool.Path,
		c.Logging.Format,
		c.Logging.Level,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
