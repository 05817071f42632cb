package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mediaconv.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := Load(path)
	require.NoError(t, err)

	assert.False(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "ffmpeg", cfg.Paths.FFmpeg)
	assert.Equal(t, "magick", cfg.Paths.Magick)
	assert.Equal(t, 4, cfg.Defaults.Padding)
	assert.InDelta(t, 24.0, cfg.Defaults.FrameRate, 0.001)
	assert.Equal(t, "local", cfg.Defaults.Method)
	assert.True(t, cfg.Defaults.DeleteExisting)
	assert.False(t, cfg.Defaults.BestEffortSequences)
	assert.Equal(t, "1920x1080", cfg.Resolution.VideoReview)
	assert.Equal(t, "movie", cfg.ExtMap[".mov"])
	assert.Equal(t, filepath.Join(home, ".local/share/mediaconv/spool.db"), cfg.Spool.Path)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[paths]
ffmpeg = "/opt/ffmpeg/bin/ffmpeg"

[defaults]
padding = 6
frame_rate = 25
method = "spool"

[ext_map]
"R3D" = "movie"
`)

	cfg, resolved, exists, err := Load(path)
	require.NoError(t, err)

	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.Paths.FFmpeg)
	assert.Equal(t, "magick", cfg.Paths.Magick)
	assert.Equal(t, 6, cfg.Defaults.Padding)
	assert.InDelta(t, 25.0, cfg.Defaults.FrameRate, 0.001)
	assert.Equal(t, "spool", cfg.Defaults.Method)
	assert.Equal(t, "movie", cfg.ExtMap[".r3d"], "keys are lowercased and dotted")
}

func TestLoad_ExtMapReplacesDefaults(t *testing.T) {
	path := writeConfig(t, `
[ext_map]
".mov" = "movie"
".exr" = "sequence"
`)

	cfg, _, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{".mov": "movie", ".exr": "sequence"}, cfg.ExtMap)
	_, ok := cfg.ExtMap[".mp4"]
	assert.False(t, ok, "extensions left out of the file are no longer mapped")
}

func TestLoad_FileWithoutExtMapKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[defaults]
padding = 6
`)

	cfg, _, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().ExtMap, cfg.ExtMap)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[paths]
ffmpeg = "/from/file/ffmpeg"

[metadata]
backend = "sqlite"
`)
	t.Setenv("MEDIACONV_FFMPEG", "/from/env/ffmpeg")
	t.Setenv("MEDIACONV_PADDING", "5")
	t.Setenv("MEDIACONV_LOG_FORMAT", "JSON")
	t.Setenv("AWS_ACCESS_KEY_ID", "access-key")

	cfg, _, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env/ffmpeg", cfg.Paths.FFmpeg)
	assert.Equal(t, 5, cfg.Defaults.Padding)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "sqlite", cfg.Metadata.Backend)
	assert.Equal(t, "access-key", cfg.Metadata.AWSAccessKeyID)
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("MEDIACONV_PADDING", "four")

	_, _, _, err := Load(path)
	require.Error(t, err)
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, "[defaults\npadding = ")

	_, _, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		cfg := Default()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("padding out of range", func(t *testing.T) {
		cfg := Default()
		cfg.Defaults.Padding = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidPadding)
	})

	t.Run("smedge without farm url", func(t *testing.T) {
		cfg := Default()
		cfg.Defaults.Method = "smedge"
		assert.ErrorIs(t, cfg.Validate(), ErrFarmURLRequired)
	})

	t.Run("s3 backend without bucket", func(t *testing.T) {
		cfg := Default()
		cfg.Metadata.Backend = "s3"
		cfg.Metadata.S3Region = "us-east-1"
		assert.ErrorIs(t, cfg.Validate(), ErrS3BucketRequired)
	})

	t.Run("s3 backend without region", func(t *testing.T) {
		cfg := Default()
		cfg.Metadata.Backend = "s3"
		cfg.Metadata.S3Bucket = "bucket"
		assert.ErrorIs(t, cfg.Validate(), ErrS3RegionRequired)
	})

	t.Run("unknown method", func(t *testing.T) {
		cfg := Default()
		cfg.Defaults.Method = "renderman"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad resolution", func(t *testing.T) {
		cfg := Default()
		cfg.Resolution.Thumb = "320:180"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad ext map category", func(t *testing.T) {
		cfg := Default()
		cfg.ExtMap[".mov"] = "film"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad farm url", func(t *testing.T) {
		cfg := Default()
		cfg.Farm.URL = "not a url"
		assert.Error(t, cfg.Validate())
	})
}

func TestConfig_S3Enabled(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		bucket   string
		region   string
		expected bool
	}{
		{"s3 with both set", "s3", "bucket", "region", true},
		{"s3 only bucket", "s3", "bucket", "", false},
		{"sqlite backend", "sqlite", "bucket", "region", false},
		{"neither set", "s3", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Metadata: Metadata{
				Backend:  tt.backend,
				S3Bucket: tt.bucket,
				S3Region: tt.region,
			}}
			assert.Equal(t, tt.expected, cfg.S3Enabled())
		})
	}
}

func TestConfig_String(t *testing.T) {
	cfg := Default()
	cfg.Farm.Token = "secret-token"
	cfg.Metadata.AWSSecretAccessKey = "secret-key"

	str := cfg.String()

	assert.Contains(t, str, "ffmpeg")
	assert.Contains(t, str, "local")
	assert.NotContains(t, str, "secret-token")
	assert.NotContains(t, str, "secret-key")
}

func TestConfig_NewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		cfg := &Config{Logging: Logging{Format: "json", Level: "info"}}
		var buf bytes.Buffer

		cfg.newLogger(&buf).Info("test message")

		assert.Contains(t, buf.String(), `"msg":"test message"`)
	})

	t.Run("text filters below level", func(t *testing.T) {
		cfg := &Config{Logging: Logging{Format: "text", Level: "warn"}}
		var buf bytes.Buffer
		logger := cfg.newLogger(&buf)

		logger.Info("hidden")
		logger.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
	})

	t.Run("stderr logger", func(t *testing.T) {
		cfg := Default()
		require.NotNil(t, cfg.NewLogger())
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"DEBUG", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input).String())
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/jobs/spool.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "jobs", "spool.db"), got)

	got, err = ExpandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, CreateSample(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(contents), "[defaults]"))

	// The sample must decode and match the compiled defaults.
	var cfg Config
	require.NoError(t, toml.Unmarshal(contents, &cfg))
	def := Default()
	assert.Equal(t, def.Defaults, cfg.Defaults)
	assert.Equal(t, def.Resolution, cfg.Resolution)
	assert.Equal(t, def.Title, cfg.Title)
	assert.Equal(t, def.ExtMap, cfg.ExtMap)
}
