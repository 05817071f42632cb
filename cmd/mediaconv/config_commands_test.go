package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "mediaconv.toml")

	stdout, err := runRoot(t, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, stdout, target)

	body, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(body), "[defaults]")

	_, err = runRoot(t, "config", "init", "--path", target)
	assert.ErrorContains(t, err, "already exists")

	_, err = runRoot(t, "config", "init", "--path", target, "--overwrite")
	assert.NoError(t, err)
}

func TestConfigShowMasksToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "mediaconv.toml")
	require.NoError(t, os.WriteFile(path, []byte("[farm]\nurl = \"http://farm:8080\"\ntoken = \"s3cret\"\n"), 0o644))

	stdout, err := runRoot(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# loaded from "+path)
	assert.Contains(t, stdout, "http://farm:8080")
	assert.NotContains(t, stdout, "s3cret")
}

func TestLogLevelFlagIsValidated(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := runRoot(t, "--log-level", "loud", "config", "show")
	assert.Error(t, err)
}
