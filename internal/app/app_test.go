package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/config"
	"job-applier-go/internal/db"
	"job-applier-go/internal/metrics"
	"job-applier-go/internal/repository"
)

func TestParseFlags(t *testing.T) {
	opts, err := ParseFlags([]string{"--config", "settings.yaml", "--once"})
	require.NoError(t, err)
	assert.Equal(t, "settings.yaml", opts.ConfigPath)
	assert.Equal(t, ".env", opts.EnvFile)
	assert.True(t, opts.Once)

	opts, err = ParseFlags([]string{"-c", "other.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "other.yaml", opts.ConfigPath)
	assert.False(t, opts.Once)

	_, err = ParseFlags([]string{"--unknown"})
	assert.Error(t, err)
}

func TestNewApplier(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	dir := t.TempDir()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
applicant:
  first_name: Jane
  last_name: Doe
  contacts:
    email: jane@example.com
job:
  title: developer
  location: Toronto
database:
  sqlite:
    path: `+filepath.Join(dir, "test.db")+`
converter:
  enabled: false
email:
  imap:
    enabled: true
    user: jane@example.com
`), 0o600))

	settings, err := config.Load(path)
	require.NoError(t, err)

	gdb, err := db.Init(settings.Config().Database)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(gdb) })

	applier, err := NewApplier(context.Background(), settings, repository.New(gdb), metrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	assert.NotNil(t, applier)
}

func TestNewApplier_UnknownFinder(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	dir := t.TempDir()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
applicant:
  contacts:
    email: jane@example.com
job:
  finders: [jobbank, monster]
database:
  sqlite:
    path: `+filepath.Join(dir, "test.db")+`
`), 0o600))

	settings, err := config.Load(path)
	require.NoError(t, err)

	_, err = NewApplier(context.Background(), settings, nil, metrics.NewMetrics(prometheus.NewRegistry()))
	assert.ErrorContains(t, err, "monster")
}
