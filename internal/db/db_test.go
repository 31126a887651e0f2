package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/config"
	"job-applier-go/internal/model"
)

func TestInit_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	gdb, err := Init(config.DatabaseConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: path}})
	require.NoError(t, err)
	defer Close(gdb)

	for _, table := range []any{&model.Applicant{}, &model.Job{}, &model.Application{}} {
		assert.True(t, gdb.Migrator().HasTable(table))
	}
	assert.True(t, gdb.Migrator().HasIndex(&model.Application{}, "idx_applications_job_applicant"))
	assert.True(t, gdb.Migrator().HasIndex(&model.Job{}, "idx_jobs_source_source_id"))
}

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := Init(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
