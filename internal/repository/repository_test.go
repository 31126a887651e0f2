package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/config"
	"job-applier-go/internal/db"
	"job-applier-go/internal/model"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	gdb, err := db.Init(config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(gdb) })
	return New(gdb)
}

func TestUpsertApplicant_KeyedByEmail(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	first := &model.Applicant{Email: "jane@example.com", FirstName: "Jane"}
	require.NoError(t, repo.UpsertApplicant(ctx, first))
	assert.NotZero(t, first.ID)

	second := &model.Applicant{Email: "jane@example.com", FirstName: "Janet", Phone: "555"}
	require.NoError(t, repo.UpsertApplicant(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	var count int64
	repo.DB().Model(&model.Applicant{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var stored model.Applicant
	require.NoError(t, repo.DB().First(&stored, first.ID).Error)
	assert.Equal(t, "Janet", stored.FirstName)
	assert.Equal(t, "555", stored.Phone)
}

func TestUpsertJob_KeyedBySourceAndSourceID(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	stamp := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first := &model.Job{Source: "jobbank", SourceID: "123", Title: "Developer", UpdatedAt: &stamp}
	require.NoError(t, repo.UpsertJob(ctx, first))
	require.NotZero(t, first.ID)

	second := &model.Job{Source: "jobbank", SourceID: "123", Title: "Senior developer", Email: "hr@example.com"}
	require.NoError(t, repo.UpsertJob(ctx, second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Senior developer", second.Title)
	if assert.NotNil(t, second.UpdatedAt) {
		assert.True(t, stamp.Equal(*second.UpdatedAt))
	}

	other := &model.Job{Source: "other", SourceID: "123", Title: "Tester"}
	require.NoError(t, repo.UpsertJob(ctx, other))
	assert.NotEqual(t, first.ID, other.ID)

	var count int64
	repo.DB().Model(&model.Job{}).Count(&count)
	assert.Equal(t, int64(2), count)

	var stored model.Job
	require.NoError(t, repo.DB().First(&stored, first.ID).Error)
	assert.Equal(t, "Senior developer", stored.Title)
	assert.Equal(t, "hr@example.com", stored.Email)
}

func seed(t *testing.T, repo *Repository) (*model.Job, *model.Applicant) {
	t.Helper()
	ctx := context.Background()
	applicant := &model.Applicant{Email: "jane@example.com"}
	require.NoError(t, repo.UpsertApplicant(ctx, applicant))
	job := &model.Job{Source: "jobbank", SourceID: "1"}
	require.NoError(t, repo.UpsertJob(ctx, job))
	return job, applicant
}

func TestUpsertApplication_KeepsArtifacts(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	job, applicant := seed(t, repo)

	app := model.NewApplication(job, applicant)
	app.Email = &model.Email{To: "hr@example.com"}
	require.NoError(t, repo.UpsertApplication(ctx, app))
	require.NotZero(t, app.ID)
	assert.NotNil(t, app.Email)

	again := model.NewApplication(job, applicant)
	again.SetApplied(true, time.Now())
	require.NoError(t, repo.UpsertApplication(ctx, again))
	assert.Equal(t, app.ID, again.ID)

	var count int64
	repo.DB().Model(&model.Application{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCheckExistingApplication(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	job, applicant := seed(t, repo)

	existing, err := repo.CheckExistingApplication(ctx, job, applicant)
	require.NoError(t, err)
	assert.Nil(t, existing)

	failed := model.NewApplication(job, applicant)
	failed.SetApplied(false, time.Now())
	require.NoError(t, repo.UpsertApplication(ctx, failed))

	existing, err = repo.CheckExistingApplication(ctx, job, applicant)
	require.NoError(t, err)
	assert.Nil(t, existing)

	applied := model.NewApplication(job, applicant)
	applied.SetApplied(true, time.Now())
	require.NoError(t, repo.UpsertApplication(ctx, applied))

	existing, err = repo.CheckExistingApplication(ctx, job, applicant)
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, applied.ID, existing.ID)
	assert.True(t, existing.Applied)
	assert.NotNil(t, existing.AppliedAt)
}

func TestUpsertJob_ClosedDatabase(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, db.Close(repo.DB()))

	job := &model.Job{Source: "jobbank", SourceID: "1"}
	err := repo.UpsertJob(context.Background(), job)
	assert.Error(t, err)
	assert.Zero(t, job.ID)
}

func TestListAndGetApplications(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	job, applicant := seed(t, repo)

	app := model.NewApplication(job, applicant)
	require.NoError(t, repo.UpsertApplication(ctx, app))

	jobs, total, err := repo.ListJobs(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, jobs, 1)

	apps, total, err := repo.ListApplications(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, apps, 1)
	require.NotNil(t, apps[0].Job)
	assert.Equal(t, "1", apps[0].Job.SourceID)

	got, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jane@example.com", got.Applicant.Email)

	missing, err := repo.GetApplication(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPing(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, repo.Ping(context.Background()))

	require.NoError(t, db.Close(repo.DB()))
	assert.Error(t, repo.Ping(context.Background()))
}
