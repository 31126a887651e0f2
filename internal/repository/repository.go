package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"job-applier-go/internal/model"
)

// Repository persists applicants, jobs and applications. Every upsert
// looks the row up by its natural key, merges the incoming fields onto it
// and reflects the stored id and timestamps back onto the caller's value.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying connection for health checks
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// UpsertApplicant inserts or updates an applicant keyed by email
func (r *Repository) UpsertApplicant(ctx context.Context, applicant *model.Applicant) error {
	var stored model.Applicant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("email = ?", applicant.Email).First(&stored)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			stored = *applicant
			return tx.Create(&stored).Error
		}
		if result.Error != nil {
			return result.Error
		}
		stored.MergeFrom(applicant)
		return tx.Save(&stored).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save applicant %s: %w", applicant.Email, err)
	}

	*applicant = stored
	return nil
}

// UpsertJob inserts or updates a job keyed by (source, source_id)
func (r *Repository) UpsertJob(ctx context.Context, job *model.Job) error {
	var stored model.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("source = ? AND source_id = ?", job.Source, job.SourceID).First(&stored)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			stored = *job
			return tx.Create(&stored).Error
		}
		if result.Error != nil {
			return result.Error
		}
		stored.MergeFrom(job)
		return tx.Save(&stored).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save job %s/%s: %w", job.Source, job.SourceID, err)
	}

	*job = stored
	return nil
}

// UpsertApplication inserts or updates an application keyed by
// (job_id, applicant_id). Only the stored columns are reflected back, so
// the generated artifacts attached to app survive the call.
func (r *Repository) UpsertApplication(ctx context.Context, app *model.Application) error {
	if app.Job != nil && app.JobID == 0 {
		app.JobID = app.Job.ID
	}
	if app.Applicant != nil && app.ApplicantID == 0 {
		app.ApplicantID = app.Applicant.ID
	}

	var stored model.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("job_id = ? AND applicant_id = ?", app.JobID, app.ApplicantID).First(&stored)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			stored = model.Application{
				JobID:       app.JobID,
				ApplicantID: app.ApplicantID,
				Applied:     app.Applied,
				AppliedAt:   app.AppliedAt,
			}
			return tx.Omit(clause.Associations).Create(&stored).Error
		}
		if result.Error != nil {
			return result.Error
		}
		stored.MergeFrom(app)
		return tx.Omit(clause.Associations).Save(&stored).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save application for job %d: %w", app.JobID, err)
	}

	app.ID = stored.ID
	app.CreatedAt = stored.CreatedAt
	app.UpdatedAt = stored.UpdatedAt
	return nil
}

// CheckExistingApplication returns the successful application of applicant
// to job, or nil when there is none
func (r *Repository) CheckExistingApplication(ctx context.Context, job *model.Job, applicant *model.Applicant) (*model.Application, error) {
	var app model.Application
	result := r.db.WithContext(ctx).
		Where("job_id = ? AND applicant_id = ? AND applied = ? AND applied_at IS NOT NULL", job.ID, applicant.ID, true).
		First(&app)
	if result.Error == nil {
		return &app, nil
	}
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("database error checking application: %w", result.Error)
}

// ListJobs returns a page of jobs, most recently created first
func (r *Repository) ListJobs(ctx context.Context, offset, limit int) ([]model.Job, int64, error) {
	var jobs []model.Job
	var total int64

	if err := r.db.WithContext(ctx).Model(&model.Job{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&jobs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get jobs: %w", err)
	}
	return jobs, total, nil
}

// ListApplications returns a page of applications with their job and applicant
func (r *Repository) ListApplications(ctx context.Context, offset, limit int) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64

	if err := r.db.WithContext(ctx).Model(&model.Application{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}
	if err := r.db.WithContext(ctx).Preload("Job").Preload("Applicant").
		Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&apps).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get applications: %w", err)
	}
	return apps, total, nil
}

// GetApplication returns one application, or nil when it does not exist
func (r *Repository) GetApplication(ctx context.Context, id uint) (*model.Application, error) {
	var app model.Application
	result := r.db.WithContext(ctx).Preload("Job").Preload("Applicant").First(&app, id)
	if result.Error == nil {
		return &app, nil
	}
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to get application: %w", result.Error)
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
