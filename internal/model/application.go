package model

import (
	"time"
)

// DocumentKind identifies a generated artifact
type DocumentKind string

const (
	KindCoverLetter DocumentKind = "cover_letter"
	KindResume      DocumentKind = "resume"
)

// Document is a generated artifact: the text it was built from, if any,
// and the file it was rendered to
type Document struct {
	Kind DocumentKind `json:"kind"`
	Text *string      `json:"text,omitempty"`
	Path string       `json:"path"`
}

// Email is a composed application email
type Email struct {
	To          string   `json:"to"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
}

// Application represents one attempt of an applicant to apply to a job
type Application struct {
	ID          uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	JobID       uint       `json:"job_id" gorm:"not null;uniqueIndex:idx_applications_job_applicant"`
	ApplicantID uint       `json:"applicant_id" gorm:"not null;uniqueIndex:idx_applications_job_applicant"`
	Applied     bool       `json:"applied"`
	AppliedAt   *time.Time `json:"applied_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Job       *Job       `json:"job,omitempty" gorm:"foreignKey:JobID"`
	Applicant *Applicant `json:"applicant,omitempty" gorm:"foreignKey:ApplicantID"`

	CoverLetter *Document `json:"cover_letter,omitempty" gorm:"-"`
	Resume      *Document `json:"resume,omitempty" gorm:"-"`
	Email       *Email    `json:"email,omitempty" gorm:"-"`
}

// TableName specifies the table name for Application
func (Application) TableName() string {
	return "applications"
}

// NewApplication links a job and an applicant that are already stored
func NewApplication(job *Job, applicant *Applicant) *Application {
	return &Application{
		JobID:       job.ID,
		ApplicantID: applicant.ID,
		Job:         job,
		Applicant:   applicant,
	}
}

// SetApplied records the outcome of a send attempt. AppliedAt is set
// exactly when applied is true and cleared otherwise.
func (a *Application) SetApplied(applied bool, now time.Time) {
	a.Applied = applied
	if applied {
		t := now
		a.AppliedAt = &t
		return
	}
	a.AppliedAt = nil
}

// MergeFrom copies the outcome fields of src onto a
func (a *Application) MergeFrom(src *Application) {
	a.Applied = src.Applied
	a.AppliedAt = src.AppliedAt
}

// Attachments returns the rendered file paths of the artifacts
func (a *Application) Attachments() []string {
	var paths []string
	for _, doc := range []*Document{a.CoverLetter, a.Resume} {
		if doc != nil && doc.Path != "" {
			paths = append(paths, doc.Path)
		}
	}
	return paths
}
