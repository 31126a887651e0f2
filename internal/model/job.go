package model

import (
	"time"
)

// SalaryType is the period a salary amount refers to
type SalaryType string

const (
	SalaryHourly   SalaryType = "hourly"
	SalaryAnnually SalaryType = "annually"
)

// Workspace is the work location mode of a posting
type Workspace string

const (
	WorkspaceOnsite Workspace = "onsite"
	WorkspaceHybrid Workspace = "hybrid"
)

// Job represents a discovered job posting
type Job struct {
	ID             uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	Link           string      `json:"link" gorm:"type:varchar(1024)"`
	SourceID       string      `json:"source_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_jobs_source_source_id"`
	Source         string      `json:"source" gorm:"type:varchar(64);not null;uniqueIndex:idx_jobs_source_source_id"`
	PostedOnSource bool        `json:"posted_on_source"`
	Title          string      `json:"title" gorm:"type:varchar(512)"`
	Description    string      `json:"description" gorm:"type:text"`
	Date           *time.Time  `json:"date"`
	Business       string      `json:"business" gorm:"type:varchar(512)"`
	Location       string      `json:"location" gorm:"type:varchar(512)"`
	Salary         *float64    `json:"salary"`
	SalaryType     *SalaryType `json:"salary_type" gorm:"type:varchar(16)"`
	Workspace      *Workspace  `json:"workspace" gorm:"type:varchar(16)"`
	Email          string      `json:"email" gorm:"type:varchar(255)"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      *time.Time  `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// TableName specifies the table name for Job
func (Job) TableName() string {
	return "jobs"
}

// MergeFrom copies the mutable fields of src onto j. UpdatedAt is only
// copied when src carries one.
func (j *Job) MergeFrom(src *Job) {
	j.Link = src.Link
	j.PostedOnSource = src.PostedOnSource
	j.Title = src.Title
	j.Description = src.Description
	j.Date = src.Date
	j.Business = src.Business
	j.Location = src.Location
	j.Salary = src.Salary
	j.SalaryType = src.SalaryType
	j.Workspace = src.Workspace
	j.Email = src.Email
	if src.UpdatedAt != nil {
		j.UpdatedAt = src.UpdatedAt
	}
}
