package model

import (
	"strings"
	"time"
)

// Applicant represents the job seeker applying to postings
type Applicant struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	FirstName       string    `json:"first_name" gorm:"type:varchar(255)"`
	LastName        string    `json:"last_name" gorm:"type:varchar(255)"`
	Email           string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone           string    `json:"phone" gorm:"type:varchar(64)"`
	Address         string    `json:"address" gorm:"type:varchar(512)"`
	ResumeFile      string    `json:"resume_file" gorm:"type:varchar(1024)"`
	CoverLetterFile string    `json:"cover_letter_file" gorm:"type:varchar(1024)"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for Applicant
func (Applicant) TableName() string {
	return "applicants"
}

// FullName joins the first and last name
func (a *Applicant) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// MergeFrom copies the mutable fields of src onto a. The primary key,
// the natural key and the timestamps are left untouched.
func (a *Applicant) MergeFrom(src *Applicant) {
	a.FirstName = src.FirstName
	a.LastName = src.LastName
	a.Phone = src.Phone
	a.Address = src.Address
	a.ResumeFile = src.ResumeFile
	a.CoverLetterFile = src.CoverLetterFile
}
