// Package auditlog appends run records to CSV files, one file per record
// kind. The header row is written only when a file is empty.
package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"job-applier-go/internal/config"
	"job-applier-go/internal/model"
)

const timeLayout = time.RFC3339

// JobRecord is one row of the jobs audit file
type JobRecord struct {
	ID             uint   `csv:"id"`
	Link           string `csv:"link"`
	SourceID       string `csv:"source_id"`
	Source         string `csv:"source"`
	PostedOnSource bool   `csv:"posted_on_source"`
	Title          string `csv:"title"`
	Description    string `csv:"description"`
	Date           string `csv:"date"`
	Business       string `csv:"business"`
	Location       string `csv:"location"`
	Salary         string `csv:"salary"`
	SalaryType     string `csv:"salary_type"`
	Workspace      string `csv:"workspace"`
	Email          string `csv:"email"`
}

// ApplicantRecord is one row of the applicants audit file
type ApplicantRecord struct {
	ID              uint   `csv:"id"`
	FirstName       string `csv:"first_name"`
	LastName        string `csv:"last_name"`
	Email           string `csv:"email"`
	Phone           string `csv:"phone"`
	Address         string `csv:"address"`
	ResumeFile      string `csv:"resume_file"`
	CoverLetterFile string `csv:"cover_letter_file"`
}

// CoverLetterRecord is one row of the cover letters audit file
type CoverLetterRecord struct {
	Applicant      string `csv:"job_applicant"`
	ApplicantEmail string `csv:"job_applicant_email"`
	JobSource      string `csv:"job_source"`
	JobSourceID    string `csv:"job_source_id"`
	Text           string `csv:"cover_letter_text"`
	File           string `csv:"cover_letter_file"`
}

// ResumeRecord is one row of the résumés audit file
type ResumeRecord struct {
	Applicant      string `csv:"job_applicant"`
	ApplicantEmail string `csv:"job_applicant_email"`
	JobSource      string `csv:"job_source"`
	JobSourceID    string `csv:"job_source_id"`
	Text           string `csv:"resume_text"`
	File           string `csv:"resume_file"`
}

// ApplicationRecord is one row of the applications audit file
type ApplicationRecord struct {
	Applicant      string `csv:"job_applicant"`
	ApplicantEmail string `csv:"job_applicant_email"`
	JobSource      string `csv:"job_source"`
	JobSourceID    string `csv:"job_source_id"`
	EmailTo        string `csv:"email_to"`
	Applied        bool   `csv:"applied"`
	AppliedAt      string `csv:"applied_at"`
}

// Append writes rows to the CSV file at path. An empty path or no rows is a no-op.
func Append[T any](path string, rows []T) error {
	if path == "" || len(rows) == 0 {
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if info.Size() == 0 {
		err = gocsv.Marshal(rows, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, f)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Logger writes the audit files configured in the log section
type Logger struct {
	cfg config.LogConfig
}

// New creates a logger for the configured files
func New(cfg config.LogConfig) *Logger {
	return &Logger{cfg: cfg}
}

// LogJobs appends the found jobs
func (l *Logger) LogJobs(jobs []*model.Job) error {
	rows := make([]JobRecord, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, NewJobRecord(j))
	}
	return Append(l.cfg.Jobs.File, rows)
}

// LogApplicant appends the applicant of the run
func (l *Logger) LogApplicant(a *model.Applicant) error {
	return Append(l.cfg.Applicants.File, []ApplicantRecord{{
		ID:              a.ID,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Email:           a.Email,
		Phone:           a.Phone,
		Address:         a.Address,
		ResumeFile:      a.ResumeFile,
		CoverLetterFile: a.CoverLetterFile,
	}})
}

// LogCoverLetter appends the cover letter of an application
func (l *Logger) LogCoverLetter(app *model.Application) error {
	if app.CoverLetter == nil {
		return nil
	}
	return Append(l.cfg.CoverLetters.File, []CoverLetterRecord{{
		Applicant:      app.Applicant.FullName(),
		ApplicantEmail: app.Applicant.Email,
		JobSource:      app.Job.Source,
		JobSourceID:    app.Job.SourceID,
		Text:           deref(app.CoverLetter.Text),
		File:           app.CoverLetter.Path,
	}})
}

// LogResume appends the résumé of an application
func (l *Logger) LogResume(app *model.Application) error {
	if app.Resume == nil {
		return nil
	}
	return Append(l.cfg.Resumes.File, []ResumeRecord{{
		Applicant:      app.Applicant.FullName(),
		ApplicantEmail: app.Applicant.Email,
		JobSource:      app.Job.Source,
		JobSourceID:    app.Job.SourceID,
		Text:           deref(app.Resume.Text),
		File:           app.Resume.Path,
	}})
}

// LogApplication appends the outcome of an application
func (l *Logger) LogApplication(app *model.Application) error {
	row := ApplicationRecord{
		Applicant:      app.Applicant.FullName(),
		ApplicantEmail: app.Applicant.Email,
		JobSource:      app.Job.Source,
		JobSourceID:    app.Job.SourceID,
		Applied:        app.Applied,
	}
	if app.Email != nil {
		row.EmailTo = app.Email.To
	} else {
		row.EmailTo = app.Job.Email
	}
	if app.AppliedAt != nil {
		row.AppliedAt = app.AppliedAt.Format(timeLayout)
	}
	return Append(l.cfg.Applications.File, []ApplicationRecord{row})
}

// NewJobRecord flattens a job into its audit row
func NewJobRecord(j *model.Job) JobRecord {
	r := JobRecord{
		ID:             j.ID,
		Link:           j.Link,
		SourceID:       j.SourceID,
		Source:         j.Source,
		PostedOnSource: j.PostedOnSource,
		Title:          j.Title,
		Description:    j.Description,
		Business:       j.Business,
		Location:       j.Location,
		Email:          j.Email,
	}
	if j.Date != nil {
		r.Date = j.Date.Format("2006-01-02")
	}
	if j.Salary != nil {
		r.Salary = strconv.FormatFloat(*j.Salary, 'f', 2, 64)
	}
	if j.SalaryType != nil {
		r.SalaryType = string(*j.SalaryType)
	}
	if j.Workspace != nil {
		r.Workspace = string(*j.Workspace)
	}
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
