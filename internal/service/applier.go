// Package service runs the application workflow: find jobs, skip the ones
// already applied to, build the documents and email, send, and record the
// outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"job-applier-go/internal/config"
	"job-applier-go/internal/document"
	"job-applier-go/internal/metrics"
	"job-applier-go/internal/model"
)

// ErrRunInProgress is returned when Run is called while another run is active
var ErrRunInProgress = errors.New("an application run is already in progress")

// Store persists applicants, jobs and applications
type Store interface {
	UpsertApplicant(ctx context.Context, applicant *model.Applicant) error
	UpsertJob(ctx context.Context, job *model.Job) error
	UpsertApplication(ctx context.Context, app *model.Application) error
	CheckExistingApplication(ctx context.Context, job *model.Job, applicant *model.Applicant) (*model.Application, error)
}

// JobFinder returns the jobs of every registered board
type JobFinder interface {
	FindAll(ctx context.Context, title, location string) ([]*model.Job, error)
}

// Composer writes the application email
type Composer interface {
	Compose(ctx context.Context, job *model.Job, applicant *model.Applicant, attachments []string) (*model.Email, error)
}

// Sender delivers the application email
type Sender interface {
	Send(ctx context.Context, email *model.Email) (bool, error)
}

// AuditLog records the run in append-only files
type AuditLog interface {
	LogJobs(jobs []*model.Job) error
	LogApplicant(applicant *model.Applicant) error
	LogCoverLetter(app *model.Application) error
	LogResume(app *model.Application) error
	LogApplication(app *model.Application) error
}

// Deps are the collaborators of the Applier
type Deps struct {
	Store       Store
	Finder      JobFinder
	CoverLetter document.Artifact
	Resume      document.Artifact
	Composer    Composer
	Sender      Sender
	AuditLog    AuditLog
	Metrics     *metrics.Metrics
}

// Options are the per-run settings
type Options struct {
	Applicant model.Applicant
	Title     string
	Location  string
	Apply     bool
}

// OptionsFromConfig reads the run settings from the applicant and job sections
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Applicant: *NewApplicant(cfg.Applicant),
		Title:     cfg.Job.Title,
		Location:  cfg.Job.Location,
		Apply:     cfg.Job.Apply,
	}
}

// NewApplicant builds the applicant from its settings defaults
func NewApplicant(cfg config.ApplicantConfig) *model.Applicant {
	return &model.Applicant{
		FirstName:       cfg.FirstName,
		LastName:        cfg.LastName,
		Email:           cfg.Contacts.Email,
		Phone:           cfg.Contacts.Phone,
		Address:         cfg.Contacts.Address,
		ResumeFile:      cfg.Resume.File,
		CoverLetterFile: cfg.CoverLetter.File,
	}
}

// Outcome is the terminal state of one job in a run
type Outcome string

const (
	OutcomeDeduped Outcome = "deduped"
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Report summarizes a run
type Report struct {
	RunID        string
	Found        int
	Deduped      int
	Applied      int
	Skipped      int
	Failed       int
	Applications []*model.Application
	StartedAt    time.Time
	Duration     time.Duration
}

func (r *Report) count(o Outcome) {
	switch o {
	case OutcomeDeduped:
		r.Deduped++
	case OutcomeApplied:
		r.Applied++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// Applier runs the application workflow, one run at a time
type Applier struct {
	deps Deps
	now  func() time.Time

	running sync.Mutex

	mu   sync.RWMutex
	opts Options
	last *Report
}

// NewApplier creates an applier
func NewApplier(deps Deps, opts Options) *Applier {
	return &Applier{deps: deps, opts: opts, now: time.Now}
}

// SetOptions replaces the run settings used from the next run on
func (a *Applier) SetOptions(opts Options) {
	a.mu.Lock()
	a.opts = opts
	a.mu.Unlock()
}

// LastReport returns the report of the latest finished run, if any
func (a *Applier) LastReport() *Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Run executes one application run. Per-job failures are counted in the
// report and never abort the run; only applicant persistence errors and
// context cancellation do.
func (a *Applier) Run(ctx context.Context) (*Report, error) {
	if !a.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer a.running.Unlock()

	a.mu.RLock()
	opts := a.opts
	a.mu.RUnlock()

	report := &Report{RunID: uuid.NewString(), StartedAt: a.now()}
	log := logrus.WithField("run_id", report.RunID)
	log.WithFields(logrus.Fields{
		"title":    opts.Title,
		"location": opts.Location,
		"apply":    opts.Apply,
	}).Info("Starting application run")

	if m := a.deps.Metrics; m != nil {
		m.Runs.Inc()
	}
	defer func() {
		report.Duration = a.now().Sub(report.StartedAt)
		if m := a.deps.Metrics; m != nil {
			m.RunDuration.Observe(report.Duration.Seconds())
		}
		a.mu.Lock()
		a.last = report
		a.mu.Unlock()
	}()

	applicant := opts.Applicant
	if err := a.deps.Store.UpsertApplicant(ctx, &applicant); err != nil {
		return report, fmt.Errorf("failed to save applicant: %w", err)
	}
	a.audit(log, "applicant", func() error { return a.deps.AuditLog.LogApplicant(&applicant) })

	jobs, err := a.deps.Finder.FindAll(ctx, opts.Title, opts.Location)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		log.WithError(err).Error("Some job finders failed")
	}
	report.Found = len(jobs)
	if m := a.deps.Metrics; m != nil {
		m.JobsFound.Add(float64(len(jobs)))
	}
	log.WithField("count", len(jobs)).Info("Jobs found")

	persisted := a.saveJobs(ctx, log, jobs, report)
	a.audit(log, "jobs", func() error { return a.deps.AuditLog.LogJobs(jobs) })

	for _, job := range persisted {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		app, outcome := a.processJob(ctx, log, job, &applicant, opts.Apply)
		report.count(outcome)
		a.observe(outcome)
		if app != nil {
			report.Applications = append(report.Applications, app)
		}
	}

	log.WithFields(logrus.Fields{
		"found":   report.Found,
		"deduped": report.Deduped,
		"applied": report.Applied,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	}).Info("Application run completed")

	return report, nil
}

func (a *Applier) saveJobs(ctx context.Context, log *logrus.Entry, jobs []*model.Job, report *Report) []*model.Job {
	now := a.now()
	persisted := make([]*model.Job, 0, len(jobs))
	for _, job := range jobs {
		if job.UpdatedAt == nil {
			job.UpdatedAt = &now
		}
		if err := a.deps.Store.UpsertJob(ctx, job); err != nil {
			jobLog(log, job).WithError(err).Error("Failed to save job")
			report.count(OutcomeFailed)
			a.observe(OutcomeFailed)
			continue
		}
		persisted = append(persisted, job)
	}
	return persisted
}

// processJob takes one persisted job to a terminal outcome. The application
// is recorded for every outcome except a dedupe skip.
func (a *Applier) processJob(ctx context.Context, log *logrus.Entry, job *model.Job, applicant *model.Applicant, apply bool) (*model.Application, Outcome) {
	log = jobLog(log, job)

	existing, err := a.deps.Store.CheckExistingApplication(ctx, job, applicant)
	if err != nil {
		log.WithError(err).Error("Failed to check existing application")
		return nil, OutcomeFailed
	}
	if existing != nil {
		log.Info("Already applied, skipping job")
		return nil, OutcomeDeduped
	}

	app := model.NewApplication(job, applicant)
	outcome, err := a.apply(ctx, log, app, apply)
	if err != nil {
		log.WithError(err).Error("Failed to apply")
		outcome = OutcomeFailed
	}
	app.SetApplied(outcome == OutcomeApplied, a.now())

	if err := a.deps.Store.UpsertApplication(ctx, app); err != nil {
		log.WithError(err).Error("Failed to save application")
	}
	a.audit(log, "application", func() error { return a.deps.AuditLog.LogApplication(app) })

	return app, outcome
}

// apply builds the artifacts and the email, then sends it when there is a
// recipient and applying is enabled. Panics become errors.
func (a *Applier) apply(ctx context.Context, log *logrus.Entry, app *model.Application, enabled bool) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while applying: %v", r)
		}
	}()

	app.CoverLetter, err = document.Produce(ctx, a.deps.CoverLetter, app.Job, app.Applicant)
	if err != nil {
		return OutcomeFailed, err
	}
	app.Resume, err = document.Produce(ctx, a.deps.Resume, app.Job, app.Applicant)
	if err != nil {
		return OutcomeFailed, err
	}
	app.Email, err = a.deps.Composer.Compose(ctx, app.Job, app.Applicant, app.Attachments())
	if err != nil {
		return OutcomeFailed, err
	}

	a.audit(log, "cover letter", func() error { return a.deps.AuditLog.LogCoverLetter(app) })
	a.audit(log, "resume", func() error { return a.deps.AuditLog.LogResume(app) })

	if app.Email.To == "" {
		log.Info("No contact email on posting, not applying")
		return OutcomeSkipped, nil
	}
	if !enabled {
		log.Info("Applying is disabled, not sending")
		return OutcomeSkipped, nil
	}

	sent, err := a.deps.Sender.Send(ctx, app.Email)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to send email: %w", err)
	}
	if !sent {
		return OutcomeFailed, errors.New("email was not accepted by the transport")
	}

	log.WithField("to", app.Email.To).Info("Applied to job")
	return OutcomeApplied, nil
}

func (a *Applier) audit(log *logrus.Entry, kind string, write func() error) {
	if a.deps.AuditLog == nil {
		return
	}
	if err := write(); err != nil {
		log.WithError(err).Warnf("Failed to write %s audit log", kind)
	}
}

func (a *Applier) observe(o Outcome) {
	m := a.deps.Metrics
	if m == nil {
		return
	}
	switch o {
	case OutcomeDeduped:
		m.ApplicationsDeduped.Inc()
	case OutcomeApplied:
		m.ApplicationsSent.Inc()
	case OutcomeSkipped:
		m.ApplicationsSkipped.Inc()
	case OutcomeFailed:
		m.ApplicationsFailed.Inc()
	}
}

func jobLog(log *logrus.Entry, job *model.Job) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"job_source":    job.Source,
		"job_source_id": job.SourceID,
	})
}
