package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/auditlog"
	"job-applier-go/internal/config"
	"job-applier-go/internal/db"
	"job-applier-go/internal/document"
	"job-applier-go/internal/finder"
	"job-applier-go/internal/llm"
	"job-applier-go/internal/mail"
	"job-applier-go/internal/metrics"
	"job-applier-go/internal/model"
	"job-applier-go/internal/repository"
)

type fakeGenerator struct {
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt llm.Prompt) (*string, error) {
	f.calls++
	var text string
	switch prompt.Developer {
	case "cover":
		text = "I would like to join " + prompt.User
	case "resume":
		text = "```json\n{\"headline\": \"Backend developer\"}\n```"
	default:
		text = "Please find my application attached."
	}
	return &text, nil
}

type fakeSender struct {
	sent   []*model.Email
	failTo string
}

func (f *fakeSender) Send(ctx context.Context, email *model.Email) (bool, error) {
	if email.To == f.failTo {
		return false, errors.New("550 mailbox unavailable")
	}
	f.sent = append(f.sent, email)
	return true, nil
}

type panicArtifact struct{}

func (panicArtifact) Kind() model.DocumentKind { return model.KindCoverLetter }

func (panicArtifact) GenerateText(ctx context.Context, job *model.Job, applicant *model.Applicant) (*string, error) {
	panic("template exploded")
}

func (panicArtifact) RenderFile(ctx context.Context, job *model.Job, applicant *model.Applicant, text *string) (string, error) {
	return "", nil
}

type fixture struct {
	repo    *repository.Repository
	sender  *fakeSender
	metrics *metrics.Metrics
	logs    config.LogConfig
	deps    Deps
	jobs    []*model.Job
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	gdb, err := db.Init(config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(gdb) })

	coverTemplate := filepath.Join(dir, "cover.txt")
	resumeTemplate := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(coverTemplate, []byte("{applicant.name}: {text}"), 0o600))
	require.NoError(t, os.WriteFile(resumeTemplate, []byte("{applicant.name} - {headline}"), 0o600))

	logs := config.LogConfig{
		Jobs:         config.FileConfig{File: filepath.Join(dir, "logs", "jobs.csv")},
		Applicants:   config.FileConfig{File: filepath.Join(dir, "logs", "applicants.csv")},
		CoverLetters: config.FileConfig{File: filepath.Join(dir, "logs", "cover_letters.csv")},
		Resumes:      config.FileConfig{File: filepath.Join(dir, "logs", "resumes.csv")},
		Applications: config.FileConfig{File: filepath.Join(dir, "logs", "applications.csv")},
	}

	gen := &fakeGenerator{}
	out := filepath.Join(dir, "out")
	f := &fixture{
		repo:    repository.New(gdb),
		sender:  &fakeSender{},
		metrics: metrics.NewMetrics(prometheus.NewRegistry()),
		logs:    logs,
	}
	f.deps = Deps{
		Store: f.repo,
		Finder: finder.NewRegistry(finder.Func("test", func(ctx context.Context, title, location string) ([]*model.Job, error) {
			return f.jobs, nil
		})),
		CoverLetter: document.NewCoverLetter(gen,
			config.PromptConfig{DeveloperContent: "cover", UserContent: "{job.business}"},
			&document.FileBuilder{Template: coverTemplate, Dir: out, Label: "Cover_Letter"}),
		Resume: document.NewResume(gen,
			config.PromptConfig{DeveloperContent: "resume", UserContent: "{json}"},
			&document.FileBuilder{Template: resumeTemplate, Dir: out, Label: "Resume"},
			map[string]any{"first_name": "Jane"}),
		Composer: mail.NewComposer(gen, config.PromptConfig{DeveloperContent: "email", UserContent: "{job.title}"}),
		Sender:   f.sender,
		AuditLog: auditlog.New(logs),
		Metrics:  f.metrics,
	}
	return f
}

func testOptions(apply bool) Options {
	return Options{
		Applicant: model.Applicant{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
		Title:     "developer",
		Location:  "Toronto",
		Apply:     apply,
	}
}

func newJob(id, email string) *model.Job {
	return &model.Job{Source: "test", SourceID: id, Title: "developer", Business: "Acme", Email: email}
}

func countApplications(t *testing.T, repo *repository.Repository) int64 {
	t.Helper()
	var n int64
	require.NoError(t, repo.DB().Model(&model.Application{}).Count(&n).Error)
	return n
}

func TestApplier_SkipsAlreadyAppliedJob(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	applicant := testOptions(true).Applicant
	require.NoError(t, f.repo.UpsertApplicant(ctx, &applicant))
	done := newJob("1", "hr@one.example")
	require.NoError(t, f.repo.UpsertJob(ctx, done))
	previous := model.NewApplication(done, &applicant)
	previous.SetApplied(true, time.Now().Add(-24*time.Hour))
	require.NoError(t, f.repo.UpsertApplication(ctx, previous))

	f.jobs = []*model.Job{newJob("1", "hr@one.example"), newJob("2", "hr@two.example")}

	report, err := NewApplier(f.deps, testOptions(true)).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Found)
	assert.Equal(t, 1, report.Deduped)
	assert.Equal(t, 1, report.Applied)
	require.Len(t, report.Applications, 1)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "hr@two.example", f.sender.sent[0].To)
	assert.Equal(t, "Application for Developer position", f.sender.sent[0].Subject)
	assert.Len(t, f.sender.sent[0].Attachments, 2)

	app := report.Applications[0]
	assert.True(t, app.Applied)
	assert.NotNil(t, app.AppliedAt)
	assert.Equal(t, int64(2), countApplications(t, f.repo))

	stored, err := f.repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Applied)
	assert.Equal(t, "2", stored.Job.SourceID)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ApplicationsDeduped))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ApplicationsSent))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.JobsFound))
}

func TestApplier_NoRecipientIsRecordedNotSent(t *testing.T) {
	f := newFixture(t)
	f.jobs = []*model.Job{newJob("7", "")}

	report, err := NewApplier(f.deps, testOptions(true)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, f.sender.sent)
	require.Len(t, report.Applications, 1)
	assert.False(t, report.Applications[0].Applied)
	assert.Nil(t, report.Applications[0].AppliedAt)
	assert.NotZero(t, report.Applications[0].ID)
	assert.Equal(t, int64(1), countApplications(t, f.repo))
}

func TestApplier_ApplyDisabled(t *testing.T) {
	f := newFixture(t)
	f.jobs = []*model.Job{newJob("3", "hr@three.example")}

	report, err := NewApplier(f.deps, testOptions(false)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, f.sender.sent)
	assert.Equal(t, int64(1), countApplications(t, f.repo))
}

func TestApplier_SendFailureDoesNotStopBatch(t *testing.T) {
	f := newFixture(t)
	f.sender.failTo = "hr@bounce.example"
	f.jobs = []*model.Job{newJob("1", "hr@bounce.example"), newJob("2", "hr@two.example")}

	report, err := NewApplier(f.deps, testOptions(true)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Applied)
	require.Len(t, report.Applications, 2)

	failed := report.Applications[0]
	assert.False(t, failed.Applied)
	assert.Nil(t, failed.AppliedAt)
	assert.True(t, report.Applications[1].Applied)
	assert.Equal(t, int64(2), countApplications(t, f.repo))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ApplicationsFailed))
}

func TestApplier_SecondRunDedupes(t *testing.T) {
	f := newFixture(t)
	f.jobs = []*model.Job{newJob("1", "hr@one.example")}
	applier := NewApplier(f.deps, testOptions(true))

	_, err := applier.Run(context.Background())
	require.NoError(t, err)

	f.jobs = []*model.Job{newJob("1", "hr@one.example")}
	report, err := applier.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Deduped)
	assert.Len(t, f.sender.sent, 1)
	assert.Equal(t, report, applier.LastReport())
}

func TestApplier_PanicIsAJobFailure(t *testing.T) {
	f := newFixture(t)
	f.deps.CoverLetter = panicArtifact{}
	f.jobs = []*model.Job{newJob("1", "hr@one.example")}

	report, err := NewApplier(f.deps, testOptions(true)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, f.sender.sent)
	assert.Equal(t, int64(1), countApplications(t, f.repo))
}

func TestApplier_WritesAuditLogs(t *testing.T) {
	f := newFixture(t)
	f.jobs = []*model.Job{newJob("1", "hr@one.example")}

	_, err := NewApplier(f.deps, testOptions(true)).Run(context.Background())
	require.NoError(t, err)

	for _, path := range []string{
		f.logs.Jobs.File,
		f.logs.Applicants.File,
		f.logs.CoverLetters.File,
		f.logs.Resumes.File,
		f.logs.Applications.File,
	} {
		data, err := os.ReadFile(path)
		require.NoError(t, err, path)
		assert.Contains(t, string(data), "\n", path)
	}

	letter, err := os.ReadFile(filepath.Join(filepath.Dir(f.logs.Jobs.File), "..", "out", "Jane_Doe_Cover_Letter_1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe: I would like to join Acme", string(letter))
}

func TestApplier_RunInProgress(t *testing.T) {
	f := newFixture(t)
	applier := NewApplier(f.deps, testOptions(true))

	applier.running.Lock()
	defer applier.running.Unlock()

	_, err := applier.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestApplier_CancelledContext(t *testing.T) {
	f := newFixture(t)
	f.jobs = []*model.Job{newJob("1", "hr@one.example")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewApplier(f.deps, testOptions(true)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.sender.sent)
}

func TestNewApplicant(t *testing.T) {
	a := NewApplicant(config.ApplicantConfig{
		FirstName: "Jane",
		LastName:  "Doe",
		Contacts:  config.ContactsConfig{Email: "jane@example.com", Phone: "555"},
		Resume:    config.FileConfig{File: "resume.pdf"},
	})
	assert.Equal(t, "jane@example.com", a.Email)
	assert.Equal(t, "555", a.Phone)
	assert.Equal(t, "resume.pdf", a.ResumeFile)
	assert.Empty(t, a.CoverLetterFile)
}
