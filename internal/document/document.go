package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"job-applier-go/internal/fields"
	"job-applier-go/internal/model"
)

var (
	// ErrMalformedResume is returned when the generated résumé is not valid JSON
	ErrMalformedResume = errors.New("generated resume is not valid JSON")
	// ErrNoText is returned when there is no generated text to render
	ErrNoText = errors.New("no generated text to render")
)

// Artifact generates one kind of application document
type Artifact interface {
	Kind() model.DocumentKind
	// GenerateText returns nil when the applicant supplies the file
	GenerateText(ctx context.Context, job *model.Job, applicant *model.Applicant) (*string, error)
	RenderFile(ctx context.Context, job *model.Job, applicant *model.Applicant, text *string) (string, error)
}

// Produce generates the text of an artifact and renders it to a file
func Produce(ctx context.Context, a Artifact, job *model.Job, applicant *model.Applicant) (*model.Document, error) {
	text, err := a.GenerateText(ctx, job, applicant)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s text: %w", a.Kind(), err)
	}

	path, err := a.RenderFile(ctx, job, applicant, text)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", a.Kind(), err)
	}

	return &model.Document{Kind: a.Kind(), Text: text, Path: path}, nil
}

// FileBuilder renders a template into the output directory and converts the
// result to PDF when a converter is configured
type FileBuilder struct {
	Template  string
	Dir       string
	Label     string
	Converter Converter
}

// OutputDir returns the directory holding logFile, or the temp dir when
// no log file is configured
func OutputDir(logFile string) string {
	if logFile == "" {
		return os.TempDir()
	}
	return filepath.Dir(logFile)
}

// FileName returns the file stem for an applicant, e.g. Jane_Doe_Resume_123
func (b *FileBuilder) FileName(job *model.Job, applicant *model.Applicant) string {
	return fmt.Sprintf("%s_%s_%s_%s",
		fields.Capitalize(applicant.FirstName),
		fields.Capitalize(applicant.LastName),
		b.Label,
		job.SourceID,
	)
}

// Build renders values into the template and returns the artifact path
func (b *FileBuilder) Build(ctx context.Context, job *model.Job, applicant *model.Applicant, values fields.Map) (string, error) {
	if b.Template == "" {
		return "", errors.New("template file is not configured")
	}

	dest := filepath.Join(b.Dir, b.FileName(job, applicant)+filepath.Ext(b.Template))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := RendererFor(b.Template).Render(b.Template, dest, values); err != nil {
		return "", err
	}

	if b.Converter == nil {
		return dest, nil
	}

	pdf, err := b.Converter.Convert(ctx, dest)
	if err != nil {
		return "", fmt.Errorf("failed to convert %s: %w", filepath.Base(dest), err)
	}
	return pdf, nil
}

// stripFences removes markdown code fences around a JSON reply
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
