package mail

import (
	"context"
	"errors"
	"fmt"

	"job-applier-go/internal/config"
	"job-applier-go/internal/fields"
	"job-applier-go/internal/llm"
	"job-applier-go/internal/model"
)

var (
	// ErrNoRecipient is returned when an email has no recipient address
	ErrNoRecipient = errors.New("email has no recipient")
	// ErrNoBody is returned when the generator produced no email body
	ErrNoBody = errors.New("no email body generated")
)

// Composer builds application emails
type Composer struct {
	gen    llm.Generator
	prompt config.PromptConfig
}

// NewComposer creates a composer generating bodies with gen
func NewComposer(gen llm.Generator, prompt config.PromptConfig) *Composer {
	return &Composer{gen: gen, prompt: prompt}
}

// Subject returns the subject line for a job
func Subject(job *model.Job) string {
	if job == nil || job.Title == "" {
		return "Application for position"
	}
	return fmt.Sprintf("Application for %s position", fields.Capitalize(job.Title))
}

// Compose addresses the email to the job contact and generates its body.
// A missing recipient is not an error here; the sender refuses it.
func (c *Composer) Compose(ctx context.Context, job *model.Job, applicant *model.Applicant, attachments []string) (*model.Email, error) {
	body, err := c.gen.Generate(ctx, llm.Render(c.prompt, fields.Build(job, applicant)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate email body: %w", err)
	}
	if body == nil {
		return nil, ErrNoBody
	}

	return &model.Email{
		To:          job.Email,
		Subject:     Subject(job),
		Body:        *body,
		Attachments: attachments,
	}, nil
}
