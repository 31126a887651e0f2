package document

import (
	"context"

	"job-applier-go/internal/config"
	"job-applier-go/internal/fields"
	"job-applier-go/internal/llm"
	"job-applier-go/internal/model"
)

// CoverLetter writes a cover letter with the text generator
type CoverLetter struct {
	gen    llm.Generator
	prompt config.PromptConfig
	files  *FileBuilder
}

// NewCoverLetter creates the cover letter artifact
func NewCoverLetter(gen llm.Generator, prompt config.PromptConfig, files *FileBuilder) *CoverLetter {
	return &CoverLetter{gen: gen, prompt: prompt, files: files}
}

func (c *CoverLetter) Kind() model.DocumentKind { return model.KindCoverLetter }

func (c *CoverLetter) GenerateText(ctx context.Context, job *model.Job, applicant *model.Applicant) (*string, error) {
	if applicant.CoverLetterFile != "" {
		return nil, nil
	}
	return c.gen.Generate(ctx, llm.Render(c.prompt, fields.Build(job, applicant)))
}

func (c *CoverLetter) RenderFile(ctx context.Context, job *model.Job, applicant *model.Applicant, text *string) (string, error) {
	if applicant.CoverLetterFile != "" {
		return applicant.CoverLetterFile, nil
	}
	if text == nil {
		return "", ErrNoText
	}
	values := fields.Build(job, applicant).With(fields.Map{"text": *text})
	return c.files.Build(ctx, job, applicant, values)
}
