package document

import (
	"context"
	"encoding/json"
	"fmt"

	"job-applier-go/internal/config"
	"job-applier-go/internal/fields"
	"job-applier-go/internal/llm"
	"job-applier-go/internal/model"
)

// Resume asks the text generator for a tailored résumé as JSON and fills
// the résumé template with its flattened keys
type Resume struct {
	gen     llm.Generator
	prompt  config.PromptConfig
	files   *FileBuilder
	profile any
}

// NewResume creates the résumé artifact. profile is the raw applicant
// settings section, passed to the prompt as {json}.
func NewResume(gen llm.Generator, prompt config.PromptConfig, files *FileBuilder, profile any) *Resume {
	return &Resume{gen: gen, prompt: prompt, files: files, profile: profile}
}

func (r *Resume) Kind() model.DocumentKind { return model.KindResume }

func (r *Resume) GenerateText(ctx context.Context, job *model.Job, applicant *model.Applicant) (*string, error) {
	if applicant.ResumeFile != "" {
		return nil, nil
	}

	profile, err := json.Marshal(map[string]any{"applicant": r.profile})
	if err != nil {
		return nil, fmt.Errorf("failed to encode applicant profile: %w", err)
	}

	values := fields.Build(job, applicant).With(fields.Map{"json": string(profile)})
	return r.gen.Generate(ctx, llm.Render(r.prompt, values))
}

func (r *Resume) RenderFile(ctx context.Context, job *model.Job, applicant *model.Applicant, text *string) (string, error) {
	if applicant.ResumeFile != "" {
		return applicant.ResumeFile, nil
	}
	if text == nil {
		return "", ErrNoText
	}

	var content any
	if err := json.Unmarshal([]byte(stripFences(*text)), &content); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResume, err)
	}

	values := fields.Build(nil, applicant).
		With(fields.Flatten("", content)).
		With(fields.Build(job, nil))
	return r.files.Build(ctx, job, applicant, values)
}
