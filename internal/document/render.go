package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lukasjarosch/go-docx"

	"job-applier-go/internal/fields"
)

// Renderer fills the {placeholders} of a template file and writes the result to dest
type Renderer interface {
	Render(template, dest string, values fields.Map) error
}

// RendererFor picks a renderer by the template extension
func RendererFor(template string) Renderer {
	if strings.EqualFold(filepath.Ext(template), ".docx") {
		return DocxRenderer{}
	}
	return TextRenderer{}
}

// DocxRenderer renders Word templates
type DocxRenderer struct{}

func (DocxRenderer) Render(template, dest string, values fields.Map) error {
	doc, err := docx.Open(template)
	if err != nil {
		return fmt.Errorf("failed to open template %s: %w", template, err)
	}
	defer doc.Close()

	placeholders := make(docx.PlaceholderMap, len(values))
	for k, v := range values {
		placeholders[k] = v
	}

	if err := doc.ReplaceAll(placeholders); err != nil {
		return fmt.Errorf("failed to fill template %s: %w", template, err)
	}
	if err := doc.WriteToFile(dest); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

// TextRenderer renders plain text templates such as .txt or .md files
type TextRenderer struct{}

func (TextRenderer) Render(template, dest string, values fields.Map) error {
	content, err := os.ReadFile(template)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", template, err)
	}
	if err := os.WriteFile(dest, []byte(fields.Substitute(string(content), values)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}
