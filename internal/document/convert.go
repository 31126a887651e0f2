package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"job-applier-go/internal/config"
)

// ErrConverterNotFound is returned when LibreOffice is not installed
var ErrConverterNotFound = errors.New("libreoffice was not found")

// Converter turns a rendered document into a PDF next to it
type Converter interface {
	Convert(ctx context.Context, path string) (string, error)
}

// LibreOffice converts documents with soffice in headless mode
type LibreOffice struct {
	binary  string
	timeout time.Duration
}

// NewLibreOffice returns a converter for the given soffice binary
func NewLibreOffice(binary string, timeout time.Duration) *LibreOffice {
	return &LibreOffice{binary: binary, timeout: timeout}
}

// DetectConverter returns a converter when conversion is enabled and
// LibreOffice can be found, and nil otherwise
func DetectConverter(cfg config.ConverterConfig) Converter {
	if !cfg.Enabled {
		return nil
	}
	binary, err := FindLibreOffice(cfg.Path)
	if err != nil {
		logrus.WithError(err).Info("PDF conversion disabled")
		return nil
	}
	logrus.WithField("binary", binary).Info("PDF conversion enabled")
	return NewLibreOffice(binary, cfg.Timeout)
}

// FindLibreOffice looks for soffice at the configured path, the standard
// install locations and then the PATH
func FindLibreOffice(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("%w at %s", ErrConverterNotFound, configured)
		}
		return configured, nil
	}

	var candidates []string
	switch runtime.GOOS {
	case "windows":
		candidates = []string{
			`C:\Program Files\LibreOffice\program\soffice.exe`,
			`C:\Program Files (x86)\LibreOffice\program\soffice.exe`,
		}
	case "darwin":
		candidates = []string{"/Applications/LibreOffice.app/Contents/MacOS/soffice"}
	default:
		candidates = []string{"/usr/bin/libreoffice", "/usr/bin/soffice"}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, name := range []string{"soffice", "libreoffice"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrConverterNotFound
}

// Convert writes <name>.pdf into the directory of path and returns its location
func (l *LibreOffice) Convert(ctx context.Context, path string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	dir := filepath.Dir(path)
	cmd := exec.CommandContext(ctx, l.binary, "--headless", "--convert-to", "pdf", "--outdir", dir, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("libreoffice conversion failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pdf := filepath.Join(dir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".pdf")
	if _, err := os.Stat(pdf); err != nil {
		return "", fmt.Errorf("converted file is missing: %w", err)
	}
	return pdf, nil
}
