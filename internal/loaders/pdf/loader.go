// Package pdf loads PDF documents using the poppler pdftotext tool.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/loaders/loadutil"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

const toolName = "pdftotext"

// maxTitleLength bounds the first line accepted as a title.
const maxTitleLength = 200

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}

// Loader handles PDF documents.
type Loader struct {
	runner   CommandRunner
	external bool
}

// New creates a PDF loader that shells out to pdftotext.
func New() *Loader {
	return &Loader{runner: execRunner{}, external: true}
}

// NewWithRunner creates a PDF loader with a custom command runner.
func NewWithRunner(runner CommandRunner) *Loader {
	return &Loader{runner: runner}
}

// Kind returns the loader family.
func (l *Loader) Kind() domain.LoaderKind {
	return domain.LoaderPDF
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install pdftotext on common platforms.
func InstallInstructions() string {
	return `PDF support requires pdftotext (poppler).
  macOS:         brew install poppler
  Debian/Ubuntu: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils`
}

// Load extracts text from the PDF at path.
// Pages are separated by blank lines.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := loadutil.Stat(path)
	if err != nil {
		return nil, err
	}

	if l.external {
		if err := CheckAvailable(); err != nil {
			return nil, loadutil.Fail(path, err)
		}
	}

	out, err := l.runner.Run(ctx, toolName, "-enc", "UTF-8", "-layout", path, "-")
	if err != nil {
		return nil, loadutil.Fail(path, fmt.Errorf("pdftotext failed: %w", err))
	}

	content := normalisePages(string(out))
	return loadutil.NewDocument(path, extractTitle(content, path), content, info, domain.LoaderPDF), nil
}

// normalisePages turns form feeds into paragraph breaks and trims trailing space.
func normalisePages(text string) string {
	text = strings.ReplaceAll(text, "\f", "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractTitle returns the first short non-empty line or falls back to filename.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxTitleLength {
			continue
		}
		return line
	}
	return loadutil.TitleFromPath(path)
}
