// Package markdown loads Markdown files as simplified plain text.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/loaders/loadutil"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles Markdown documents.
type Loader struct{}

// New creates a new Markdown loader.
func New() *Loader {
	return &Loader{}
}

// Kind returns the loader family.
func (l *Loader) Kind() domain.LoaderKind {
	return domain.LoaderMarkdown
}

// Load reads a Markdown file and strips its formatting.
// Paragraph breaks are preserved so the chunker can split on them.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	data, info, err := loadutil.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	raw := loadutil.NormaliseText(string(data))
	title := extractMarkdownTitle(raw, path)

	return loadutil.NewDocument(path, title, stripMarkdown(raw), info, domain.LoaderMarkdown), nil
}

// Pre-compiled regular expressions for Markdown stripping.
var (
	fencedCode    = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)```")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis      = regexp.MustCompile(`(?m)(^|\s)(\*\*|__|\*|_)([^*_\n]+)(\*\*|__|\*|_)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	hr            = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	frontMatter   = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// extractMarkdownTitle extracts a title from the first H1 heading or falls back to filename.
func extractMarkdownTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return loadutil.TitleFromPath(path)
}

// stripMarkdown removes common markdown formatting for plain text content.
// Code block bodies are kept since they are often what a question is about.
func stripMarkdown(content string) string {
	content = frontMatter.ReplaceAllString(content, "")
	content = fencedCode.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$1$3")
	content = blockquote.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
