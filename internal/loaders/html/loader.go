// Package html loads HTML files as readable plain text.
package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/loaders/loadutil"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles HTML documents.
type Loader struct{}

// New creates a new HTML loader.
func New() *Loader {
	return &Loader{}
}

// Kind returns the loader family.
func (l *Loader) Kind() domain.LoaderKind {
	return domain.LoaderHTML
}

// Load reads an HTML file and extracts its visible text.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	data, info, err := loadutil.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	raw := loadutil.NormaliseText(string(data))
	title := extractHTMLTitle(raw, path)

	return loadutil.NewDocument(path, title, stripHTML(raw), info, domain.LoaderHTML), nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	paragraphClose    = regexp.MustCompile(`(?i)</(p|h[1-6]|blockquote|pre|table|section|article)>`)
	blockElements     = regexp.MustCompile(`(?i)</(div|li|tr)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
)

// paragraphMark separates paragraph-level blocks until the final line pass.
const paragraphMark = "\x00"

// extractHTMLTitle extracts a title from the <title> tag or falls back to filename.
func extractHTMLTitle(content, path string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) > 1 {
		title := html.UnescapeString(strings.TrimSpace(matches[1]))
		if title != "" {
			return title
		}
	}
	return loadutil.TitleFromPath(path)
}

// stripHTML removes HTML tags and extracts readable text content.
// Paragraph-level elements end with a blank line, other blocks with a newline.
func stripHTML(content string) string {
	content = strings.ReplaceAll(content, paragraphMark, "")
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = openBlockElements.ReplaceAllString(content, "\n")
	content = paragraphClose.ReplaceAllString(content, "\n"+paragraphMark+"\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n"+paragraphMark+"\n")

	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	// Trim each line and keep at most one blank line between blocks
	var result []string
	blank := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == paragraphMark {
			blank = len(result) > 0
			continue
		}
		if line == "" {
			continue
		}
		if blank {
			result = append(result, "")
			blank = false
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}
