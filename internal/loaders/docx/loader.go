// Package docx loads Word documents (Office Open XML).
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/loaders/loadutil"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles DOCX documents.
type Loader struct{}

// New creates a new DOCX loader.
func New() *Loader {
	return &Loader{}
}

// Kind returns the loader family.
func (l *Loader) Kind() domain.LoaderKind {
	return domain.LoaderWord
}

// Load opens the DOCX archive and extracts paragraph text.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := loadutil.Stat(path)
	if err != nil {
		return nil, err
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, loadutil.Fail(path, fmt.Errorf("%w: not a docx archive: %v", domain.ErrUnsupportedType, err))
	}
	defer reader.Close()

	content, err := extractDocumentText(&reader.Reader)
	if err != nil {
		return nil, loadutil.Fail(path, err)
	}

	return loadutil.NewDocument(path, extractTitle(&reader.Reader, path), content, info, domain.LoaderWord), nil
}

// readEntry returns the contents of a named archive entry.
func readEntry(reader *zip.Reader, name string) ([]byte, bool, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, true, err
		}
		defer rc.Close()

		content, err := io.ReadAll(io.LimitReader(rc, loadutil.MaxFileSize))
		return content, true, err
	}
	return nil, false, nil
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	content, found, err := readEntry(reader, "word/document.xml")
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: missing word/document.xml", domain.ErrUnsupportedType)
	}
	return parseDocumentXML(content)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML extracts text content from the document XML.
// Paragraphs are separated by newlines.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, text := range r.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return strings.TrimSpace(result.String()), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle extracts the title from docProps/core.xml or falls back to filename.
func extractTitle(reader *zip.Reader, path string) string {
	content, found, err := readEntry(reader, "docProps/core.xml")
	if found && err == nil {
		var core coreXML
		if err := xml.Unmarshal(content, &core); err == nil && strings.TrimSpace(core.Title) != "" {
			return strings.TrimSpace(core.Title)
		}
	}
	return loadutil.TitleFromPath(path)
}
