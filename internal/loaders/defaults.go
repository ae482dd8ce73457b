package loaders

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/loaders/docx"
	"github.com/custodia-labs/sercha-rag/internal/loaders/generic"
	"github.com/custodia-labs/sercha-rag/internal/loaders/html"
	"github.com/custodia-labs/sercha-rag/internal/loaders/markdown"
	"github.com/custodia-labs/sercha-rag/internal/loaders/pdf"
	"github.com/custodia-labs/sercha-rag/internal/loaders/plaintext"
)

// RegisterDefaults registers every built-in loader with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(plaintext.NewCode())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	r.Register(generic.New())
}

// NewDefaultRegistry returns a registry for the default extension table
// with all built-in loaders registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry(domain.DefaultExtensionTable())
	RegisterDefaults(r)
	return r
}
