// Package postprocessors turns loaded documents into chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order and checks that the final chunks
// still describe the document: sequence numbers count up from zero and
// every chunk is the exact byte range of the text it claims.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline running processors in the given order.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process runs doc through every processor. The first receives nil chunks.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, proc := range p.processors {
		var err error
		if chunks, err = proc.Process(ctx, doc, chunks); err != nil {
			return nil, fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
	}

	if err := checkChunks(doc, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Names returns processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

func checkChunks(doc *domain.Document, chunks []domain.Chunk) error {
	for i, c := range chunks {
		switch {
		case c.ID == "":
			return fmt.Errorf("chunk %d of %s has no id", i, doc.Path)
		case c.Seq != i:
			return fmt.Errorf("chunk %d of %s has sequence %d", i, doc.Path, c.Seq)
		case c.Start < 0 || c.Start > c.End || c.End > len(doc.Text):
			return fmt.Errorf("chunk %d of %s has range [%d, %d) outside %d bytes",
				i, doc.Path, c.Start, c.End, len(doc.Text))
		case c.Text != doc.Text[c.Start:c.End]:
			return fmt.Errorf("chunk %d of %s does not match its range", i, doc.Path)
		}
	}
	return nil
}
