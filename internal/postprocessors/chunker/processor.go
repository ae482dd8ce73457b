// Package chunker provides a boundary-aware text chunking processor.
package chunker

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DefaultChunkSize is the default maximum chunk length in bytes.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of bytes shared by adjacent chunks.
const DefaultChunkOverlap = 200

// Namespace seeds chunk identifiers. Changing it invalidates every stored ID.
var Namespace = uuid.MustParse("6f1c9a52-3b7e-4d0a-9c64-2f8e5b1d7a30")

// ChunkID returns the stable identifier for the chunk at seq within path.
func ChunkID(path string, seq int) string {
	return uuid.NewSHA1(Namespace, []byte(path+"#"+strconv.Itoa(seq))).String()
}

// Processor splits document text into bounded, overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk length in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk length.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document text into chunks.
// Input chunks are ignored; this processor creates new chunks from document text.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc.Text == "" {
		return nil, nil
	}

	spans := p.split(doc.Text)
	chunks := make([]domain.Chunk, 0, len(spans))
	for seq, s := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:      ChunkID(doc.Path, seq),
			Seq:     seq,
			Text:    doc.Text[s.start:s.end],
			Start:   s.start,
			End:     s.end,
			Overlap: s.overlap,
			Source:  doc.Source,
		})
	}

	return chunks, nil
}

type span struct {
	start, end, overlap int
}

// split computes chunk spans. Each span ends past the previous one and
// starts after the previous start, so the loop always terminates.
func (p *Processor) split(text string) []span {
	n := len(text)
	var out []span

	start, covered := 0, 0
	for {
		if n-start <= p.chunkSize {
			return append(out, span{start: start, end: n, overlap: covered - start})
		}

		limit := start + p.chunkSize
		floor := max(covered, start+p.overlap, start+p.chunkSize/2)
		end := cutPoint(text, floor, limit)
		if end < 0 {
			// No rune boundary between floor and limit: accept a shorter
			// chunk that still extends past the covered prefix.
			end = snapBack(text, limit)
			if end <= covered {
				// A single rune is wider than the space left; only here may a
				// chunk exceed the size limit.
				end = snapForward(text, limit)
			}
		}
		out = append(out, span{start: start, end: end, overlap: covered - start})

		covered = end
		next := snapForward(text, end-p.overlap)
		if next > end {
			next = end
		}
		if next <= start {
			next = snapForward(text, start+1)
		}
		start = next
	}
}

// cutPoint picks the chunk end in (floor, limit], preferring a paragraph
// break, then a sentence end, then a line break, then a hard cut on a rune
// boundary. It returns -1 when the range holds no rune boundary.
func cutPoint(text string, floor, limit int) int {
	window := text[floor:limit]

	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return floor + i + 2
	}

	for i := len(window) - 2; i >= 0; i-- {
		switch window[i] {
		case '.', '!', '?':
			if c := window[i+1]; c == ' ' || c == '\n' {
				return floor + i + 2
			}
		}
	}

	if i := strings.LastIndexByte(window, '\n'); i >= 0 {
		return floor + i + 1
	}

	if end := snapBack(text, limit); end > floor {
		return end
	}
	return -1
}

func snapForward(text string, i int) int {
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}

func snapBack(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
