// Package chunker provides a sentence-aware text chunking processor
// with configurable overlap and minimum-size filtering.
package chunker

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/tokeniser"
)

// Processor splits document text into overlapping chunks built from
// sentence-like units. Filtering and truncation renumber positions so
// they stay contiguous from 0.
type Processor struct {
	cfg domain.ChunkingConfig
	now func() time.Time
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithClock overrides the chunk timestamp source. Useful for testing.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a chunker for the given configuration. The configuration
// must already be validated; New normalises zero values to defaults.
func New(cfg domain.ChunkingConfig, opts ...Option) *Processor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = domain.DefaultChunkSize
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize / 4
	}

	p := &Processor{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits text into chunks for the given document. Metadata is
// copied onto every chunk. Empty content produces no chunks.
func (p *Processor) Process(documentID, text string, metadata map[string]any) []domain.Chunk {
	units := splitUnits(text)
	if len(units) == 0 {
		return nil
	}

	pieces := p.assemble(units)
	pieces = p.filterSmall(pieces)

	if p.cfg.MaxChunks > 0 && len(pieces) > p.cfg.MaxChunks {
		pieces = pieces[:p.cfg.MaxChunks]
	}

	createdAt := p.now()
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, content := range pieces {
		meta := make(map[string]any, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Content:    content,
			Position:   i,
			Metadata:   meta,
			CreatedAt:  createdAt,
		})
	}
	return chunks
}

// assemble greedily packs units into chunks up to the configured size,
// seeding each new chunk with a tail overlap from the previous one.
func (p *Processor) assemble(units []string) []string {
	var pieces []string
	var current []string
	currentLen := 0
	fresh := false // current holds at least one non-overlap unit

	emit := func() {
		if !fresh {
			return
		}
		pieces = append(pieces, strings.Join(current, " "))
	}

	for _, unit := range units {
		unitLen := len(unit)
		if currentLen > 0 && currentLen+1+unitLen > p.cfg.ChunkSize {
			emit()
			current = tailOverlap(current, p.cfg.Overlap)
			currentLen = joinedLen(current)
			fresh = false
		}

		current = append(current, unit)
		if currentLen == 0 {
			currentLen = unitLen
		} else {
			currentLen += 1 + unitLen
		}
		fresh = true
	}

	emit()
	return pieces
}

// filterSmall drops chunks under the minimum character or token count.
func (p *Processor) filterSmall(pieces []string) []string {
	if p.cfg.MinChunkChars <= 0 && p.cfg.MinChunkTokens <= 0 {
		return pieces
	}

	kept := pieces[:0]
	for _, content := range pieces {
		if p.cfg.MinChunkChars > 0 && len(content) < p.cfg.MinChunkChars {
			continue
		}
		if p.cfg.MinChunkTokens > 0 && tokeniser.CountTokens(content) < p.cfg.MinChunkTokens {
			continue
		}
		kept = append(kept, content)
	}
	return kept
}

// tailOverlap returns the trailing units whose joined length fits the
// overlap budget, preserving order.
func tailOverlap(units []string, overlap int) []string {
	if overlap <= 0 || len(units) == 0 {
		return nil
	}

	total := 0
	start := len(units)
	for i := len(units) - 1; i >= 0; i-- {
		next := total + len(units[i])
		if total > 0 {
			next++ // join separator
		}
		if next > overlap {
			break
		}
		total = next
		start = i
	}

	if start == len(units) {
		return nil
	}
	// Copy so the emitted chunk's backing array is not shared.
	tail := make([]string, len(units)-start)
	copy(tail, units[start:])
	return tail
}

// joinedLen is the length of strings.Join(units, " ") without building it.
func joinedLen(units []string) int {
	if len(units) == 0 {
		return 0
	}
	total := len(units) - 1
	for _, u := range units {
		total += len(u)
	}
	return total
}

// splitUnits breaks text into sentence-like units: runs terminated by
// sentence-ending punctuation or line breaks. When no terminator is
// found it falls back to blank-line paragraphs, then to the whole text.
func splitUnits(text string) []string {
	var units []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			units = append(units, s)
		}
		current.Reset()
	}

	terminated := false
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			terminated = true
			flush()
		}
	}
	flush()

	if !terminated {
		return splitParagraphs(text)
	}
	return units
}

// splitParagraphs splits on blank lines, trimming each paragraph.
func splitParagraphs(text string) []string {
	var units []string
	for _, para := range strings.Split(text, "\n\n") {
		if s := strings.TrimSpace(para); s != "" {
			units = append(units, s)
		}
	}
	return units
}
