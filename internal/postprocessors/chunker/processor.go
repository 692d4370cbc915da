// Package chunker provides a separator-aware recursive text splitter.
//
// Text is split at the coarsest separator level that occurs in it
// (paragraphs, then lines, then sentence ends, then commas), the pieces are
// greedily merged back up to the length limit, and any piece still too long
// is split again at the next level. When no separator is left the text is
// cut hard at the limit. Separators stay attached to the piece they end, so
// concatenating a document's chunks reproduces its text exactly.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultSeparators returns the separator levels, coarsest first.
func DefaultSeparators() [][]string {
	return [][]string{
		{"\n\n"},
		{"\n"},
		{".", "!", "?"},
		{","},
	}
}

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits document content into bounded chunks.
type Processor struct {
	chunkSize  int
	separators [][]string
	newID      func() string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size used when Split is called without one.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithSeparators replaces the separator levels.
func WithSeparators(levels [][]string) Option {
	return func(p *Processor) {
		p.separators = levels
	}
}

// WithIDFunc sets the chunk ID generator.
func WithIDFunc(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		separators: DefaultSeparators(),
		newID:      func() string { return uuid.New().String() },
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

// ChunkSize returns the default maximum chunk length.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Split splits every document into chunks of at most maxLen characters.
// A non-positive maxLen uses the configured chunk size.
// Documents with empty content produce no chunks.
func (p *Processor) Split(docs []domain.Document, maxLen int) []domain.Chunk {
	if maxLen <= 0 {
		maxLen = p.chunkSize
	}

	var chunks []domain.Chunk
	for i := range docs {
		if docs[i].Content == "" {
			continue
		}
		for pos, text := range p.SplitText(docs[i].Content, maxLen) {
			chunks = append(chunks, domain.Chunk{
				ID:       p.newID(),
				Source:   docs[i].Source,
				Content:  text,
				Position: pos,
			})
		}
	}
	return chunks
}

// SplitText splits a single text into pieces of at most maxLen characters.
func (p *Processor) SplitText(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = p.chunkSize
	}
	return p.split(text, maxLen, p.separators)
}

func (p *Processor) split(text string, maxLen int, levels [][]string) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	for i, seps := range levels {
		pieces := splitAfterAny(text, seps)
		if len(pieces) < 2 {
			continue
		}
		return p.merge(pieces, maxLen, levels[i+1:])
	}

	return hardCut(text, maxLen)
}

// merge packs consecutive pieces into chunks up to maxLen, splitting
// oversized pieces with the remaining levels.
func (p *Processor) merge(pieces []string, maxLen int, rest [][]string) []string {
	var (
		out    []string
		cur    strings.Builder
		curLen int
	)

	flush := func() {
		if curLen > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if n > maxLen {
			flush()
			out = append(out, p.split(piece, maxLen, rest)...)
			continue
		}
		if curLen+n > maxLen {
			flush()
		}
		cur.WriteString(piece)
		curLen += n
	}
	flush()

	return out
}

// splitAfterAny cuts text after every occurrence of any separator.
// Empty pieces are dropped; joining the result gives back text.
func splitAfterAny(text string, seps []string) []string {
	var pieces []string
	start := 0
	for i := 0; i < len(text); {
		matched := 0
		for _, sep := range seps {
			if sep != "" && strings.HasPrefix(text[i:], sep) {
				matched = len(sep)
				break
			}
		}
		if matched == 0 {
			i++
			continue
		}
		i += matched
		pieces = append(pieces, text[start:i])
		start = i
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

// hardCut splits text into runs of exactly maxLen characters, the last
// one possibly shorter.
func hardCut(text string, maxLen int) []string {
	var out []string
	for text != "" {
		n, count := 0, 0
		for n < len(text) && count < maxLen {
			_, size := utf8.DecodeRuneInString(text[n:])
			n += size
			count++
		}
		out = append(out, text[:n])
		text = text[n:]
	}
	return out
}
