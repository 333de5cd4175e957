package postprocessors

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline implements PostProcessorPipeline.
// It chains multiple post-processors in order, starting with a Chunker.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.PostProcessor
	sorted     bool
}

// NewPipeline creates a new post-processor pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.PostProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order.
// Input is the raw document content.
// Output is the processed chunks ready for embedding.
func (p *Pipeline) Process(content string) []driven.Chunk {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	processors := make([]driven.PostProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.Unlock()

	// Start with a single chunk containing all content
	chunks := []driven.Chunk{
		{
			Content:     content,
			Position:    0,
			StartOffset: 0,
			EndOffset:   len(content),
		},
	}

	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}

	return chunks
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// NewIngestPipeline creates the document ingestion pipeline:
// fixed-window chunking followed by blank-chunk removal.
func NewIngestPipeline(config ChunkConfig) (*Pipeline, error) {
	chunker, err := NewChunker(config)
	if err != nil {
		return nil, err
	}
	p := NewPipeline()
	p.Add(chunker)
	p.Add(NewBlankFilter())
	return p, nil
}

// DefaultPipeline creates an ingestion pipeline with the default chunk config.
func DefaultPipeline() *Pipeline {
	p := NewPipeline()
	p.Add(&Chunker{config: DefaultChunkConfig()})
	p.Add(NewBlankFilter())
	return p
}

// ChunkConfig configures the chunker behavior.
type ChunkConfig struct {
	// MaxChunkSize is the maximum characters per chunk
	MaxChunkSize int

	// Overlap is the character overlap between consecutive chunks
	Overlap int
}

// DefaultChunkConfig returns 1000-character windows overlapping by 200.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize: 1000,
		Overlap:      200,
	}
}

// Validate requires 0 <= Overlap < MaxChunkSize so the window always advances.
func (c ChunkConfig) Validate() error {
	if c.MaxChunkSize <= 0 || c.Overlap < 0 || c.Overlap >= c.MaxChunkSize {
		return fmt.Errorf("%w: max=%d overlap=%d", domain.ErrInvalidChunkConfig, c.MaxChunkSize, c.Overlap)
	}
	return nil
}

// Step returns how far each window advances.
func (c ChunkConfig) Step() int {
	return c.MaxChunkSize - c.Overlap
}

// Split cuts text into fixed-size windows of MaxChunkSize characters,
// each starting Step() after the previous one. The last window may be shorter.
// Windows are counted in runes; StartOffset and EndOffset are byte offsets.
func Split(text string, config ChunkConfig) ([]driven.Chunk, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return split(text, 0, 0, config), nil
}

func split(text string, baseOffset, position int, config ChunkConfig) []driven.Chunk {
	// bounds[i] is the byte index of rune i; the final entry is len(text).
	bounds := make([]int, 0, len(text)+1)
	for i := range text {
		bounds = append(bounds, i)
	}
	runes := len(bounds)
	bounds = append(bounds, len(text))

	var chunks []driven.Chunk
	step := config.Step()

	for offset := 0; offset < runes; offset += step {
		end := offset + config.MaxChunkSize
		if end > runes {
			end = runes
		}
		start, stop := bounds[offset], bounds[end]
		chunks = append(chunks, driven.Chunk{
			Content:     text[start:stop],
			Position:    position,
			StartOffset: baseOffset + start,
			EndOffset:   baseOffset + stop,
		})
		position++
	}

	return chunks
}

// Chunker splits content into overlapping fixed-size windows.
// This is the first processor in the pipeline (Order = 0).
type Chunker struct {
	config ChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a new chunker, rejecting configs that cannot advance.
func NewChunker(config ChunkConfig) (*Chunker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: config}, nil
}

// Process splits content into chunks, numbering them across all inputs.
func (c *Chunker) Process(chunks []driven.Chunk) []driven.Chunk {
	var result []driven.Chunk
	position := 0

	for _, chunk := range chunks {
		newChunks := split(chunk.Content, chunk.StartOffset, position, c.config)
		position += len(newChunks)
		result = append(result, newChunks...)
	}

	return result
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 0 - chunker should be first.
func (c *Chunker) Order() int {
	return 0
}

// BlankFilter drops empty and whitespace-only chunks before embedding.
// Survivors keep the Position assigned by the chunker, so chunk_index
// metadata always points at the original window.
type BlankFilter struct{}

// Verify interface compliance
var _ driven.PostProcessor = (*BlankFilter)(nil)

// NewBlankFilter creates a new blank filter.
func NewBlankFilter() *BlankFilter {
	return &BlankFilter{}
}

// Process removes blank chunks.
func (f *BlankFilter) Process(chunks []driven.Chunk) []driven.Chunk {
	result := make([]driven.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Content) == "" {
			continue
		}
		result = append(result, chunk)
	}
	return result
}

// Name returns the processor name.
func (f *BlankFilter) Name() string {
	return "blank-filter"
}

// Order returns 10 - runs after the chunker.
func (f *BlankFilter) Order() int {
	return 10
}
