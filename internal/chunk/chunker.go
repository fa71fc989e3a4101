package chunk

import (
	"path"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ILoveScratch2/LLM-Reviewer/pkg/models"
)

// Chunk is an ordered group of change units submitted together in one
// analysis request. A chunk is never empty, and its token total stays within
// the chunker's ceiling unless it holds a single oversize unit.
type Chunk struct {
	Units  []models.ChangeUnit
	Tokens int
}

// Chunker groups change units into token-bounded chunks.
type Chunker struct {
	MaxChunkTokens int
	MinUnitTokens  int
	Counter        TokenCounter
	Logger         zerolog.Logger
}

// NewChunker creates a Chunker with the given size bounds. A nil counter
// falls back to the simple heuristic counter.
func NewChunker(maxChunkTokens, minUnitTokens int, counter TokenCounter, logger zerolog.Logger) *Chunker {
	if counter == nil {
		counter = &SimpleTokenCounter{}
	}
	return &Chunker{
		MaxChunkTokens: maxChunkTokens,
		MinUnitTokens:  minUnitTokens,
		Counter:        counter,
		Logger:         logger,
	}
}

type sizedUnit struct {
	unit   models.ChangeUnit
	tokens int
}

// Chunk partitions units into chunks. Units at or below the minimum size are
// dropped, the survivors are stable-sorted by containing directory so files
// from the same module tend to share a chunk, and a greedy walk closes the
// pending chunk before a unit would push it past the token ceiling. A single
// unit larger than the ceiling gets its own chunk rather than being split.
// Empty input yields empty output; malformed units are skipped, never an
// error.
func (c *Chunker) Chunk(units []models.ChangeUnit) []Chunk {
	kept := make([]sizedUnit, 0, len(units))
	for _, unit := range units {
		if unit.Path == "" || unit.PatchText == "" {
			continue
		}
		tokens := UnitTokens(c.Counter, unit)
		if tokens <= c.MinUnitTokens {
			c.Logger.Debug().
				Str("path", unit.Path).
				Int("tokens", tokens).
				Int("min_unit_tokens", c.MinUnitTokens).
				Msg("Unit below minimum size, dropping")
			continue
		}
		kept = append(kept, sizedUnit{unit: unit, tokens: tokens})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return path.Dir(kept[i].unit.Path) < path.Dir(kept[j].unit.Path)
	})

	var chunks []Chunk
	var pending Chunk
	for _, su := range kept {
		if pending.Tokens+su.tokens > c.MaxChunkTokens && len(pending.Units) > 0 {
			chunks = append(chunks, pending)
			pending = Chunk{}
		}
		pending.Units = append(pending.Units, su.unit)
		pending.Tokens += su.tokens
	}
	if len(pending.Units) > 0 {
		chunks = append(chunks, pending)
	}

	c.Logger.Info().
		Int("units", len(units)).
		Int("kept", len(kept)).
		Int("chunks", len(chunks)).
		Int("max_chunk_tokens", c.MaxChunkTokens).
		Msg("Chunked change units")
	return chunks
}
