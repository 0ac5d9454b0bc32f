package knowledge

import (
	"math"
	"sort"
	"sync"
)

// Chunk is one indexed slice of a source document.
type Chunk struct {
	Source    string // source document identifier (file name without extension)
	Text      string
	Position  int // chunk index within its source
	Embedding []float32
}

// Scored pairs a chunk with its similarity to a query vector.
type Scored struct {
	Chunk Chunk
	Score float32
}

// Index is the process-wide in-memory vector index. Reads are lock-shared;
// a rebuild swaps the whole chunk slice under the write lock, so concurrent
// searches during a rebuild see either the old or the new index — stale
// reads are acceptable, crashes are not.
type Index struct {
	mu     sync.RWMutex
	chunks []Chunk
	ready  bool
}

// NewIndex returns an empty, not-yet-available Index.
func NewIndex() *Index {
	return &Index{}
}

// Replace atomically swaps the index contents and marks it available.
func (x *Index) Replace(chunks []Chunk) {
	copied := make([]Chunk, len(chunks))
	copy(copied, chunks)

	x.mu.Lock()
	x.chunks = copied
	x.ready = true
	x.mu.Unlock()
}

// Available reports whether the index has been built at least once.
func (x *Index) Available() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.ready
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.chunks)
}

// Sources returns the distinct source document names, sorted.
func (x *Index) Sources() []string {
	x.mu.RLock()
	chunks := x.chunks
	x.mu.RUnlock()

	seen := make(map[string]struct{}, len(chunks))
	var out []string
	for _, c := range chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		out = append(out, c.Source)
	}
	sort.Strings(out)
	return out
}

// Search returns the top-k chunks by descending cosine similarity to the
// query vector. Ties keep insertion order (stable sort).
func (x *Index) Search(query []float32, k int) []Scored {
	x.mu.RLock()
	chunks := x.chunks
	x.mu.RUnlock()

	if k <= 0 || len(chunks) == 0 {
		return nil
	}

	scored := make([]Scored, 0, len(chunks))
	for _, c := range chunks {
		scored = append(scored, Scored{Chunk: c, Score: cosineSimilarity(query, c.Embedding)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
