package knowledge

import (
	"sync"
	"testing"
)

func TestIndex_NotAvailableBeforeFirstBuild(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	if x.Available() {
		t.Error("fresh index reports Available() = true; want false")
	}
}

func TestIndex_AvailableAfterReplace(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	x.Replace([]Chunk{{Source: "a", Embedding: []float32{1, 0}}})
	if !x.Available() {
		t.Error("index not available after Replace")
	}
	if x.Len() != 1 {
		t.Errorf("expected 1 chunk, got %d", x.Len())
	}
}

func TestIndex_Search_DescendingScores(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	x.Replace([]Chunk{
		{Source: "far", Embedding: []float32{0, 1}},
		{Source: "near", Embedding: []float32{1, 0}},
		{Source: "mid", Embedding: []float32{1, 1}},
	})

	hits := x.Search([]float32{1, 0}, 3)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %v then %v", i, hits[i-1].Score, hits[i].Score)
		}
	}
	if hits[0].Chunk.Source != "near" {
		t.Errorf("expected closest chunk first, got %q", hits[0].Chunk.Source)
	}
}

func TestIndex_Search_TiesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	x.Replace([]Chunk{
		{Source: "first", Embedding: []float32{1, 0}},
		{Source: "second", Embedding: []float32{1, 0}},
	})

	hits := x.Search([]float32{1, 0}, 2)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Chunk.Source != "first" || hits[1].Chunk.Source != "second" {
		t.Errorf("tie not broken by insertion order: %q, %q", hits[0].Chunk.Source, hits[1].Chunk.Source)
	}
}

func TestIndex_Search_KLargerThanIndex(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	x.Replace([]Chunk{{Source: "only", Embedding: []float32{1}}})

	hits := x.Search([]float32{1}, 10)
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

func TestIndex_Search_EmptyIndex(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	x.Replace(nil)
	if hits := x.Search([]float32{1}, 3); hits != nil {
		t.Errorf("expected nil hits on empty index, got %v", hits)
	}
}

func TestIndex_ConcurrentSearchDuringReplace(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	x.Replace([]Chunk{{Source: "v1", Embedding: []float32{1, 0}}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				x.Search([]float32{1, 0}, 1)
			}
		}()
	}
	for i := 0; i < 100; i++ {
		x.Replace([]Chunk{{Source: "v2", Embedding: []float32{0, 1}}})
	}
	wg.Wait()
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("identical vectors: got %v, want ~1", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors: got %v, want 0", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("mismatched lengths: got %v, want 0", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero vector: got %v, want 0", got)
	}
}

func TestIndex_Sources(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	if got := x.Sources(); len(got) != 0 {
		t.Errorf("empty index must have no sources, got %v", got)
	}

	x.Replace([]Chunk{
		{Source: "onboarding", Position: 0},
		{Source: "leave_policy", Position: 0},
		{Source: "onboarding", Position: 1},
	})
	got := x.Sources()
	if len(got) != 2 || got[0] != "leave_policy" || got[1] != "onboarding" {
		t.Errorf("expected sorted distinct sources, got %v", got)
	}
}
