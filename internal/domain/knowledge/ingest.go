package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/eventbus"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/llm"
)

// TopicKBUpdated is published when knowledge-base documents change and the
// index needs a rebuild.
const TopicKBUpdated = "kb.updated"

// EmbedClient is the slice of the LLM provider the ingestor needs.
type EmbedClient interface {
	Embed(ctx context.Context, req llm.EmbedRequest) (*llm.EmbedResponse, error)
}

// Ingestor builds the vector index from a directory of markdown/text files.
// Each file becomes one source; its name without extension is the source
// identifier retrieval labels chunks with.
type Ingestor struct {
	kbDir string
	embed EmbedClient
	index *Index
	log   *slog.Logger

	chunkSize int
	overlap   int
}

// NewIngestor returns an Ingestor over kbDir feeding index.
func NewIngestor(kbDir string, embed EmbedClient, index *Index, log *slog.Logger) *Ingestor {
	return &Ingestor{
		kbDir:     kbDir,
		embed:     embed,
		index:     index,
		log:       log,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
}

// Rebuild reads every .md and .txt file under the knowledge directory,
// chunks, embeds, and swaps the index. On failure the previous index
// contents stay in place.
func (g *Ingestor) Rebuild(ctx context.Context) error {
	entries, err := os.ReadDir(g.kbDir)
	if err != nil {
		return fmt.Errorf("kb rebuild: read dir %q: %w", g.kbDir, err)
	}

	var (
		texts   []string
		pending []Chunk
	)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".md" && ext != ".txt" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(g.kbDir, name))
		if err != nil {
			return fmt.Errorf("kb rebuild: read %q: %w", name, err)
		}
		source := strings.TrimSuffix(name, ext)
		for i, text := range SplitText(string(raw), g.chunkSize, g.overlap) {
			pending = append(pending, Chunk{Source: source, Text: text, Position: i})
			texts = append(texts, text)
		}
	}

	if len(pending) == 0 {
		g.index.Replace(nil)
		g.log.Warn("kb rebuild: no documents found", "dir", g.kbDir)
		return nil
	}

	resp, err := g.embed.Embed(ctx, llm.EmbedRequest{Texts: texts})
	if err != nil {
		return fmt.Errorf("kb rebuild: embed %d chunks: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(pending) {
		return fmt.Errorf("kb rebuild: got %d embeddings for %d chunks", len(resp.Embeddings), len(pending))
	}
	for i := range pending {
		pending[i].Embedding = resp.Embeddings[i]
	}

	g.index.Replace(pending)
	g.log.Info("kb index rebuilt", "chunks", len(pending), "dir", g.kbDir)
	return nil
}

// WatchRebuild consumes kb.updated events and rebuilds the index for each.
// Runs until ctx is cancelled; rebuild failures are logged, not fatal, and
// the previous index stays live.
func (g *Ingestor) WatchRebuild(ctx context.Context, bus eventbus.EventBus) {
	events := bus.Subscribe(TopicKBUpdated)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-events:
				if err := g.Rebuild(ctx); err != nil {
					g.log.Error("kb rebuild failed", "error", err)
				}
			}
		}
	}()
}
