// Package pipeline orchestrates the askdoc question-answering flow: the
// source document is chunked and indexed into the vector store while the
// question is classified, then the most similar chunks are retrieved and a
// grounded answer is generated. All model and store access goes through the
// capability interfaces in [rag], so the pipeline itself is backend-neutral.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/askdoc/askdoc-go/internal/budget"
	"github.com/askdoc/askdoc-go/internal/chunker"
	"github.com/askdoc/askdoc-go/internal/rag"
)

const (
	// DefaultCollection is the vector store collection used when the caller
	// does not name one.
	DefaultCollection = "default_collection"

	// DefaultTopK is the number of nearest chunks retrieved per query.
	DefaultTopK = 3

	// DefaultFallback is the answer returned when retrieval finds nothing
	// or the model produces a blank reply.
	DefaultFallback = "I could not find relevant information to answer your question."

	// defaultCategory is the classification used when the model returns a
	// blank label.
	defaultCategory = "general"

	// embedWorkers bounds the chunk-embedding fan-out.
	embedWorkers = 4
)

// Result is the outcome of one ProcessQuery call.
type Result struct {
	// Answer is the generated answer, or the fallback text when no
	// grounding was found.
	Answer string `json:"answer"`

	// Category is the topic label assigned to the query.
	Category string `json:"category"`
}

// Config carries the collaborators and tuning knobs for a Pipeline.
// Embedder, Store and Chat are required; everything else has a default.
type Config struct {
	Embedder rag.EmbeddingProvider
	Store    rag.VectorStore
	Chat     rag.ChatProvider

	// Collection is the vector store collection name.
	// Defaults to DefaultCollection.
	Collection string

	// Fallback overrides DefaultFallback when non-empty.
	Fallback string

	// TopK overrides DefaultTopK when positive.
	TopK int

	// ChunkSize and ChunkOverlap tune the splitter; zero values use the
	// chunker defaults.
	ChunkSize    int
	ChunkOverlap int

	// MaxContextTokens bounds the retrieved context injected into the
	// response prompt. Defaults to budget.DefaultMaxContextTokens.
	MaxContextTokens int

	// Prompts partially overrides the built-in templates.
	Prompts PromptOverride

	// Logger receives per-stage progress. Defaults to slog.Default.
	Logger *slog.Logger
}

// Pipeline executes the index-classify-retrieve-respond flow. It is safe
// for concurrent use; prompt templates may be updated while queries are in
// flight.
type Pipeline struct {
	embedder rag.EmbeddingProvider
	store    rag.VectorStore
	chat     rag.ChatProvider
	splitter *chunker.Chunker

	collection string
	fallback   string
	topK       int
	maxContext int

	prompts atomic.Pointer[PromptSet]
	log     *slog.Logger
}

// New validates cfg and constructs a Pipeline. Missing collaborators fail
// immediately with a *rag.ConfigurationError naming every absent field, so
// a misconfigured process never reaches a provider.
func New(cfg Config) (*Pipeline, error) {
	var missing []string
	if cfg.Embedder == nil {
		missing = append(missing, "embedding provider")
	}
	if cfg.Store == nil {
		missing = append(missing, "vector store")
	}
	if cfg.Chat == nil {
		missing = append(missing, "chat provider")
	}
	if len(missing) > 0 {
		return nil, &rag.ConfigurationError{Missing: missing}
	}

	p := &Pipeline{
		embedder:   cfg.Embedder,
		store:      cfg.Store,
		chat:       cfg.Chat,
		splitter:   chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		collection: cfg.Collection,
		fallback:   cfg.Fallback,
		topK:       cfg.TopK,
		maxContext: cfg.MaxContextTokens,
		log:        cfg.Logger,
	}
	if p.collection == "" {
		p.collection = DefaultCollection
	}
	if p.fallback == "" {
		p.fallback = DefaultFallback
	}
	if p.topK <= 0 {
		p.topK = DefaultTopK
	}
	if p.maxContext <= 0 {
		p.maxContext = budget.DefaultMaxContextTokens
	}
	if p.log == nil {
		p.log = slog.Default()
	}

	initial := cfg.Prompts.merged(DefaultPrompts())
	p.prompts.Store(&initial)

	return p, nil
}

// Prompts returns the current template snapshot.
func (p *Pipeline) Prompts() PromptSet {
	return *p.prompts.Load()
}

// UpdatePrompts applies a partial template update atomically. Calls already
// in flight keep the snapshot they started with.
func (p *Pipeline) UpdatePrompts(o PromptOverride) PromptSet {
	for {
		cur := p.prompts.Load()
		next := o.merged(*cur)
		if p.prompts.CompareAndSwap(cur, &next) {
			return next
		}
	}
}

// ProcessQuery answers query against sourceText. The source is chunked,
// embedded and indexed while the query is classified concurrently; the
// indexed collection is then searched and the top matches grounded into the
// response prompt. Empty source text fails with rag.ErrEmptyInput before
// any provider is contacted.
func (p *Pipeline) ProcessQuery(ctx context.Context, sourceText, query string) (*Result, error) {
	prompts := p.prompts.Load()

	chunks, err := p.splitter.Split(sourceText)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	// Classification only needs the query, so it runs alongside indexing.
	var (
		category string
		clsErr   error
		clsDone  = make(chan struct{})
	)
	go func() {
		defer close(clsDone)
		category, clsErr = p.classify(ctx, prompts.Classification, query)
	}()

	idxErr := p.index(ctx, chunks)
	<-clsDone
	if idxErr != nil {
		return nil, idxErr
	}
	if clsErr != nil {
		return nil, clsErr
	}

	retrieved, err := p.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	answer, err := p.respond(ctx, prompts.Response, query, retrieved)
	if err != nil {
		return nil, err
	}

	p.log.InfoContext(ctx, "query processed",
		"category", category,
		"chunks", len(chunks),
		"retrieved", len(retrieved),
		"duration", time.Since(start))

	return &Result{Answer: answer, Category: category}, nil
}

// index embeds chunks and upserts them into the collection. The collection
// is provisioned from the dimensionality of the first vector; a pre-existing
// collection with a different size aborts the call.
func (p *Pipeline) index(ctx context.Context, chunks []rag.Chunk) error {
	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	if err := p.store.EnsureCollection(ctx, p.collection, uint64(len(vectors[0]))); err != nil {
		return err
	}

	// A millisecond base plus the chunk ordinal keeps IDs unique across
	// chunks of the same call and across successive calls.
	base := uint64(time.Now().UnixMilli()) * 1000
	points := make([]rag.Point, len(chunks))
	for i, ch := range chunks {
		points[i] = rag.Point{
			ID:     base + uint64(ch.Index),
			Vector: vectors[i],
			Chunk:  ch,
		}
	}

	if err := p.store.UpsertBatch(ctx, p.collection, points); err != nil {
		return err
	}

	p.log.DebugContext(ctx, "indexed source", "collection", p.collection, "points", len(points))
	return nil
}

// embedChunks fans the embedding calls out across a bounded worker pool and
// reassembles the vectors in chunk order. The first provider error wins;
// remaining jobs are skipped.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []rag.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	jobs := make(chan int)

	workers := min(embedWorkers, len(chunks))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				mu.Lock()
				failed := firstErr != nil
				mu.Unlock()
				if failed {
					continue
				}

				vec, err := p.embedder.Embed(ctx, chunks[i].Text)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				vectors[i] = vec
			}
		}()
	}

	for i := range chunks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// retrieve embeds the query and returns the topK nearest chunks.
func (p *Pipeline) retrieve(ctx context.Context, query string) ([]rag.ScoredChunk, error) {
	vec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return p.store.Search(ctx, p.collection, vec, p.topK)
}

// classify asks the model for a topic label. A blank reply falls back to
// the default category rather than failing the query.
func (p *Pipeline) classify(ctx context.Context, template, query string) (string, error) {
	out, err := p.chat.Complete(ctx, fill(template, query, ""))
	if err != nil {
		return "", err
	}
	label := strings.TrimSpace(out)
	if label == "" {
		return defaultCategory, nil
	}
	return label, nil
}

// respond generates the grounded answer. With no retrieved chunks the
// fallback is returned without spending a model call; a blank model reply
// also falls back.
func (p *Pipeline) respond(ctx context.Context, template, query string, retrieved []rag.ScoredChunk) (string, error) {
	if len(retrieved) == 0 {
		p.log.DebugContext(ctx, "no chunks retrieved, returning fallback")
		return p.fallback, nil
	}

	reserved := budget.Estimate(template) + budget.Estimate(query)
	kept := budget.TrimChunks(retrieved, reserved, p.maxContext)
	if len(kept) < len(retrieved) {
		p.log.DebugContext(ctx, "trimmed context to fit token budget",
			"kept", len(kept), "retrieved", len(retrieved))
	}

	texts := make([]string, len(kept))
	for i, c := range kept {
		texts[i] = c.Text
	}

	out, err := p.chat.Complete(ctx, fill(template, query, strings.Join(texts, " ")))
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(out)
	if answer == "" {
		return p.fallback, nil
	}
	return answer, nil
}
