package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

// upsertBatchSize is the number of points sent per upsert request. Batching
// bounds the request payload size; each batch is acknowledged durably before
// the next is issued.
const upsertBatchSize = 10

// replicationFactor and segmentNumber are the fixed collection settings used
// for every collection this store creates. They suit a moderate-write
// workload and are never tuned per call.
const (
	replicationFactor = 2
	segmentNumber     = 2
)

// Payload keys used for chunk fields stored on each point.
const (
	payloadText      = "text"
	payloadIndex     = "index"
	payloadCreatedAt = "created_at"
)

// QdrantConfig holds connection parameters for a Qdrant instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// APIKey is the optional API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant instance.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore connects to Qdrant and returns a ready-to-use VectorStore.
// Collections are provisioned lazily via EnsureCollection, not here.
func NewQdrantStore(cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	return &QdrantStore{client: client}, nil
}

// EnsureCollection creates the named collection with the given vector size,
// cosine distance, and the store's fixed replication/optimizer settings if
// it does not exist. If it exists, the declared size must equal vectorSize;
// a mismatch fails with *DimensionMismatchError and no migration is
// attempted.
func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, vectorSize uint64) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return &VectorStoreError{Op: "ensure", Err: err}
	}

	if exists {
		info, err := s.client.GetCollectionInfo(ctx, name)
		if err != nil {
			return &VectorStoreError{Op: "ensure", Err: err}
		}
		got := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if got != vectorSize {
			return &DimensionMismatchError{Collection: name, Want: vectorSize, Got: got}
		}
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
		ReplicationFactor: qdrant.PtrOf(uint32(replicationFactor)),
		OptimizersConfig: &qdrant.OptimizersConfigDiff{
			DefaultSegmentNumber: qdrant.PtrOf(uint64(segmentNumber)),
		},
	})
	if err != nil {
		return &VectorStoreError{Op: "ensure", Err: fmt.Errorf("create collection %q: %w", name, err)}
	}

	return nil
}

// UpsertBatch stores points in batches of upsertBatchSize, waiting for
// durable acknowledgment of each batch before sending the next. On failure
// the collection holds exactly the batches acknowledged so far — nothing is
// retried or rolled back, and re-running the whole indexing call is safe
// because point IDs are unique per call.
func (s *QdrantStore) UpsertBatch(ctx context.Context, name string, points []Point) error {
	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))

		batch := make([]*qdrant.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			batch = append(batch, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(p.ID),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadText:      p.Chunk.Text,
					payloadIndex:     int64(p.Chunk.Index),
					payloadCreatedAt: p.Chunk.CreatedAt.Unix(),
				}),
			})
		}

		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Points:         batch,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return &VectorStoreError{Op: "upsert", Err: fmt.Errorf("batch %d-%d: %w", start, end, err)}
		}
	}

	return nil
}

// Search returns up to limit chunks nearest to vector under the collection's
// cosine metric, best match first. An empty collection yields an empty
// result set.
func (s *QdrantStore) Search(ctx context.Context, name string, vector []float32, limit int) ([]ScoredChunk, error) {
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, &VectorStoreError{Op: "search", Err: err}
	}

	chunks := make([]ScoredChunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, scoredChunkFromPoint(r))
	}
	return chunks, nil
}

// scoredChunkFromPoint reconstructs a ScoredChunk from a Qdrant result point.
func scoredChunkFromPoint(r *qdrant.ScoredPoint) ScoredChunk {
	sc := ScoredChunk{
		ID:    r.GetId().GetNum(),
		Score: r.GetScore(),
	}
	p := r.GetPayload()
	if p == nil {
		return sc
	}
	if v, ok := p[payloadText]; ok {
		sc.Text = v.GetStringValue()
	}
	if v, ok := p[payloadIndex]; ok {
		sc.Index = int(v.GetIntegerValue())
	}
	if v, ok := p[payloadCreatedAt]; ok {
		sc.CreatedAt = timeFromUnix(v.GetIntegerValue())
	}
	return sc
}

// timeFromUnix converts a Unix-seconds payload value back to a time.Time,
// preserving the zero value for points stored without a timestamp.
func timeFromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Ping reports whether the Qdrant instance is reachable. Used by the HTTP
// server's readiness probe.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check: %w", err)
	}
	return nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
