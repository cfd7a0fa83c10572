package vector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// Payload keys stored with every Qdrant point.
const (
	payloadText       = "text"
	payloadSourcePath = "source_path"
	payloadDocumentID = "document_id"
	payloadChunkIndex = "chunk_index"
	payloadTimestamp  = "timestamp"
)

// Payload indexes: document_id for scoped filters, chunk_index for ordered scrolls.
var payloadIndexes = []struct {
	name      string
	fieldType qdrant.FieldType
}{
	{payloadDocumentID, qdrant.FieldType_FieldTypeKeyword},
	{payloadChunkIndex, qdrant.FieldType_FieldTypeInteger},
}

const (
	defaultQdrantPort = 6334
	scrollPageSize    = 256
)

// QdrantConfig holds Qdrant connection configuration.
type QdrantConfig struct {
	// URL is the Qdrant gRPC address (e.g. "http://localhost:6334").
	URL        string
	APIKey     string
	Collection string
	Dimensions int
}

// QdrantIndex implements Index on a Qdrant collection. Chunk IDs are the point UUIDs.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimensions int
	logger     *zap.Logger
}

// NewQdrantIndex connects to Qdrant and creates the collection (cosine distance) and a
// the document_id and chunk_index payload indexes if they do not exist.
func NewQdrantIndex(ctx context.Context, cfg QdrantConfig, logger *zap.Logger) (*QdrantIndex, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	idx := &QdrantIndex{
		client:     client,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		logger:     logger,
	}
	if err := idx.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return idx, nil
}

// parseQdrantURL splits a Qdrant address into host, port and TLS flag.
// A missing scheme means plain http; a missing port means the gRPC default.
func parseQdrantURL(raw string) (host string, port int, useTLS bool, err error) {
	if raw == "" {
		return "", 0, false, fmt.Errorf("qdrant url is required")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to parse qdrant url: %w", err)
	}
	port = defaultQdrantPort
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port: %w", err)
		}
	}
	return u.Hostname(), port, u.Scheme == "https", nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check qdrant collection: %w", err)
	}
	if !exists {
		err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(q.dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("create qdrant collection: %w", err)
		}
		q.logger.Info("qdrant collection created", zap.String("collection", q.collection), zap.Int("dimensions", q.dimensions))
	}
	// Creating an existing index is a no-op, so collections made before the
	// chunk_index index existed get it on the next start.
	for _, field := range payloadIndexes {
		fieldType := field.fieldType
		if _, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.collection,
			FieldName:      field.name,
			FieldType:      &fieldType,
			Wait:           qdrant.PtrOf(true),
		}); err != nil {
			return fmt.Errorf("create %s index: %w", field.name, err)
		}
	}
	return nil
}

// Add upserts all chunks as points in one request and waits for it to be applied.
func (q *QdrantIndex) Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(chunks))
	for i, ch := range chunks {
		if len(vectors[i]) != q.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), q.dimensions)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(ch.ID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: chunkPayload(ch),
		}
	}
	wait := true
	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// SimilaritySearch queries the collection for the k nearest points.
func (q *QdrantIndex) SimilaritySearch(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	limit := uint64(k)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}
	out := make([]models.ScoredChunk, 0, len(points))
	for _, p := range points {
		out = append(out, models.ScoredChunk{
			Chunk: chunkFromPayload(p.GetId().GetUuid(), p.GetPayload()),
			Score: float64(p.GetScore()),
		})
	}
	return out, nil
}

// FilteredLookup returns the first k chunks of the document by chunk_index. Only k
// points are read. When a document was ingested more than once, Qdrant picks among
// copies with the same chunk_index; the result is then ordered by ingestion time.
func (q *QdrantIndex) FilteredLookup(ctx context.Context, filter models.Filter, k int) ([]models.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}
	points, err := q.client.Scroll(ctx, lookupRequest(q.collection, filter.DocumentID, k))
	if err != nil {
		return nil, fmt.Errorf("qdrant scroll failed: %w", err)
	}
	chunks := make([]models.Chunk, 0, len(points))
	for _, p := range points {
		chunks = append(chunks, chunkFromPayload(p.GetId().GetUuid(), p.GetPayload()))
	}
	sortByInsertion(chunks)
	return chunks, nil
}

// lookupRequest scrolls at most k points of one document in chunk_index order.
func lookupRequest(collection, documentID string, k int) *qdrant.ScrollPoints {
	return &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         documentFilter(documentID),
		Limit:          qdrant.PtrOf(uint32(k)),
		OrderBy: &qdrant.OrderBy{
			Key:       payloadChunkIndex,
			Direction: qdrant.Direction_Asc.Enum(),
		},
		WithPayload: qdrant.NewWithPayload(true),
	}
}

// ListMetadata scrolls the whole collection.
func (q *QdrantIndex) ListMetadata(ctx context.Context) ([]models.ChunkMetadata, error) {
	chunks, err := q.scrollAll(ctx)
	if err != nil {
		return nil, err
	}
	sortByInsertion(chunks)
	metas := make([]models.ChunkMetadata, len(chunks))
	for i, ch := range chunks {
		metas[i] = ch.Metadata
	}
	return metas, nil
}

// Count returns the exact number of points.
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	exact := true
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count failed: %w", err)
	}
	return int(n), nil
}

// Close closes the gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

// scrollAll pages through every point of the collection. Qdrant's scroll offset is
// inclusive, so each page fetches one extra point to learn the next offset.
func (q *QdrantIndex) scrollAll(ctx context.Context) ([]models.Chunk, error) {
	var (
		out    []models.Chunk
		offset *qdrant.PointId
	)
	limit := uint32(scrollPageSize + 1)
	for {
		points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: q.collection,
			Offset:         offset,
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant scroll failed: %w", err)
		}
		page := points
		if len(points) > scrollPageSize {
			page = points[:scrollPageSize]
		}
		for _, p := range page {
			out = append(out, chunkFromPayload(p.GetId().GetUuid(), p.GetPayload()))
		}
		if len(points) <= scrollPageSize {
			return out, nil
		}
		offset = points[scrollPageSize].GetId()
	}
}

func documentFilter(documentID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   payloadDocumentID,
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: documentID}},
				},
			},
		}},
	}
}

func chunkPayload(ch models.Chunk) map[string]*qdrant.Value {
	return qdrant.NewValueMap(map[string]any{
		payloadText:       ch.Text,
		payloadSourcePath: ch.Metadata.SourcePath,
		payloadDocumentID: ch.Metadata.DocumentID,
		payloadChunkIndex: int64(ch.Metadata.ChunkIndex),
		payloadTimestamp:  ch.Metadata.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}

func chunkFromPayload(id string, payload map[string]*qdrant.Value) models.Chunk {
	ch := models.Chunk{ID: id}
	ch.Text = payload[payloadText].GetStringValue()
	ch.Metadata.SourcePath = payload[payloadSourcePath].GetStringValue()
	ch.Metadata.DocumentID = payload[payloadDocumentID].GetStringValue()
	if ch.Metadata.DocumentID == "" {
		ch.Metadata.DocumentID = models.DocumentIDFromPath(ch.Metadata.SourcePath)
	}
	ch.Metadata.ChunkIndex = int(payload[payloadChunkIndex].GetIntegerValue())
	if ts, err := time.Parse(time.RFC3339Nano, payload[payloadTimestamp].GetStringValue()); err == nil {
		ch.Metadata.Timestamp = ts
	}
	return ch
}

// sortByInsertion orders chunks by ingestion time, then by position in the document.
func sortByInsertion(chunks []models.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		a, b := chunks[i].Metadata, chunks[j].Metadata
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ChunkIndex < b.ChunkIndex
	})
}
