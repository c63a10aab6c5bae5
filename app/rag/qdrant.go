package rag

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"RagBot/app/embeddings"
)

const (
	payloadText    = "text"
	payloadChunkID = "chunk_id"

	DefaultQdrantHost = "localhost"
	DefaultQdrantPort = 6334
)

// pointNamespace keeps chunk ids stable across restarts when mapped to the
// UUIDs qdrant requires.
var pointNamespace = uuid.MustParse("6f1c4a52-8d0e-4b7e-9a43-2f5d1e0c7b91")

var _ VectorStore = &QdrantStore{}

type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port" validate:"gte=0,lte=65535"`
	APIKey string `yaml:"api_key"`
	UseTLS bool   `yaml:"use_tls"`
}

type QdrantStore struct {
	client     *qdrant.Client
	collection string
	emb        embeddings.Interface
}

func NewQdrantStore(ctx context.Context, cfg QdrantConfig, collection string, emb embeddings.Interface) (*QdrantStore, error) {
	if collection == "" {
		return nil, errors.New("collection name must not be empty")
	}
	if cfg.Host == "" {
		cfg.Host = DefaultQdrantHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultQdrantPort
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	s := &QdrantStore{client: client, collection: collection, emb: emb}
	if err = s.ensureCollection(ctx, emb.Dimensions()); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context, vectorSize int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}
	if vectorSize <= 0 {
		return fmt.Errorf("create collection %s: unknown vector size", s.collection)
	}
	if err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(vectorSize),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	log.Printf("📚 Created qdrant collection %q (size %d)", s.collection, vectorSize)
	return nil
}

func pointID(chunkID string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(pointNamespace, []byte(chunkID)).String())
}

func pointPayload(c Chunk) map[string]any {
	payload := make(map[string]any, len(c.Metadata)+4)
	for k, v := range c.storedMetadata() {
		payload[k] = v
	}
	payload[payloadText] = c.Text
	payload[payloadChunkID] = c.ID()
	return payload
}

func (s *QdrantStore) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	ids, err := checkBatch(chunks)
	if err != nil {
		return err
	}

	pids := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pids[i] = pointID(id)
	}
	existing, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            pids,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return fmt.Errorf("check existing ids: %w", err)
	}
	if len(existing) > 0 {
		return duplicateErr(existing[0].GetPayload()[payloadChunkID].GetStringValue())
	}

	vecs, err := s.emb.Embed(ctx, texts(chunks))
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embed chunks: expected %d vectors, got %d", len(chunks), len(vecs))
	}

	pts := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		pts[i] = &qdrant.PointStruct{
			Id:      pids[i],
			Vectors: qdrant.NewVectors(vecs[i]...),
			Payload: qdrant.NewValueMap(pointPayload(c)),
		}
	}
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         pts,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, text string, k int) ([]string, error) {
	if k <= 0 {
		return nil, nil
	}
	vecs, err := s.emb.Embed(ctx, []string{text})
	if err != nil {
		return nil, retrievalErr("embed query", err)
	}
	if len(vecs) != 1 {
		return nil, retrievalErr("embed query", fmt.Errorf("expected 1 vector, got %d", len(vecs)))
	}

	limit := uint64(k)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Limit:          &limit,
		Query:          qdrant.NewQuery(vecs[0]...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, retrievalErr("query points", err)
	}

	out := make([]string, 0, len(resp))
	for _, r := range resp {
		out = append(out, payloadString(r.GetPayload(), payloadText))
	}
	return out, nil
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, retrievalErr("count points", err)
	}
	return int(n), nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", convertQdrantValue(v))
}

func convertQdrantValue(v *qdrant.Value) any {
	switch val := v.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.GetValues()))
		for i, lv := range val.ListValue.GetValues() {
			out[i] = convertQdrantValue(lv)
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]any, len(val.StructValue.GetFields()))
		for k, nv := range val.StructValue.GetFields() {
			out[k] = convertQdrantValue(nv)
		}
		return out
	}
	return nil
}
