// Package qdrant provides a similarity index adapter backed by a Qdrant
// server over gRPC.
package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	qpb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vegvisr/graphvec/internal/adapters/driven/vector"
	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/logger"
)

// Ensure SimilarityIndex implements the interface.
var _ driven.SimilarityIndex = (*SimilarityIndex)(nil)

// Default configuration values.
const (
	DefaultAddress = "localhost:6334"
	DefaultTimeout = 30 * time.Second
)

// payloadVectorID holds the record ID. Qdrant point IDs must be UUIDs or
// integers, so the record ID is mapped to a name-based UUID and kept here.
const payloadVectorID = "vector_id"

// Config holds configuration for the Qdrant index.
type Config struct {
	// Address is the gRPC host:port (default: localhost:6334).
	Address string

	// Collection is the collection name (required).
	Collection string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Dimensions sizes the collection when it is created (required).
	Dimensions int

	Timeout time.Duration
}

// SimilarityIndex stores vector records as Qdrant points.
type SimilarityIndex struct {
	conn        *grpc.ClientConn
	collections qpb.CollectionsClient
	points      qpb.PointsClient

	collection string
	apiKey     string
	dimensions int
	timeout    time.Duration

	mu    sync.Mutex
	ready bool
}

// New connects to Qdrant. The collection is created on first upsert.
func New(cfg Config) (*SimilarityIndex, error) {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	conn, err := grpc.NewClient(cfg.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect %s: %w", cfg.Address, err)
	}

	idx, err := NewWithClients(qpb.NewCollectionsClient(conn), qpb.NewPointsClient(conn), cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	idx.conn = conn
	return idx, nil
}

// NewWithClients builds an index over existing gRPC clients.
func NewWithClients(collections qpb.CollectionsClient, points qpb.PointsClient, cfg Config) (*SimilarityIndex, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: qdrant: collection name is required", domain.ErrValidation)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: qdrant: dimensions must be positive", domain.ErrValidation)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &SimilarityIndex{
		collections: collections,
		points:      points,
		collection:  cfg.Collection,
		apiKey:      cfg.APIKey,
		dimensions:  cfg.Dimensions,
		timeout:     cfg.Timeout,
	}, nil
}

// Upsert inserts or replaces records by ID.
func (s *SimilarityIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]*qpb.PointStruct, 0, len(records))
	for _, r := range records {
		if len(r.Values) != s.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				domain.ErrInvalidVector, r.ID, len(r.Values), s.dimensions)
		}
		payload := toPayload(vector.EncodeMetadata(r.Metadata))
		payload[payloadVectorID] = stringValue(r.ID)

		points = append(points, &qpb.PointStruct{
			Id: &qpb.PointId{PointIdOptions: &qpb.PointId_Uuid{Uuid: PointID(r.ID)}},
			Vectors: &qpb.Vectors{VectorsOptions: &qpb.Vectors_Vector{
				Vector: &qpb.Vector{Vector: &qpb.Vector_Dense{Dense: &qpb.DenseVector{Data: r.Values}}},
			}},
			Payload: payload,
		})
	}

	wait := true
	if _, err := s.points.Upsert(ctx, &qpb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("%w: qdrant: upsert %d points: %w", domain.ErrUpstreamFetch, len(points), err)
	}

	logger.Debug("qdrant: upserted %d points into %s", len(points), s.collection)
	return nil
}

// Query returns up to opts.TopK matches ordered by descending cosine score.
// A collection that does not exist yet yields no matches.
func (s *SimilarityIndex) Query(ctx context.Context, vec []float32, opts driven.QueryOptions) ([]driven.VectorMatch, error) {
	if opts.TopK <= 0 {
		return nil, nil
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	payloadSelector := &qpb.WithPayloadSelector{SelectorOptions: &qpb.WithPayloadSelector_Enable{Enable: true}}
	if !opts.ReturnMetadata {
		payloadSelector = &qpb.WithPayloadSelector{SelectorOptions: &qpb.WithPayloadSelector_Include{
			Include: &qpb.PayloadIncludeSelector{Fields: []string{payloadVectorID}},
		}}
	}

	resp, err := s.points.Search(ctx, &qpb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vec,
		Limit:          uint64(opts.TopK),
		WithPayload:    payloadSelector,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: qdrant: search: %w", domain.ErrUpstreamFetch, err)
	}

	matches := make([]driven.VectorMatch, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		stored := fromPayload(p.GetPayload())
		id, _ := stored[payloadVectorID].(string)
		if id == "" {
			id = p.GetId().GetUuid()
		}
		delete(stored, payloadVectorID)

		m := driven.VectorMatch{ID: id, Score: float64(p.GetScore())}
		if opts.ReturnMetadata {
			m.Metadata = vector.DecodeMetadata(stored)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Close closes the gRPC connection when the index owns it.
func (s *SimilarityIndex) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *SimilarityIndex) ensureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	exists, err := s.collections.CollectionExists(ctx, &qpb.CollectionExistsRequest{CollectionName: s.collection})
	if err != nil {
		return fmt.Errorf("%w: qdrant: check collection %s: %w", domain.ErrUpstreamFetch, s.collection, err)
	}

	if !exists.GetResult().GetExists() {
		logger.Info("qdrant: creating collection %s (%d dims, cosine)", s.collection, s.dimensions)
		if _, err := s.collections.Create(ctx, &qpb.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: &qpb.VectorsConfig{Config: &qpb.VectorsConfig_Params{
				Params: &qpb.VectorParams{Size: uint64(s.dimensions), Distance: qpb.Distance_Cosine},
			}},
		}); err != nil {
			return fmt.Errorf("%w: qdrant: create collection %s: %w", domain.ErrUpstreamFetch, s.collection, err)
		}
	}

	s.ready = true
	return nil
}

func (s *SimilarityIndex) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", s.apiKey)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// PointID maps a record ID to the point UUID it is stored under.
func PointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(recordID)).String()
}

func toPayload(fields map[string]any) map[string]*qpb.Value {
	out := make(map[string]*qpb.Value, len(fields)+1)
	for k, v := range fields {
		out[k] = toValue(v)
	}
	return out
}

func toValue(v any) *qpb.Value {
	switch val := v.(type) {
	case nil:
		return &qpb.Value{Kind: &qpb.Value_NullValue{NullValue: qpb.NullValue_NULL_VALUE}}
	case string:
		return stringValue(val)
	case bool:
		return &qpb.Value{Kind: &qpb.Value_BoolValue{BoolValue: val}}
	case int:
		return &qpb.Value{Kind: &qpb.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qpb.Value{Kind: &qpb.Value_IntegerValue{IntegerValue: val}}
	case float32:
		return &qpb.Value{Kind: &qpb.Value_DoubleValue{DoubleValue: float64(val)}}
	case float64:
		return &qpb.Value{Kind: &qpb.Value_DoubleValue{DoubleValue: val}}
	case []string:
		list := make([]*qpb.Value, len(val))
		for i, s := range val {
			list[i] = stringValue(s)
		}
		return &qpb.Value{Kind: &qpb.Value_ListValue{ListValue: &qpb.ListValue{Values: list}}}
	case []any:
		list := make([]*qpb.Value, len(val))
		for i, item := range val {
			list[i] = toValue(item)
		}
		return &qpb.Value{Kind: &qpb.Value_ListValue{ListValue: &qpb.ListValue{Values: list}}}
	case map[string]any:
		return &qpb.Value{Kind: &qpb.Value_StructValue{StructValue: &qpb.Struct{Fields: toPayload(val)}}}
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return stringValue(fmt.Sprint(val))
		}
		return stringValue(string(raw))
	}
}

func stringValue(s string) *qpb.Value {
	return &qpb.Value{Kind: &qpb.Value_StringValue{StringValue: s}}
}

func fromPayload(payload map[string]*qpb.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v *qpb.Value) any {
	switch kind := v.GetKind().(type) {
	case *qpb.Value_StringValue:
		return kind.StringValue
	case *qpb.Value_BoolValue:
		return kind.BoolValue
	case *qpb.Value_IntegerValue:
		return kind.IntegerValue
	case *qpb.Value_DoubleValue:
		return kind.DoubleValue
	case *qpb.Value_ListValue:
		list := make([]any, len(kind.ListValue.GetValues()))
		for i, item := range kind.ListValue.GetValues() {
			list[i] = fromValue(item)
		}
		return list
	case *qpb.Value_StructValue:
		return fromPayload(kind.StructValue.GetFields())
	default:
		return nil
	}
}
