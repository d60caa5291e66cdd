// Package qdrant provides a remote collection driver over the Qdrant gRPC
// API.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ctava-msft/gloss/pkg/vector"
)

// Store implements vector.Collection backed by a Qdrant collection.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	schema      vector.Schema
	logger      *zap.Logger
}

// New connects to a Qdrant gRPC endpoint (host:port) for the given schema.
func New(target string, schema vector.Schema, logger *zap.Logger) (*Store, error) {
	if schema.Dimensions == 0 {
		return nil, fmt.Errorf("collection dimensions cannot be 0, must be configured")
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant connect: %v", vector.ErrConnection, err)
	}

	logger.Info("connected to qdrant",
		zap.String("target", target),
		zap.String("collection", schema.Name),
	)

	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		schema:      schema,
		logger:      logger,
	}, nil
}

// Ensure creates the collection and its payload indexes if absent. When a
// collection of the same name exists, its vector size is compared against
// the schema and a mismatch is reported instead of being left to the store.
func (s *Store) Ensure(ctx context.Context) error {
	existing, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: s.schema.Name,
	})
	if err == nil {
		if size := vectorSize(existing.GetResult()); size != 0 && size != uint64(s.schema.Dimensions) {
			return fmt.Errorf("%w: collection %q has dimension %d, schema declares %d",
				vector.ErrSchemaMismatch, s.schema.Name, size, s.schema.Dimensions)
		}
		return nil
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.schema.Name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(s.schema.Dimensions),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", s.schema.Name, err)
	}

	// Keyword indexes make the filterable fields cheap to filter on.
	fieldType := pb.FieldType_FieldTypeKeyword
	for _, f := range s.schema.ScalarFields {
		if !f.Filterable {
			continue
		}
		_, err := s.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
			CollectionName: s.schema.Name,
			FieldName:      f.Name,
			FieldType:      &fieldType,
		})
		if err != nil {
			return fmt.Errorf("indexing field %q: %w", f.Name, err)
		}
	}

	s.logger.Info("created collection",
		zap.String("collection", s.schema.Name),
		zap.Uint("dimensions", s.schema.Dimensions),
	)

	return nil
}

// Upsert inserts or fully replaces documents by key. The batch is validated
// against the schema dimension before anything is sent.
func (s *Store) Upsert(ctx context.Context, docs ...vector.Document) error {
	for _, doc := range docs {
		if uint(len(doc.Embedding)) != s.schema.Dimensions {
			return fmt.Errorf("%w: document %q has %d dimensions, collection expects %d",
				vector.ErrSchemaMismatch, doc.Key, len(doc.Embedding), s.schema.Dimensions)
		}
	}

	points := make([]*pb.PointStruct, len(docs))
	for i, doc := range docs {
		payload := map[string]*pb.Value{
			s.schema.KeyField: {Kind: &pb.Value_StringValue{StringValue: doc.Key}},
		}
		for k, v := range doc.Fields {
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}
		points[i] = &pb.PointStruct{
			Id:      pointID(doc.Key),
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: doc.Embedding}}},
			Payload: payload,
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.schema.Name,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	s.logger.Debug("upserted documents", zap.Int("count", len(docs)))

	return nil
}

// Delete removes documents by key. Qdrant treats missing ids as a no-op,
// which matches the contract.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ids := make([]*pb.PointId, len(keys))
	for i, key := range keys {
		ids[i] = pointID(key)
	}

	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.schema.Name,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: ids},
			},
		},
		Wait: &wait,
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	return nil
}

// Search performs a similarity search, optionally restricted by an equality
// filter on a filterable payload field.
func (s *Store) Search(ctx context.Context, embedding []float32, opts vector.SearchOptions) ([]vector.QueryResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}

	req := &pb.SearchPoints{
		CollectionName: s.schema.Name,
		Vector:         embedding,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}

	if opts.Filter != nil {
		filter, err := s.buildFilter(*opts.Filter)
		if err != nil {
			return nil, err
		}
		req.Filter = filter
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	results := make([]vector.QueryResult, len(resp.GetResult()))
	for i, pt := range resp.GetResult() {
		doc := s.documentFromPayload(pt.GetPayload())
		results[i] = vector.QueryResult{Document: doc, Score: pt.GetScore()}
	}

	return results, nil
}

// Query scrolls the collection by filter only, bypassing vectors entirely.
func (s *Store) Query(ctx context.Context, filter vector.Filter, limit int) ([]vector.QueryResult, error) {
	pbFilter, err := s.buildFilter(filter)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}
	scrollLimit := uint32(limit)

	resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: s.schema.Name,
		Filter:         pbFilter,
		Limit:          &scrollLimit,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("scrolling points: %w", err)
	}

	results := make([]vector.QueryResult, len(resp.GetResult()))
	for i, pt := range resp.GetResult() {
		doc := s.documentFromPayload(pt.GetPayload())
		results[i] = vector.QueryResult{Document: doc}
	}

	return results, nil
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) buildFilter(f vector.Filter) (*pb.Filter, error) {
	if !s.schema.Filterable(f.Field) {
		return nil, fmt.Errorf("%w: %q", vector.ErrNotFilterable, f.Field)
	}

	return &pb.Filter{
		Must: []*pb.Condition{{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key: f.Field,
					Match: &pb.Match{
						MatchValue: &pb.Match_Keyword{Keyword: f.Value},
					},
				},
			},
		}},
	}, nil
}

// documentFromPayload rebuilds a Document from a point payload. The record
// key travels in the payload because point ids are derived UUIDs.
func (s *Store) documentFromPayload(payload map[string]*pb.Value) vector.Document {
	doc := vector.Document{Fields: make(map[string]string, len(payload))}
	for k, v := range payload {
		if k == s.schema.KeyField {
			doc.Key = v.GetStringValue()
			continue
		}
		doc.Fields[k] = v.GetStringValue()
	}
	return doc
}

// pointID maps a record key to a deterministic UUID point id, since Qdrant
// only accepts UUIDs or integers as ids.
func pointID(key string) *pb.PointId {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id.String()}}
}

// vectorSize digs the declared vector size out of a collection description.
func vectorSize(info *pb.CollectionInfo) uint64 {
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return 0
	}
	return params.GetSize()
}

var _ vector.Collection = (*Store)(nil)
