// Package qdrant provides a Qdrant vector database driver over gRPC.
package qdrant

import (
	"context"
	"fmt"

	qpb "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/engramlabs/engram/pkg/vector"
)

// ownerKey is the payload field used for server-side tenant filtering.
const ownerKey = "owner"

// scrollPageSize bounds how many points a single Scroll page returns
// during FetchAll.
const scrollPageSize = 256

// QdrantDriver implements vector.Driver against a Qdrant server's gRPC API.
type QdrantDriver struct {
	conn        *grpc.ClientConn
	collections qpb.CollectionsClient
	points      qpb.PointsClient
	collection  string
	logger      *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the gRPC address of the Qdrant server (e.g., "localhost:6334").
	Target string

	// Collection is the name of the collection to use.
	Collection string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewQdrantDriver dials the Qdrant server and ensures the collection exists.
func NewQdrantDriver(ctx context.Context, c Config, logger *zap.Logger) (*QdrantDriver, error) {
	if c.Target == "" {
		return nil, fmt.Errorf("qdrant target is required")
	}
	if c.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	conn, err := grpc.NewClient(c.Target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", vector.ErrConnection, c.Target, err)
	}

	d := &QdrantDriver{
		conn:        conn,
		collections: qpb.NewCollectionsClient(conn),
		points:      qpb.NewPointsClient(conn),
		collection:  c.Collection,
		logger:      logger,
	}

	if err := d.ensureCollection(ctx, c.Dimensions); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("connected to Qdrant",
		zap.String("target", c.Target),
		zap.String("collection", c.Collection),
		zap.Uint("dimensions", c.Dimensions),
	)

	return d, nil
}

func (d *QdrantDriver) ensureCollection(ctx context.Context, dimensions uint) error {
	listResp, err := d.collections.List(ctx, &qpb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("%w: listing collections: %v", vector.ErrConnection, err)
	}

	for _, col := range listResp.Collections {
		if col.Name == d.collection {
			return nil
		}
	}

	_, err = d.collections.Create(ctx, &qpb.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: &qpb.VectorsConfig{
			Config: &qpb.VectorsConfig_Params{
				Params: &qpb.VectorParams{
					Size:     uint64(dimensions),
					Distance: qpb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", d.collection, err)
	}

	return nil
}

// Upsert stores a point, replacing any existing point with the same ID.
func (d *QdrantDriver) Upsert(ctx context.Context, point vector.Point) error {
	return d.UpsertBatch(ctx, []vector.Point{point})
}

// UpsertBatch stores points in bulk with upsert semantics.
func (d *QdrantDriver) UpsertBatch(ctx context.Context, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qpb.PointStruct, len(points))
	for i, p := range points {
		payload := make(map[string]*qpb.Value, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = anyToValue(v)
		}

		structs[i] = &qpb.PointStruct{
			Id: &qpb.PointId{PointIdOptions: &qpb.PointId_Uuid{Uuid: p.ID}},
			Vectors: &qpb.Vectors{
				VectorsOptions: &qpb.Vectors_Vector{
					Vector: &qpb.Vector{
						Vector: &qpb.Vector_Dense{Dense: &qpb.DenseVector{Data: p.Vector}},
					},
				},
			},
			Payload: payload,
		}
	}

	_, err := d.points.Upsert(ctx, &qpb.UpsertPoints{
		CollectionName: d.collection,
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("upserted points to qdrant",
		zap.String("collection", d.collection),
		zap.Int("count", len(points)),
	)

	return nil
}

// Search finds the points most similar to the given embedding.
func (d *QdrantDriver) Search(ctx context.Context, embedding []float32, opts vector.SearchOpts) ([]vector.Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	req := &qpb.SearchPoints{
		CollectionName: d.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload:    &qpb.WithPayloadSelector{SelectorOptions: &qpb.WithPayloadSelector_Enable{Enable: true}},
	}
	if opts.ScoreThreshold > 0 {
		threshold := opts.ScoreThreshold
		req.ScoreThreshold = &threshold
	}
	if opts.Owner != "" {
		req.Filter = ownerFilter(opts.Owner)
	}

	resp, err := d.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	results := make([]vector.Result, 0, len(resp.Result))
	for _, scored := range resp.Result {
		results = append(results, vector.Result{
			Point: vector.Point{
				ID:      scored.Id.GetUuid(),
				Payload: payloadToMap(scored.Payload),
			},
			Score: scored.Score,
		})
	}

	d.logger.Debug("queried qdrant",
		zap.String("collection", d.collection),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// FetchAll returns every stored point's ID and payload, optionally scoped
// to an owner. Pages through the collection with Scroll.
func (d *QdrantDriver) FetchAll(ctx context.Context, owner string) ([]vector.Point, error) {
	var points []vector.Point
	var offset *qpb.PointId
	pageSize := uint32(scrollPageSize)

	for {
		req := &qpb.ScrollPoints{
			CollectionName: d.collection,
			Limit:          &pageSize,
			Offset:         offset,
			WithPayload:    &qpb.WithPayloadSelector{SelectorOptions: &qpb.WithPayloadSelector_Enable{Enable: true}},
			WithVectors:    &qpb.WithVectorsSelector{SelectorOptions: &qpb.WithVectorsSelector_Enable{Enable: false}},
		}
		if owner != "" {
			req.Filter = ownerFilter(owner)
		}

		resp, err := d.points.Scroll(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("scrolling points: %w", err)
		}

		for _, p := range resp.Result {
			points = append(points, vector.Point{
				ID:      p.Id.GetUuid(),
				Payload: payloadToMap(p.Payload),
			})
		}

		if resp.NextPageOffset == nil {
			break
		}
		offset = resp.NextPageOffset
	}

	return points, nil
}

// DeleteByOwner removes every point belonging to the given owner.
func (d *QdrantDriver) DeleteByOwner(ctx context.Context, owner string) error {
	_, err := d.points.Delete(ctx, &qpb.DeletePoints{
		CollectionName: d.collection,
		Points: &qpb.PointsSelector{
			PointsSelectorOneOf: &qpb.PointsSelector_Filter{
				Filter: ownerFilter(owner),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted points from qdrant",
		zap.String("collection", d.collection),
		zap.String("owner", owner),
	)

	return nil
}

// Close tears down the gRPC connection.
func (d *QdrantDriver) Close() error {
	return d.conn.Close()
}

func ownerFilter(owner string) *qpb.Filter {
	return &qpb.Filter{
		Must: []*qpb.Condition{
			{
				ConditionOneOf: &qpb.Condition_Field{
					Field: &qpb.FieldCondition{
						Key: ownerKey,
						Match: &qpb.Match{
							MatchValue: &qpb.Match_Keyword{Keyword: owner},
						},
					},
				},
			},
		},
	}
}

var _ vector.Driver = (*QdrantDriver)(nil)
