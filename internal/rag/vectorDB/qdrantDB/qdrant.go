package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/skondray/pmcopilot/internal/config"
	"github.com/skondray/pmcopilot/internal/rag/vectorDB"
	"github.com/skondray/pmcopilot/pkg/logger_i"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once

// Store is the remote backend. Qdrant wants point ids to be uuids, our
// logical chunk ids are not, so every point gets a deterministic uuid
// derived from its logical id and keeps the logical id in the payload.
type Store struct {
	client *qdrant.Client
}

const recordIdKey = "record_id"

func GetQdrantStore(ctx context.Context) *Store {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &Store{client: qdrantInstance}
}

func newClient() *qdrant.Client {
	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

func (s *Store) CreateCollection(ctx context.Context, collection string, dimension int) error {
	if collection == "" {
		return errors.New("empty collection name")
	}

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("%w: %v", vectorDB.ErrStorageUnavailable, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", vectorDB.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, collection string, records []vectorDB.Record) ([]string, error) {
	points := make([]*qdrant.PointStruct, len(records))
	ids := make([]string, len(records))

	for i, r := range records {
		if r.Id == "" {
			r.Id = vectorDB.GenerateId(collection, i)
		}
		ids[i] = r.Id

		payload := make(map[string]any, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			payload[k] = v
		}
		payload[recordIdKey] = r.Id

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointId(r.Id)),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return ids, nil
}

// Query issues a native nearest-neighbor request. Any error on that path -
// missing index, unsupported feature, malformed collection - drops to a
// client-side brute-force scan so the contract holds either way.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(includeVector),
	})
	if err != nil {
		loggr.Warn("native vector query failed, falling back to brute force", "error", err)
		return s.bruteForceQuery(ctx, collection, vector, topK, includeVector)
	}

	results := make([]vectorDB.QueryResult, 0, len(hits))
	for _, hit := range hits {
		res := vectorDB.QueryResult{
			Id: hit.Payload[recordIdKey].GetStringValue(),
			// qdrant reports cosine scores as similarities already
			Score:    hit.Score,
			Metadata: payloadToMetadata(hit.Payload),
		}
		if includeVector && hit.Vectors.GetVector() != nil {
			res.Vector = hit.Vectors.GetVector().Data
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Store) UpdateVector(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error {
	pid := qdrant.NewID(pointId(id))

	if vector != nil {
		_, err := s.client.UpdateVectors(ctx, &qdrant.UpdatePointVectors{
			CollectionName: collection,
			Points: []*qdrant.PointVectors{
				{Id: pid, Vectors: qdrant.NewVectors(vector...)},
			},
			Wait: qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("qdrant vector update failed: %w", err)
		}
	}

	if metadata != nil {
		// SetPayload merges keys into the existing payload
		_, err := s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
			CollectionName: collection,
			Payload:        qdrant.NewValueMap(metadata),
			PointsSelector: qdrant.NewPointsSelector(pid),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("qdrant payload update failed: %w", err)
		}
	}
	return nil
}

func (s *Store) DeleteVector(ctx context.Context, collection string, id string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(pointId(id))),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	if err := s.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("qdrant collection delete failed: %w", err)
	}
	return nil
}

func (s *Store) Describe(ctx context.Context, collection string) (vectorDB.CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return vectorDB.CollectionInfo{}, fmt.Errorf("%w: %v", vectorDB.ErrCollectionNotFound, err)
	}

	dimension := 0
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		dimension = int(params.Size)
	}
	return vectorDB.CollectionInfo{
		Dimension: dimension,
		Count:     int(info.GetPointsCount()),
		Metric:    "cosine",
	}, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vectorDB.ErrStorageUnavailable, err)
	}
	return names, nil
}

func pointId(logicalId string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(logicalId)).String()
}
