package localDB

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/skondray/pmcopilot/internal/rag/vectorDB"
	"github.com/skondray/pmcopilot/pkg/logger_i"
)

// Store keeps one serialized file per collection and answers queries by
// brute-force cosine similarity over everything in the collection. O(n) per
// query, which is fine for corpora of thousands of chunks.
type Store struct {
	mu          sync.Mutex
	dir         string
	collections map[string]*collection
	logger      *logger_i.Logger
}

type collection struct {
	Dimension int                        `json:"dimension"`
	Records   map[string]vectorDB.Record `json:"records"`
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("%w: %v", vectorDB.ErrStorageUnavailable, err)
	}
	return &Store{
		dir:         dir,
		collections: make(map[string]*collection),
		logger:      logger_i.NewLogger("LocalVectorDB"),
	}, nil
}

func (s *Store) CreateCollection(ctx context.Context, name string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found, err := s.loadLocked(name); err != nil {
		return err
	} else if found {
		return nil
	}

	coll := &collection{Dimension: dimension, Records: make(map[string]vectorDB.Record)}
	s.collections[name] = coll
	return s.persistLocked(name, coll)
}

func (s *Store) Upsert(ctx context.Context, name string, records []vectorDB.Record) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, found, err := s.loadLocked(name)
	if err != nil {
		return nil, err
	}
	if !found {
		coll = &collection{Records: make(map[string]vectorDB.Record)}
		s.collections[name] = coll
	}

	ids := make([]string, 0, len(records))
	for i, r := range records {
		if r.Id == "" {
			r.Id = vectorDB.GenerateId(name, i)
		}
		if coll.Dimension == 0 {
			coll.Dimension = len(r.Vector)
		}
		coll.Records[r.Id] = r
		ids = append(ids, r.Id)
	}

	if err := s.persistLocked(name, coll); err != nil {
		return nil, err
	}
	s.logger.Debug("upserted records", "collection", name, "count", len(ids))
	return ids, nil
}

func (s *Store) Query(ctx context.Context, name string, vector []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, found, err := s.loadLocked(name)
	if err != nil {
		return nil, err
	}
	if !found {
		// Nothing ingested yet - an empty ranking, not a failure
		return []vectorDB.QueryResult{}, nil
	}

	records := make([]vectorDB.Record, 0, len(coll.Records))
	for _, r := range coll.Records {
		records = append(records, r)
	}
	return vectorDB.BruteForceRank(vector, records, topK, includeVector, s.logger), nil
}

func (s *Store) UpdateVector(ctx context.Context, name string, id string, vector []float32, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, found, err := s.loadLocked(name)
	if err != nil {
		return err
	}
	if !found {
		return vectorDB.ErrCollectionNotFound
	}

	record, ok := coll.Records[id]
	if !ok {
		return fmt.Errorf("record %s not found in collection %s", id, name)
	}
	if vector != nil {
		record.Vector = vector
	}
	if metadata != nil {
		if record.Metadata == nil {
			record.Metadata = make(map[string]any, len(metadata))
		}
		// Partial update - merge into what is already there
		for k, v := range metadata {
			record.Metadata[k] = v
		}
	}
	coll.Records[id] = record
	return s.persistLocked(name, coll)
}

func (s *Store) DeleteVector(ctx context.Context, name string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, found, err := s.loadLocked(name)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	delete(coll.Records, id)
	return s.persistLocked(name, coll)
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections, name)
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", vectorDB.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) Describe(ctx context.Context, name string) (vectorDB.CollectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, found, err := s.loadLocked(name)
	if err != nil {
		return vectorDB.CollectionInfo{}, err
	}
	if !found {
		return vectorDB.CollectionInfo{}, vectorDB.ErrCollectionNotFound
	}
	return vectorDB.CollectionInfo{
		Dimension: coll.Dimension,
		Count:     len(coll.Records),
		Metric:    "cosine",
	}, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[string]bool)
	for name := range s.collections {
		names[name] = true
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vectorDB.ErrStorageUnavailable, err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			names[strings.TrimSuffix(e.Name(), ".json")] = true
		}
	}

	list := make([]string, 0, len(names))
	for name := range names {
		list = append(list, name)
	}
	return list, nil
}

func (s *Store) loadLocked(name string) (*collection, bool, error) {
	if coll, ok := s.collections[name]; ok {
		return coll, true, nil
	}

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", vectorDB.ErrStorageUnavailable, err)
	}

	var coll collection
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, false, fmt.Errorf("corrupt collection file %s: %w", name, err)
	}
	if coll.Records == nil {
		coll.Records = make(map[string]vectorDB.Record)
	}
	s.collections[name] = &coll
	return &coll, true, nil
}

// persistLocked rewrites the whole collection file. Write-then-rename keeps
// a crash from leaving a half-written file behind.
func (s *Store) persistLocked(name string, coll *collection) error {
	data, err := json.Marshal(coll)
	if err != nil {
		return err
	}

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("%w: %v", vectorDB.ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return fmt.Errorf("%w: %v", vectorDB.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) path(name string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(name)
	return filepath.Join(s.dir, safe+".json")
}
