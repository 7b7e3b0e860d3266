package tracker

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/skondray/pmcopilot/pkg/logger_i"
)

// DocumentRecord maps one ingested source document to the chunk ids it
// contributed to the shared collection.
type DocumentRecord struct {
	DocumentId     string    `json:"documentId"`
	OriginalName   string    `json:"originalName"`
	ChunkCount     int       `json:"chunkCount"`
	EmbeddingCount int       `json:"embeddingCount"`
	ProcessedAt    time.Time `json:"processedAt"`
	ChunkIds       []string  `json:"chunkIds"`
}

type Stats struct {
	TotalDocuments int       `json:"totalDocuments"`
	TotalChunks    int       `json:"totalChunks"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

type snapshot struct {
	Documents      map[string]DocumentRecord `json:"documents"`
	TotalChunks    int                       `json:"totalChunks"`
	TotalDocuments int                       `json:"totalDocuments"`
	LastUpdated    time.Time                 `json:"lastUpdated"`
}

// SnapshotStore persists the whole tracking snapshot as one blob. The
// local-file target is used alongside the local vector backend, the redis
// target alongside the remote one, so tracking always lives next to the
// vectors it describes.
type SnapshotStore interface {
	Load(ctx context.Context) (data []byte, found bool, err error)
	Save(ctx context.Context, data []byte) error
}

// Tracker holds the snapshot in memory after the first read and rewrites
// the whole blob on every mutation. A single instance per collection plus
// the mutex serializes read-modify-write cycles inside the process;
// cross-process coordination is out of scope.
type Tracker struct {
	mu     sync.Mutex
	store  SnapshotStore
	snap   *snapshot
	logger *logger_i.Logger
}

func NewTracker(store SnapshotStore) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger_i.NewLogger("DocumentTracker"),
	}
}

func (t *Tracker) AddDocument(ctx context.Context, documentId string, originalName string, chunkCount int, chunkIds []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.loadLocked(ctx)
	if err != nil {
		return err
	}

	snap.Documents[documentId] = DocumentRecord{
		DocumentId:     documentId,
		OriginalName:   originalName,
		ChunkCount:     chunkCount,
		EmbeddingCount: len(chunkIds),
		ProcessedAt:    time.Now(),
		ChunkIds:       chunkIds,
	}
	snap.TotalChunks += chunkCount
	snap.TotalDocuments = len(snap.Documents)
	snap.LastUpdated = time.Now()

	return t.persistLocked(ctx)
}

// RemoveDocument deletes the tracked record and hands back its chunk ids so
// the caller can remove them from the vector store. An unknown documentId
// is a warning, not a failure.
func (t *Tracker) RemoveDocument(ctx context.Context, documentId string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	record, found := snap.Documents[documentId]
	if !found {
		t.logger.Warn("remove requested for untracked document", "documentId", documentId)
		return []string{}, nil
	}

	delete(snap.Documents, documentId)
	snap.TotalChunks -= record.ChunkCount
	snap.TotalDocuments = len(snap.Documents)
	snap.LastUpdated = time.Now()

	if err := t.persistLocked(ctx); err != nil {
		return nil, err
	}
	return record.ChunkIds, nil
}

func (t *Tracker) GetDocument(ctx context.Context, documentId string) (DocumentRecord, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.loadLocked(ctx)
	if err != nil {
		return DocumentRecord{}, false, err
	}
	record, found := snap.Documents[documentId]
	return record, found, nil
}

func (t *Tracker) GetAllDocuments(ctx context.Context) ([]DocumentRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]DocumentRecord, 0, len(snap.Documents))
	for _, r := range snap.Documents {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ProcessedAt.Before(records[j].ProcessedAt)
	})
	return records, nil
}

func (t *Tracker) GetStats(ctx context.Context) (Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.loadLocked(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalDocuments: snap.TotalDocuments,
		TotalChunks:    snap.TotalChunks,
		LastUpdated:    snap.LastUpdated,
	}, nil
}

// loadLocked lazily reads the snapshot, synthesizing and persisting an
// empty one on first run so later reads always succeed.
func (t *Tracker) loadLocked(ctx context.Context) (*snapshot, error) {
	if t.snap != nil {
		return t.snap, nil
	}

	data, found, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if !found {
		t.logger.Info("no tracking snapshot found, starting fresh")
		t.snap = &snapshot{
			Documents:   make(map[string]DocumentRecord),
			LastUpdated: time.Now(),
		}
		if err := t.persistLocked(ctx); err != nil {
			t.snap = nil
			return nil, err
		}
		return t.snap, nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Documents == nil {
		snap.Documents = make(map[string]DocumentRecord)
	}
	t.snap = &snap
	return t.snap, nil
}

func (t *Tracker) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(t.snap)
	if err != nil {
		return err
	}
	return t.store.Save(ctx, data)
}
