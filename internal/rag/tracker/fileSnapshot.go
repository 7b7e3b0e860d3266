package tracker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSnapshotStore keeps the snapshot in a single JSON file next to the
// local vector collections.
type FileSnapshotStore struct {
	path string
}

func NewFileSnapshotStore(dir string, collection string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating tracker directory: %w", err)
	}
	return &FileSnapshotStore{
		path: filepath.Join(dir, collection+"-tracking.json"),
	}, nil
}

func (s *FileSnapshotStore) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *FileSnapshotStore) Save(ctx context.Context, data []byte) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
