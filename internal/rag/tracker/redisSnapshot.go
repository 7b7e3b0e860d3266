package tracker

import (
	"context"

	"github.com/skondray/pmcopilot/internal/data/redisStore"
)

// RedisSnapshotStore keeps the snapshot in redis when the remote vector
// backend is active. One key per collection, no expiry - tracking metadata
// lives as long as the vectors do.
type RedisSnapshotStore struct {
	store *redisStore.Store
	key   string
}

func NewRedisSnapshotStore(store *redisStore.Store, collection string) *RedisSnapshotStore {
	return &RedisSnapshotStore{
		store: store,
		key:   "tracking:" + collection,
	}
}

func (s *RedisSnapshotStore) Load(ctx context.Context) ([]byte, bool, error) {
	val, err := s.store.Get(ctx, s.key)
	if s.store.IsNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(val), true, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, data []byte) error {
	return s.store.Set(ctx, s.key, data, 0)
}
