package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tinftsol/lenda/internal/domain"
	"github.com/tinftsol/lenda/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots []*domain.ReserveSnapshot // append order
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Put appends one observation. Duplicates are allowed.
func (s *SnapshotStore) Put(_ context.Context, snap *domain.ReserveSnapshot) error {
	if snap == nil || snap.Protocol == "" || snap.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapCopy := *snap
	s.snapshots = append(s.snapshots, &snapCopy)
	return nil
}

// GetByMint retrieves up to SnapshotMintWindow most recent snapshots for
// (protocol, mint), newest first.
func (s *SnapshotStore) GetByMint(_ context.Context, protocol, mint string) ([]*domain.ReserveSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filter(func(snap *domain.ReserveSnapshot) bool {
		return snap.Protocol == protocol && snap.MintAddress == mint
	})
	return window(matched, storage.SnapshotMintWindow), nil
}

// GetByProtocol retrieves up to SnapshotProtocolWindow most recent
// snapshots for a protocol across all mints, newest first.
func (s *SnapshotStore) GetByProtocol(_ context.Context, protocol string) ([]*domain.ReserveSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filter(func(snap *domain.ReserveSnapshot) bool {
		return snap.Protocol == protocol
	})
	return window(matched, storage.SnapshotProtocolWindow), nil
}

// DeleteByMint removes all snapshots for a mint.
func (s *SnapshotStore) DeleteByMint(_ context.Context, mint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.snapshots[:0]
	for _, snap := range s.snapshots {
		if snap.MintAddress != mint {
			kept = append(kept, snap)
		}
	}
	s.snapshots = kept
	return nil
}

// filter returns copies of matching snapshots in append order.
// Caller must hold the lock.
func (s *SnapshotStore) filter(match func(*domain.ReserveSnapshot) bool) []*domain.ReserveSnapshot {
	var out []*domain.ReserveSnapshot
	for _, snap := range s.snapshots {
		if match(snap) {
			snapCopy := *snap
			out = append(out, &snapCopy)
		}
	}
	return out
}

// window sorts newest-first and caps the result.
func window(snaps []*domain.ReserveSnapshot, limit int) []*domain.ReserveSnapshot {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].UpdateTime > snaps[j].UpdateTime
	})
	if len(snaps) > limit {
		snaps = snaps[:limit]
	}
	return snaps
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
