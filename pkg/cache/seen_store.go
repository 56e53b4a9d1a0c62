package cache

import (
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var bucketSeen = []byte("seen_messages") // MessageID -> 1

// SeenStore records which message IDs have already been folded.
// First-seen-wins: MarkSeen reports whether the ID was newly recorded.
type SeenStore interface {
	// MarkSeen records a message ID as seen.
	//
	// Returns:
	//   - true if the ID had not been seen before (fold the fact)
	//   - false if the ID was already recorded (discard the fact)
	MarkSeen(messageID string) (bool, error)

	// Len returns the number of distinct IDs recorded.
	Len() int

	// Clear forgets every recorded ID, including persisted ones.
	Clear() error

	// Close releases any resources held by the store.
	Close() error
}

// memorySeenStore is the default SeenStore. It lives only as long as
// the process; the set is rebuilt from source logs on every cold start.
type memorySeenStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemorySeenStore creates an in-memory seen-ID store.
func NewMemorySeenStore() SeenStore {
	return &memorySeenStore{seen: make(map[string]struct{})}
}

// MarkSeen implements SeenStore.MarkSeen.
func (s *memorySeenStore) MarkSeen(messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[messageID]; exists {
		return false, nil
	}
	s.seen[messageID] = struct{}{}
	return true, nil
}

// Len implements SeenStore.Len.
func (s *memorySeenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Clear implements SeenStore.Clear.
func (s *memorySeenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]struct{})
	return nil
}

// Close implements SeenStore.Close.
func (s *memorySeenStore) Close() error { return nil }

// boltSeenStore persists seen IDs in BoltDB so deduplication survives
// restarts even after source logs have been rotated away.
type boltSeenStore struct {
	db *bolt.DB

	mu     sync.Mutex
	closed bool
}

// NewBoltSeenStore creates a BoltDB-backed seen-ID store.
//
// Parameters:
//   - db: open BoltDB database instance; the store takes ownership and
//     closes it on Close
//
// Returns an error if the backing bucket cannot be created.
func NewBoltSeenStore(db *bolt.DB) (SeenStore, error) {
	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketSeen)
		return createErr
	}); err != nil {
		return nil, fmt.Errorf("failed to create seen bucket: %w", err)
	}

	return &boltSeenStore{db: db}, nil
}

// MarkSeen implements SeenStore.MarkSeen.
func (s *boltSeenStore) MarkSeen(messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSeenStoreClosed
	}

	var newlySeen bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSeen)
		if b.Get([]byte(messageID)) != nil {
			return nil
		}
		newlySeen = true
		return b.Put([]byte(messageID), []byte{1})
	})
	if err != nil {
		return false, fmt.Errorf("failed to record message ID: %w", err)
	}

	return newlySeen, nil
}

// Len implements SeenStore.Len.
func (s *boltSeenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}

	var n int
	_ = s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketSeen).Stats().KeyN
		return nil
	})
	return n
}

// Clear implements SeenStore.Clear. The backing bucket is dropped and
// recreated in a single transaction.
func (s *boltSeenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSeenStoreClosed
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketSeen); err != nil {
			return err
		}
		_, createErr := tx.CreateBucketIfNotExists(bucketSeen)
		return createErr
	})
	if err != nil {
		return fmt.Errorf("failed to clear seen IDs: %w", err)
	}
	return nil
}

// Close implements SeenStore.Close.
func (s *boltSeenStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
