package tusd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adamwoolhether/tusc/client/protocol"
)

// Store errors.
var (
	ErrNotFound       = errors.New("upload not found")
	ErrOffsetMismatch = errors.New("offset mismatch")
	ErrExceedsLength  = errors.New("data exceeds upload length")
)

// Info describes one upload resource.
type Info struct {
	ID        string
	Length    int64
	Offset    int64
	Metadata  []protocol.Pair
	CreatedAt time.Time
}

// Complete reports whether every byte of the upload has been received.
func (i Info) Complete() bool {
	return i.Offset == i.Length
}

type upload struct {
	info Info
	data []byte
}

// Store keeps uploads in memory. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	uploads map[string]*upload
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{uploads: make(map[string]*upload)}
}

// Create registers a new empty upload of length bytes.
func (s *Store) Create(length int64, metadata []protocol.Pair) Info {
	info := Info{
		ID:        uuid.NewString(),
		Length:    length,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads[info.ID] = &upload{info: info, data: make([]byte, 0, min(length, 1<<20))}

	return info
}

// Get returns the current state of upload id.
func (s *Store) Get(id string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.uploads[id]
	if !ok {
		return Info{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}

	return u.info, nil
}

// Append writes data at offset, which must equal the upload's current
// offset, and returns the new offset.
func (s *Store) Append(id string, offset int64, data []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.uploads[id]
	if !ok {
		return 0, fmt.Errorf("append %s: %w", id, ErrNotFound)
	}
	if offset != u.info.Offset {
		return u.info.Offset, fmt.Errorf("append %s at %d, have %d: %w", id, offset, u.info.Offset, ErrOffsetMismatch)
	}
	if offset+int64(len(data)) > u.info.Length {
		return u.info.Offset, fmt.Errorf("append %s: %d bytes at %d of %d: %w", id, len(data), offset, u.info.Length, ErrExceedsLength)
	}

	u.data = append(u.data, data...)
	u.info.Offset += int64(len(data))

	return u.info.Offset, nil
}

// Content returns a copy of the bytes received so far.
func (s *Store) Content(id string) ([]byte, Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.uploads[id]
	if !ok {
		return nil, Info{}, fmt.Errorf("content %s: %w", id, ErrNotFound)
	}

	return append([]byte(nil), u.data...), u.info, nil
}

// Delete removes upload id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.uploads[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(s.uploads, id)

	return nil
}

// Len returns the number of uploads held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.uploads)
}
