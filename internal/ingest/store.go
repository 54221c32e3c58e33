package ingest

import (
	"errors"
	"fmt"

	"career-constellation/internal/model"
)

var ErrDuplicateChunkID = errors.New("duplicate chunk id")

// Store holds every chunk produced by one load, in insertion order.
type Store struct {
	chunks []model.Chunk
	ids    map[string]struct{}
}

func NewStore() *Store {
	return &Store{ids: make(map[string]struct{})}
}

// Add appends chunks, rejecting the whole batch if any id is already taken.
func (s *Store) Add(chunks ...model.Chunk) error {
	batch := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if _, ok := s.ids[c.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateChunkID, c.ID)
		}
		if _, ok := batch[c.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateChunkID, c.ID)
		}
		batch[c.ID] = struct{}{}
	}
	for id := range batch {
		s.ids[id] = struct{}{}
	}
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// Chunks returns the stored chunks. Callers must not modify the slice.
func (s *Store) Chunks() []model.Chunk {
	return s.chunks
}

func (s *Store) Len() int {
	return len(s.chunks)
}
