package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sweetpotato0/transagent/errors"
	"github.com/sweetpotato0/transagent/vector"
)

type entry struct {
	id        string
	text      string
	embedding []float32
	seq       int // insertion order, used as the tie-break for equal scores
}

// InMemoryVectorStore implements vector.Store using in-memory storage
type InMemoryVectorStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq int
}

// NewInMemoryVectorStore creates a new in-memory vector store
func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{
		entries: make(map[string]*entry),
	}
}

// Add stores a text with its embedding under the given id
func (s *InMemoryVectorStore) Add(ctx context.Context, id, text string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		return fmt.Errorf("entry id cannot be empty: %w", errors.ErrInvalidInput)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding cannot be empty: %w", errors.ErrInvalidInput)
	}

	existing, ok := s.entries[id]
	seq := s.nextSeq
	if ok {
		seq = existing.seq
	} else {
		s.nextSeq++
	}
	s.entries[id] = &entry{id: id, text: text, embedding: embedding, seq: seq}
	return nil
}

// FindRelevant returns the best-scoring matches at or above minScore,
// descending by score with insertion order breaking ties.
func (s *InMemoryVectorStore) FindRelevant(ctx context.Context, embedding []float32, maxResults int, minScore float32) ([]vector.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding cannot be empty: %w", errors.ErrInvalidInput)
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	type scored struct {
		entry *entry
		score float32
	}
	results := make([]scored, 0, len(s.entries))
	for _, e := range s.entries {
		if len(e.embedding) != len(embedding) {
			continue
		}
		score := vector.CosineSimilarity(embedding, e.embedding)
		if score < minScore {
			continue
		}
		results = append(results, scored{entry: e, score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].entry.seq < results[j].entry.seq
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	matches := make([]vector.Match, len(results))
	for i, r := range results {
		matches[i] = vector.Match{ID: r.entry.id, Text: r.entry.text, Score: r.score}
	}
	return matches, nil
}

// Delete removes an entry by id
func (s *InMemoryVectorStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; !exists {
		return errors.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

// Clear removes all entries
func (s *InMemoryVectorStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry)
	s.nextSeq = 0
	return nil
}

// Count returns the number of entries
func (s *InMemoryVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries), nil
}
