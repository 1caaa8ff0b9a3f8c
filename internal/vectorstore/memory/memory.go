package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"dodam/internal/domain"
)

// Storage is an in-memory vector store using brute-force cosine
// similarity. It backs the "memory" config mode and the test fakes.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	byID      map[string]int
	chunks    []domain.Chunk
	vectors   [][]float64
}

func NewStorage() *Storage {
	return &Storage{byID: make(map[string]int)}
}

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return errors.New("dimension change requires a new store")
	}
	s.dimension = dimension
	return nil
}

// Upsert replaces entries whose id is already present and appends the
// rest. Never duplicates an id.
func (s *Storage) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		if j, ok := s.byID[chunks[i].ID]; ok {
			s.chunks[j] = chunks[i]
			s.vectors[j] = v
			continue
		}
		s.byID[chunks[i].ID] = len(s.chunks)
		s.chunks = append(s.chunks, chunks[i])
		s.vectors = append(s.vectors, v)
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int, filter domain.Filter) ([]domain.RetrievalHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	for i, ch := range s.chunks {
		if ch.Category != filter.Category {
			continue
		}
		if filter.Section != "" && ch.Section != filter.Section {
			continue
		}
		candidates = append(candidates, scored{i, cosine(s.vectors[i], vector)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if topK > len(candidates) {
		topK = len(candidates)
	}
	hits := make([]domain.RetrievalHit, 0, topK)
	for _, c := range candidates[:topK] {
		ch := s.chunks[c.idx]
		hits = append(hits, domain.RetrievalHit{Text: ch.Text, Source: ch.Source, Score: c.score})
	}
	return hits, nil
}

// Len reports the number of stored entries.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
