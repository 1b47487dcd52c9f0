package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	cerrors "github.com/ramenworks/ramenratings/internal/errors"
)

// JSONStore implements ProductStore over a single indented JSON array on disk.
// The file is the source of truth; every call re-reads it in full and every
// mutation rewrites it in full. A mutex serializes mutations so that two
// concurrent ratings within one process cannot lose each other's write.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore creates a ProductStore backed by the JSON document at path.
// The file must already exist; a brand-new deployment starts from "[]".
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads the entire backing document and deserializes it.
// Returns ErrStorageUnavailable (wrapped) on read or parse failure.
func (s *JSONStore) Load(_ context.Context) ([]Product, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", cerrors.ErrStorageUnavailable, s.path, err)
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", cerrors.ErrStorageUnavailable, s.path, err)
	}
	return products, nil
}

// AddRating appends rating (and optional feedback) to the matching product
// and persists. Returns false without writing when the number is unknown.
func (s *JSONStore) AddRating(ctx context.Context, number, rating int, feedback string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	p, ok := FindByNumber(products, number)
	if !ok {
		return false, nil
	}
	p.Ratings = append(p.Ratings, rating)
	if feedback != "" {
		p.Feedback = append(p.Feedback, feedback)
	}
	if err := s.persist(products); err != nil {
		return false, err
	}
	return true, nil
}

// Create appends the fully resolved record and persists.
func (s *JSONStore) Create(ctx context.Context, draft Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	products = append(products, draft)
	if err := s.persist(products); err != nil {
		return nil, err
	}
	return &draft, nil
}

// Update replaces the record sharing updated.Number in place and persists.
// Silent no-op when no record matches.
func (s *JSONStore) Update(ctx context.Context, updated Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].Number == updated.Number {
			products[i] = updated
			break
		}
	}
	return s.persist(products)
}

// Delete removes the record matching number, persists the remainder, and
// returns the removed record. Returns ErrProductNotFound if none matched.
func (s *JSONStore) Delete(ctx context.Context, number int) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].Number == number {
			removed := products[i]
			remainder := append(products[:i:i], products[i+1:]...)
			if err := s.persist(remainder); err != nil {
				return nil, err
			}
			return &removed, nil
		}
	}
	return nil, cerrors.ErrProductNotFound
}

// Persist serializes the full collection and overwrites the backing document.
func (s *JSONStore) Persist(_ context.Context, products []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(products)
}

// persist is the full-file rewrite shared by every mutation. Write errors
// propagate to the caller; no partial-write recovery is attempted.
func (s *JSONStore) persist(products []Product) error {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}
