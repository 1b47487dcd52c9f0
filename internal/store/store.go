// Package store provides an interface for product storage operations.
package store

import "context"

// Product is the sole persisted entity. The JSON field names match the
// historical data file layout; encoding/json matches them case-insensitively
// on read, so older files with differing capitalization still load.
type Product struct {
	Number     int      `json:"Number"`
	Brand      string   `json:"Brand"`
	Img        string   `json:"img"`
	Style      string   `json:"Style"`
	Country    string   `json:"Country"`
	Variety    string   `json:"Variety"`
	Vegetarian string   `json:"Vegetarian"`
	Ratings    []int    `json:"Ratings,omitempty"`
	Feedback   []string `json:"Feedback,omitempty"`
}

// ProductStore is the sole authority for reading and writing the persisted
// product collection. It abstracts the underlying data store, allowing the
// service to be tested against a fake implementation.
//
// Every mutation follows load-full-collection, mutate-in-memory,
// persist-full-collection. Mutations are serialized within a single process;
// there is no cross-process locking, so two processes sharing one data file
// can still lose updates.
type ProductStore interface {
	// Load reads the entire backing document and deserializes it.
	// Returns ErrStorageUnavailable (wrapped) if the document cannot be
	// opened or is not well-formed.
	Load(ctx context.Context) ([]Product, error)

	// AddRating appends rating to the product's ratings, initializing the
	// sequence if absent, and persists. A non-empty feedback string is
	// appended to the product's feedback alongside the rating.
	// Returns false and performs no write if no product has the given number.
	AddRating(ctx context.Context, number, rating int, feedback string) (bool, error)

	// Create appends the record as given and persists. The caller is
	// responsible for resolving all fields beforehand, including assigning
	// the number (see NextNumber).
	Create(ctx context.Context, draft Product) (*Product, error)

	// Update replaces the record sharing updated.Number in place, then
	// persists. If no record matches, Update is a silent no-op; callers
	// that need to report the miss must check existence first.
	Update(ctx context.Context, updated Product) error

	// Delete removes the record matching number, persists the remainder,
	// and returns the removed record.
	// Returns ErrProductNotFound if no record matched.
	Delete(ctx context.Context, number int) (*Product, error)

	// Persist serializes the full collection and overwrites the backing
	// document. This is a full-file rewrite; a crash mid-write can corrupt
	// the document.
	Persist(ctx context.Context, products []Product) error
}

// NextNumber returns the number a newly created product should get:
// one past the highest existing number, or 1 on an empty collection.
func NextNumber(products []Product) int {
	next := 1
	for _, p := range products {
		if p.Number >= next {
			next = p.Number + 1
		}
	}
	return next
}

// FindByNumber scans products for the record with the given number.
// Collections here are small enough that a linear scan is fine.
func FindByNumber(products []Product, number int) (*Product, bool) {
	for i := range products {
		if products[i].Number == number {
			return &products[i], true
		}
	}
	return nil, false
}
