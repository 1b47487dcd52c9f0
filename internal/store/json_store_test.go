package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	cerrors "github.com/ramenworks/ramenratings/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore writes products as an indented JSON array into a temp file
// and returns a JSONStore over it.
func newTestStore(t *testing.T, products []Product) *JSONStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ramen.json")
	data, err := json.MarshalIndent(products, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return NewJSONStore(path)
}

func sampleProducts() []Product {
	return []Product{
		{Number: 1, Brand: "Nissin", Style: "Cup", Country: "Japan", Variety: "Chicken", Vegetarian: "Not Veg", Ratings: []int{3, 4, 5}, Feedback: []string{"Good", "Tasty"}},
		{Number: 2, Brand: "Maruchan", Style: "Pack", Country: "United States", Variety: "Beef", Vegetarian: "Not Veg", Ratings: []int{5, 5}},
		{Number: 4, Brand: "Indomie", Style: "Pack", Country: "Indonesia", Variety: "Mi Goreng", Vegetarian: "Veg"},
	}
}

func Test_JSONStore_Load(t *testing.T) {
	t.Run("Success - loads all products", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		// when
		products, err := s.Load(context.Background())
		// then
		require.NoError(t, err)
		assert.Equal(t, sampleProducts(), products)
	})

	t.Run("Success - field names match case-insensitively", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "ramen.json")
		raw := `[{"number": 7, "brand": "Paldo", "IMG": "/images/7.jpg", "ratings": [4]}]`
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
		s := NewJSONStore(path)
		// when
		products, err := s.Load(context.Background())
		// then
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, 7, products[0].Number)
		assert.Equal(t, "Paldo", products[0].Brand)
		assert.Equal(t, "/images/7.jpg", products[0].Img)
		assert.Equal(t, []int{4}, products[0].Ratings)
	})

	t.Run("Error - missing file", func(t *testing.T) {
		// given
		s := NewJSONStore(filepath.Join(t.TempDir(), "nope.json"))
		// when
		products, err := s.Load(context.Background())
		// then
		assert.ErrorIs(t, err, cerrors.ErrStorageUnavailable)
		assert.Nil(t, products)
	})

	t.Run("Error - malformed document", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "ramen.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		s := NewJSONStore(path)
		// when
		_, err := s.Load(context.Background())
		// then
		assert.ErrorIs(t, err, cerrors.ErrStorageUnavailable)
	})
}

func Test_JSONStore_AddRating(t *testing.T) {
	t.Run("Success - appends rating preserving order", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		// when
		ok, err := s.AddRating(context.Background(), 1, 2, "")
		// then
		require.NoError(t, err)
		assert.True(t, ok)
		products, err := s.Load(context.Background())
		require.NoError(t, err)
		p, found := FindByNumber(products, 1)
		require.True(t, found)
		assert.Equal(t, []int{3, 4, 5, 2}, p.Ratings)
		assert.Equal(t, []string{"Good", "Tasty"}, p.Feedback)
	})

	t.Run("Success - initializes absent ratings sequence", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		// when
		ok, err := s.AddRating(context.Background(), 4, 5, "")
		// then
		require.NoError(t, err)
		assert.True(t, ok)
		products, _ := s.Load(context.Background())
		p, _ := FindByNumber(products, 4)
		assert.Equal(t, []int{5}, p.Ratings)
	})

	t.Run("Success - appends feedback alongside rating", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		// when
		ok, err := s.AddRating(context.Background(), 2, 4, "Great broth")
		// then
		require.NoError(t, err)
		assert.True(t, ok)
		products, _ := s.Load(context.Background())
		p, _ := FindByNumber(products, 2)
		assert.Equal(t, []int{5, 5, 4}, p.Ratings)
		assert.Equal(t, []string{"Great broth"}, p.Feedback)
	})

	t.Run("Miss - unknown number performs no write", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		before, err := os.ReadFile(s.path)
		require.NoError(t, err)
		// when
		ok, err := s.AddRating(context.Background(), 99, 5, "hello")
		// then
		require.NoError(t, err)
		assert.False(t, ok)
		after, err := os.ReadFile(s.path)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func Test_JSONStore_Create(t *testing.T) {
	t.Run("Success - appends and persists the record as given", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		draft := Product{Number: 5, Brand: "Nongshim", Style: "Bowl", Country: "South Korea", Variety: "Shin Ramyun", Vegetarian: "Not Veg", Img: "/images/5.jpg", Ratings: []int{4}}
		// when
		created, err := s.Create(context.Background(), draft)
		// then
		require.NoError(t, err)
		assert.Equal(t, draft, *created)
		products, err := s.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 4)
		assert.Equal(t, draft, products[3])
	})

	t.Run("Success - appends to an empty collection", func(t *testing.T) {
		// given
		s := newTestStore(t, []Product{})
		// when
		_, err := s.Create(context.Background(), Product{Number: 1, Brand: "Nissin"})
		// then
		require.NoError(t, err)
		products, err := s.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, products, 1)
	})
}

func Test_JSONStore_Update(t *testing.T) {
	t.Run("Success - replaces the record in place", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		updated := Product{Number: 2, Brand: "NewBrand", Style: "Pack", Country: "United States", Variety: "Beef", Vegetarian: "Not Veg", Ratings: []int{5, 5}}
		// when
		err := s.Update(context.Background(), updated)
		// then
		require.NoError(t, err)
		products, err := s.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, updated, products[1])
		// other entries untouched
		assert.Equal(t, sampleProducts()[0], products[0])
		assert.Equal(t, sampleProducts()[2], products[2])
	})

	t.Run("Miss - unknown number is a silent no-op", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		// when
		err := s.Update(context.Background(), Product{Number: 99, Brand: "Ghost"})
		// then
		require.NoError(t, err)
		products, err := s.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sampleProducts(), products)
	})
}

func Test_JSONStore_Delete(t *testing.T) {
	t.Run("Success - removes the record and returns it", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		// when
		removed, err := s.Delete(context.Background(), 2)
		// then
		require.NoError(t, err)
		assert.Equal(t, sampleProducts()[1], *removed)
		products, err := s.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 2)
		_, found := FindByNumber(products, 2)
		assert.False(t, found)
	})

	t.Run("Error - unknown number", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		// when
		removed, err := s.Delete(context.Background(), 99)
		// then
		assert.ErrorIs(t, err, cerrors.ErrProductNotFound)
		assert.Nil(t, removed)
	})
}

func Test_JSONStore_Persist(t *testing.T) {
	t.Run("Success - overwrites the whole document", func(t *testing.T) {
		// given
		s := newTestStore(t, sampleProducts())
		replacement := []Product{{Number: 9, Brand: "Paldo", Style: "Cup", Country: "South Korea", Variety: "Kimchi", Vegetarian: "Veg"}}
		// when
		err := s.Persist(context.Background(), replacement)
		// then
		require.NoError(t, err)
		products, err := s.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, 9, products[0].Number)
	})
}

func Test_NextNumber(t *testing.T) {
	testCases := []struct {
		name     string
		products []Product
		expected int
	}{
		{name: "empty collection starts at 1", products: nil, expected: 1},
		{name: "one past the highest number", products: sampleProducts(), expected: 5},
		{name: "gaps are not reused", products: []Product{{Number: 10}, {Number: 3}}, expected: 11},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NextNumber(tc.products))
		})
	}
}

func Test_FindByNumber(t *testing.T) {
	// given
	products := sampleProducts()
	// when
	p, found := FindByNumber(products, 4)
	// then
	require.True(t, found)
	assert.Equal(t, "Indomie", p.Brand)

	_, found = FindByNumber(products, 3)
	assert.False(t, found)
}
