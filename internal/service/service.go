// Package service provides the implementation of catalog business logic:
// listing with filters, rating submission, and the create/update/delete
// flows including field resolution and duplicate detection.
package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	cerrors "github.com/ramenworks/ramenratings/internal/errors"
	"github.com/ramenworks/ramenratings/internal/query"
	"github.com/ramenworks/ramenratings/internal/store"
)

// Field length limits enforced by the create and update flows.
const (
	MaxBrandLen   = 20
	MaxStyleLen   = 20
	MaxVarietyLen = 35
)

// otherChoice is the dropdown sentinel meaning "the user typed a new value".
const otherChoice = "Other"

// CatalogService defines the operations the presentation layer consumes.
type CatalogService interface {
	// List returns the collection after applying opts: brand and style
	// filters, rating range, variety search, then sort, in that order.
	List(ctx context.Context, opts ListOptions) ([]store.Product, error)

	// FindByNumber retrieves a single product.
	// Returns ErrProductNotFound if no product has the given number.
	FindByNumber(ctx context.Context, number int) (*store.Product, error)

	// AddRating appends a rating (and optional feedback) to a product.
	// Returns ErrProductNotFound if no product has the given number.
	AddRating(ctx context.Context, number, rating int, feedback string) error

	// Create validates the form, saves the uploaded image, assigns the next
	// product number, and persists the new record.
	Create(ctx context.Context, form ProductForm, image ImageUpload) (*store.Product, error)

	// Update validates the form against the stored record, falling back to
	// stored values for empty fields, optionally replaces the image, and
	// persists. Returns ErrProductNotFound if no product has the number.
	Update(ctx context.Context, number int, form ProductForm, image *ImageUpload) (*store.Product, error)

	// Delete removes a product and returns the removed record.
	// Returns ErrProductNotFound if no product has the given number.
	Delete(ctx context.Context, number int) (*store.Product, error)

	// Compare returns two distinct products side by side.
	Compare(ctx context.Context, first, second int) (*Comparison, error)

	// Stats aggregates collection-wide statistics.
	Stats(ctx context.Context) (*query.Stats, error)

	// FormOptions returns the distinct brands and styles for form dropdowns.
	FormOptions(ctx context.Context) (*FormOptions, error)
}

// ImageStore is the collaborator that stores uploaded product images and
// returns the relative path to record on the product.
type ImageStore interface {
	Save(number int, filename string, content io.Reader) (string, error)
}

// ListOptions selects and orders a subset of the collection.
// Zero values leave the corresponding step inactive.
type ListOptions struct {
	Brands    []string
	Styles    []string
	MinRating float64
	MaxRating float64
	RateByAvg bool // apply the MinRating/MaxRating range
	Search    string
	Sort      string
}

// ImageUpload carries an uploaded image file into the create/update flows.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// ProductForm carries the create/update form fields. Brand and Style hold
// either an existing value or the "Other" sentinel, in which case NewBrand
// or NewStyle supplies the actual value.
type ProductForm struct {
	Brand      string
	NewBrand   string
	Style      string
	NewStyle   string
	Country    string
	Variety    string
	Vegetarian string
	Rating     int
}

// Comparison holds two products selected for side-by-side display.
type Comparison struct {
	First  store.Product `json:"first"`
	Second store.Product `json:"second"`
}

// FormOptions holds the dropdown values for the create/update forms.
type FormOptions struct {
	Brands []string `json:"brands"`
	Styles []string `json:"styles"`
}

// ValidationError reports a flow-level validation failure on a single field.
// The presentation layer redisplays the form rather than persisting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Service implements CatalogService.
type Service struct {
	repository store.ProductStore
	images     ImageStore
}

// NewService creates a CatalogService backed by the provided store and
// image collaborator.
func NewService(repo store.ProductStore, images ImageStore) *Service {
	return &Service{
		repository: repo,
		images:     images,
	}
}

// List loads the collection and applies opts in filter order
// brand, style, rating range, search, sort.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]store.Product, error) {
	products, err := s.repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	products = query.FilterByBrand(products, opts.Brands)
	products = query.FilterByStyle(products, opts.Styles)
	if opts.RateByAvg {
		products = query.FilterByRatingRange(products, opts.MinRating, opts.MaxRating)
	}
	products = query.SearchByVariety(products, opts.Search)
	return query.SortBy(products, opts.Sort), nil
}

// FindByNumber retrieves a single product by its number.
func (s *Service) FindByNumber(ctx context.Context, number int) (*store.Product, error) {
	products, err := s.repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	p, ok := store.FindByNumber(products, number)
	if !ok {
		return nil, cerrors.ErrProductNotFound
	}
	return p, nil
}

// AddRating appends a rating and optional feedback to the product.
func (s *Service) AddRating(ctx context.Context, number, rating int, feedback string) error {
	ok, err := s.repository.AddRating(ctx, number, rating, feedback)
	if err != nil {
		return fmt.Errorf("failed to add rating to product %d: %w", number, err)
	}
	if !ok {
		return cerrors.ErrProductNotFound
	}
	return nil
}

// Create runs the creation flow: resolve "Other" brand/style, validate,
// reject duplicates, save the image under the next product number, and
// append the record with its initial rating.
func (s *Service) Create(ctx context.Context, form ProductForm, image ImageUpload) (*store.Product, error) {
	products, err := s.repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	brand, style, vErr := resolveChoices(products, form)
	if vErr != nil {
		return nil, vErr
	}
	draft := store.Product{
		Brand:      brand,
		Style:      style,
		Country:    form.Country,
		Variety:    form.Variety,
		Vegetarian: form.Vegetarian,
		Ratings:    []int{form.Rating},
	}
	if vErr := validateFields(draft); vErr != nil {
		return nil, vErr
	}
	if vErr := checkDuplicate(products, draft); vErr != nil {
		return nil, vErr
	}

	draft.Number = store.NextNumber(products)
	img, err := s.images.Save(draft.Number, image.Filename, image.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to save image for product %d: %w", draft.Number, err)
	}
	draft.Img = img

	created, err := s.repository.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

// Update runs the update flow: empty variety, country, and vegetarian fields
// fall back to the stored values, ratings and feedback are preserved, and the
// image is replaced only when a new upload is provided.
func (s *Service) Update(ctx context.Context, number int, form ProductForm, image *ImageUpload) (*store.Product, error) {
	products, err := s.repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	original, ok := store.FindByNumber(products, number)
	if !ok {
		return nil, cerrors.ErrProductNotFound
	}

	brand, style, vErr := resolveChoices(products, form)
	if vErr != nil {
		return nil, vErr
	}
	updated := store.Product{
		Number:     original.Number,
		Brand:      brand,
		Style:      style,
		Country:    fallback(form.Country, original.Country),
		Variety:    fallback(form.Variety, original.Variety),
		Vegetarian: fallback(form.Vegetarian, original.Vegetarian),
		Img:        original.Img,
		Ratings:    original.Ratings,
		Feedback:   original.Feedback,
	}
	if vErr := validateFields(updated); vErr != nil {
		return nil, vErr
	}
	if vErr := checkDuplicate(products, updated); vErr != nil {
		return nil, vErr
	}

	if image != nil {
		img, err := s.images.Save(updated.Number, image.Filename, image.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to save image for product %d: %w", updated.Number, err)
		}
		updated.Img = img
	}

	if err := s.repository.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", number, err)
	}
	return &updated, nil
}

// Delete removes a product and returns the removed record.
func (s *Service) Delete(ctx context.Context, number int) (*store.Product, error) {
	removed, err := s.repository.Delete(ctx, number)
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Compare returns two distinct products for side-by-side display.
func (s *Service) Compare(ctx context.Context, first, second int) (*Comparison, error) {
	if first == second {
		return nil, &ValidationError{Field: "second", Message: "Please select two different ramens."}
	}
	products, err := s.repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	a, ok := store.FindByNumber(products, first)
	if !ok {
		return nil, cerrors.ErrProductNotFound
	}
	b, ok := store.FindByNumber(products, second)
	if !ok {
		return nil, cerrors.ErrProductNotFound
	}
	return &Comparison{First: *a, Second: *b}, nil
}

// Stats aggregates collection-wide statistics.
func (s *Service) Stats(ctx context.Context) (*query.Stats, error) {
	products, err := s.repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	stats := query.Aggregate(products)
	return &stats, nil
}

// FormOptions returns the distinct brands and styles for form dropdowns.
func (s *Service) FormOptions(ctx context.Context) (*FormOptions, error) {
	products, err := s.repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return &FormOptions{
		Brands: query.Brands(products),
		Styles: query.Styles(products),
	}, nil
}

// resolveChoices turns the brand/style dropdown selections into plain values.
// Selecting "Other" requires a new value that does not already exist.
func resolveChoices(products []store.Product, form ProductForm) (brand, style string, _ *ValidationError) {
	brand = form.Brand
	if form.Brand == otherChoice {
		brand = form.NewBrand
		if contains(query.Brands(products), brand) {
			return "", "", &ValidationError{Field: "brand", Message: "Brand already exists"}
		}
	}
	style = form.Style
	if form.Style == otherChoice {
		style = form.NewStyle
		if contains(query.Styles(products), style) {
			return "", "", &ValidationError{Field: "style", Message: "Style already exists"}
		}
	}
	return brand, style, nil
}

// validateFields checks the resolved record against the field rules the
// forms enforce: presence, length limits, and the vegetarian enumeration.
func validateFields(p store.Product) *ValidationError {
	if strings.TrimSpace(p.Brand) == "" {
		return &ValidationError{Field: "brand", Message: "Brand is required."}
	}
	if len(p.Brand) > MaxBrandLen {
		return &ValidationError{Field: "brand", Message: fmt.Sprintf("Character Limit is %d", MaxBrandLen)}
	}
	if strings.TrimSpace(p.Style) == "" {
		return &ValidationError{Field: "style", Message: "Style is required."}
	}
	if len(p.Style) > MaxStyleLen {
		return &ValidationError{Field: "style", Message: fmt.Sprintf("Character Limit is %d", MaxStyleLen)}
	}
	if strings.TrimSpace(p.Variety) == "" {
		return &ValidationError{Field: "variety", Message: "Variety is required."}
	}
	if len(p.Variety) > MaxVarietyLen {
		return &ValidationError{Field: "variety", Message: fmt.Sprintf("Character Limit is %d", MaxVarietyLen)}
	}
	if strings.TrimSpace(p.Country) == "" {
		return &ValidationError{Field: "country", Message: "Country is required."}
	}
	if p.Vegetarian != "Veg" && p.Vegetarian != "Not Veg" {
		return &ValidationError{Field: "vegetarian", Message: "Vegetarian must be Veg or Not Veg"}
	}
	return nil
}

// checkDuplicate rejects a record when another product matches it on brand,
// variety, country, vegetarian, and style, compared case-insensitively.
func checkDuplicate(products []store.Product, candidate store.Product) *ValidationError {
	for _, p := range products {
		if p.Number == candidate.Number {
			continue
		}
		if strings.EqualFold(p.Brand, candidate.Brand) &&
			strings.EqualFold(p.Variety, candidate.Variety) &&
			strings.EqualFold(p.Country, candidate.Country) &&
			strings.EqualFold(p.Vegetarian, candidate.Vegetarian) &&
			strings.EqualFold(p.Style, candidate.Style) {
			return &ValidationError{
				Field:   "product",
				Message: "This product already exists. Modify one or more fields to make it unique.",
			}
		}
	}
	return nil
}

func fallback(value, original string) string {
	if value == "" {
		return original
	}
	return value
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
