// Package query provides pure, stateless transformations over an in-memory
// product collection: filtering, searching, sorting, and aggregate statistics.
// No function here performs I/O or mutates its input.
package query

import (
	"sort"
	"strings"

	"github.com/ramenworks/ramenratings/internal/store"
)

// Tolerance absorbs floating-point noise when comparing average ratings for
// the highest-rated tie set.
const Tolerance = 1e-4

// Sort keys accepted by SortBy. Any other value leaves the input order intact.
const (
	SortBrandAsc     = "BrandAsc"
	SortBrandDesc    = "BrandDesc"
	SortRatingAsc    = "RatingAsc"
	SortRatingDesc   = "RatingDesc"
	SortRatingCountH = "RatingNumHigh"
	SortRatingCountL = "RatingNumLow"
)

// Stats summarizes the whole collection for the landing page.
type Stats struct {
	TotalBrands   int    `json:"totalBrands"`
	TotalProducts int    `json:"totalProducts"`
	TotalRatings  int    `json:"totalRatings"`
	HighestRated  string `json:"highestRated"`
}

// AverageRating returns the arithmetic mean of p's ratings. The second return
// is false when the product has no ratings; an absent sequence means zero
// votes, never an error.
func AverageRating(p store.Product) (float64, bool) {
	if len(p.Ratings) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range p.Ratings {
		sum += r
	}
	return float64(sum) / float64(len(p.Ratings)), true
}

// FilterByBrand keeps products whose brand is a member of brands.
// An empty brand set passes the collection through unchanged.
func FilterByBrand(products []store.Product, brands []string) []store.Product {
	return filterByMembership(products, brands, func(p store.Product) string { return p.Brand })
}

// FilterByStyle keeps products whose style is a member of styles.
// An empty style set passes the collection through unchanged.
func FilterByStyle(products []store.Product, styles []string) []store.Product {
	return filterByMembership(products, styles, func(p store.Product) string { return p.Style })
}

func filterByMembership(products []store.Product, wanted []string, key func(store.Product) string) []store.Product {
	if len(wanted) == 0 {
		return products
	}
	set := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		set[w] = struct{}{}
	}
	out := make([]store.Product, 0, len(products))
	for _, p := range products {
		if _, ok := set[key(p)]; ok {
			out = append(out, p)
		}
	}
	return out
}

// FilterByRatingRange keeps products whose average rating lies in [min, max]
// inclusive. Products with no ratings are excluded, not treated as average 0.
func FilterByRatingRange(products []store.Product, min, max float64) []store.Product {
	out := make([]store.Product, 0, len(products))
	for _, p := range products {
		avg, ok := AverageRating(p)
		if !ok {
			continue
		}
		if avg >= min && avg <= max {
			out = append(out, p)
		}
	}
	return out
}

// SearchByVariety keeps products whose variety contains term,
// case-insensitively. An empty term returns the collection unfiltered.
func SearchByVariety(products []store.Product, term string) []store.Product {
	if term == "" {
		return products
	}
	needle := strings.ToLower(term)
	out := make([]store.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Variety), needle) {
			out = append(out, p)
		}
	}
	return out
}

// SortBy returns a sorted copy of products. Brand ordering is lexicographic
// and case-sensitive as stored; rating orderings use the average, with
// unrated products sorting as zero. An unrecognized key returns the
// collection in its existing order.
func SortBy(products []store.Product, key string) []store.Product {
	out := make([]store.Product, len(products))
	copy(out, products)

	avg := func(p store.Product) float64 {
		a, _ := AverageRating(p)
		return a
	}

	switch key {
	case SortBrandAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Brand < out[j].Brand })
	case SortBrandDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Brand > out[j].Brand })
	case SortRatingAsc:
		sort.SliceStable(out, func(i, j int) bool { return avg(out[i]) < avg(out[j]) })
	case SortRatingDesc:
		sort.SliceStable(out, func(i, j int) bool { return avg(out[i]) > avg(out[j]) })
	case SortRatingCountH:
		sort.SliceStable(out, func(i, j int) bool { return len(out[i].Ratings) > len(out[j].Ratings) })
	case SortRatingCountL:
		sort.SliceStable(out, func(i, j int) bool { return len(out[i].Ratings) < len(out[j].Ratings) })
	}
	return out
}

// Brands returns the distinct non-empty brands in products, sorted ascending.
func Brands(products []store.Product) []string {
	return distinct(products, func(p store.Product) string { return p.Brand })
}

// Styles returns the distinct non-empty styles in products, sorted ascending.
func Styles(products []store.Product) []string {
	return distinct(products, func(p store.Product) string { return p.Style })
}

func distinct(products []store.Product, key func(store.Product) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range products {
		k := key(p)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Aggregate computes collection-wide statistics: the number of distinct
// non-empty brands, the product count, the total number of ratings, and the
// varieties tied for the single highest average rating. Ties within Tolerance
// are all included, joined with ", ", rather than picking one arbitrarily.
func Aggregate(products []store.Product) Stats {
	stats := Stats{TotalProducts: len(products)}
	stats.TotalBrands = len(Brands(products))

	best := 0.0
	var top []string
	for _, p := range products {
		stats.TotalRatings += len(p.Ratings)
		avg, ok := AverageRating(p)
		if !ok {
			continue
		}
		switch {
		case avg > best+Tolerance:
			best = avg
			top = []string{p.Variety}
		case avg >= best-Tolerance:
			top = append(top, p.Variety)
		}
	}
	stats.HighestRated = strings.Join(top, ", ")
	return stats
}
