package search

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/birdmeal/internal/domain"
)

// AllCategories disables the category filter
const AllCategories = ""

// Query selects catalog items by text and category
type Query struct {
	Text     string // Matched against item name and suitable bird names
	Category string // Exact category, or AllCategories
	Fuzzy    bool   // Append fuzzy subsequence hits after substring matches
}

// Result is a matching catalog item
type Result struct {
	Item      domain.CatalogItem
	MatchedOn string // The name or bird name that matched; empty without text
	Score     int    // Lower is better; 0 for substring matches
}

// ItemSource provides the catalog to search
type ItemSource interface {
	Items() []domain.CatalogItem
}

// Service searches the session catalog
type Service struct {
	source ItemSource
	logger *slog.Logger
}

// NewService creates a new search service
func NewService(source ItemSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		logger: logger,
	}
}

// Search filters the session catalog
func (s *Service) Search(q Query) []Result {
	results := Filter(s.source.Items(), q)
	s.logger.Debug("catalog search", "query", q.Text, "category", q.Category, "results", len(results))
	return results
}

// Categories lists the categories of the session catalog
func (s *Service) Categories() []string {
	return Categories(s.source.Items())
}

// Filter returns the items matching q.
// Text selects case-insensitive substring matches in catalog order. With
// q.Fuzzy set, fuzzy subsequence matches follow, ranked by edit distance.
func Filter(items []domain.CatalogItem, q Query) []Result {
	text := strings.TrimSpace(q.Text)

	var exact, fuzzyHits []Result
	for _, item := range items {
		if q.Category != AllCategories && item.Category != q.Category {
			continue
		}
		if text == "" {
			exact = append(exact, Result{Item: item})
			continue
		}

		res, ok := match(item, text, q.Fuzzy)
		if !ok {
			continue
		}
		if res.Score == 0 {
			exact = append(exact, res)
		} else {
			fuzzyHits = append(fuzzyHits, res)
		}
	}

	// Stable so equal scores keep catalog order
	slices.SortStableFunc(fuzzyHits, func(a, b Result) int {
		return a.Score - b.Score
	})
	return append(exact, fuzzyHits...)
}

// match tries the item name, then each bird name
func match(item domain.CatalogItem, text string, allowFuzzy bool) (Result, bool) {
	candidates := append([]string{item.Name}, item.BirdNames()...)
	lower := strings.ToLower(text)

	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), lower) {
			return Result{Item: item, MatchedOn: c}, true
		}
	}

	if !allowFuzzy {
		return Result{}, false
	}

	best := Result{Score: -1}
	for _, c := range candidates {
		d := fuzzy.RankMatchFold(text, c)
		if d < 0 {
			continue
		}
		// Shift so fuzzy hits never tie with substring matches
		d++
		if best.Score < 0 || d < best.Score {
			best = Result{Item: item, MatchedOn: c, Score: d}
		}
	}
	return best, best.Score > 0
}

// Categories returns the distinct non-empty categories in catalog order
func Categories(items []domain.CatalogItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	return out
}
