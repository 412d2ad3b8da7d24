package search

import (
	"slices"
	"testing"

	"github.com/mmcdole/birdmeal/internal/domain"
)

func birds(names ...string) []domain.SuitabilityEntry {
	out := make([]domain.SuitabilityEntry, len(names))
	for i, n := range names {
		out[i] = domain.SuitabilityEntry{BirdName: n}
	}
	return out
}

var catalog = []domain.CatalogItem{
	{ID: 1, Name: "Millet Spray", Category: "Seeds", Suitability: birds("Finch", "Budgie")},
	{ID: 2, Name: "Mealworms", Category: "Insects", Suitability: birds("Robin", "Bluebird")},
	{ID: 3, Name: "Sunflower Hearts", Category: "Seeds", Suitability: birds("Goldfinch")},
	{ID: 4, Name: "Suet Cake", Category: "Fat", Suitability: birds("Woodpecker")},
}

func resultIDs(results []Result) []domain.ItemID {
	ids := make([]domain.ItemID, len(results))
	for i, r := range results {
		ids[i] = r.Item.ID
	}
	return ids
}

type staticSource []domain.CatalogItem

func (s staticSource) Items() []domain.CatalogItem { return s }

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []domain.ItemID
	}{
		{"empty query returns all", Query{}, []domain.ItemID{1, 2, 3, 4}},
		{"name substring ignores case", Query{Text: "MEAL"}, []domain.ItemID{2}},
		{"bird name substring", Query{Text: "finch"}, []domain.ItemID{1, 3}},
		{"category only", Query{Category: "Seeds"}, []domain.ItemID{1, 3}},
		{"text and category", Query{Text: "robin", Category: "Seeds"}, []domain.ItemID{}},
		{"no match", Query{Text: "zzzz"}, []domain.ItemID{}},
		{"substring only by default", Query{Text: "wdpkr"}, []domain.ItemID{}},
		{"fuzzy subsequence", Query{Text: "wdpkr", Fuzzy: true}, []domain.ItemID{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resultIDs(Filter(catalog, tt.q))
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Filter(%+v) = %v, want %v", tt.q, got, tt.want)
			}
		})
	}
}

func TestFilter_SubstringBeforeFuzzy(t *testing.T) {
	items := []domain.CatalogItem{
		{ID: 1, Name: "Sunflower Hearts"},
		{ID: 2, Name: "Suet Cake"},
	}
	if got := Filter(items, Query{Text: "suet"}); len(got) != 1 {
		t.Fatalf("Filter without fuzzy = %d results, want 1", len(got))
	}

	got := Filter(items, Query{Text: "suet", Fuzzy: true})
	if ids := resultIDs(got); !slices.Equal(ids, []domain.ItemID{2, 1}) {
		t.Fatalf("Filter = %v, want [2 1]", ids)
	}
	if got[0].Score != 0 || got[1].Score <= 0 {
		t.Fatalf("scores = %d, %d, want substring 0 then fuzzy > 0", got[0].Score, got[1].Score)
	}
}

func TestFilter_SubstringKeepsCatalogOrder(t *testing.T) {
	items := []domain.CatalogItem{
		{ID: 1, Name: "Striped Seeds"},
		{ID: 2, Name: "Seed Mix"},
	}
	got := Filter(items, Query{Text: "seed"})
	if ids := resultIDs(got); !slices.Equal(ids, []domain.ItemID{1, 2}) {
		t.Fatalf("Filter = %v, want [1 2]", ids)
	}
	if got[0].Score != 0 || got[0].MatchedOn != "Striped Seeds" {
		t.Fatalf("first result = %+v, want substring match on name", got[0])
	}
}

func TestFilter_RecordsMatchedBird(t *testing.T) {
	got := Filter(catalog, Query{Text: "bluebird"})
	if len(got) != 1 || got[0].MatchedOn != "Bluebird" {
		t.Fatalf("Filter = %+v, want match on Bluebird", got)
	}
}

func TestCategories(t *testing.T) {
	items := append(slices.Clone(catalog), domain.CatalogItem{ID: 5, Name: "Mystery"})
	got := Categories(items)
	if want := []string{"Seeds", "Insects", "Fat"}; !slices.Equal(got, want) {
		t.Fatalf("Categories = %v, want %v", got, want)
	}
}

func TestService(t *testing.T) {
	s := NewService(staticSource(catalog), nil)
	if got := resultIDs(s.Search(Query{Text: "cake"})); !slices.Equal(got, []domain.ItemID{4}) {
		t.Fatalf("Search = %v, want [4]", got)
	}
	if got := s.Categories(); len(got) != 3 {
		t.Fatalf("Categories = %v, want 3 entries", got)
	}
}
