package favorites

import "github.com/mmcdole/birdmeal/internal/domain"

// Project returns the catalog items present in favorites, in catalog order.
// Ids that reference no catalog item are dropped.
func Project(catalog []domain.CatalogItem, favorites domain.FavoriteSet) []domain.CatalogItem {
	if favorites.IsEmpty() {
		return []domain.CatalogItem{}
	}
	out := make([]domain.CatalogItem, 0, favorites.Len())
	for _, item := range catalog {
		if favorites.Has(item.ID) {
			out = append(out, item)
		}
	}
	return out
}

// Flags reports per catalog row whether the item is a favorite
func Flags(catalog []domain.CatalogItem, favorites domain.FavoriteSet) []bool {
	flags := make([]bool, len(catalog))
	for i, item := range catalog {
		flags[i] = favorites.Has(item.ID)
	}
	return flags
}

// Dangling returns the favorite ids absent from the catalog, ascending
func Dangling(catalog []domain.CatalogItem, favorites domain.FavoriteSet) []domain.ItemID {
	known := make(map[domain.ItemID]struct{}, len(catalog))
	for _, item := range catalog {
		known[item.ID] = struct{}{}
	}
	var out []domain.ItemID
	for _, id := range favorites.IDs() {
		if _, ok := known[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
