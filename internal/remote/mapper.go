package remote

import "github.com/mmcdole/birdmeal/internal/domain"

// MapItems converts wire items to domain catalog items, preserving order
func MapItems(items []ItemDTO) []domain.CatalogItem {
	result := make([]domain.CatalogItem, 0, len(items))
	for _, it := range items {
		result = append(result, MapItem(it))
	}
	return result
}

// MapItem converts a single wire item
func MapItem(it ItemDTO) domain.CatalogItem {
	var suit []domain.SuitabilityEntry
	if len(it.SuitableFor) > 0 {
		suit = make([]domain.SuitabilityEntry, len(it.SuitableFor))
		for i, s := range it.SuitableFor {
			suit[i] = domain.SuitabilityEntry{BirdName: s.BirdName}
		}
	}
	return domain.CatalogItem{
		ID:          domain.ItemID(it.ID),
		Name:        it.Name,
		ImageRef:    it.Image,
		Category:    it.Category,
		Suitability: suit,
	}
}

// MapProfile converts a wire profile
func MapProfile(p ProfileDTO) domain.Profile {
	ids := make([]domain.ItemID, len(p.Favorites))
	for i, id := range p.Favorites {
		ids[i] = domain.ItemID(id)
	}
	return domain.Profile{
		ID:        domain.ProfileID(p.ID),
		Username:  p.Username,
		Secret:    p.Password,
		Favorites: domain.NewFavoriteSet(ids...),
	}
}

// toWireIDs converts a favorite set to a sorted id array (never nil, so it encodes as [])
func toWireIDs(set domain.FavoriteSet) []int64 {
	ids := set.IDs()
	wire := make([]int64, len(ids))
	for i, id := range ids {
		wire[i] = int64(id)
	}
	return wire
}
