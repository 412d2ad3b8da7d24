package remote

// ItemDTO is a catalog item as served by GET /items
type ItemDTO struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Image       string           `json:"image"`
	Category    string           `json:"category"`
	SuitableFor []SuitabilityDTO `json:"suitableFor"`
}

// SuitabilityDTO names a bird an item suits
type SuitabilityDTO struct {
	BirdName string `json:"birdName"`
}

// ProfileDTO is a profile as served by GET /profile and PATCH /profile/{id}
type ProfileDTO struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Favorites []int64 `json:"favorites"`
}

// PatchFavoritesRequest is the body of PATCH /profile/{id}
type PatchFavoritesRequest struct {
	Favorites []int64 `json:"favorites"`
}
