package domain

// MutationKind selects how a mutation derives the next favorite set
type MutationKind int

const (
	MutationAdd MutationKind = iota
	MutationRemove
	MutationClear
	MutationToggle
)

func (k MutationKind) String() string {
	switch k {
	case MutationAdd:
		return "add"
	case MutationRemove:
		return "remove"
	case MutationClear:
		return "clear"
	case MutationToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// MutationRequest asks the coordinator to change the favorite set.
// It only lives for the duration of one coordinator call.
type MutationRequest struct {
	ID     string // Correlation id for logs, assigned on submit when empty
	Kind   MutationKind
	ItemID ItemID // Ignored for MutationClear
}

// Add builds a request that adds id to the favorite set
func Add(id ItemID) MutationRequest {
	return MutationRequest{Kind: MutationAdd, ItemID: id}
}

// Remove builds a request that removes id from the favorite set
func Remove(id ItemID) MutationRequest {
	return MutationRequest{Kind: MutationRemove, ItemID: id}
}

// Clear builds a request that empties the favorite set
func Clear() MutationRequest {
	return MutationRequest{Kind: MutationClear}
}

// Toggle builds a request that flips membership of id, resolved when it runs
func Toggle(id ItemID) MutationRequest {
	return MutationRequest{Kind: MutationToggle, ItemID: id}
}

// Apply derives the next favorite set from base
func (r MutationRequest) Apply(base FavoriteSet) FavoriteSet {
	switch r.Kind {
	case MutationAdd:
		return base.With(r.ItemID)
	case MutationRemove:
		return base.Without(r.ItemID)
	case MutationClear:
		return FavoriteSet{}
	case MutationToggle:
		if base.Has(r.ItemID) {
			return base.Without(r.ItemID)
		}
		return base.With(r.ItemID)
	default:
		return base
	}
}
