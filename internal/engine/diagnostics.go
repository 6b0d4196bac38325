package engine

// Diagnostics counts the outcomes of every pass, including the paths that
// degrade to a no-op, so skipped work stays observable.
type Diagnostics struct {
	WanderAssigned uint64 `json:"wander_assigned"`
	WanderSkipped  uint64 `json:"wander_skipped"`

	GatherAssigned uint64 `json:"gather_assigned"`
	GatherSkipped  uint64 `json:"gather_skipped"`
	EmptySearches  uint64 `json:"empty_searches"` // No live node (or none in range)

	Arrivals       uint64 `json:"arrivals"`
	NodesConsumed  uint64 `json:"nodes_consumed"`
	StaleGathers   uint64 `json:"stale_gathers"` // Target node consumed before arrival
	Delivered      uint64 `json:"delivered"`
	DroppedGathers uint64 `json:"dropped_gathers"` // Person, house or island missing

	BelowThreshold uint64 `json:"below_threshold"`
	HousesBuilt    uint64 `json:"houses_built"`
	PeopleSpawned  uint64 `json:"people_spawned"`
}
