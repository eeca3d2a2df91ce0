package models

// LocationCost is the saved price of a directed pickup -> drop pair.
// A nil Cost means the pair has not been priced yet, which is not the same as 0.
type LocationCost struct {
	ID               int64    `json:"id,omitempty"`
	CityID           int64    `json:"cityId"`
	PickupLocationID int64    `json:"pickupLocationId"`
	DropLocationID   int64    `json:"dropLocationId"`
	Cost             *float64 `json:"cost"`
}

// PairKey identifies a directed pickup -> drop pair.
type PairKey struct {
	Pickup int64
	Drop   int64
}

func (c LocationCost) Key() PairKey {
	return PairKey{Pickup: c.PickupLocationID, Drop: c.DropLocationID}
}

// CostMatrixEntry is one editable row of a city's cost matrix.
type CostMatrixEntry struct {
	PickupLocationID   int64    `json:"pickupLocationId"`
	PickupLocationName string   `json:"pickupLocationName"`
	DropLocationID     int64    `json:"dropLocationId"`
	DropLocationName   string   `json:"dropLocationName"`
	Cost               *float64 `json:"cost"`
}
