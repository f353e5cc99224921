package model

import "time"

// Axis is one independently scored listing attribute.
type Axis string

const (
	AxisLocation Axis = "location"
	AxisPrice    Axis = "price"
	AxisStyle    Axis = "style"
	AxisExposure Axis = "exposure"
	AxisKitchen  Axis = "kitchen"
	AxisBathroom Axis = "bathroom"

	// Informational axes: computed and displayed but excluded from the
	// composite total by construction.
	AxisFloor Axis = "floor"
	AxisArea  Axis = "area"
)

// ScoredAxes lists the six axes that contribute to the composite total.
func ScoredAxes() []Axis {
	return []Axis{AxisLocation, AxisPrice, AxisStyle, AxisExposure, AxisKitchen, AxisBathroom}
}

// Tier is a discrete scoring bracket, ordered best to worst.
type Tier string

const (
	Tier1 Tier = "tier1"
	Tier2 Tier = "tier2"
	Tier3 Tier = "tier3"
)

// AxisScore is one axis verdict: a fixed tier point value (never
// interpolated), the tier it came from, and a justification.
type AxisScore struct {
	Axis          Axis           `json:"axis"`
	Score         int            `json:"score"`
	Tier          Tier           `json:"tier"`
	Justification string         `json:"justification"`
	Details       map[string]any `json:"details,omitempty"`
}

// CompositeScore is the scored outcome for one listing: the six scored axes
// plus informational axes, a total rounded to the nearest multiple of 5, and
// a global tier.
type CompositeScore struct {
	ListingID string              `json:"listing_id"`
	Total     int                 `json:"total"`
	Tier      Tier                `json:"tier"`
	Axes      map[Axis]AxisScore  `json:"axes"`
	// Bonus and Malus are reserved: the configuration still defines the
	// tables but their contribution is hard-coded to zero.
	Bonus    int       `json:"bonus"`
	Malus    int       `json:"malus"`
	ScoredAt time.Time `json:"scored_at"`
}

// GlobalTier classifies a composite total against the fixed breakpoints.
func GlobalTier(total int) Tier {
	switch {
	case total >= 80:
		return Tier1
	case total >= 60:
		return Tier2
	default:
		return Tier3
	}
}
