// Package glucose stores and summarizes a user's blood glucose readings.
package glucose

import (
	"time"

	"github.com/google/uuid"
)

// Accepted reading range in mg/dL.
const (
	MinValue = 20
	MaxValue = 600
)

type MomentOfDay string

const (
	BeforeBreakfast MomentOfDay = "BEFORE_BREAKFAST"
	AfterBreakfast  MomentOfDay = "AFTER_BREAKFAST"
	BeforeLunch     MomentOfDay = "BEFORE_LUNCH"
	AfterLunch      MomentOfDay = "AFTER_LUNCH"
	BeforeDinner    MomentOfDay = "BEFORE_DINNER"
	AfterDinner     MomentOfDay = "AFTER_DINNER"
	BeforeSleep     MomentOfDay = "BEFORE_SLEEP"
	Other           MomentOfDay = "OTHER"
)

var MomentsOfDay = []MomentOfDay{
	BeforeBreakfast, AfterBreakfast,
	BeforeLunch, AfterLunch,
	BeforeDinner, AfterDinner,
	BeforeSleep, Other,
}

func (m MomentOfDay) Valid() bool {
	for _, v := range MomentsOfDay {
		if m == v {
			return true
		}
	}
	return false
}

type Reading struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"userId"`
	Value       float64     `json:"value"`
	Timestamp   time.Time   `json:"timestamp"`
	MomentOfDay MomentOfDay `json:"momentOfDay"`
	Notes       *string     `json:"notes,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Stats summarizes all readings of one user. Every field is zero when there are none.
type Stats struct {
	Average       float64 `json:"average"`
	Minimum       float64 `json:"minimum"`
	Maximum       float64 `json:"maximum"`
	TotalReadings int     `json:"totalReadings"`
}

// Filter narrows a listing. Zero values mean no constraint.
type Filter struct {
	From        *time.Time
	To          *time.Time
	MomentOfDay *MomentOfDay
	Limit       int
}

func (f Filter) matches(r Reading) bool {
	if f.From != nil && r.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && r.Timestamp.After(*f.To) {
		return false
	}
	if f.MomentOfDay != nil && r.MomentOfDay != *f.MomentOfDay {
		return false
	}
	return true
}

func validValue(v float64) bool {
	return v >= MinValue && v <= MaxValue
}
