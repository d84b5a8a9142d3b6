package service

import (
	"github.com/checkup-report-server/internal/domain"
)

// Classify maps a reading to a status against rng. NoData always yields no_data.
// Bounds are inclusive on the normal side.
func Classify(r domain.Reading, rng domain.ReferenceRange, sex domain.Sex) domain.Status {
	if r.IsNoData() {
		return domain.StatusNoData
	}
	v := r.Value
	low, high := rng.Bounds(sex)

	if rng.HigherIsBetter {
		if low != nil && v < *low {
			return domain.StatusBelow
		}
		return domain.StatusNormal
	}

	if low != nil && v < *low {
		if rng.Slight != nil && rng.Slight.LowFloor != nil && v > *rng.Slight.LowFloor {
			return domain.StatusBelowSlight
		}
		return domain.StatusBelow
	}
	if high != nil && v > *high {
		if rng.Slight != nil && rng.Slight.HighCeil != nil && v < *rng.Slight.HighCeil {
			return domain.StatusAboveSlight
		}
		return domain.StatusAbove
	}
	return domain.StatusNormal
}

// NormalRangeText renders the bounds for display, e.g. "4000-10000", "<= 37" or ">= 40".
func NormalRangeText(rng domain.ReferenceRange, sex domain.Sex) string {
	low, high := rng.Bounds(sex)
	switch {
	case low != nil && high != nil && !rng.HigherIsBetter:
		return formatBound(*low) + "-" + formatBound(*high)
	case low != nil:
		return ">= " + formatBound(*low)
	case high != nil:
		return "<= " + formatBound(*high)
	default:
		return "-"
	}
}
