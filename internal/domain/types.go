// Package domain contains the core entities of the checkup report engine: analyte readings,
// reference ranges, classification statuses, panel results and advisories.
//
// Reference ranges follow the occupational-health checkup tables of the hospital laboratory;
// the canonical values live in the service package analyte table.
package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Sex selects the bound set of sex-dependent reference ranges.
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// ParseSex maps the record's sex column (Thai) to a Sex value.
func ParseSex(raw string) Sex {
	switch strings.TrimSpace(raw) {
	case "หญิง", "female", "F", "f":
		return SexFemale
	case "ชาย", "male", "M", "m":
		return SexMale
	default:
		return SexUnknown
	}
}

// Status is the categorical result of classifying a reading against a reference range.
type Status string

const (
	StatusNoData      Status = "no_data"
	StatusNormal      Status = "normal"
	StatusBelow       Status = "below"
	StatusBelowSlight Status = "below_slight"
	StatusAbove       Status = "above"
	StatusAboveSlight Status = "above_slight"
)

// IsValid reports whether s is one of the defined statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusNoData, StatusNormal, StatusBelow, StatusBelowSlight, StatusAbove, StatusAboveSlight:
		return true
	default:
		return false
	}
}

// IsLow reports a below-range status of either degree.
func (s Status) IsLow() bool {
	return s == StatusBelow || s == StatusBelowSlight
}

// IsHigh reports an above-range status of either degree.
func (s Status) IsHigh() bool {
	return s == StatusAbove || s == StatusAboveSlight
}

// IsAbnormal reports any out-of-range status. NoData is not abnormal.
func (s Status) IsAbnormal() bool {
	return s.IsLow() || s.IsHigh()
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Label returns the Thai display label used on reports.
func (s Status) Label() string {
	switch s {
	case StatusNormal:
		return "ปกติ"
	case StatusBelow:
		return "ต่ำกว่าเกณฑ์"
	case StatusBelowSlight:
		return "ต่ำกว่าเกณฑ์เล็กน้อย"
	case StatusAbove:
		return "สูงกว่าเกณฑ์"
	case StatusAboveSlight:
		return "สูงกว่าเกณฑ์เล็กน้อย"
	default:
		return "-"
	}
}

// AnalyteID identifies a measurable quantity on the checkup record.
type AnalyteID string

const (
	AnalyteHemoglobin   AnalyteID = "hb"
	AnalyteHematocrit   AnalyteID = "hct"
	AnalyteWBC          AnalyteID = "wbc"
	AnalyteNeutrophil   AnalyteID = "ne"
	AnalyteLymphocyte   AnalyteID = "ly"
	AnalyteMonocyte     AnalyteID = "mo"
	AnalyteEosinophil   AnalyteID = "eo"
	AnalyteBasophil     AnalyteID = "ba"
	AnalytePlatelets    AnalyteID = "plt"
	AnalyteGlucose      AnalyteID = "fbs"
	AnalyteUricAcid     AnalyteID = "uric"
	AnalyteALP          AnalyteID = "alk"
	AnalyteSGOT         AnalyteID = "sgot"
	AnalyteSGPT         AnalyteID = "sgpt"
	AnalyteCholesterol  AnalyteID = "chol"
	AnalyteTriglyceride AnalyteID = "tg"
	AnalyteHDL          AnalyteID = "hdl"
	AnalyteLDL          AnalyteID = "ldl"
	AnalyteBUN          AnalyteID = "bun"
	AnalyteCreatinine   AnalyteID = "cr"
	AnalyteGFR          AnalyteID = "gfr"

	AnalyteWeight    AnalyteID = "weight"
	AnalyteHeight    AnalyteID = "height"
	AnalyteWaist     AnalyteID = "waist"
	AnalyteSystolic  AnalyteID = "sbp"
	AnalyteDiastolic AnalyteID = "dbp"
	AnalytePulse     AnalyteID = "pulse"
)

// PanelID names a group of analytes interpreted together.
type PanelID string

const (
	PanelCBC     PanelID = "cbc"
	PanelGlucose PanelID = "glucose"
	PanelUric    PanelID = "uric"
	PanelLiver   PanelID = "liver"
	PanelLipid   PanelID = "lipid"
	PanelRenal   PanelID = "renal"
	PanelVitals  PanelID = "vitals"
)

// Reading is a normalized numeric observation. A zero Reading is the "no data" sentinel.
type Reading struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// NoData returns the "no data" sentinel.
func NoData() Reading {
	return Reading{}
}

// Value wraps v as a valid reading. NaN and infinities yield NoData.
func Value(v float64) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NoData()
	}
	return Reading{Value: v, Valid: true}
}

// IsNoData reports whether the reading carries no value.
func (r Reading) IsNoData() bool {
	return !r.Valid
}

// Format renders the reading with one decimal place, or "-" for no data.
func (r Reading) Format() string {
	if !r.Valid {
		return "-"
	}
	return fmt.Sprintf("%.1f", r.Value)
}

// SlightBands are auxiliary thresholds outside the normal range that separate a slight
// deviation from a hard one. LowFloor < Low and HighCeil > High.
type SlightBands struct {
	LowFloor *float64 `json:"low_floor,omitempty"`
	HighCeil *float64 `json:"high_ceil,omitempty"`
}

// ReferenceRange holds the bounds defining "normal" for one analyte.
type ReferenceRange struct {
	Analyte        AnalyteID    `json:"analyte"`
	Low            *float64     `json:"low,omitempty"`
	High           *float64     `json:"high,omitempty"`
	HigherIsBetter bool         `json:"higher_is_better"`
	SexDependent   bool         `json:"sex_dependent"`
	FemaleLow      *float64     `json:"female_low,omitempty"`
	FemaleHigh     *float64     `json:"female_high,omitempty"`
	Slight         *SlightBands `json:"slight,omitempty"`
}

// Validation errors for reference range integrity
var (
	ErrInvalidRange = errors.New("invalid reference range")
)

// Validate checks the range invariants: at least one bound is set, higher-is-better ranges
// carry a low bound, and slight bands lie outside the normal range.
func (r ReferenceRange) Validate() error {
	if r.Low == nil && r.High == nil {
		return fmt.Errorf("%s: %w: no bound set", r.Analyte, ErrInvalidRange)
	}
	if r.HigherIsBetter && r.Low == nil {
		return fmt.Errorf("%s: %w: higher-is-better range needs a low bound", r.Analyte, ErrInvalidRange)
	}
	if r.Low != nil && r.High != nil && *r.Low > *r.High {
		return fmt.Errorf("%s: %w: low %.2f above high %.2f", r.Analyte, ErrInvalidRange, *r.Low, *r.High)
	}
	if r.SexDependent && r.FemaleLow == nil && r.FemaleHigh == nil {
		return fmt.Errorf("%s: %w: sex-dependent range has no female bounds", r.Analyte, ErrInvalidRange)
	}
	if r.Slight != nil {
		if r.Slight.LowFloor != nil && (r.Low == nil || *r.Slight.LowFloor >= *r.Low) {
			return fmt.Errorf("%s: %w: slight low floor must be below the low bound", r.Analyte, ErrInvalidRange)
		}
		if r.Slight.HighCeil != nil && (r.High == nil || *r.Slight.HighCeil <= *r.High) {
			return fmt.Errorf("%s: %w: slight high ceiling must be above the high bound", r.Analyte, ErrInvalidRange)
		}
	}
	return nil
}

// Bounds resolves the effective low/high bounds for sex.
func (r ReferenceRange) Bounds(sex Sex) (low, high *float64) {
	if r.SexDependent && sex == SexFemale {
		low, high = r.FemaleLow, r.FemaleHigh
		if low == nil {
			low = r.Low
		}
		if high == nil {
			high = r.High
		}
		return low, high
	}
	return r.Low, r.High
}

// Ptr returns a pointer to f, used to build range tables from literals.
func Ptr(f float64) *float64 {
	return &f
}
