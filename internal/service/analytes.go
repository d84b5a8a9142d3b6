package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/checkup-report-server/internal/domain"
)

// ColumnSpec describes how an analyte's column is named for a given checkup year.
type ColumnSpec struct {
	// Label is the column stem; the two-digit year code is appended.
	Label string
	// BareForCurrent uses Label without a suffix for the current year.
	BareForCurrent bool
	// CurrentOnly marks analytes recorded only in the current year.
	CurrentOnly bool
}

// Resolve returns the column name for year, or false when the analyte has no column that year.
func (c ColumnSpec) Resolve(year, current int) (string, bool) {
	if c.Label == "" {
		return "", false
	}
	if c.CurrentOnly && year != current {
		return "", false
	}
	if c.BareForCurrent && year == current {
		return c.Label, true
	}
	return c.Label + domain.YearSuffix(year), true
}

// AnalyteConfig is one row of the analyte table.
type AnalyteConfig struct {
	ID         domain.AnalyteID
	Label      string
	Panel      domain.PanelID
	Column     ColumnSpec
	Range      *domain.ReferenceRange
	Unit       string
	NormalText string
	// CountLike analytes treat a zero cell as "not measured".
	CountLike bool
}

// Normalize parses raw with the analyte's zero policy.
func (a AnalyteConfig) Normalize(raw string) domain.Reading {
	if a.CountLike {
		return NormalizeCount(raw)
	}
	return Normalize(raw)
}

// AnalyteTable is the ordered set of analytes interpreted on a report.
type AnalyteTable []AnalyteConfig

// Validate checks every range and rejects duplicate analyte IDs.
func (t AnalyteTable) Validate() error {
	seen := make(map[domain.AnalyteID]bool, len(t))
	for _, a := range t {
		if seen[a.ID] {
			return fmt.Errorf("duplicate analyte %s in table", a.ID)
		}
		seen[a.ID] = true
		if a.Column.Label == "" {
			return fmt.Errorf("analyte %s has no column label", a.ID)
		}
		if a.Range == nil {
			continue
		}
		if a.Range.Analyte != a.ID {
			return fmt.Errorf("analyte %s carries range for %s", a.ID, a.Range.Analyte)
		}
		if err := a.Range.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Panel returns the analytes of panel in table order.
func (t AnalyteTable) Panel(panel domain.PanelID) AnalyteTable {
	var out AnalyteTable
	for _, a := range t {
		if a.Panel == panel {
			out = append(out, a)
		}
	}
	return out
}

// Lookup finds an analyte by ID.
func (t AnalyteTable) Lookup(id domain.AnalyteID) (AnalyteConfig, bool) {
	for _, a := range t {
		if a.ID == id {
			return a, true
		}
	}
	return AnalyteConfig{}, false
}

func bounded(id domain.AnalyteID, low, high *float64) *domain.ReferenceRange {
	return &domain.ReferenceRange{Analyte: id, Low: low, High: high}
}

func higherIsBetter(id domain.AnalyteID, low float64) *domain.ReferenceRange {
	return &domain.ReferenceRange{Analyte: id, Low: domain.Ptr(low), HigherIsBetter: true}
}

func sexDependentLow(id domain.AnalyteID, male, female float64) *domain.ReferenceRange {
	return &domain.ReferenceRange{
		Analyte:      id,
		Low:          domain.Ptr(male),
		SexDependent: true,
		FemaleLow:    domain.Ptr(female),
	}
}

func withSlight(r *domain.ReferenceRange, floor, ceil float64) *domain.ReferenceRange {
	r.Slight = &domain.SlightBands{LowFloor: domain.Ptr(floor), HighCeil: domain.Ptr(ceil)}
	return r
}

// DefaultAnalyteTable returns the laboratory's canonical analyte table.
func DefaultAnalyteTable() AnalyteTable {
	p := domain.Ptr
	return AnalyteTable{
		// CBC
		{ID: domain.AnalyteHemoglobin, Label: "ฮีโมโกลบิน (Hb)", Panel: domain.PanelCBC,
			Column: ColumnSpec{Label: "Hb(%)"}, Range: sexDependentLow(domain.AnalyteHemoglobin, 13, 12),
			Unit: "g/dl", NormalText: "ชาย > 13, หญิง > 12 g/dl", CountLike: true},
		{ID: domain.AnalyteHematocrit, Label: "ฮีมาโทคริต (Hct)", Panel: domain.PanelCBC,
			Column: ColumnSpec{Label: "HCT"}, Range: sexDependentLow(domain.AnalyteHematocrit, 39, 36),
			Unit: "%", NormalText: "ชาย > 39%, หญิง > 36%", CountLike: true},
		{ID: domain.AnalyteWBC, Label: "เม็ดเลือดขาว (wbc)", Panel: domain.PanelCBC,
			Column: ColumnSpec{Label: "WBC (cumm)"}, Range: withSlight(bounded(domain.AnalyteWBC, p(4000), p(10000)), 3000, 13000),
			Unit: "/cu.mm", NormalText: "4,000 - 10,000 /cu.mm", CountLike: true},
		{ID: domain.AnalyteNeutrophil, Label: "นิวโทรฟิล (Neutrophil)", Panel: domain.PanelCBC,
			Column: ColumnSpec{Label: "Ne (%)", CurrentOnly: true}, Range: bounded(domain.AnalyteNeutrophil, p(43), p(70)),
			Unit: "%", NormalText: "43 - 70%"},
		{ID: domain.AnalyteLymphocyte, Label: "ลิมโฟไซต์ (Lymphocyte)", Panel: domain.PanelCBC,
			Column: ColumnSpec{Label: "Ly (%)", CurrentOnly: true}, Range: bounded(domain.AnalyteLymphocyte, p(20), p(44)),
			Unit: "%", NormalText: "20 - 44%"},
		{ID: domain.AnalyteMonocyte, Label: "โมโนไซต์ (Monocyte)", Panel: domain.PanelCBC,
			Column: ColumnSpec{Label: "M", CurrentOnly: true}, Range: bounded(domain.AnalyteMonocyte, p(3), p(9)),
			Unit: "%", NormalText: "3 - 9%"},
		{ID: domain.AnalyteEosinophil, Label: "อีโอซิโนฟิล (Eosinophil)", Panel: domain.PanelCBC,
			Column: ColumnSpec{Label: "Eo", CurrentOnly: true}, Range: bounded(domain.AnalyteEosinophil, p(0), p(9)),
			Unit: "%", NormalText: "0 - 9%"},
		{ID: domain.AnalyteBasophil, Label: "เบโซฟิล (Basophil)", Panel: domain.PanelCBC,
			Column: ColumnSpec{Label: "BA", CurrentOnly: true}, Range: bounded(domain.AnalyteBasophil, p(0), p(3)),
			Unit: "%", NormalText: "0 - 3%"},
		{ID: domain.AnalytePlatelets, Label: "เกล็ดเลือด (Platelet)", Panel: domain.PanelCBC,
			Column: ColumnSpec{Label: "Plt (/mm)"}, Range: withSlight(bounded(domain.AnalytePlatelets, p(150000), p(500000)), 100000, 600000),
			Unit: "/cu.mm", NormalText: "150,000 - 500,000 /cu.mm", CountLike: true},

		// Blood chemistry
		{ID: domain.AnalyteGlucose, Label: "น้ำตาลในเลือด (FBS)", Panel: domain.PanelGlucose,
			Column: ColumnSpec{Label: "FBS"}, Range: bounded(domain.AnalyteGlucose, p(74), p(106)),
			Unit: "mg/dl", NormalText: "74 - 106 mg/dl"},
		{ID: domain.AnalyteUricAcid, Label: "กรดยูริก (Uric Acid)", Panel: domain.PanelUric,
			Column: ColumnSpec{Label: "Uric Acid"}, Range: bounded(domain.AnalyteUricAcid, p(2.6), p(7.2)),
			Unit: "mg%", NormalText: "2.6 - 7.2 mg%"},
		{ID: domain.AnalyteALP, Label: "ALK.POS", Panel: domain.PanelLiver,
			Column: ColumnSpec{Label: "ALP"}, Range: bounded(domain.AnalyteALP, p(30), p(120)),
			Unit: "U/L", NormalText: "30 - 120 U/L"},
		{ID: domain.AnalyteSGOT, Label: "SGOT", Panel: domain.PanelLiver,
			Column: ColumnSpec{Label: "SGOT"}, Range: bounded(domain.AnalyteSGOT, nil, p(37)),
			Unit: "U/L", NormalText: "< 37 U/L"},
		{ID: domain.AnalyteSGPT, Label: "SGPT", Panel: domain.PanelLiver,
			Column: ColumnSpec{Label: "SGPT"}, Range: bounded(domain.AnalyteSGPT, nil, p(41)),
			Unit: "U/L", NormalText: "< 41 U/L"},
		{ID: domain.AnalyteCholesterol, Label: "Cholesterol", Panel: domain.PanelLipid,
			Column: ColumnSpec{Label: "CHOL"}, Range: bounded(domain.AnalyteCholesterol, p(150), p(200)),
			Unit: "mg/dl", NormalText: "150 - 200 mg/dl"},
		{ID: domain.AnalyteTriglyceride, Label: "Triglyceride", Panel: domain.PanelLipid,
			Column: ColumnSpec{Label: "TGL"}, Range: bounded(domain.AnalyteTriglyceride, p(35), p(150)),
			Unit: "mg/dl", NormalText: "35 - 150 mg/dl"},
		{ID: domain.AnalyteHDL, Label: "HDL", Panel: domain.PanelLipid,
			Column: ColumnSpec{Label: "HDL"}, Range: higherIsBetter(domain.AnalyteHDL, 40),
			Unit: "mg/dl", NormalText: "> 40 mg/dl"},
		{ID: domain.AnalyteLDL, Label: "LDL", Panel: domain.PanelLipid,
			Column: ColumnSpec{Label: "LDL"}, Range: bounded(domain.AnalyteLDL, p(0), p(160)),
			Unit: "mg/dl", NormalText: "0 - 160 mg/dl"},
		{ID: domain.AnalyteBUN, Label: "BUN", Panel: domain.PanelRenal,
			Column: ColumnSpec{Label: "BUN"}, Range: bounded(domain.AnalyteBUN, p(7.9), p(20)),
			Unit: "mg/dl", NormalText: "7.9 - 20 mg/dl"},
		{ID: domain.AnalyteCreatinine, Label: "Creatinine (Cr)", Panel: domain.PanelRenal,
			Column: ColumnSpec{Label: "Cr"}, Range: bounded(domain.AnalyteCreatinine, p(0.5), p(1.17)),
			Unit: "mg/dl", NormalText: "0.5 - 1.17 mg/dl"},
		{ID: domain.AnalyteGFR, Label: "GFR", Panel: domain.PanelRenal,
			Column: ColumnSpec{Label: "GFR"}, Range: higherIsBetter(domain.AnalyteGFR, 60),
			Unit: "mL/min", NormalText: "> 60 mL/min"},

		// Vitals
		{ID: domain.AnalyteWeight, Label: "น้ำหนัก", Panel: domain.PanelVitals,
			Column: ColumnSpec{Label: "น้ำหนัก", BareForCurrent: true}, Unit: "กก.", CountLike: true},
		{ID: domain.AnalyteHeight, Label: "ส่วนสูง", Panel: domain.PanelVitals,
			Column: ColumnSpec{Label: "ส่วนสูง", BareForCurrent: true}, Unit: "ซม.", CountLike: true},
		{ID: domain.AnalyteWaist, Label: "รอบเอว", Panel: domain.PanelVitals,
			Column: ColumnSpec{Label: "รอบเอว", BareForCurrent: true}, Unit: "ซม.", CountLike: true},
		{ID: domain.AnalyteSystolic, Label: "SBP", Panel: domain.PanelVitals,
			Column: ColumnSpec{Label: "SBP", BareForCurrent: true}, Unit: "ม.ม.ปรอท", CountLike: true},
		{ID: domain.AnalyteDiastolic, Label: "DBP", Panel: domain.PanelVitals,
			Column: ColumnSpec{Label: "DBP", BareForCurrent: true}, Unit: "ม.ม.ปรอท", CountLike: true},
		{ID: domain.AnalytePulse, Label: "ชีพจร", Panel: domain.PanelVitals,
			Column: ColumnSpec{Label: "pulse", BareForCurrent: true}, Unit: "ครั้ง/นาที", CountLike: true},
	}
}

// formatBound renders a bound without trailing zeros and with thousands separators.
func formatBound(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart, frac, hasFrac := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	if neg {
		intPart = "-" + intPart
	}
	if hasFrac {
		return intPart + "." + frac
	}
	return intPart
}
