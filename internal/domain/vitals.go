package domain

// BMICategory is the body-mass-index band.
type BMICategory string

const (
	BMINoData      BMICategory = "no_data"
	BMIUnderweight BMICategory = "underweight"
	BMINormal      BMICategory = "normal"
	BMIOverweight  BMICategory = "overweight"
	BMIObese       BMICategory = "obese"
	BMIObeseSevere BMICategory = "obese_severe"
)

// Label returns the Thai display label.
func (c BMICategory) Label() string {
	switch c {
	case BMIUnderweight:
		return "ผอม"
	case BMINormal:
		return "ปกติ"
	case BMIOverweight:
		return "น้ำหนักเกิน"
	case BMIObese:
		return "อ้วน"
	case BMIObeseSevere:
		return "อ้วนมาก"
	default:
		return "-"
	}
}

// BPCategory is the joint systolic/diastolic blood pressure category.
type BPCategory string

const (
	BPNoData     BPCategory = "no_data"
	BPNormal     BPCategory = "normal"
	BPElevated   BPCategory = "elevated"
	BPMildlyHigh BPCategory = "mildly_high"
	BPHigh       BPCategory = "high"
)

// Rank orders categories by severity; the joint category takes the higher rank.
func (c BPCategory) Rank() int {
	switch c {
	case BPNormal:
		return 1
	case BPElevated:
		return 2
	case BPMildlyHigh:
		return 3
	case BPHigh:
		return 4
	default:
		return 0
	}
}

// Label returns the Thai display label.
func (c BPCategory) Label() string {
	switch c {
	case BPNormal:
		return "ความดันปกติ"
	case BPElevated:
		return "ความดันค่อนข้างสูง"
	case BPMildlyHigh:
		return "ความดันสูงเล็กน้อย"
	case BPHigh:
		return "ความดันสูง"
	default:
		return "-"
	}
}

// Vitals holds the vitals block of one checkup year with the derived BMI and BP category.
type Vitals struct {
	Weight      Reading     `json:"weight"`
	Height      Reading     `json:"height"`
	Waist       Reading     `json:"waist"`
	Systolic    Reading     `json:"systolic"`
	Diastolic   Reading     `json:"diastolic"`
	Pulse       Reading     `json:"pulse"`
	BMI         Reading     `json:"bmi"`
	BMICategory BMICategory `json:"bmi_category"`
	BPCategory  BPCategory  `json:"bp_category"`
}
