package service

import (
	"fmt"

	"github.com/checkup-report-server/internal/domain"
)

// bmiCutoffs are the lower edges of the overweight and obese bands and the value above
// which obesity is severe.
type bmiCutoffs struct {
	underweight float64
	overweight  float64
	obese       float64
	severe      float64
}

var bmiScales = map[string]bmiCutoffs{
	domain.BMIScaleAsiaPacific: {underweight: 18.5, overweight: 23, obese: 25, severe: 30},
	domain.BMIScaleWHO:         {underweight: 18.5, overweight: 25, obese: 30, severe: 35},
}

func bmiCutoffsFor(scale string) (bmiCutoffs, error) {
	c, ok := bmiScales[scale]
	if !ok {
		return bmiCutoffs{}, fmt.Errorf("unknown BMI scale %q", scale)
	}
	return c, nil
}

// ComputeBMI returns weight(kg) / height(m)^2, or NoData if either input is missing.
func ComputeBMI(weightKg, heightCm domain.Reading) domain.Reading {
	if weightKg.IsNoData() || heightCm.IsNoData() || heightCm.Value <= 0 || weightKg.Value <= 0 {
		return domain.NoData()
	}
	m := heightCm.Value / 100
	return domain.Value(weightKg.Value / (m * m))
}

// ClassifyBMI maps a BMI reading to its band on the given scale.
func ClassifyBMI(bmi domain.Reading, scale string) domain.BMICategory {
	if bmi.IsNoData() {
		return domain.BMINoData
	}
	c, err := bmiCutoffsFor(scale)
	if err != nil {
		c = bmiScales[domain.BMIScaleAsiaPacific]
	}
	switch v := bmi.Value; {
	case v > c.severe:
		return domain.BMIObeseSevere
	case v >= c.obese:
		return domain.BMIObese
	case v >= c.overweight:
		return domain.BMIOverweight
	case v >= c.underweight:
		return domain.BMINormal
	default:
		return domain.BMIUnderweight
	}
}

func classifySystolic(v float64) domain.BPCategory {
	switch {
	case v >= 160:
		return domain.BPHigh
	case v >= 140:
		return domain.BPMildlyHigh
	case v >= 120:
		return domain.BPElevated
	default:
		return domain.BPNormal
	}
}

func classifyDiastolic(v float64) domain.BPCategory {
	switch {
	case v >= 100:
		return domain.BPHigh
	case v >= 90:
		return domain.BPMildlyHigh
	case v >= 80:
		return domain.BPElevated
	default:
		return domain.BPNormal
	}
}

// ClassifyBP evaluates systolic and diastolic independently and returns the worse category.
// Either reading missing or zero yields no_data.
func ClassifyBP(systolic, diastolic domain.Reading) domain.BPCategory {
	if systolic.IsNoData() || diastolic.IsNoData() || systolic.Value == 0 || diastolic.Value == 0 {
		return domain.BPNoData
	}
	s := classifySystolic(systolic.Value)
	d := classifyDiastolic(diastolic.Value)
	if d.Rank() > s.Rank() {
		return d
	}
	return s
}

// VitalsAdvice composes the combined weight and blood pressure advice sentence.
func VitalsAdvice(v domain.Vitals, scale string) string {
	c, err := bmiCutoffsFor(scale)
	if err != nil {
		c = bmiScales[domain.BMIScaleAsiaPacific]
	}

	var bmiText string
	if v.BMI.Valid {
		switch b := v.BMI.Value; {
		case b > c.severe:
			bmiText = "น้ำหนักเกินมาตรฐานมาก"
		case b >= c.obese:
			bmiText = "น้ำหนักเกินมาตรฐาน"
		case b < c.underweight:
			bmiText = "น้ำหนักน้อยกว่ามาตรฐาน"
		default:
			bmiText = "น้ำหนักอยู่ในเกณฑ์ปกติ"
		}
	}

	var bpText string
	switch ClassifyBP(v.Systolic, v.Diastolic) {
	case domain.BPHigh:
		bpText = "ความดันโลหิตอยู่ในระดับสูงมาก"
	case domain.BPMildlyHigh:
		bpText = "ความดันโลหิตอยู่ในระดับสูง"
	case domain.BPElevated:
		bpText = "ความดันโลหิตเริ่มสูง"
	}

	switch {
	case bmiText == "" && bpText == "":
		return "ไม่พบข้อมูลเพียงพอในการประเมินสุขภาพ"
	case bmiText == "น้ำหนักอยู่ในเกณฑ์ปกติ" && bpText == "":
		return "น้ำหนักอยู่ในเกณฑ์ดี ควรรักษาพฤติกรรมสุขภาพนี้ต่อไป"
	case bmiText == "":
		return bpText + " แนะนำให้ดูแลสุขภาพ และติดตามค่าความดันอย่างสม่ำเสมอ"
	case bpText != "":
		return bmiText + " และ " + bpText + " แนะนำให้ปรับพฤติกรรมด้านอาหารและการออกกำลังกาย"
	default:
		return bmiText + " แนะนำให้ดูแลเรื่องโภชนาการและการออกกำลังกายอย่างเหมาะสม"
	}
}
