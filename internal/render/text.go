package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/checkup-report-server/internal/domain"
)

const abnormalMark = " *"

// TextRenderer renders a report as plain text for terminals
type TextRenderer struct{}

// NewTextRenderer creates a text renderer
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// ContentType implements domain.ReportRenderer
func (r *TextRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render implements domain.ReportRenderer
func (r *TextRenderer) Render(report *domain.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("rendering report: nil report")
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s\n", report.Title, report.YearLabel)
	fmt.Fprintln(&b, report.Hospital)
	if report.HospitalAddress != "" {
		fmt.Fprintln(&b, report.HospitalAddress)
	}
	fmt.Fprintf(&b, "วันที่ตรวจ: %s\n", report.Patient.CheckDate)
	fmt.Fprintln(&b, strings.Repeat("=", 60))

	p := report.Patient
	fmt.Fprintf(&b, "ชื่อ-สกุล: %s  อายุ: %s ปี  เพศ: %s\n", p.Name, p.Age, p.Sex)
	fmt.Fprintf(&b, "HN: %s  หน่วยงาน: %s\n", p.HN, p.Department)

	v := report.Vitals
	fmt.Fprintf(&b, "น้ำหนัก: %s  ส่วนสูง: %s  รอบเอว: %s\n", v.Weight, v.Height, v.Waist)
	fmt.Fprintf(&b, "ความดันโลหิต: %s  ชีพจร: %s\n", v.BloodPressure, v.Pulse)
	if v.BMICategory != "" {
		fmt.Fprintf(&b, "BMI: %s (%s)\n", v.BMI, v.BMICategory)
	} else {
		fmt.Fprintf(&b, "BMI: %s\n", v.BMI)
	}
	fmt.Fprintf(&b, "คำแนะนำ: %s\n", report.VitalsAdvice)

	writeTable(&b, report.CBC)
	writeTable(&b, report.Chemistry)

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "คำแนะนำจากผลตรวจเลือด:")
	for _, line := range report.Advisory {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	return b.Bytes(), nil
}

func writeTable(b *bytes.Buffer, t domain.Table) {
	fmt.Fprintln(b)
	fmt.Fprintln(b, t.Title)
	fmt.Fprintln(b, strings.Repeat("-", 60))
	fmt.Fprintln(b, strings.Join(t.Headers, " | "))
	for _, row := range t.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.Text
			if c.Abnormal {
				cells[i] += abnormalMark
			}
		}
		fmt.Fprintln(b, strings.Join(cells, " | "))
	}
}
