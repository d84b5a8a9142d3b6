package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkup-report-server/internal/domain"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		Hospital:  "โรงพยาบาลสันทราย",
		Title:     "รายงานผลการตรวจสุขภาพ",
		Year:      68,
		YearLabel: "พ.ศ. 2568",
		Patient: domain.Demographics{
			Name:       "สมชาย <ใจดี>",
			Age:        "45",
			Sex:        "ชาย",
			HN:         "650001",
			Department: "-",
			CheckDate:  "12/06/2568",
		},
		Vitals: domain.VitalsBlock{
			Weight:        "70 กก.",
			Height:        "175 ซม.",
			Waist:         "-",
			BloodPressure: "150/95 ม.ม.ปรอท - ความดันสูงเล็กน้อย",
			Pulse:         "78 ครั้ง/นาที",
			BMI:           "22.9",
			BMICategory:   "ปกติ",
		},
		CBC: domain.Table{
			Title:   "ผลการตรวจความสมบูรณ์ของเม็ดเลือด (CBC)",
			Headers: []string{"ชื่อการตรวจ", "ผลตรวจ", "ค่าปกติ"},
			Rows: []domain.Row{
				{Analyte: domain.AnalyteHemoglobin, Status: domain.StatusBelow, Cells: []domain.Cell{
					{Text: "ฮีโมโกลบิน (Hb)"}, {Text: "11.0", Abnormal: true}, {Text: "ชาย > 13, หญิง > 12 g/dl"},
				}},
			},
		},
		Chemistry: domain.Table{
			Title:   "ผลตรวจเลือด (Blood Test)",
			Headers: []string{"ชื่อการตรวจ", "ผลตรวจ", "ค่าปกติ"},
			Rows: []domain.Row{
				{Analyte: domain.AnalyteGlucose, Status: domain.StatusNoData, Cells: []domain.Cell{
					{Text: "น้ำตาลในเลือด (FBS)"}, {Text: "-"}, {Text: "74 - 106 mg/dl"},
				}},
			},
		},
		Advisory:     []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุภาวะโลหิตจาง"},
		VitalsAdvice: "น้ำหนักอยู่ในเกณฑ์ปกติ",
	}
}

func TestHTMLRenderer_Render(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	out, err := r.Render(sampleReport())
	require.NoError(t, err)
	html := string(out)

	assert.Equal(t, "text/html; charset=utf-8", r.ContentType())
	assert.Contains(t, html, "รายงานผลการตรวจสุขภาพ พ.ศ. 2568")
	assert.Contains(t, html, `<td class="abn">11.0</td>`)
	assert.Contains(t, html, "<td>-</td>")
	assert.Contains(t, html, "ควรพบแพทย์เพื่อตรวจหาสาเหตุภาวะโลหิตจาง")
	assert.Contains(t, html, "สมชาย &lt;ใจดี&gt;", "patient fields are escaped")
	assert.NotContains(t, html, "<ใจดี>")

	_, err = r.Render(nil)
	assert.Error(t, err)
}

func TestHTMLRenderer_RenderPage(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	out, err := r.RenderPage(&Page{
		Action:  "/report",
		Query:   domain.PatientQuery{HN: "999"},
		Years:   YearOptions([]int{68, 67}, 67),
		Message: domain.NotFoundMessage,
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, PageHeading)
	assert.Contains(t, html, `value="999"`)
	assert.Contains(t, html, `<option value="67" selected>พ.ศ. 2567</option>`)
	assert.Contains(t, html, `<option value="68">พ.ศ. 2568</option>`)
	assert.Contains(t, html, domain.NotFoundMessage)
	assert.NotContains(t, html, `class="report"`)
}

func TestYearOptions(t *testing.T) {
	opts := YearOptions([]int{68, 67, 66}, 68)
	require.Len(t, opts, 3)
	assert.True(t, opts[0].Selected)
	assert.False(t, opts[1].Selected)
	assert.Equal(t, "พ.ศ. 2566", opts[2].Label)
}

func TestTextRenderer_Render(t *testing.T) {
	r := NewTextRenderer()

	out, err := r.Render(sampleReport())
	require.NoError(t, err)
	text := string(out)

	assert.Equal(t, "text/plain; charset=utf-8", r.ContentType())
	assert.True(t, strings.HasPrefix(text, "รายงานผลการตรวจสุขภาพ พ.ศ. 2568\n"))
	assert.Contains(t, text, "ฮีโมโกลบิน (Hb) | 11.0 * | ชาย > 13, หญิง > 12 g/dl")
	assert.Contains(t, text, "น้ำตาลในเลือด (FBS) | - | 74 - 106 mg/dl")
	assert.Contains(t, text, "BMI: 22.9 (ปกติ)")
	assert.Contains(t, text, "- ควรพบแพทย์เพื่อตรวจหาสาเหตุภาวะโลหิตจาง\n")
}
