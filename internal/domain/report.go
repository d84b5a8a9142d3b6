package domain

import "time"

// Report is the data-first display payload handed to a renderer.
type Report struct {
	Hospital        string       `json:"hospital"`
	HospitalAddress string       `json:"hospital_address,omitempty"`
	Title           string       `json:"title"`
	Year            int          `json:"year"`
	YearLabel       string       `json:"year_label"`
	Patient         Demographics `json:"patient"`
	Vitals          VitalsBlock  `json:"vitals"`
	CBC             Table        `json:"cbc"`
	Chemistry       Table        `json:"chemistry"`
	Advisory        []string     `json:"advisory"`
	VitalsAdvice    string       `json:"vitals_advice"`
	AbnormalCount   int          `json:"abnormal_count"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

// Demographics are the identifying fields printed at the top of the report.
type Demographics struct {
	Name       string `json:"name"`
	Age        string `json:"age"`
	Sex        string `json:"sex"`
	HN         string `json:"hn"`
	Department string `json:"department"`
	CheckDate  string `json:"check_date"`
}

// VitalsBlock is the formatted vitals section.
type VitalsBlock struct {
	Weight        string `json:"weight"`
	Height        string `json:"height"`
	Waist         string `json:"waist"`
	BloodPressure string `json:"blood_pressure"`
	Pulse         string `json:"pulse"`
	BMI           string `json:"bmi"`
	BMICategory   string `json:"bmi_category"`
	Raw           Vitals `json:"raw"`
}

// Table is one panel table of the report.
type Table struct {
	Title   string   `json:"title"`
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Row is one analyte line: label, result and normal range cells.
type Row struct {
	Analyte AnalyteID `json:"analyte"`
	Status  Status    `json:"status"`
	Cells   []Cell    `json:"cells"`
}

// Abnormal reports whether any cell in the row is flagged.
func (r Row) Abnormal() bool {
	for _, c := range r.Cells {
		if c.Abnormal {
			return true
		}
	}
	return false
}

// Cell is a single typed table cell.
type Cell struct {
	Text     string `json:"text"`
	Abnormal bool   `json:"abnormal,omitempty"`
}
