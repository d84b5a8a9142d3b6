package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/domain"
)

// Report titles and table headers
const (
	ReportTitle    = "รายงานผลการตรวจสุขภาพ"
	cbcTableTitle  = "ผลการตรวจความสมบูรณ์ของเม็ดเลือด (CBC)"
	chemTableTitle = "ผลตรวจเลือด (Blood Test)"
)

var tableHeaders = []string{"ชื่อการตรวจ", "ผลตรวจ", "ค่าปกติ"}

var chemistryPanels = []domain.PanelID{
	domain.PanelGlucose,
	domain.PanelUric,
	domain.PanelLiver,
	domain.PanelLipid,
	domain.PanelRenal,
}

// ReportAssembler combines demographics, vitals, panel tables and advisories into a Report.
type ReportAssembler struct {
	logger      *logrus.Logger
	interpreter *PanelInterpreter
	engine      *AdvisoryEngine
	cfg         domain.ReportConfig
	now         func() time.Time
}

// NewReportAssembler creates a new report assembler
func NewReportAssembler(interpreter *PanelInterpreter, engine *AdvisoryEngine, cfg domain.ReportConfig, logger *logrus.Logger) *ReportAssembler {
	return &ReportAssembler{
		logger:      logger,
		interpreter: interpreter,
		engine:      engine,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Assemble builds the report of rec for year. Missing or unparseable fields render as "-".
func (a *ReportAssembler) Assemble(rec domain.Record, year int) (*domain.Report, error) {
	if !a.cfg.HasYear(year) {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidYear, year)
	}

	sex := domain.ParseSex(rec.Get(domain.ColumnSex))
	pr := a.interpreter.Interpret(rec, year, sex)
	vitals := a.interpreter.Vitals(rec, year)
	table := a.interpreter.Table()

	report := &domain.Report{
		Hospital:        a.cfg.HospitalName,
		HospitalAddress: a.cfg.HospitalAddress,
		Title:           ReportTitle,
		Year:            year,
		YearLabel:       domain.YearLabel(year),
		Patient:         demographics(rec),
		Vitals:          vitalsBlock(vitals),
		CBC:             buildTable(cbcTableTitle, table.Panel(domain.PanelCBC), pr, sex),
		Chemistry:       buildTable(chemTableTitle, chemistryAnalytes(table), pr, sex),
		Advisory:        a.engine.ComposeLines(pr),
		VitalsAdvice:    VitalsAdvice(vitals, a.interpreter.bmiScale),
		AbnormalCount:   pr.AbnormalCount(),
		GeneratedAt:     a.now().UTC(),
	}

	a.logger.WithFields(logrus.Fields{
		"year":           year,
		"abnormal_count": report.AbnormalCount,
		"advisory_lines": len(report.Advisory),
	}).Debug("Assembled report")

	return report, nil
}

func chemistryAnalytes(t AnalyteTable) AnalyteTable {
	var out AnalyteTable
	for _, p := range chemistryPanels {
		out = append(out, t.Panel(p)...)
	}
	return out
}

func buildTable(title string, analytes AnalyteTable, pr *domain.PanelResult, sex domain.Sex) domain.Table {
	t := domain.Table{Title: title, Headers: tableHeaders}
	for _, a := range analytes {
		if a.Range == nil {
			continue
		}
		res, _ := pr.Result(a.ID)
		normal := a.NormalText
		if normal == "" {
			normal = NormalRangeText(*a.Range, sex)
		}
		t.Rows = append(t.Rows, domain.Row{
			Analyte: a.ID,
			Status:  res.Status,
			Cells: []domain.Cell{
				{Text: a.Label},
				{Text: res.Reading.Format(), Abnormal: res.Status.IsAbnormal()},
				{Text: normal},
			},
		})
	}
	return t
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return strings.TrimSpace(s)
}

func demographics(rec domain.Record) domain.Demographics {
	return domain.Demographics{
		Name:       orDash(rec.Get(domain.ColumnName)),
		Age:        orDash(rec.Get(domain.ColumnAge)),
		Sex:        orDash(rec.Get(domain.ColumnSex)),
		HN:         orDash(rec.Get(domain.ColumnHN)),
		Department: orDash(rec.Get(domain.ColumnDepartment)),
		CheckDate:  orDash(rec.Get(domain.ColumnCheckDate)),
	}
}

func withUnit(r domain.Reading, unit string) string {
	if r.IsNoData() {
		return "-"
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64) + " " + unit
}

func vitalsBlock(v domain.Vitals) domain.VitalsBlock {
	bp := "-"
	if v.BPCategory != domain.BPNoData {
		bp = fmt.Sprintf("%s/%s ม.ม.ปรอท - %s",
			strconv.FormatFloat(v.Systolic.Value, 'f', -1, 64),
			strconv.FormatFloat(v.Diastolic.Value, 'f', -1, 64),
			v.BPCategory.Label())
	}
	return domain.VitalsBlock{
		Weight:        withUnit(v.Weight, "กก."),
		Height:        withUnit(v.Height, "ซม."),
		Waist:         withUnit(v.Waist, "ซม."),
		BloodPressure: bp,
		Pulse:         withUnit(v.Pulse, "ครั้ง/นาที"),
		BMI:           v.BMI.Format(),
		BMICategory:   v.BMICategory.Label(),
		Raw:           v,
	}
}
