package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/domain"
)

type resolvedAnalyte struct {
	config AnalyteConfig
	column string
	ok     bool
}

// PanelInterpreter classifies every analyte of a record for one checkup year.
type PanelInterpreter struct {
	logger   *logrus.Logger
	table    AnalyteTable
	current  int
	bmiScale string
	columns  map[int][]resolvedAnalyte
}

// NewPanelInterpreter validates the analyte table and resolves column names for every
// configured year.
func NewPanelInterpreter(table AnalyteTable, cfg domain.ReportConfig, logger *logrus.Logger) (*PanelInterpreter, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analyte table: %w", err)
	}
	scale := cfg.BMIScale
	if scale == "" {
		scale = domain.BMIScaleAsiaPacific
	}
	if _, err := bmiCutoffsFor(scale); err != nil {
		return nil, err
	}

	pi := &PanelInterpreter{
		logger:   logger,
		table:    table,
		current:  cfg.CurrentYear,
		bmiScale: scale,
		columns:  make(map[int][]resolvedAnalyte),
	}
	for _, year := range cfg.Years() {
		pi.columns[year] = pi.resolve(year)
	}

	logger.WithFields(logrus.Fields{
		"analytes":     len(table),
		"current_year": cfg.CurrentYear,
		"years":        len(pi.columns),
		"bmi_scale":    scale,
	}).Debug("Panel interpreter initialized")

	return pi, nil
}

func (pi *PanelInterpreter) resolve(year int) []resolvedAnalyte {
	out := make([]resolvedAnalyte, 0, len(pi.table))
	for _, a := range pi.table {
		col, ok := a.Column.Resolve(year, pi.current)
		out = append(out, resolvedAnalyte{config: a, column: col, ok: ok})
	}
	return out
}

func (pi *PanelInterpreter) columnsFor(year int) []resolvedAnalyte {
	if cols, ok := pi.columns[year]; ok {
		return cols
	}
	return pi.resolve(year)
}

// Table returns the analyte table the interpreter was built from.
func (pi *PanelInterpreter) Table() AnalyteTable {
	return pi.table
}

// Interpret classifies every ranged analyte in the table. An absent column yields no_data
// for that analyte only.
func (pi *PanelInterpreter) Interpret(rec domain.Record, year int, sex domain.Sex) *domain.PanelResult {
	cols := pi.columnsFor(year)
	results := make([]domain.AnalyteResult, 0, len(cols))
	missing := 0

	for _, c := range cols {
		if c.config.Range == nil {
			continue
		}
		reading := domain.NoData()
		if c.ok {
			if raw, present := rec.Lookup(c.column); present {
				reading = c.config.Normalize(raw)
			} else {
				missing++
			}
		}
		results = append(results, domain.AnalyteResult{
			Analyte: c.config.ID,
			Reading: reading,
			Status:  Classify(reading, *c.config.Range, sex),
			Range:   c.config.Range,
		})
	}

	pr := domain.NewPanelResult(year, sex, results)
	pi.logger.WithFields(logrus.Fields{
		"year":            year,
		"analytes":        len(results),
		"missing_columns": missing,
		"abnormal":        pr.AbnormalCount(),
	}).Debug("Interpreted panels")
	return pr
}

// Vitals reads the vitals block and derives BMI and the blood pressure category.
func (pi *PanelInterpreter) Vitals(rec domain.Record, year int) domain.Vitals {
	readings := make(map[domain.AnalyteID]domain.Reading)
	for _, c := range pi.columnsFor(year) {
		if c.config.Panel != domain.PanelVitals || !c.ok {
			continue
		}
		if raw, present := rec.Lookup(c.column); present {
			readings[c.config.ID] = c.config.Normalize(raw)
		}
	}

	v := domain.Vitals{
		Weight:    readings[domain.AnalyteWeight],
		Height:    readings[domain.AnalyteHeight],
		Waist:     readings[domain.AnalyteWaist],
		Systolic:  readings[domain.AnalyteSystolic],
		Diastolic: readings[domain.AnalyteDiastolic],
		Pulse:     readings[domain.AnalytePulse],
	}
	v.BMI = ComputeBMI(v.Weight, v.Height)
	v.BMICategory = ClassifyBMI(v.BMI, pi.bmiScale)
	v.BPCategory = ClassifyBP(v.Systolic, v.Diastolic)
	return v
}
