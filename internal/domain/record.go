package domain

import (
	"fmt"
	"strings"
)

// Demographic column names of the checkup sheet
const (
	ColumnNationalID = "เลขบัตรประชาชน"
	ColumnHN         = "HN"
	ColumnName       = "ชื่อ-สกุล"
	ColumnAge        = "อายุ"
	ColumnSex        = "เพศ"
	ColumnDepartment = "หน่วยงาน"
	ColumnCheckDate  = "วันที่ตรวจ"
)

// Record is one row of the checkup data source: trimmed column name to raw cell.
type Record map[string]string

// NewRecord zips a header and a row into a Record. Short rows leave trailing columns absent.
func NewRecord(header, row []string) Record {
	rec := make(Record, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" || i >= len(row) {
			continue
		}
		rec[col] = strings.TrimSpace(row[i])
	}
	return rec
}

// Lookup returns the raw cell for column and whether the column exists on the record.
func (r Record) Lookup(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// Get returns the raw cell for column, or "" when absent.
func (r Record) Get(column string) string {
	return r[column]
}

// PatientQuery holds the exact-match filters of a record search. Empty fields are ignored;
// provided fields are AND-combined.
type PatientQuery struct {
	NationalID string `json:"national_id,omitempty"`
	HN         string `json:"hn,omitempty"`
	Name       string `json:"name,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (q PatientQuery) IsEmpty() bool {
	return q.NationalID == "" && q.HN == "" && q.Name == ""
}

// Matches reports whether rec equals every provided filter after trimming.
func (q PatientQuery) Matches(rec Record) bool {
	if q.IsEmpty() {
		return false
	}
	if q.NationalID != "" && strings.TrimSpace(rec.Get(ColumnNationalID)) != q.NationalID {
		return false
	}
	if q.HN != "" && strings.TrimSpace(rec.Get(ColumnHN)) != q.HN {
		return false
	}
	if q.Name != "" && strings.TrimSpace(rec.Get(ColumnName)) != q.Name {
		return false
	}
	return true
}

// YearLabel renders a two-digit Buddhist-era year code as "พ.ศ. 25yy".
func YearLabel(year int) string {
	return fmt.Sprintf("พ.ศ. 25%02d", year)
}

// YearSuffix renders the two-digit column suffix for year.
func YearSuffix(year int) string {
	return fmt.Sprintf("%02d", year)
}
