package domain

import "time"

// ReportView is one audit entry for a rendered report. It carries the HN but never the
// national ID or the patient name.
type ReportView struct {
	ID            int64     `json:"id"`
	HN            string    `json:"hn"`
	Year          int       `json:"year"`
	AbnormalCount int       `json:"abnormal_count"`
	Advisory      string    `json:"advisory"`
	RequestID     string    `json:"request_id,omitempty"`
	Source        string    `json:"source"`
	ViewedAt      time.Time `json:"viewed_at"`
}
