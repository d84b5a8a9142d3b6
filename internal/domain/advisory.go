package domain

// AnalyteResult is the classified outcome for a single analyte.
type AnalyteResult struct {
	Analyte AnalyteID       `json:"analyte"`
	Reading Reading         `json:"reading"`
	Status  Status          `json:"status"`
	Range   *ReferenceRange `json:"range,omitempty"`
}

// PanelResult maps analytes to their classified results for one patient and one checkup year.
// It is built fresh per render and not modified afterwards.
type PanelResult struct {
	Year    int `json:"year"`
	Sex     Sex `json:"sex"`
	results map[AnalyteID]AnalyteResult
	order   []AnalyteID
}

// NewPanelResult builds a PanelResult from results in interpretation order.
func NewPanelResult(year int, sex Sex, results []AnalyteResult) *PanelResult {
	pr := &PanelResult{
		Year:    year,
		Sex:     sex,
		results: make(map[AnalyteID]AnalyteResult, len(results)),
		order:   make([]AnalyteID, 0, len(results)),
	}
	for _, r := range results {
		if _, seen := pr.results[r.Analyte]; !seen {
			pr.order = append(pr.order, r.Analyte)
		}
		pr.results[r.Analyte] = r
	}
	return pr
}

// Status returns the status of id, or no_data when the analyte was not interpreted.
func (p *PanelResult) Status(id AnalyteID) Status {
	if p == nil {
		return StatusNoData
	}
	if r, ok := p.results[id]; ok {
		return r.Status
	}
	return StatusNoData
}

// Reading returns the normalized reading of id.
func (p *PanelResult) Reading(id AnalyteID) Reading {
	if p == nil {
		return NoData()
	}
	return p.results[id].Reading
}

// Result returns the full result of id.
func (p *PanelResult) Result(id AnalyteID) (AnalyteResult, bool) {
	if p == nil {
		return AnalyteResult{}, false
	}
	r, ok := p.results[id]
	return r, ok
}

// Results returns all results in interpretation order.
func (p *PanelResult) Results() []AnalyteResult {
	if p == nil {
		return nil
	}
	out := make([]AnalyteResult, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.results[id])
	}
	return out
}

// AnyAbnormal reports whether any of ids is out of range.
func (p *PanelResult) AnyAbnormal(ids ...AnalyteID) bool {
	for _, id := range ids {
		if p.Status(id).IsAbnormal() {
			return true
		}
	}
	return false
}

// AbnormalCount counts out-of-range analytes.
func (p *PanelResult) AbnormalCount() int {
	n := 0
	for _, r := range p.Results() {
		if r.Status.IsAbnormal() {
			n++
		}
	}
	return n
}

// LeadClause identifies a shared sentence-opening phrase. Advisories with the same lead
// are merged into a single sentence.
type LeadClause string

const (
	LeadNone         LeadClause = ""
	LeadSeePhysician LeadClause = "see_physician"
)

// Phrase returns the Thai sentence opening for the lead clause.
func (l LeadClause) Phrase() string {
	switch l {
	case LeadSeePhysician:
		return "ควรพบแพทย์เพื่อตรวจหาสาเหตุ"
	default:
		return ""
	}
}

// Advisory is one triggered advisory fragment.
type Advisory struct {
	RuleID   string     `json:"rule_id"`
	Priority int        `json:"priority"`
	Lead     LeadClause `json:"lead,omitempty"`
	Detail   string     `json:"detail,omitempty"`
	Text     string     `json:"text,omitempty"`
}

// Sentence renders the advisory on its own, without merging.
func (a Advisory) Sentence() string {
	if a.Lead == LeadNone {
		return a.Text
	}
	return a.Lead.Phrase() + a.Detail
}

// AdvisoryRule is one entry in the static rule table. Predicate returns the advisories
// the rule contributes, or nil when it does not trigger.
type AdvisoryRule struct {
	ID        string                           `json:"id"`
	Name      string                           `json:"name"`
	Panel     PanelID                          `json:"panel"`
	Priority  int                              `json:"priority"`
	Predicate func(pr *PanelResult) []Advisory `json:"-"`
}
