package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/domain"
)

// AllClearAdvice is emitted when no advisory rule triggers.
const AllClearAdvice = "ไม่พบความผิดปกติ ควรดูแลสุขภาพ ออกกำลังกาย และทานอาหารที่มีประโยชน์อย่างสม่ำเสมอ"

// detailJoiner joins trailing clauses that share a lead clause.
const detailJoiner = " และ"

// Verbatim advisory sentences
const (
	mildAnemiaAdvice        = "ดูแลสุขภาพ ออกกำลังกาย ทานอาหารมีประโยชน์ ติดตามผลเลือดสม่ำเสมอ"
	cbcFallbackAdvice       = "ควรพบแพทย์เพื่อตรวจเพิ่มเติม"
	glucoseBorderlineAdvice = "ระดับน้ำตาลในเลือดเริ่มสูง ควรลดอาหารหวานและแป้ง และออกกำลังกายสม่ำเสมอ"
	lipidAdvice             = "ไขมันในเลือดผิดปกติ ควรลดอาหารไขมันสูงและของทอด และออกกำลังกายสม่ำเสมอ"
	uricHighAdvice          = "กรดยูริกสูง ควรลดอาหารที่มีพิวรีนสูง เช่น เครื่องในสัตว์ อาหารทะเล และดื่มน้ำมากๆ"
)

// Glucose severity bands above the reference range (mg/dl)
const (
	glucoseElevatedFloor   = 126
	glucoseDiagnosticFloor = 200
)

// AdvisoryEngine evaluates the advisory rule table against a panel result and merges the
// triggered advisories into display sentences. The table is built once and never mutated.
type AdvisoryEngine struct {
	logger *logrus.Logger
	rules  []*domain.AdvisoryRule
	byID   map[string]*domain.AdvisoryRule
}

// NewAdvisoryEngine creates a new advisory engine with the standard rule table
func NewAdvisoryEngine(logger *logrus.Logger) *AdvisoryEngine {
	engine := &AdvisoryEngine{
		logger: logger,
		byID:   make(map[string]*domain.AdvisoryRule),
	}

	engine.initializeRules()
	sort.SliceStable(engine.rules, func(i, j int) bool {
		return engine.rules[i].Priority < engine.rules[j].Priority
	})

	return engine
}

// Rules returns the rule table in evaluation order.
func (e *AdvisoryEngine) Rules() []domain.AdvisoryRule {
	out := make([]domain.AdvisoryRule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, *r)
	}
	return out
}

// Evaluate runs every rule in ascending priority and collects the triggered advisories.
func (e *AdvisoryEngine) Evaluate(pr *domain.PanelResult) []domain.Advisory {
	var triggered []domain.Advisory
	for _, rule := range e.rules {
		advisories, err := e.evaluateRule(rule, pr)
		if err != nil {
			// Continue with other rules, don't fail the entire evaluation
			e.logger.WithError(err).WithField("rule", rule.ID).Warn("Failed to evaluate advisory rule")
			continue
		}
		triggered = append(triggered, advisories...)
	}

	e.logger.WithFields(logrus.Fields{
		"total_rules":     len(e.rules),
		"triggered_rules": len(triggered),
	}).Debug("Completed advisory evaluation")

	return triggered
}

// EvaluateRule evaluates a single rule by ID
func (e *AdvisoryEngine) EvaluateRule(ruleID string, pr *domain.PanelResult) ([]domain.Advisory, error) {
	rule, exists := e.byID[ruleID]
	if !exists {
		return nil, fmt.Errorf("unknown advisory rule: %s", ruleID)
	}
	return e.evaluateRule(rule, pr)
}

func (e *AdvisoryEngine) evaluateRule(rule *domain.AdvisoryRule, pr *domain.PanelResult) (out []domain.Advisory, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("rule %s panicked: %v", rule.ID, r)
		}
	}()
	out = rule.Predicate(pr)
	for i := range out {
		out[i].RuleID = rule.ID
		out[i].Priority = rule.Priority
	}
	return out, nil
}

// Compose evaluates pr and returns the merged advisory block, one sentence per line.
func (e *AdvisoryEngine) Compose(pr *domain.PanelResult) string {
	return strings.Join(e.ComposeLines(pr), "\n")
}

// ComposeLines is Compose without the final join.
func (e *AdvisoryEngine) ComposeLines(pr *domain.PanelResult) []string {
	return Merge(e.Evaluate(pr))
}

type mergeSlot struct {
	lead    domain.LeadClause
	text    string
	details []string
}

// Merge groups advisories sharing a lead clause into one sentence emitted at the position
// of the group's first member, details joined with " และ". Advisories without a lead are
// emitted verbatim. Exact duplicates are dropped. No advisories yields AllClearAdvice.
func Merge(advisories []domain.Advisory) []string {
	var slots []*mergeSlot
	groups := make(map[domain.LeadClause]*mergeSlot)

	for _, a := range advisories {
		if a.Lead == domain.LeadNone {
			if strings.TrimSpace(a.Text) == "" {
				continue
			}
			slots = append(slots, &mergeSlot{text: a.Text})
			continue
		}
		slot, ok := groups[a.Lead]
		if !ok {
			slot = &mergeSlot{lead: a.Lead}
			groups[a.Lead] = slot
			slots = append(slots, slot)
		}
		if !containsString(slot.details, a.Detail) {
			slot.details = append(slot.details, a.Detail)
		}
	}

	lines := make([]string, 0, len(slots))
	seen := make(map[string]bool, len(slots))
	for _, s := range slots {
		line := s.text
		if s.lead != domain.LeadNone {
			line = s.lead.Phrase() + strings.Join(s.details, detailJoiner)
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return []string{AllClearAdvice}
	}
	return lines
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (e *AdvisoryEngine) addRule(id, name string, panel domain.PanelID, priority int, predicate func(*domain.PanelResult) []domain.Advisory) {
	rule := &domain.AdvisoryRule{
		ID:        id,
		Name:      name,
		Panel:     panel,
		Priority:  priority,
		Predicate: predicate,
	}
	e.rules = append(e.rules, rule)
	e.byID[id] = rule
}

func seePhysician(detail string) []domain.Advisory {
	return []domain.Advisory{{Lead: domain.LeadSeePhysician, Detail: detail}}
}

func verbatim(text string) []domain.Advisory {
	return []domain.Advisory{{Text: text}}
}

// initializeRules sets up the CBC rules and one rule per metabolic or organ panel
func (e *AdvisoryEngine) initializeRules() {
	// CBC, by decreasing specificity
	e.addRule("CBC_PLT_LOW", "Platelets below range", domain.PanelCBC, 10, e.evaluatePlateletLow)
	e.addRule("CBC_PLT_HIGH", "Platelets above range", domain.PanelCBC, 20, e.evaluatePlateletHigh)
	e.addRule("CBC_ANEMIA_WBC", "Anemia with abnormal white cells", domain.PanelCBC, 30, e.evaluateAnemiaWithWBC)
	e.addRule("CBC_ANEMIA", "Anemia", domain.PanelCBC, 40, e.evaluateAnemia)
	e.addRule("CBC_ANEMIA_MILD", "Mild anemia", domain.PanelCBC, 50, e.evaluateMildAnemia)
	e.addRule("CBC_WBC", "Abnormal white cells", domain.PanelCBC, 60, e.evaluateWBC)
	e.addRule("CBC_OTHER", "Other CBC abnormality", domain.PanelCBC, 80, e.evaluateCBCFallback)

	// Metabolic and organ panels
	e.addRule("GLUCOSE", "Fasting glucose out of range", domain.PanelGlucose, 100, e.evaluateGlucose)
	e.addRule("LIPID", "Lipid profile out of range", domain.PanelLipid, 200, e.evaluateLipid)
	e.addRule("LIVER", "Liver function out of range", domain.PanelLiver, 300, e.evaluateLiver)
	e.addRule("RENAL", "Renal function out of range", domain.PanelRenal, 400, e.evaluateRenal)
	e.addRule("URIC", "Uric acid out of range", domain.PanelUric, 500, e.evaluateUric)
}

func plateletLow(pr *domain.PanelResult) bool {
	return pr.Status(domain.AnalytePlatelets).IsLow()
}

func plateletHigh(pr *domain.PanelResult) bool {
	return pr.Status(domain.AnalytePlatelets).IsHigh()
}

func anemiaWithWBC(pr *domain.PanelResult) bool {
	return pr.Status(domain.AnalyteHemoglobin).IsLow() && pr.Status(domain.AnalyteWBC).IsAbnormal()
}

func anemia(pr *domain.PanelResult) bool {
	return pr.Status(domain.AnalyteHemoglobin) == domain.StatusBelow && !pr.Status(domain.AnalyteWBC).IsAbnormal()
}

func mildAnemia(pr *domain.PanelResult) bool {
	return pr.Status(domain.AnalyteHemoglobin) == domain.StatusBelowSlight && !pr.Status(domain.AnalyteWBC).IsAbnormal()
}

func wbcOnly(pr *domain.PanelResult) bool {
	return pr.Status(domain.AnalyteWBC).IsAbnormal() && !pr.Status(domain.AnalyteHemoglobin).IsAbnormal()
}

// evaluatePlateletLow fires on either degree of low platelets, whatever Hb and WBC show
func (e *AdvisoryEngine) evaluatePlateletLow(pr *domain.PanelResult) []domain.Advisory {
	if plateletLow(pr) {
		return seePhysician("เกล็ดเลือดต่ำ")
	}
	return nil
}

func (e *AdvisoryEngine) evaluatePlateletHigh(pr *domain.PanelResult) []domain.Advisory {
	if plateletHigh(pr) {
		return seePhysician("เกล็ดเลือดสูง")
	}
	return nil
}

// evaluateAnemiaWithWBC supersedes the separate anemia and white-cell advisories
func (e *AdvisoryEngine) evaluateAnemiaWithWBC(pr *domain.PanelResult) []domain.Advisory {
	if anemiaWithWBC(pr) {
		return seePhysician("ภาวะโลหิตจางร่วมกับเม็ดเลือดขาวผิดปกติ")
	}
	return nil
}

func (e *AdvisoryEngine) evaluateAnemia(pr *domain.PanelResult) []domain.Advisory {
	if anemia(pr) {
		return seePhysician("ภาวะโลหิตจาง")
	}
	return nil
}

func (e *AdvisoryEngine) evaluateMildAnemia(pr *domain.PanelResult) []domain.Advisory {
	if mildAnemia(pr) {
		return verbatim(mildAnemiaAdvice)
	}
	return nil
}

func (e *AdvisoryEngine) evaluateWBC(pr *domain.PanelResult) []domain.Advisory {
	if wbcOnly(pr) {
		return seePhysician("เม็ดเลือดขาวผิดปกติ")
	}
	return nil
}

// evaluateCBCFallback covers CBC abnormalities no specific rule describes
func (e *AdvisoryEngine) evaluateCBCFallback(pr *domain.PanelResult) []domain.Advisory {
	if !pr.AnyAbnormal(domain.AnalyteHemoglobin, domain.AnalyteWBC, domain.AnalytePlatelets) {
		return nil
	}
	if plateletLow(pr) || plateletHigh(pr) || anemiaWithWBC(pr) || anemia(pr) || mildAnemia(pr) || wbcOnly(pr) {
		return nil
	}
	return verbatim(cbcFallbackAdvice)
}

// evaluateGlucose escalates through borderline, elevated and diagnostic-threshold bands
func (e *AdvisoryEngine) evaluateGlucose(pr *domain.PanelResult) []domain.Advisory {
	status := pr.Status(domain.AnalyteGlucose)
	switch {
	case status.IsLow():
		return seePhysician("ระดับน้ำตาลในเลือดต่ำ")
	case !status.IsHigh():
		return nil
	}

	v := pr.Reading(domain.AnalyteGlucose).Value
	switch {
	case v >= glucoseDiagnosticFloor:
		return seePhysician("ระดับน้ำตาลในเลือดสูงเข้าเกณฑ์เบาหวาน")
	case v >= glucoseElevatedFloor:
		return seePhysician("ระดับน้ำตาลในเลือดสูง")
	default:
		return verbatim(glucoseBorderlineAdvice)
	}
}

func (e *AdvisoryEngine) evaluateLipid(pr *domain.PanelResult) []domain.Advisory {
	if pr.AnyAbnormal(domain.AnalyteCholesterol, domain.AnalyteTriglyceride, domain.AnalyteLDL, domain.AnalyteHDL) {
		return verbatim(lipidAdvice)
	}
	return nil
}

func (e *AdvisoryEngine) evaluateLiver(pr *domain.PanelResult) []domain.Advisory {
	if pr.AnyAbnormal(domain.AnalyteALP, domain.AnalyteSGOT, domain.AnalyteSGPT) {
		return seePhysician("ค่าการทำงานของตับผิดปกติ")
	}
	return nil
}

func (e *AdvisoryEngine) evaluateRenal(pr *domain.PanelResult) []domain.Advisory {
	if pr.AnyAbnormal(domain.AnalyteBUN, domain.AnalyteCreatinine, domain.AnalyteGFR) {
		return seePhysician("ค่าการทำงานของไตผิดปกติ")
	}
	return nil
}

func (e *AdvisoryEngine) evaluateUric(pr *domain.PanelResult) []domain.Advisory {
	switch status := pr.Status(domain.AnalyteUricAcid); {
	case status.IsHigh():
		return verbatim(uricHighAdvice)
	case status.IsLow():
		return seePhysician("กรดยูริกต่ำ")
	default:
		return nil
	}
}
