package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkup-report-server/internal/domain"
)

func cbcPanel(hb, wbc, plt domain.Status) *domain.PanelResult {
	return domain.NewPanelResult(68, domain.SexMale, []domain.AnalyteResult{
		{Analyte: domain.AnalyteHemoglobin, Status: hb},
		{Analyte: domain.AnalyteWBC, Status: wbc},
		{Analyte: domain.AnalytePlatelets, Status: plt},
	})
}

func TestAdvisoryEngine_RulesSortedByPriority(t *testing.T) {
	engine := NewAdvisoryEngine(newTestLogger())
	rules := engine.Rules()
	require.NotEmpty(t, rules)
	for i := 1; i < len(rules); i++ {
		assert.Less(t, rules[i-1].Priority, rules[i].Priority)
	}
	assert.Equal(t, "CBC_PLT_LOW", rules[0].ID)
}

func TestAdvisoryEngine_CBC(t *testing.T) {
	engine := NewAdvisoryEngine(newTestLogger())

	tests := []struct {
		name     string
		hb       domain.Status
		wbc      domain.Status
		plt      domain.Status
		expected []string
	}{
		{
			name:     "anemia alone",
			hb:       domain.StatusBelow,
			wbc:      domain.StatusNormal,
			plt:      domain.StatusNormal,
			expected: []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุภาวะโลหิตจาง"},
		},
		{
			name:     "platelets low and white cells slightly high merge",
			hb:       domain.StatusNormal,
			wbc:      domain.StatusAboveSlight,
			plt:      domain.StatusBelow,
			expected: []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุเกล็ดเลือดต่ำ และเม็ดเลือดขาวผิดปกติ"},
		},
		{
			name:     "all normal",
			hb:       domain.StatusNormal,
			wbc:      domain.StatusNormal,
			plt:      domain.StatusNormal,
			expected: []string{AllClearAdvice},
		},
		{
			name:     "all missing",
			hb:       domain.StatusNoData,
			wbc:      domain.StatusNoData,
			plt:      domain.StatusNoData,
			expected: []string{AllClearAdvice},
		},
		{
			name:     "anemia with white cells supersedes both",
			hb:       domain.StatusBelow,
			wbc:      domain.StatusBelowSlight,
			plt:      domain.StatusNormal,
			expected: []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุภาวะโลหิตจางร่วมกับเม็ดเลือดขาวผิดปกติ"},
		},
		{
			name:     "mild anemia is verbatim",
			hb:       domain.StatusBelowSlight,
			wbc:      domain.StatusNormal,
			plt:      domain.StatusNormal,
			expected: []string{mildAnemiaAdvice},
		},
		{
			name:     "platelets high",
			hb:       domain.StatusNormal,
			wbc:      domain.StatusNormal,
			plt:      domain.StatusAboveSlight,
			expected: []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุเกล็ดเลือดสูง"},
		},
		{
			name:     "platelets slightly low with anemia",
			hb:       domain.StatusBelow,
			wbc:      domain.StatusNormal,
			plt:      domain.StatusBelowSlight,
			expected: []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุเกล็ดเลือดต่ำ และภาวะโลหิตจาง"},
		},
		{
			name:     "white cells alone",
			hb:       domain.StatusNormal,
			wbc:      domain.StatusAbove,
			plt:      domain.StatusNormal,
			expected: []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุเม็ดเลือดขาวผิดปกติ"},
		},
		{
			name:     "uncovered combination falls back",
			hb:       domain.StatusAbove,
			wbc:      domain.StatusNormal,
			plt:      domain.StatusNormal,
			expected: []string{cbcFallbackAdvice},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.ComposeLines(cbcPanel(tt.hb, tt.wbc, tt.plt)))
		})
	}
}

func TestAdvisoryEngine_EvaluateOrder(t *testing.T) {
	engine := NewAdvisoryEngine(newTestLogger())

	advisories := engine.Evaluate(cbcPanel(domain.StatusNormal, domain.StatusAboveSlight, domain.StatusBelow))

	require.Len(t, advisories, 2)
	assert.Equal(t, "CBC_PLT_LOW", advisories[0].RuleID)
	assert.Equal(t, "CBC_WBC", advisories[1].RuleID)
	assert.Equal(t, domain.LeadSeePhysician, advisories[0].Lead)
}

func TestAdvisoryEngine_Glucose(t *testing.T) {
	engine := NewAdvisoryEngine(newTestLogger())
	fbs := rangeFor(t, domain.AnalyteGlucose)

	tests := []struct {
		value    float64
		expected []string
	}{
		{90, []string{AllClearAdvice}},
		{106, []string{AllClearAdvice}},
		{60, []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุระดับน้ำตาลในเลือดต่ำ"}},
		{110, []string{glucoseBorderlineAdvice}},
		{126, []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุระดับน้ำตาลในเลือดสูง"}},
		{250, []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุระดับน้ำตาลในเลือดสูงเข้าเกณฑ์เบาหวาน"}},
	}

	for _, tt := range tests {
		reading := domain.Value(tt.value)
		pr := domain.NewPanelResult(68, domain.SexMale, []domain.AnalyteResult{
			{Analyte: domain.AnalyteGlucose, Reading: reading, Status: Classify(reading, fbs, domain.SexMale)},
		})
		assert.Equal(t, tt.expected, engine.ComposeLines(pr), "fbs %v", tt.value)
	}
}

func TestAdvisoryEngine_OrganPanelsMergeUnderSharedLead(t *testing.T) {
	engine := NewAdvisoryEngine(newTestLogger())
	pr := domain.NewPanelResult(68, domain.SexMale, []domain.AnalyteResult{
		{Analyte: domain.AnalytePlatelets, Status: domain.StatusBelow},
		{Analyte: domain.AnalyteCholesterol, Status: domain.StatusAbove},
		{Analyte: domain.AnalyteLDL, Status: domain.StatusAbove},
		{Analyte: domain.AnalyteSGPT, Status: domain.StatusAbove},
		{Analyte: domain.AnalyteGFR, Status: domain.StatusBelow},
		{Analyte: domain.AnalyteUricAcid, Status: domain.StatusAbove},
	})

	lines := engine.ComposeLines(pr)

	assert.Equal(t, []string{
		"ควรพบแพทย์เพื่อตรวจหาสาเหตุเกล็ดเลือดต่ำ และค่าการทำงานของตับผิดปกติ และค่าการทำงานของไตผิดปกติ",
		lipidAdvice,
		uricHighAdvice,
	}, lines)
	assert.Equal(t, lines[0]+"\n"+lines[1]+"\n"+lines[2], engine.Compose(pr))
}

func TestMerge(t *testing.T) {
	led := func(detail string) domain.Advisory {
		return domain.Advisory{Lead: domain.LeadSeePhysician, Detail: detail}
	}
	plain := func(text string) domain.Advisory {
		return domain.Advisory{Text: text}
	}

	tests := []struct {
		name     string
		in       []domain.Advisory
		expected []string
	}{
		{"empty", nil, []string{AllClearAdvice}},
		{"single led", []domain.Advisory{led("ก")}, []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุก"}},
		{
			"group emitted at first member position",
			[]domain.Advisory{plain("x"), led("ก"), plain("y"), led("ข")},
			[]string{"x", "ควรพบแพทย์เพื่อตรวจหาสาเหตุก และข", "y"},
		},
		{"duplicate details collapse", []domain.Advisory{led("ก"), led("ก")}, []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุก"}},
		{"duplicate verbatim dropped", []domain.Advisory{plain("x"), plain("x")}, []string{"x"}},
		{"blank verbatim ignored", []domain.Advisory{plain("  ")}, []string{AllClearAdvice}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Merge(tt.in))
		})
	}
}

func TestAdvisoryEngine_EvaluateRule(t *testing.T) {
	engine := NewAdvisoryEngine(newTestLogger())

	out, err := engine.EvaluateRule("CBC_ANEMIA", cbcPanel(domain.StatusBelow, domain.StatusNormal, domain.StatusNormal))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 40, out[0].Priority)

	_, err = engine.EvaluateRule("NOPE", cbcPanel(domain.StatusNormal, domain.StatusNormal, domain.StatusNormal))
	assert.Error(t, err)
}

func TestAdvisoryEngine_PanickingRuleIsSkipped(t *testing.T) {
	engine := NewAdvisoryEngine(newTestLogger())
	engine.addRule("BROKEN", "Broken rule", domain.PanelCBC, 5, func(*domain.PanelResult) []domain.Advisory {
		panic("boom")
	})

	lines := engine.ComposeLines(cbcPanel(domain.StatusBelow, domain.StatusNormal, domain.StatusNormal))
	assert.Equal(t, []string{"ควรพบแพทย์เพื่อตรวจหาสาเหตุภาวะโลหิตจาง"}, lines)
}
