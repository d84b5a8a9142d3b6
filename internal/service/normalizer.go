package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/checkup-report-server/internal/domain"
)

// missingPlaceholder is the sheet's literal marker for "not measured".
const missingPlaceholder = "-"

// leadingNumber splits "13.5 g/dl" into the number, the gap and the remainder.
var leadingNumber = regexp.MustCompile(`^([+-]?(?:\d+(?:\.\d*)?|\.\d+))(\s*)(.*)$`)

// Normalize parses a raw cell value into a numeric reading. Empty values, the "-"
// placeholder and anything not parseable as a decimal number yield NoData. It never panics.
func Normalize(raw any) domain.Reading {
	switch v := raw.(type) {
	case nil:
		return domain.NoData()
	case domain.Reading:
		return v
	case string:
		return normalizeString(v)
	case float64:
		return domain.Value(v)
	case float32:
		return domain.Value(float64(v))
	case int:
		return domain.Value(float64(v))
	case int8:
		return domain.Value(float64(v))
	case int16:
		return domain.Value(float64(v))
	case int32:
		return domain.Value(float64(v))
	case int64:
		return domain.Value(float64(v))
	case uint:
		return domain.Value(float64(v))
	case uint8:
		return domain.Value(float64(v))
	case uint16:
		return domain.Value(float64(v))
	case uint32:
		return domain.Value(float64(v))
	case uint64:
		return domain.Value(float64(v))
	case json.Number:
		return normalizeString(v.String())
	case []byte:
		return normalizeString(string(v))
	case fmt.Stringer:
		return normalizeString(v.String())
	default:
		return domain.NoData()
	}
}

// NormalizeCount is Normalize for count-like analytes, where a zero cell means "not measured".
func NormalizeCount(raw any) domain.Reading {
	r := Normalize(raw)
	if r.Valid && r.Value == 0 {
		return domain.NoData()
	}
	return r
}

func normalizeString(s string) domain.Reading {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.TrimSpace(s)
	if s == "" || s == missingPlaceholder {
		return domain.NoData()
	}

	s = strings.ReplaceAll(s, ",", "")
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return domain.Value(f)
	}

	m := leadingNumber.FindStringSubmatch(s)
	if m == nil || !isUnitSuffix(m[3], m[2] != "") {
		return domain.NoData()
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return domain.NoData()
	}
	return domain.Value(f)
}

// isUnitSuffix accepts remainders like "g/dl", "/cu.mm", "%", "mg/dL" or "กก.".
// A unit spelled with letters must be separated from the number ("0x10" is not 0);
// only '%' and '/' may follow it directly. A second number ("12 - 15") is rejected.
func isUnitSuffix(rest string, spaced bool) bool {
	if rest == "" {
		return false
	}
	first := []rune(rest)[0]
	switch {
	case first == '%' || first == '/':
	case spaced && (unicode.IsLetter(first) || first == 'µ'):
	default:
		return false
	}
	for _, r := range rest {
		switch {
		case unicode.IsDigit(r):
			return false
		case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsSpace(r):
		case strings.ContainsRune("%/.^°²³µ()", r):
		default:
			return false
		}
	}
	return true
}
