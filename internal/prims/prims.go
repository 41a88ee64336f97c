// Package prims implements the pure, stateless primitive operations shared
// by internal/eval (the live Nucleus evaluator) and internal/synth (the
// relational synthesizer's candidate compositions), so that "each
// candidate's forward evaluation uses the same primitives... semantic
// drift between synthesis and use is impossible" (spec section 4.F).
//
// Every function here is total: it never panics, and an input outside its
// documented domain yields value.Null() rather than an error, matching
// spec section 4.B's null-propagation rule. Regex compilation failures are
// the one case callers (internal/eval) must still translate into a
// RegexError; prims.Match/Replace/Split return that compile error verbatim
// so the caller can decide how to surface it.
package prims

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nucleuslang/nucleus/internal/value"
)

// Match returns the capture group (0 = whole match) of the first match of
// pattern in s, or Null if there is no match.
func Match(s, pattern string, group int) (value.Value, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return value.Null(), err
	}
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return value.Null(), nil
	}
	idx := group * 2
	if idx < 0 || idx+1 >= len(loc) || loc[idx] < 0 {
		return value.Null(), nil
	}
	return value.Str(s[loc[idx]:loc[idx+1]]), nil
}

// Replace performs a global regex replace of from with to in s.
func Replace(s, from, to string) (value.Value, error) {
	re, err := regexp.Compile(from)
	if err != nil {
		return value.Null(), err
	}
	return value.Str(re.ReplaceAllString(s, to)), nil
}

// Split divides s on the delim regex. With hasIndex, it returns the single
// part at index (negative counts from the end; out of range is Null);
// otherwise it returns the full list of parts.
func Split(s, delim string, hasIndex bool, index int) (value.Value, error) {
	re, err := regexp.Compile(delim)
	if err != nil {
		return value.Null(), err
	}
	parts := re.Split(s, -1)
	if !hasIndex {
		vs := make([]value.Value, len(parts))
		for i, p := range parts {
			vs[i] = value.Str(p)
		}
		return value.List(vs), nil
	}
	i := index
	if i < 0 {
		i = len(parts) + i
	}
	if i < 0 || i >= len(parts) {
		return value.Null(), nil
	}
	return value.Str(parts[i]), nil
}

// Contains, StartsWith, EndsWith implement the spec's plain string
// predicates (case-sensitive; callers fold case themselves if needed).
func Contains(s, sub string) bool    { return strings.Contains(s, sub) }
func StartsWith(s, prefix string) bool { return strings.HasPrefix(s, prefix) }
func EndsWith(s, suffix string) bool   { return strings.HasSuffix(s, suffix) }

func Trim(s string) string  { return strings.TrimSpace(s) }
func Upper(s string) string { return strings.ToUpper(s) }
func Lower(s string) string { return strings.ToLower(s) }

// ParseInt parses a decimal integer with an optional leading minus,
// stripping thousands commas first. Invalid input yields Null.
func ParseInt(s string) value.Value {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return value.Null()
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return value.Null()
	}
	return value.Int(n)
}

// ParseFloat is a permissive float parser: decimal point, scientific
// notation, commas stripped. Invalid input yields Null.
func ParseFloat(s string) value.Value {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return value.Null()
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return value.Null()
	}
	return value.Float(f)
}

var currencySymbols = "$€£¥₹"

// ParseCurrency strips one leading currency symbol, detects the US vs. EU
// thousands/decimal convention by the relative position of the last ','
// and '.', and treats parenthesized values as negative: "(X)" == -X.
func ParseCurrency(s string) value.Value {
	t := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") {
		negative = true
		t = strings.TrimSuffix(strings.TrimPrefix(t, "("), ")")
		t = strings.TrimSpace(t)
	}
	for _, sym := range currencySymbols {
		if strings.HasPrefix(t, string(sym)) {
			t = strings.TrimPrefix(t, string(sym))
			break
		}
	}
	t = strings.TrimSpace(t)
	if t == "" {
		return value.Null()
	}
	if strings.HasPrefix(t, "-") {
		negative = true
		t = t[1:]
	}

	lastComma := strings.LastIndex(t, ",")
	lastDot := strings.LastIndex(t, ".")
	var normalized string
	switch {
	case lastComma == -1 && lastDot == -1:
		normalized = t
	case lastComma > lastDot:
		// EU convention: '.' thousands, ',' decimal.
		normalized = strings.ReplaceAll(t, ".", "")
		normalized = strings.Replace(normalized, ",", ".", 1)
	default:
		// US convention: ',' thousands, '.' decimal.
		normalized = strings.ReplaceAll(t, ",", "")
	}
	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return value.Null()
	}
	if negative {
		f = -f
	}
	return value.Float(f)
}

// ParseNumber divides by 100 on a "%" suffix; otherwise behaves like
// ParseFloat.
func ParseNumber(s string) value.Value {
	t := strings.TrimSpace(s)
	if strings.HasSuffix(t, "%") {
		v := ParseFloat(strings.TrimSuffix(t, "%"))
		if v.IsNull() {
			return value.Null()
		}
		return value.Float(v.AsFloat() / 100)
	}
	return ParseFloat(t)
}

var isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
var slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
var monthDayYearRe = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2}),\s*(\d{4})$`)
var dayMonthYearRe = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})$`)
var dayMonYYRe = regexp.MustCompile(`^(\d{1,2})-([A-Za-z]{3})-(\d{2})$`)

var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ParseDate recognizes the shapes listed in spec section 4.D and returns
// "YYYY-MM-DD", or Null if the shape or the calendar date itself (e.g.
// "30-Feb-24") is invalid. fmtHint selects between the ambiguous
// "MM/DD/YYYY" ("US") and "DD/MM/YYYY" ("EU") forms; a slash date with no
// fmtHint is ambiguous and is not recognized.
func ParseDate(s, fmtHint string) value.Value {
	t := strings.TrimSpace(s)

	if m := isoDateRe.FindStringSubmatch(t); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return validDate(y, mo, d)
	}
	if m := slashDateRe.FindStringSubmatch(t); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		switch strings.ToUpper(fmtHint) {
		case "US":
			return validDate(y, a, b)
		case "EU":
			return validDate(y, b, a)
		default:
			return value.Null()
		}
	}
	if m := monthDayYearRe.FindStringSubmatch(t); m != nil {
		mo, ok := monthNames[strings.ToLower(m[1])]
		if !ok {
			return value.Null()
		}
		d, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		return validDate(y, mo, d)
	}
	if m := dayMonthYearRe.FindStringSubmatch(t); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, ok := monthNames[strings.ToLower(m[2])]
		if !ok {
			return value.Null()
		}
		y, _ := strconv.Atoi(m[3])
		return validDate(y, mo, d)
	}
	if m := dayMonYYRe.FindStringSubmatch(t); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, ok := monthNames[strings.ToLower(m[2])]
		if !ok {
			return value.Null()
		}
		yy, _ := strconv.Atoi(m[3])
		year := 1900 + yy
		if yy < 50 {
			year = 2000 + yy
		}
		return validDate(year, mo, d)
	}
	return value.Null()
}

// validDate constructs the date through time.Date and rejects anything
// that normalized (e.g. Feb 30 rolling into March), which also correctly
// rejects Feb 29 on non-leap years while accepting it on leap years.
func validDate(y, mo, d int) value.Value {
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return value.Null()
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if int(t.Month()) != mo || t.Day() != d || t.Year() != y {
		return value.Null()
	}
	return value.Str(fmt.Sprintf("%04d-%02d-%02d", y, mo, d))
}
