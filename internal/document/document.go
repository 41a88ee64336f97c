// Package document implements the Document Store (spec section 4.A): an
// immutable loaded text with 1-indexed line access, statistics, regex
// grep, and fuzzy search. Grounded on aretext-aretext's line-indexed text
// buffer for line access and on opal-lang-opal's runtime/planner
// (the one file in the teacher family that imports lithammer/fuzzysearch)
// for the fuzzy-search plumbing.
package document

import (
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"

	"github.com/nucleuslang/nucleus/internal/nucleuserr"
	"github.com/nucleuslang/nucleus/internal/value"
)

// Document is an immutable loaded unit of text. A Session replaces it
// wholesale on a subsequent Load; it is never mutated in place.
type Document struct {
	Text      string
	Lines     []string // 1-indexed conceptually: Lines[0] is line 1
	Path      string
	ByteLen   int
	LineCount int
}

// Load builds a Document from literal text, splitting on '\n' (a trailing
// final newline does not produce a phantom empty last line, matching how a
// text editor's own line buffer is built).
func Load(text, path string) *Document {
	lines := splitLines(text)
	return &Document{
		Text:      text,
		Lines:     lines,
		Path:      path,
		ByteLen:   len(text),
		LineCount: len(lines),
	}
}

// LoadFile reads path from disk and builds a Document from its contents.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading document file")
	}
	return Load(string(data), path), nil
}

func splitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	raw := strings.Split(text, "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	return raw
}

// resolveIndex turns a possibly-negative 1-indexed line number into a
// 0-indexed slice position, or reports it out of range. -1 is the last
// line, per spec.
func (d *Document) resolveIndex(n int) (int, bool) {
	if n < 0 {
		n = d.LineCount + n + 1
	}
	if n < 1 || n > d.LineCount {
		return 0, false
	}
	return n - 1, true
}

// Line returns the text of the 1-indexed line n (negative counts from the
// end), or LineOutOfRange.
func (d *Document) Line(n int) (string, *nucleuserr.NucleusError) {
	idx, ok := d.resolveIndex(n)
	if !ok {
		return "", nucleuserr.New(nucleuserr.LineOutOfRange, "line out of range").
			WithMeta("requested", n).WithMeta("line_count", d.LineCount)
	}
	return d.Lines[idx], nil
}

// LinesRange returns the inclusive slice [start,end], reordering so start<=end,
// clamping out-of-range endpoints, and returning an empty slice if both
// endpoints are out of range on the same side.
func (d *Document) LinesRange(start, end int) []string {
	if start > end {
		start, end = end, start
	}
	rs, re := start, end
	if rs < 0 {
		rs = d.LineCount + rs + 1
	}
	if re < 0 {
		re = d.LineCount + re + 1
	}
	if d.LineCount == 0 || (rs < 1 && re < 1) || (rs > d.LineCount && re > d.LineCount) {
		return []string{}
	}
	s := clampLineRef(start, d.LineCount)
	e := clampLineRef(end, d.LineCount)
	if s > e {
		return []string{}
	}
	sIdx, _ := d.resolveIndex(s)
	eIdx, _ := d.resolveIndex(e)
	out := make([]string, 0, eIdx-sIdx+1)
	for i := sIdx; i <= eIdx; i++ {
		out = append(out, d.Lines[i])
	}
	return out
}

// clampLineRef clamps a possibly-negative 1-indexed line reference into
// [1, lineCount], resolving negative references against lineCount first.
func clampLineRef(n, lineCount int) int {
	if lineCount == 0 {
		return 1
	}
	if n < 0 {
		n = lineCount + n + 1
	}
	if n < 1 {
		return 1
	}
	if n > lineCount {
		return lineCount
	}
	return n
}

// Sample is up to 5 contiguous lines taken from one region of the document.
type Sample struct {
	Lines []string
}

// Stats is the document statistics record returned by (text-stats).
type Stats struct {
	Length    int
	LineCount int
	Start     Sample
	Middle    Sample
	End       Sample
}

const sampleSize = 5

// Stats computes the document statistics record.
func (d *Document) Stats() Stats {
	return Stats{
		Length:    d.ByteLen,
		LineCount: d.LineCount,
		Start:     d.sampleAt(1),
		Middle:    d.sampleAt(d.LineCount/2 + 1),
		End:       d.sampleAt(d.LineCount - sampleSize + 1),
	}
}

func (d *Document) sampleAt(start int) Sample {
	if d.LineCount == 0 {
		return Sample{Lines: []string{}}
	}
	if start < 1 {
		start = 1
	}
	end := start + sampleSize - 1
	if end > d.LineCount {
		end = d.LineCount
	}
	return Sample{Lines: d.LinesRange(start, end)}
}

// ToRecord renders Stats as a Value Record for the evaluator's
// (text-stats) primitive.
func (s Stats) ToRecord() value.Value {
	toList := func(lines []string) value.Value {
		vs := make([]value.Value, len(lines))
		for i, l := range lines {
			vs[i] = value.Str(l)
		}
		return value.List(vs)
	}
	sampleRecord := func(smp Sample) value.Value {
		return value.NewRecord([]string{"lines"}, map[string]value.Value{"lines": toList(smp.Lines)})
	}
	return value.NewRecord(
		[]string{"length", "line_count", "sample"},
		map[string]value.Value{
			"length":     value.Int(int64(s.Length)),
			"line_count": value.Int(int64(s.LineCount)),
			"sample": value.NewRecord([]string{"start", "middle", "end"}, map[string]value.Value{
				"start":  sampleRecord(s.Start),
				"middle": sampleRecord(s.Middle),
				"end":    sampleRecord(s.End),
			}),
		},
	)
}

// GrepFlags controls regex matching. Defaults are case-insensitive,
// multi-line, global, matching spec section 4.A.
type GrepFlags struct {
	CaseInsensitive bool
	Multiline       bool
	Global          bool
}

// DefaultGrepFlags returns spec section 6.5's grep_default_flags.
func DefaultGrepFlags() GrepFlags {
	return GrepFlags{CaseInsensitive: true, Multiline: true, Global: true}
}

func (f GrepFlags) reFlags() string {
	var sb strings.Builder
	if f.CaseInsensitive {
		sb.WriteByte('i')
	}
	if f.Multiline {
		sb.WriteByte('m')
	}
	return sb.String()
}

// Grep returns every match of pattern against the document under flags. The
// scanner advances by one code unit when a match is empty so zero-width
// patterns cannot cause infinite iteration (spec section 4.A/8).
func (d *Document) Grep(pattern string, flags GrepFlags) ([]value.GrepHit, *nucleuserr.NucleusError) {
	reSrc := pattern
	if fl := flags.reFlags(); fl != "" {
		reSrc = "(?" + fl + ")" + pattern
	}
	re, err := regexp.Compile(reSrc)
	if err != nil {
		return nil, nucleuserr.New(nucleuserr.RegexError, "invalid regular expression").
			WithMeta("pattern", pattern).WithMeta("cause", err.Error())
	}

	var hits []value.GrepHit
	pos := 0
	for pos <= len(d.Text) {
		loc := re.FindStringSubmatchIndex(d.Text[pos:])
		if loc == nil {
			break
		}
		matchStart := pos + loc[0]
		matchEnd := pos + loc[1]
		match := d.Text[matchStart:matchEnd]

		lineNum := d.lineNumberForOffset(matchStart)
		lineText := ""
		if lineNum >= 1 && lineNum <= d.LineCount {
			lineText = d.Lines[lineNum-1]
		}

		groups := make([]string, 0, len(loc)/2-1)
		for g := 1; g < len(loc)/2; g++ {
			gs, ge := loc[2*g], loc[2*g+1]
			if gs < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, d.Text[pos+gs:pos+ge])
		}

		hits = append(hits, value.GrepHit{
			Match:   match,
			Line:    lineText,
			LineNum: uint32(lineNum),
			Index:   uint32(matchStart),
			Groups:  groups,
		})

		if !flags.Global {
			break
		}
		if loc[1] == loc[0] {
			// zero-width match: advance by one code unit past the match
			// start so the scan always makes progress.
			_, size := decodeRuneSize(d.Text, matchStart)
			pos = matchStart + size
		} else {
			pos = matchEnd
		}
	}
	return hits, nil
}

// decodeRuneSize returns the byte width to advance past a zero-width match
// at offset i, using utf8.DecodeRuneInString so multi-byte code points are
// skipped as one unit rather than one byte at a time.
func decodeRuneSize(s string, i int) (rune, int) {
	if i >= len(s) {
		return 0, 1
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	if size == 0 {
		return r, 1
	}
	return r, size
}

func (d *Document) lineNumberForOffset(offset int) int {
	running := 0
	for i, line := range d.Lines {
		lineLen := len(line) + 1 // account for the '\n' separator
		if offset < running+lineLen || i == len(d.Lines)-1 {
			return i + 1
		}
		running += lineLen
	}
	if len(d.Lines) == 0 {
		return 1
	}
	return len(d.Lines)
}

// Fuzzy returns the top-limit FuzzyHits over distinct lines. A case-folded
// substring match scores 0; otherwise score is the edit distance between
// query and the line's best-matching window of exactly the query's length,
// plus 0.01 per byte by which the line is longer than the query. Window
// length never varies, so it adds no penalty of its own. Ties break by
// smaller lineNum (spec section 4.A).
func (d *Document) Fuzzy(query string, limit int) []value.FuzzyHit {
	if limit <= 0 {
		limit = 10
	}
	hits := make([]value.FuzzyHit, 0, len(d.Lines))
	lowerQuery := strings.ToLower(query)
	for i, line := range d.Lines {
		score := scoreLine(lowerQuery, line)
		hits = append(hits, value.FuzzyHit{Line: line, LineNum: uint32(i + 1), Score: score})
	}
	sortFuzzyHits(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func scoreLine(lowerQuery, line string) float64 {
	lowerLine := strings.ToLower(line)
	if strings.Contains(lowerLine, lowerQuery) {
		return 0
	}
	return bestWindowDistance(lowerQuery, lowerLine)
}

// bestWindowDistance slides a window the length of query across line and
// returns the minimal edit distance over all windows plus a penalty of 0.01
// times (line length - query length); a line no longer than query is scored
// by its whole edit distance with no penalty. It uses
// lithammer/fuzzysearch's Levenshtein distance as the edit-distance
// primitive (spec's "documented and stable" scoring function is ours; the
// distance metric underneath it is the pack's library).
func bestWindowDistance(query, line string) float64 {
	qLen := len(query)
	if qLen == 0 {
		return float64(len(line))
	}
	if len(line) <= qLen {
		return float64(fuzzy.LevenshteinDistance(query, line))
	}
	best := -1
	for start := 0; start+qLen <= len(line); start++ {
		window := line[start : start+qLen]
		d := fuzzy.LevenshteinDistance(query, window)
		if best < 0 || d < best {
			best = d
		}
	}
	penalty := float64(len(line) - qLen)
	return float64(best) + penalty*0.01
}

func sortFuzzyHits(hits []value.FuzzyHit) {
	// stable insertion sort keyed by (Score asc, LineNum asc); document
	// line counts are small enough that O(n^2) here never matters, and
	// this keeps tie-breaking trivially auditable against spec's rule.
	for i := 1; i < len(hits); i++ {
		j := i
		for j > 0 && lessFuzzy(hits[j], hits[j-1]) {
			hits[j], hits[j-1] = hits[j-1], hits[j]
			j--
		}
	}
}

func lessFuzzy(a, b value.FuzzyHit) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.LineNum < b.LineNum
}
