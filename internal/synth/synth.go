// Package synth implements the Relational Synthesizer (spec section 4.F):
// given input/output examples, search a fixed catalog of primitive
// compositions and return the first one that reproduces every example.
//
// The catalog is enumerated as a genuine miniKanren disjunction over
// github.com/gitrdm/gokanlogic's pkg/minikanren: one candidate forward-
// evaluates against every example (delegating to internal/prims, the same
// primitive functions internal/eval calls, so there is no semantic drift
// between synthesis and use), and candidates that match contribute an Eq
// disjunct carrying their catalog index to a single Conde goal, run to
// exhaustion. gokanlogic's Disj evaluates its disjuncts concurrently, so the
// order solutions arrive in Run's result set is not itself the catalog
// order; Synthesize recovers spec section 4.F's deterministic "lowest
// catalog index wins" rule by taking the minimum index out of whatever set
// Run returns, rather than relying on Run(1, ...) racing the first disjunct
// to finish (see DESIGN.md's Open Question decision).
package synth

import (
	"context"
	"regexp"

	"github.com/gitrdm/gokanlogic/pkg/minikanren"

	"github.com/nucleuslang/nucleus/internal/nucleuserr"
	"github.com/nucleuslang/nucleus/internal/prims"
	"github.com/nucleuslang/nucleus/internal/value"
)

// Example is one (input, output) pair supplied to the synthesizer.
type Example struct {
	Input  value.Value
	Output value.Value
}

// Report is the diagnostic returned alongside a NoCandidate failure, and
// retained for the (last-synthesis-report) primitive (SPEC_FULL.md's
// supplemented feature).
type Report struct {
	CandidatesExplored int
	FirstFailingExample int // -1 if no candidate got far enough to fail on a specific example
	Succeeded           bool
	CandidateName       string
}

// candidate is one enumerable composition: a name (for diagnostics) and a
// pure forward-evaluation function over a single input.
type candidate struct {
	name  string
	apply func(value.Value) (value.Value, bool) // ok=false means "does not apply / forward-eval failed"
}

// Synthesize runs the deterministic candidate search. It requires at least
// two examples (NeedsMoreExamples), bounds the search by maxCandidates
// (NoCandidate past the bound), and honours ctx's deadline, checking it
// between candidates (spec section 5).
func Synthesize(ctx context.Context, examples []Example, maxCandidates int) (value.Lambda, Report, *nucleuserr.NucleusError) {
	if len(examples) < 2 {
		return value.Lambda{}, Report{FirstFailingExample: -1}, nucleuserr.New(nucleuserr.NeedsMoreExamples,
			"synthesize-extractor requires at least 2 examples").WithMeta("received", len(examples))
	}

	if lam, ok := quarterToMonthSpecializer(examples); ok {
		return lam, Report{FirstFailingExample: -1, Succeeded: true, CandidateName: "quarter-to-month"}, nil
	}

	candidates := buildCandidates(outputShape(examples[0].Output))
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	report := Report{FirstFailingExample: -1}
	disjuncts := make([]minikanren.Goal, len(candidates))

	for i, cand := range candidates {
		select {
		case <-ctx.Done():
			return value.Lambda{}, report, nucleuserr.New(nucleuserr.TimeoutError, "synthesis deadline exceeded").
				WithMeta("candidates_explored", report.CandidatesExplored)
		default:
		}
		report.CandidatesExplored++
		ok, firstFail := verifyCandidate(cand, examples)
		if firstFail >= 0 && report.FirstFailingExample < 0 {
			report.FirstFailingExample = firstFail
		}
		if ok {
			disjuncts[i] = minikanren.Success
		} else {
			disjuncts[i] = minikanren.Failure
		}
	}

	winner := lowestWinningIndex(ctx, disjuncts)

	if winner < 0 {
		return value.Lambda{}, report, nucleuserr.New(nucleuserr.NoCandidate, "no composition satisfies every example").
			WithMeta("candidates_explored", report.CandidatesExplored).
			WithMeta("first_failing_example", report.FirstFailingExample)
	}

	report.Succeeded = true
	won := candidates[winner]
	report.CandidateName = won.name
	return value.NewNativeLambda(func(in value.Value) value.Value {
		out, ok := won.apply(in)
		if !ok {
			return value.Null()
		}
		return out
	}), report, nil
}

// lowestWinningIndex wraps each pre-verified disjunct with Eq(q, i) so the
// shared query variable q carries the catalog index of every candidate whose
// goal succeeds, runs the combined Conde to exhaustion (gokanlogic's Disj
// evaluates disjuncts concurrently and forwards every success, so n must
// cover every candidate to avoid dropping a winner), and deterministically
// returns the lowest index among them, or -1 if none succeeded.
func lowestWinningIndex(ctx context.Context, disjuncts []minikanren.Goal) int {
	if len(disjuncts) == 0 {
		return -1
	}
	results := minikanren.RunWithContext(ctx, len(disjuncts), func(q *minikanren.Var) minikanren.Goal {
		branches := make([]minikanren.Goal, len(disjuncts))
		for i, g := range disjuncts {
			branches[i] = minikanren.Conj(g, minikanren.Eq(q, minikanren.NewAtom(i)))
		}
		return minikanren.Conde(branches...)
	})

	winner := -1
	for _, r := range results {
		atom, ok := r.(*minikanren.Atom)
		if !ok {
			continue
		}
		idx, ok := atom.Value().(int)
		if !ok {
			continue
		}
		if winner < 0 || idx < winner {
			winner = idx
		}
	}
	return winner
}

// verifyCandidate forward-evaluates cand against every example, using the
// same internal/prims functions internal/eval calls so synthesis and
// evaluation never drift apart.
func verifyCandidate(cand candidate, examples []Example) (ok bool, firstFail int) {
	firstFail = -1
	for i, ex := range examples {
		actual, applied := cand.apply(ex.Input)
		if !applied || !value.Equal(actual, ex.Output) {
			return false, i
		}
	}
	return true, firstFail
}

type shape int

const (
	shapeInt shape = iota
	shapeFloat
	shapeStr
	shapeBool
)

func outputShape(v value.Value) shape {
	switch v.Kind() {
	case value.KindInt:
		return shapeInt
	case value.KindFloat:
		return shapeFloat
	case value.KindBool:
		return shapeBool
	default:
		return shapeStr
	}
}

// extractionPatterns is the fixed catalog of extraction regexes: currency
// with and without decimals, plain integer, percentage, key-value suffix,
// and quarter. It holds no month or date-shape patterns; dates are handled
// only by the parseDate candidate in buildCandidates. Ordered
// deterministically; this order is part of the observable enumeration
// order.
var extractionPatterns = []struct {
	name    string
	pattern string
	group   int
}{
	{"currency-decimals", `[\$€£]\s*([\d,]+\.\d+)`, 1},
	{"currency-plain", `[\$€£]\s*([\d,]+)`, 1},
	{"plain-integer", `(-?\d+)`, 1},
	{"percentage", `(-?\d+(?:\.\d+)?)\s*%`, 1},
	{"key-value-suffix", `:\s*([^\s,;]+)`, 1},
	{"quarter", `(Q[1-4])-(\d{4})`, 0},
}

// buildCandidates returns the generators whose output type matches want,
// in breadth-first template-index-then-pattern-index order.
func buildCandidates(want shape) []candidate {
	var out []candidate

	switch want {
	case shapeInt:
		for _, ep := range extractionPatterns {
			ep := ep
			out = append(out, candidate{
				name: "match(" + ep.name + ")->parseInt",
				apply: func(in value.Value) (value.Value, bool) {
					s, ok := in.AsLine()
					if !ok {
						return value.Null(), false
					}
					m, err := prims.Match(s, ep.pattern, ep.group)
					if err != nil || m.IsNull() {
						return value.Null(), false
					}
					r := prims.ParseInt(m.AsStr())
					return r, !r.IsNull()
				},
			})
		}
		out = append(out, candidate{
			name: "match(currency)->parseCurrency",
			apply: matchThenCurrency("[\\$€£]\\s*\\(?[\\d.,]+\\)?", 0),
		})
	case shapeFloat:
		for _, ep := range extractionPatterns {
			ep := ep
			out = append(out, candidate{
				name: "match(" + ep.name + ")->parseFloat",
				apply: func(in value.Value) (value.Value, bool) {
					s, ok := in.AsLine()
					if !ok {
						return value.Null(), false
					}
					m, err := prims.Match(s, ep.pattern, ep.group)
					if err != nil || m.IsNull() {
						return value.Null(), false
					}
					r := prims.ParseFloat(m.AsStr())
					return r, !r.IsNull()
				},
			})
		}
		out = append(out, candidate{
			name:  "match(currency)->replace(\",\",\"\")->parseFloat",
			apply: matchReplaceParseFloat(`[\$€£]\s*([\d,]+\.?\d*)`, 1),
		})
		out = append(out, candidate{
			name:  "match(currency)->parseCurrency",
			apply: matchThenCurrency(`[\$€£]\s*\(?[\d.,]+\)?`, 0),
		})
	case shapeStr:
		out = append(out, candidate{
			name: "match(date-iso)->parseDate",
			apply: func(in value.Value) (value.Value, bool) {
				s, ok := in.AsLine()
				if !ok {
					return value.Null(), false
				}
				r := prims.ParseDate(s, "")
				return r, !r.IsNull()
			},
		})
		out = append(out, candidate{
			name: "split(,0)->trim",
			apply: func(in value.Value) (value.Value, bool) {
				s, ok := in.AsLine()
				if !ok {
					return value.Null(), false
				}
				parts, err := prims.Split(s, ",", true, 0)
				if err != nil || parts.IsNull() {
					return value.Null(), false
				}
				return value.Str(prims.Trim(parts.AsStr())), true
			},
		})
	}
	return out
}

func matchThenCurrency(pattern string, group int) func(value.Value) (value.Value, bool) {
	return func(in value.Value) (value.Value, bool) {
		s, ok := in.AsLine()
		if !ok {
			return value.Null(), false
		}
		m, err := prims.Match(s, pattern, group)
		if err != nil || m.IsNull() {
			return value.Null(), false
		}
		r := prims.ParseCurrency(m.AsStr())
		return r, !r.IsNull()
	}
}

func matchReplaceParseFloat(pattern string, group int) func(value.Value) (value.Value, bool) {
	return func(in value.Value) (value.Value, bool) {
		s, ok := in.AsLine()
		if !ok {
			return value.Null(), false
		}
		m, err := prims.Match(s, pattern, group)
		if err != nil || m.IsNull() {
			return value.Null(), false
		}
		repl, err := prims.Replace(m.AsStr(), ",", "")
		if err != nil {
			return value.Null(), false
		}
		r := prims.ParseFloat(repl.AsStr())
		return r, !r.IsNull()
	}
}

var quarterMonthRe = regexp.MustCompile(`(Q[1-4])-(\d{4})`)

// quarterToMonthSpecializer recognizes examples of shape (Q[1-4]-YYYY,
// YYYY-MM) and emits a closed-form Q->month mapping, checked before the
// generic search (spec section 4.F).
func quarterToMonthSpecializer(examples []Example) (value.Lambda, bool) {
	re := quarterMonthRe
	quarterMonth := map[string]string{"Q1": "01", "Q2": "04", "Q3": "07", "Q4": "10"}
	for _, ex := range examples {
		in, ok := ex.Input.AsLine()
		if !ok {
			return value.Lambda{}, false
		}
		m := re.FindStringSubmatch(in)
		if m == nil {
			return value.Lambda{}, false
		}
		expectedOut := m[2] + "-" + quarterMonth[m[1]]
		if ex.Output.Kind() != value.KindStr || ex.Output.AsStr() != expectedOut {
			return value.Lambda{}, false
		}
	}
	return value.NewNativeLambda(func(in value.Value) value.Value {
		s, ok := in.AsLine()
		if !ok {
			return value.Null()
		}
		m := re.FindStringSubmatch(s)
		if m == nil {
			return value.Null()
		}
		month, ok := quarterMonth[m[1]]
		if !ok {
			return value.Null()
		}
		return value.Str(m[2] + "-" + month)
	}), true
}
