package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleuslang/nucleus/internal/document"
	"github.com/nucleuslang/nucleus/internal/nucleuserr"
	"github.com/nucleuslang/nucleus/internal/parser"
	"github.com/nucleuslang/nucleus/internal/value"
)

func newTestEvaluator(text string) (*Evaluator, *Environment) {
	doc := document.Load(text, "test.txt")
	cfg := Config{
		HistoryDepth:      8,
		MaxCandidates:     50,
		DefaultFuzzyLimit: 10,
		GrepFlags:         document.DefaultGrepFlags(),
	}
	return New(doc, cfg), NewEnvironment(cfg.HistoryDepth)
}

func run(t *testing.T, ev *Evaluator, env *Environment, src string) (value.Value, []string, *nucleuserr.NucleusError) {
	t.Helper()
	expr, perr := parser.Parse(src)
	require.Nil(t, perr, "parse error for %q", src)
	return ev.EvalTopLevel(context.Background(), expr, env)
}

func mustEval(t *testing.T, ev *Evaluator, env *Environment, src string) value.Value {
	t.Helper()
	v, _, err := run(t, ev, env, src)
	require.Nil(t, err, "eval error for %q: %v", src, err)
	return v
}

func TestLiterals(t *testing.T) {
	ev, env := newTestEvaluator("")
	assert.Equal(t, int64(42), mustEval(t, ev, env, "42").AsInt())
	assert.Equal(t, 3.5, mustEval(t, ev, env, "3.5").AsFloat())
	assert.Equal(t, "hi", mustEval(t, ev, env, `"hi"`).AsStr())
	assert.True(t, mustEval(t, ev, env, "true").AsBool())
}

func TestUndefinedSymbolIsTypeError(t *testing.T) {
	ev, env := newTestEvaluator("")
	_, _, err := run(t, ev, env, "nope")
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.TypeError, err.Kind)
}

func TestLetBindsAndReturnsValue(t *testing.T) {
	ev, env := newTestEvaluator("")
	v := mustEval(t, ev, env, `(let x 10)`)
	assert.Equal(t, int64(10), v.AsInt())
	assert.Equal(t, int64(10), mustEval(t, ev, env, "x").AsInt())
}

func TestLetRejectsReservedNames(t *testing.T) {
	ev, env := newTestEvaluator("")
	_, _, err := run(t, ev, env, `(let RESULTS 1)`)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.ReservedName, err.Kind)
}

func TestIfBranches(t *testing.T) {
	ev, env := newTestEvaluator("")
	assert.Equal(t, int64(1), mustEval(t, ev, env, `(if true 1 2)`).AsInt())
	assert.Equal(t, int64(2), mustEval(t, ev, env, `(if false 1 2)`).AsInt())
	assert.True(t, mustEval(t, ev, env, `(if false 1)`).IsNull())
}

func TestDoEvaluatesSequentiallyReturningLast(t *testing.T) {
	ev, env := newTestEvaluator("")
	v := mustEval(t, ev, env, `(do (let x 1) (let y 2) (sum (list x y)))`)
	assert.Equal(t, int64(3), v.AsInt())
}

func TestLambdaApplicationViaLetBoundSymbol(t *testing.T) {
	ev, env := newTestEvaluator("")
	mustEval(t, ev, env, `(let double (lambda x (sum (list x x))))`)
	v := mustEval(t, ev, env, `(double 21)`)
	assert.Equal(t, int64(42), v.AsInt())
}

func TestLambdaClosureCapturesByValueSnapshot(t *testing.T) {
	ev, env := newTestEvaluator("")
	mustEval(t, ev, env, `(let base 100)`)
	mustEval(t, ev, env, `(let addBase (lambda x (sum (list x base))))`)
	mustEval(t, ev, env, `(let base 999)`) // rebinding base afterwards must not affect the closure
	v := mustEval(t, ev, env, `(addBase 1)`)
	assert.Equal(t, int64(101), v.AsInt())
}

func TestCallingNonLambdaIsTypeError(t *testing.T) {
	ev, env := newTestEvaluator("")
	mustEval(t, ev, env, `(let notAFn 5)`)
	_, _, err := run(t, ev, env, `(notAFn 1)`)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.TypeError, err.Kind)
}

func TestListAndRecordConstructors(t *testing.T) {
	ev, env := newTestEvaluator("")
	list := mustEval(t, ev, env, `(list 1 2 3)`)
	require.Equal(t, value.KindList, list.Kind())
	assert.Len(t, list.AsList(), 3)

	rec := mustEval(t, ev, env, `(record "input" "x" "output" 1)`)
	require.Equal(t, value.KindRecord, rec.Kind())
	in, ok := rec.RecordGet("input")
	require.True(t, ok)
	assert.Equal(t, "x", in.AsStr())
}

func TestRecordCtorOddArityIsArityError(t *testing.T) {
	ev, env := newTestEvaluator("")
	_, _, err := run(t, ev, env, `(record "a")`)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.ArityError, err.Kind)
}

func TestNullPropagationOnCollectionPrimitives(t *testing.T) {
	ev, env := newTestEvaluator("")
	mustEval(t, ev, env, `(let x (match "no" "nomatch_never" 0))`) // x is null
	assert.True(t, mustEval(t, ev, env, `(sum x)`).IsNull())
	assert.True(t, mustEval(t, ev, env, `(filter x (lambda y true))`).IsNull())
	assert.Equal(t, int64(0), mustEval(t, ev, env, `(count x)`).AsInt())
}

func TestSumPreservesIntWhenAllElementsExactInt(t *testing.T) {
	ev, env := newTestEvaluator("")
	v := mustEval(t, ev, env, `(sum (list 1 2 3))`)
	assert.Equal(t, value.KindInt, v.Kind())
	assert.Equal(t, int64(6), v.AsInt())
}

func TestSumBecomesFloatWithAnyFloatElement(t *testing.T) {
	ev, env := newTestEvaluator("")
	v := mustEval(t, ev, env, `(sum (list 1 2.5))`)
	assert.Equal(t, value.KindFloat, v.Kind())
	assert.Equal(t, 3.5, v.AsFloat())
}

func TestMapFilterReduce(t *testing.T) {
	ev, env := newTestEvaluator("")
	doubled := mustEval(t, ev, env, `(map (list 1 2 3) (lambda x (sum (list x x))))`)
	got := doubled.AsList()
	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].AsInt())

	kept := mustEval(t, ev, env, `(filter (list "apple" "banana" "avocado") (lambda x (starts-with x "a")))`)
	names := kept.AsList()
	require.Len(t, names, 2)
	assert.Equal(t, "apple", names[0].AsStr())
	assert.Equal(t, "avocado", names[1].AsStr())

	total := mustEval(t, ev, env, `(reduce (list 1 2 3 4) 0 (lambda acc (lambda x (sum (list acc x)))))`)
	assert.Equal(t, int64(10), total.AsInt())
}

func TestReduceRequiresCurriedLambda(t *testing.T) {
	ev, env := newTestEvaluator("")
	_, _, err := run(t, ev, env, `(reduce (list 1 2) 0 (lambda x x))`)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.TypeError, err.Kind)
}

func TestTakeDropFirstLastReverseDistinctSort(t *testing.T) {
	ev, env := newTestEvaluator("")
	assert.Equal(t, []value.Value{value.Int(1), value.Int(2)}, mustEval(t, ev, env, `(take (list 1 2 3) 2)`).AsList())
	assert.Equal(t, []value.Value{value.Int(3)}, mustEval(t, ev, env, `(drop (list 1 2 3) 2)`).AsList())
	assert.Equal(t, int64(1), mustEval(t, ev, env, `(first (list 1 2 3))`).AsInt())
	assert.Equal(t, int64(3), mustEval(t, ev, env, `(last (list 1 2 3))`).AsInt())
	assert.Equal(t, []value.Value{value.Int(3), value.Int(2), value.Int(1)}, mustEval(t, ev, env, `(reverse (list 1 2 3))`).AsList())
	assert.Len(t, mustEval(t, ev, env, `(distinct (list 1 1 2 2 3))`).AsList(), 3)
	assert.Equal(t, []value.Value{value.Int(1), value.Int(2), value.Int(3)}, mustEval(t, ev, env, `(sort (list 3 1 2))`).AsList())
}

func TestGroupByKeysInFirstAppearanceOrder(t *testing.T) {
	ev, env := newTestEvaluator("")
	grouped := mustEval(t, ev, env,
		`(group-by (list "ant" "bee" "ape" "bat") (lambda x (match x "^." 0)))`)
	require.Equal(t, value.KindRecord, grouped.Kind())
	keys := grouped.RecordKeys()
	require.Len(t, keys, 2)
	assert.Equal(t, []string{"a", "b"}, keys)
	aBucket, ok := grouped.RecordGet("a")
	require.True(t, ok)
	assert.Len(t, aBucket.AsList(), 2)
}

func TestStringPrimitives(t *testing.T) {
	ev, env := newTestEvaluator("")
	assert.True(t, mustEval(t, ev, env, `(contains "hello" "ell")`).AsBool())
	assert.True(t, mustEval(t, ev, env, `(starts-with "hello" "he")`).AsBool())
	assert.True(t, mustEval(t, ev, env, `(ends-with "hello" "lo")`).AsBool())
	assert.Equal(t, "HELLO", mustEval(t, ev, env, `(upper "hello")`).AsStr())
	assert.Equal(t, "hello", mustEval(t, ev, env, `(lower "HELLO")`).AsStr())
	assert.Equal(t, "hi", mustEval(t, ev, env, `(trim "  hi  ")`).AsStr())
}

func TestParsePrimitives(t *testing.T) {
	ev, env := newTestEvaluator("")
	assert.Equal(t, int64(1234), mustEval(t, ev, env, `(parseInt "1,234")`).AsInt())
	assert.Equal(t, 3.5, mustEval(t, ev, env, `(parseFloat "3.5")`).AsFloat())
	assert.Equal(t, "2024-03-05", mustEval(t, ev, env, `(parseDate "2024-03-05")`).AsStr())
}

func TestGrepRequiresDocument(t *testing.T) {
	ev := New(nil, Config{GrepFlags: document.DefaultGrepFlags()})
	env := NewEnvironment(8)
	_, _, err := run(t, ev, env, `(grep "x")`)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.NoDocument, err.Kind)
}

func TestGrepAndLinesAgainstLoadedDocument(t *testing.T) {
	ev, env := newTestEvaluator("foo bar\nbaz qux\n")
	hits := mustEval(t, ev, env, `(grep "foo")`)
	require.Len(t, hits.AsList(), 1)

	line := mustEval(t, ev, env, `(lines 1)`)
	assert.Equal(t, "foo bar", line.AsStr())

	rng := mustEval(t, ev, env, `(lines 1 2)`)
	assert.Len(t, rng.AsList(), 2)
}

func TestPrintAppendsToLogsAndReturnsLastArg(t *testing.T) {
	ev, env := newTestEvaluator("")
	v, logs, err := run(t, ev, env, `(print "hello" 42)`)
	require.Nil(t, err)
	assert.Equal(t, int64(42), v.AsInt())
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "hello")
}

func TestLastSynthesisReportNullBeforeAnySynthesis(t *testing.T) {
	ev, env := newTestEvaluator("")
	v := mustEval(t, ev, env, `(last-synthesis-report)`)
	assert.True(t, v.IsNull())
}

func TestArityErrorsReportedForWrongArgCount(t *testing.T) {
	ev, env := newTestEvaluator("")
	_, _, err := run(t, ev, env, `(upper "a" "b")`)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.ArityError, err.Kind)
}

func TestTypeErrorsReportedForWrongArgKind(t *testing.T) {
	ev, env := newTestEvaluator("")
	_, _, err := run(t, ev, env, `(upper 5)`)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.TypeError, err.Kind)
}

func TestTimeoutPropagatesAsTimeoutError(t *testing.T) {
	ev, env := newTestEvaluator("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	expr, perr := parser.Parse("42")
	require.Nil(t, perr)
	_, _, err := ev.EvalTopLevel(ctx, expr, env)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.TimeoutError, err.Kind)
}
