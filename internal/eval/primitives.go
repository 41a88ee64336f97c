package eval

import (
	"context"
	"unicode/utf8"

	"github.com/nucleuslang/nucleus/internal/nucleuserr"
	"github.com/nucleuslang/nucleus/internal/parser"
	"github.com/nucleuslang/nucleus/internal/prims"
	"github.com/nucleuslang/nucleus/internal/synth"
	"github.com/nucleuslang/nucleus/internal/value"
)

// primitiveFn is the shape every built-in function takes: it receives its
// argument expressions unevaluated so search/extraction primitives can
// decide evaluation order themselves, though nearly all of them simply
// eval every argument eagerly, left to right, via evalArgs.
type primitiveFn func(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError)

// primitiveTable is the full built-in library (spec section 4.D).
var primitiveTable = map[string]primitiveFn{
	"grep":         primGrep,
	"fuzzy-search": primFuzzySearch,
	"lines":        primLines,
	"text-stats":   primTextStats,

	"list":   primList,
	"record": primRecordCtor,

	"count":     primCount,
	"sum":       primSum,
	"filter":    primFilter,
	"map":       primMap,
	"reduce":    primReduce,
	"take":      primTake,
	"drop":      primDrop,
	"first":     primFirst,
	"last":      primLast,
	"reverse":   primReverse,
	"distinct":  primDistinct,
	"sort":      primSort,
	"group-by":  primGroupBy,

	"match":       primMatch,
	"replace":     primReplace,
	"split":       primSplit,
	"contains":    primContains,
	"starts-with": primStartsWith,
	"ends-with":   primEndsWith,
	"trim":        primTrim,
	"upper":       primUpper,
	"lower":       primLower,

	"parseInt":      primParseInt,
	"parseFloat":    primParseFloat,
	"parseCurrency": primParseCurrency,
	"parseNumber":   primParseNumber,
	"parseDate":     primParseDate,

	"synthesize-extractor":  primSynthesizeExtractor,
	"print":                 primPrint,
	"last-synthesis-report": primLastSynthesisReport,
}

func evalArgs(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) ([]value.Value, *nucleuserr.NucleusError) {
	out := make([]value.Value, len(args))
	for i, a := range args {
		v, err := ev.eval(ctx, a, sc)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func wantLine(form string, position int, v value.Value) (string, *nucleuserr.NucleusError) {
	s, ok := v.AsLine()
	if !ok {
		return "", nucleuserr.Type(form, position, "Str", v.Kind().String())
	}
	return s, nil
}

func wantInt(form string, position int, v value.Value) (int64, *nucleuserr.NucleusError) {
	if v.Kind() != value.KindInt {
		return 0, nucleuserr.Type(form, position, "Int", v.Kind().String())
	}
	return v.AsInt(), nil
}

func wantList(form string, position int, v value.Value) ([]value.Value, *nucleuserr.NucleusError) {
	if v.Kind() != value.KindList {
		return nil, nucleuserr.Type(form, position, "List", v.Kind().String())
	}
	return v.AsList(), nil
}

func wantLambda(form string, position int, v value.Value) (value.Lambda, *nucleuserr.NucleusError) {
	if v.Kind() != value.KindLambda {
		return value.Lambda{}, nucleuserr.Type(form, position, "Lambda", v.Kind().String())
	}
	return v.AsLambda(), nil
}

// --- search primitives -------------------------------------------------

func primGrep(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("grep", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	pattern, terr := wantLine("grep", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	if ev.Doc == nil {
		return value.Null(), nucleuserr.New(nucleuserr.NoDocument, "grep requires a loaded document")
	}
	hits, rerr := ev.Doc.Grep(pattern, ev.Cfg.GrepFlags)
	if rerr != nil {
		return value.Null(), rerr
	}
	out := make([]value.Value, len(hits))
	for i, h := range hits {
		out[i] = value.Grep(h)
	}
	return value.List(out), nil
}

func primFuzzySearch(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 && len(args) != 2 {
		return value.Null(), nucleuserr.Arity("fuzzy-search", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	query, terr := wantLine("fuzzy-search", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	limit := ev.Cfg.DefaultFuzzyLimit
	if len(vs) == 2 {
		n, terr := wantInt("fuzzy-search", 2, vs[1])
		if terr != nil {
			return value.Null(), terr
		}
		limit = int(n)
	}
	if ev.Doc == nil {
		return value.Null(), nucleuserr.New(nucleuserr.NoDocument, "fuzzy-search requires a loaded document")
	}
	hits := ev.Doc.Fuzzy(query, limit)
	out := make([]value.Value, len(hits))
	for i, h := range hits {
		out[i] = value.Fuzzy(h)
	}
	return value.List(out), nil
}

func primLines(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if ev.Doc == nil {
		return value.Null(), nucleuserr.New(nucleuserr.NoDocument, "lines requires a loaded document")
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	switch len(vs) {
	case 1:
		n, terr := wantInt("lines", 1, vs[0])
		if terr != nil {
			return value.Null(), terr
		}
		line, derr := ev.Doc.Line(int(n))
		if derr != nil {
			return value.Null(), derr
		}
		return value.Str(line), nil
	case 2:
		start, terr := wantInt("lines", 1, vs[0])
		if terr != nil {
			return value.Null(), terr
		}
		end, terr := wantInt("lines", 2, vs[1])
		if terr != nil {
			return value.Null(), terr
		}
		lines := ev.Doc.LinesRange(int(start), int(end))
		out := make([]value.Value, len(lines))
		for i, l := range lines {
			out[i] = value.Str(l)
		}
		return value.List(out), nil
	default:
		return value.Null(), nucleuserr.Arity("lines", 2, len(args))
	}
}

func primTextStats(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 0 {
		return value.Null(), nucleuserr.Arity("text-stats", 0, len(args))
	}
	if ev.Doc == nil {
		return value.Null(), nucleuserr.New(nucleuserr.NoDocument, "text-stats requires a loaded document")
	}
	return ev.Doc.Stats().ToRecord(), nil
}

// --- constructors --------------------------------------------------------

// primList builds a List from its (evaluated) arguments; spec section 8's
// worked examples write `(list 1 2)` without spec section 4.D ever naming a
// constructor, so SPEC_FULL.md supplements one: see that document's
// Supplemented Features.
func primList(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	return value.List(vs), nil
}

// primRecordCtor builds a Record from alternating key/value arguments; keys
// must evaluate to Str. Same supplementation rationale as primList — the
// synthesizer's example lists (spec section 4.D's EXAMPLES Records) have no
// other way to be constructed from Nucleus source.
func primRecordCtor(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args)%2 != 0 {
		return value.Null(), nucleuserr.New(nucleuserr.ArityError, "record: expected an even number of key/value arguments").
			WithMeta("received", len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	keys := make([]string, 0, len(vs)/2)
	values := make(map[string]value.Value, len(vs)/2)
	for i := 0; i < len(vs); i += 2 {
		if vs[i].Kind() != value.KindStr {
			return value.Null(), nucleuserr.Type("record", i+1, "Str", vs[i].Kind().String())
		}
		k := vs[i].AsStr()
		keys = append(keys, k)
		values[k] = vs[i+1]
	}
	return value.NewRecord(keys, values), nil
}

// --- collection primitives ---------------------------------------------

func primCount(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("count", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	switch vs[0].Kind() {
	case value.KindNull:
		return value.Int(0), nil
	case value.KindList:
		return value.Int(int64(len(vs[0].AsList()))), nil
	case value.KindStr:
		return value.Int(int64(utf8.RuneCountInString(vs[0].AsStr()))), nil
	}
	return value.Null(), nucleuserr.Type("count", 1, "List or Str", vs[0].Kind().String())
}

func coerceNumeric(v value.Value) (float64, bool, bool) {
	// returns (number, ok, wasExactInt)
	switch v.Kind() {
	case value.KindInt:
		return float64(v.AsInt()), true, true
	case value.KindFloat:
		return v.AsFloat(), true, false
	case value.KindStr:
		r := prims.ParseNumber(v.AsStr())
		if r.IsNull() {
			return 0, false, false
		}
		return r.AsFloat(), true, false
	}
	return 0, false, false
}

func primSum(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("sum", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("sum", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	allInt := true
	var intTotal int64
	var floatTotal float64
	for _, el := range list {
		n, ok, wasInt := coerceNumeric(el)
		if !ok {
			continue
		}
		floatTotal += n
		if wasInt {
			intTotal += int64(n)
		} else {
			allInt = false
		}
	}
	if allInt {
		return value.Int(intTotal), nil
	}
	return value.Float(floatTotal), nil
}

func primFilter(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 {
		return value.Null(), nucleuserr.Arity("filter", 2, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("filter", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	pred, terr := wantLambda("filter", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	var out []value.Value
	for _, el := range list {
		keep, aerr := ev.apply(ctx, pred, el)
		if aerr != nil {
			return value.Null(), aerr
		}
		if keep.Truthy() {
			out = append(out, el)
		}
	}
	return value.List(out), nil
}

func primMap(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 {
		return value.Null(), nucleuserr.Arity("map", 2, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("map", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	fn, terr := wantLambda("map", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	out := make([]value.Value, len(list))
	for i, el := range list {
		r, aerr := ev.apply(ctx, fn, el)
		if aerr != nil {
			return value.Null(), aerr
		}
		out[i] = r
	}
	return value.List(out), nil
}

func primReduce(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 3 {
		return value.Null(), nucleuserr.Arity("reduce", 3, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("reduce", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	acc := vs[1]
	fn, terr := wantLambda("reduce", 3, vs[2])
	if terr != nil {
		return value.Null(), terr
	}
	for _, el := range list {
		// fn is curried: applying acc first must yield another Lambda,
		// which is then applied to el (spec section 4.B: "single
		// parameter only... multi-argument lambdas are currified").
		step1, aerr := ev.apply(ctx, fn, acc)
		if aerr != nil {
			return value.Null(), aerr
		}
		step1Lam, terr := wantLambda("reduce", 3, step1)
		if terr != nil {
			return value.Null(), terr
		}
		acc, aerr = ev.apply(ctx, step1Lam, el)
		if aerr != nil {
			return value.Null(), aerr
		}
	}
	return acc, nil
}

func primTake(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 {
		return value.Null(), nucleuserr.Arity("take", 2, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("take", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	n, terr := wantInt("take", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	if n < 0 {
		n = 0
	}
	if int(n) > len(list) {
		n = int64(len(list))
	}
	out := make([]value.Value, n)
	copy(out, list[:n])
	return value.List(out), nil
}

func primDrop(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 {
		return value.Null(), nucleuserr.Arity("drop", 2, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("drop", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	n, terr := wantInt("drop", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	if n < 0 {
		n = 0
	}
	if int(n) > len(list) {
		n = int64(len(list))
	}
	out := make([]value.Value, len(list)-int(n))
	copy(out, list[n:])
	return value.List(out), nil
}

func primFirst(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("first", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("first", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	if len(list) == 0 {
		return value.Null(), nil
	}
	return list[0], nil
}

func primLast(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("last", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("last", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	if len(list) == 0 {
		return value.Null(), nil
	}
	return list[len(list)-1], nil
}

func primReverse(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("reverse", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("reverse", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	out := make([]value.Value, len(list))
	for i, el := range list {
		out[len(list)-1-i] = el
	}
	return value.List(out), nil
}

func primDistinct(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("distinct", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("distinct", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	var out []value.Value
	for _, el := range list {
		dup := false
		for _, seen := range out {
			if value.Equal(seen, el) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, el)
		}
	}
	return value.List(out), nil
}

func primSort(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("sort", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("sort", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	return value.List(value.SortValues(list)), nil
}

func primGroupBy(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 {
		return value.Null(), nucleuserr.Arity("group-by", 2, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	list, terr := wantList("group-by", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	fn, terr := wantLambda("group-by", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	rec := value.EmptyRecord()
	for _, el := range list {
		keyVal, aerr := ev.apply(ctx, fn, el)
		if aerr != nil {
			return value.Null(), aerr
		}
		key := keyVal.StringForm()
		existing, ok := rec.RecordGet(key)
		var bucket []value.Value
		if ok {
			bucket = existing.AsList()
		}
		bucket = append(bucket, el)
		rec = value.RecordSet(rec, key, value.List(bucket))
	}
	return rec, nil
}

// --- string / extraction primitives ------------------------------------

func primMatch(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 3 {
		return value.Null(), nucleuserr.Arity("match", 3, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("match", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	pattern, terr := wantLine("match", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	group, terr := wantInt("match", 3, vs[2])
	if terr != nil {
		return value.Null(), terr
	}
	r, rerr := prims.Match(s, pattern, int(group))
	if rerr != nil {
		return value.Null(), nucleuserr.Wrap(nucleuserr.RegexError, "invalid regular expression", rerr)
	}
	return r, nil
}

func primReplace(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 3 {
		return value.Null(), nucleuserr.Arity("replace", 3, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("replace", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	from, terr := wantLine("replace", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	to, terr := wantLine("replace", 3, vs[2])
	if terr != nil {
		return value.Null(), terr
	}
	r, rerr := prims.Replace(s, from, to)
	if rerr != nil {
		return value.Null(), nucleuserr.Wrap(nucleuserr.RegexError, "invalid regular expression", rerr)
	}
	return r, nil
}

func primSplit(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 && len(args) != 3 {
		return value.Null(), nucleuserr.Arity("split", 2, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("split", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	delim, terr := wantLine("split", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	hasIndex := len(vs) == 3
	var index int64
	if hasIndex {
		index, terr = wantInt("split", 3, vs[2])
		if terr != nil {
			return value.Null(), terr
		}
	}
	r, rerr := prims.Split(s, delim, hasIndex, int(index))
	if rerr != nil {
		return value.Null(), nucleuserr.Wrap(nucleuserr.RegexError, "invalid regular expression", rerr)
	}
	return r, nil
}

func primContains(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 {
		return value.Null(), nucleuserr.Arity("contains", 2, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("contains", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	sub, terr := wantLine("contains", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	return value.Bool(prims.Contains(s, sub)), nil
}

func primStartsWith(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 {
		return value.Null(), nucleuserr.Arity("starts-with", 2, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("starts-with", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	prefix, terr := wantLine("starts-with", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	return value.Bool(prims.StartsWith(s, prefix)), nil
}

func primEndsWith(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 {
		return value.Null(), nucleuserr.Arity("ends-with", 2, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("ends-with", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	suffix, terr := wantLine("ends-with", 2, vs[1])
	if terr != nil {
		return value.Null(), terr
	}
	return value.Bool(prims.EndsWith(s, suffix)), nil
}

func primTrim(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("trim", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("trim", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	return value.Str(prims.Trim(s)), nil
}

func primUpper(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("upper", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("upper", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	return value.Str(prims.Upper(s)), nil
}

func primLower(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("lower", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("lower", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	return value.Str(prims.Lower(s)), nil
}

// --- numeric parsers -----------------------------------------------------

func primParseInt(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("parseInt", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("parseInt", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	return prims.ParseInt(s), nil
}

func primParseFloat(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("parseFloat", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("parseFloat", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	return prims.ParseFloat(s), nil
}

func primParseCurrency(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("parseCurrency", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("parseCurrency", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	return prims.ParseCurrency(s), nil
}

func primParseNumber(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("parseNumber", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("parseNumber", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	return prims.ParseNumber(s), nil
}

func primParseDate(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 && len(args) != 2 {
		return value.Null(), nucleuserr.Arity("parseDate", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	if vs[0].IsNull() {
		return value.Null(), nil
	}
	s, terr := wantLine("parseDate", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	hint := ""
	if len(vs) == 2 {
		hint, terr = wantLine("parseDate", 2, vs[1])
		if terr != nil {
			return value.Null(), terr
		}
	}
	return prims.ParseDate(s, hint), nil
}

// --- synthesis and diagnostics ------------------------------------------

func primSynthesizeExtractor(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity("synthesize-extractor", 1, len(args))
	}
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	examplesList, terr := wantList("synthesize-extractor", 1, vs[0])
	if terr != nil {
		return value.Null(), terr
	}
	examples := make([]synth.Example, len(examplesList))
	for i, ex := range examplesList {
		if ex.Kind() != value.KindRecord {
			return value.Null(), nucleuserr.Type("synthesize-extractor", 1, "List of {input, output} Records", "List of "+ex.Kind().String())
		}
		in, ok := ex.RecordGet("input")
		if !ok {
			return value.Null(), nucleuserr.Type("synthesize-extractor", 1, "Record with an \"input\" field", "Record without one")
		}
		out, ok := ex.RecordGet("output")
		if !ok {
			return value.Null(), nucleuserr.Type("synthesize-extractor", 1, "Record with an \"output\" field", "Record without one")
		}
		examples[i] = synth.Example{Input: in, Output: out}
	}
	lam, report, serr := synth.Synthesize(ctx, examples, ev.Cfg.MaxCandidates)
	ev.lastReport = &report
	if serr != nil {
		return value.Null(), serr
	}
	return value.Lam(lam), nil
}

func primPrint(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	vs, err := evalArgs(ev, ctx, sc, args)
	if err != nil {
		return value.Null(), err
	}
	ev.logs = append(ev.logs, joinArgsForPrint(vs))
	if len(vs) == 0 {
		return value.Null(), nil
	}
	return vs[len(vs)-1], nil
}

func primLastSynthesisReport(ev *Evaluator, ctx context.Context, sc scope, args []parser.Expr) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 0 {
		return value.Null(), nucleuserr.Arity("last-synthesis-report", 0, len(args))
	}
	if ev.lastReport == nil {
		return value.Null(), nil
	}
	r := ev.lastReport
	return value.NewRecord(
		[]string{"candidates_explored", "first_failing_example", "succeeded", "candidate_name"},
		map[string]value.Value{
			"candidates_explored":   value.Int(int64(r.CandidatesExplored)),
			"first_failing_example": value.Int(int64(r.FirstFailingExample)),
			"succeeded":             value.Bool(r.Succeeded),
			"candidate_name":        value.Str(r.CandidateName),
		},
	), nil
}
