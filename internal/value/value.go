// Package value implements the Nucleus Value Model: a closed, tagged union
// of the types that flow between expression nodes (spec section 4.B).
// Values are immutable; every operation that appears to mutate a Value
// returns a new one.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the Value union.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindList
	KindGrepHit
	KindFuzzyHit
	KindLambda
	KindRecord
)

var kindNames = [...]string{
	"Null", "Bool", "Int", "Float", "Str", "List", "GrepHit", "FuzzyHit", "Lambda", "Record",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// GrepHit is one regex match and its enclosing line (spec section 3).
type GrepHit struct {
	Match   string
	Line    string
	LineNum uint32
	Index   uint32
	Groups  []string
}

// FuzzyHit is one fuzzy-search result. Lower Score is better.
type FuzzyHit struct {
	Line    string
	LineNum uint32
	Score   float64
}

// Expr is implemented by the parser package's AST node type. It is defined
// here as an opaque interface so that Value (used by eval) does not import
// the parser package, and the parser package does not need to know about
// Value; only internal/eval, which imports both, ties the two together.
type Expr interface {
	exprMarker()
}

// Env is the minimal read interface a Lambda's captured snapshot needs.
// internal/eval provides the concrete implementation.
type Env interface {
	Get(name string) (Value, bool)
}

// Lambda is a single-parameter closure: a body expression plus a
// value-snapshot of the free names it referenced at creation time (spec
// section 9: "capture is by value-snapshot... not the full environment").
//
// A Lambda produced by (synthesize-extractor ...) has no Body/Captured;
// instead Native holds the composition the synthesizer built, so that
// applying the lambda runs the exact same primitive pipeline the
// synthesizer verified against its examples (spec section 4.F).
type Lambda struct {
	Param    string
	Body     Expr
	Captured map[string]Value
	Native   func(Value) Value
	id       uint64 // identity for Lambda equality/ordering
}

var lambdaIDSeq uint64

// NewLambda allocates an interpreted Lambda with a fresh identity.
func NewLambda(param string, body Expr, captured map[string]Value) Lambda {
	lambdaIDSeq++
	return Lambda{Param: param, Body: body, Captured: captured, id: lambdaIDSeq}
}

// NewNativeLambda allocates a Lambda backed by a Go function rather than
// an interpreted Expr body, for synthesizer-produced extractors.
func NewNativeLambda(native func(Value) Value) Lambda {
	lambdaIDSeq++
	return Lambda{Native: native, id: lambdaIDSeq}
}

// Value is the tagged union. The zero Value is Null.
type Value struct {
	kind    Kind
	boolV   bool
	intV    int64
	floatV  float64
	strV    string
	listV   []Value
	grepV   GrepHit
	fuzzyV  FuzzyHit
	lambdaV Lambda
	recordV *orderedRecord
}

// orderedRecord preserves first-appearance key order, matching the
// group-by contract ("ordering of keys follows first appearance").
type orderedRecord struct {
	keys   []string
	values map[string]Value
}

func newOrderedRecord() *orderedRecord {
	return &orderedRecord{values: make(map[string]Value)}
}

func (r *orderedRecord) set(key string, v Value) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r *orderedRecord) get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Constructors

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, boolV: b} }
func Int(i int64) Value          { return Value{kind: KindInt, intV: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, floatV: f} }
func Str(s string) Value         { return Value{kind: KindStr, strV: s} }
func List(items []Value) Value   { return Value{kind: KindList, listV: items} }
func Grep(h GrepHit) Value       { return Value{kind: KindGrepHit, grepV: h} }
func Fuzzy(h FuzzyHit) Value     { return Value{kind: KindFuzzyHit, fuzzyV: h} }
func Lam(l Lambda) Value         { return Value{kind: KindLambda, lambdaV: l} }

// NewRecord builds a Record value from keys in the given order.
func NewRecord(keys []string, values map[string]Value) Value {
	r := newOrderedRecord()
	for _, k := range keys {
		r.set(k, values[k])
	}
	return Value{kind: KindRecord, recordV: r}
}

// EmptyRecord returns an empty Record that entries can be appended to with
// RecordSet (used by group-by, which builds a Record incrementally in
// first-appearance order).
func EmptyRecord() Value {
	return Value{kind: KindRecord, recordV: newOrderedRecord()}
}

// RecordSet returns a new Record value with key bound to v, preserving the
// receiver's existing key order and appending key if new. Records are
// still treated as immutable from the caller's perspective: this returns a
// new Value wrapping a new underlying map, never mutating v's Record.
func RecordSet(rec Value, key string, v Value) Value {
	if rec.kind != KindRecord {
		rec = EmptyRecord()
	}
	next := newOrderedRecord()
	next.keys = append(next.keys, rec.recordV.keys...)
	for k, val := range rec.recordV.values {
		next.values[k] = val
	}
	next.set(key, v)
	return Value{kind: KindRecord, recordV: next}
}

// Accessors

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == KindNull }
func (v Value) AsBool() bool  { return v.boolV }
func (v Value) AsInt() int64  { return v.intV }
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.intV)
	}
	return v.floatV
}
func (v Value) AsStr() string       { return v.strV }
func (v Value) AsList() []Value     { return v.listV }
func (v Value) AsGrepHit() GrepHit  { return v.grepV }
func (v Value) AsFuzzyHit() FuzzyHit { return v.fuzzyV }
func (v Value) AsLambda() Lambda    { return v.lambdaV }

// RecordKeys returns the Record's keys in first-appearance order. Returns
// nil for non-Record values.
func (v Value) RecordKeys() []string {
	if v.kind != KindRecord {
		return nil
	}
	return v.recordV.keys
}

// RecordGet looks up a Record field by key.
func (v Value) RecordGet(key string) (Value, bool) {
	if v.kind != KindRecord {
		return Null(), false
	}
	return v.recordV.get(key)
}

// StringForm renders a Value for display and for group-by's key
// derivation ("Record keyed by the string form of F(x)").
func (v Value) StringForm() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.boolV {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.intV, 10)
	case KindFloat:
		return strconv.FormatFloat(v.floatV, 'g', -1, 64)
	case KindStr:
		return v.strV
	case KindList:
		parts := make([]string, len(v.listV))
		for i, e := range v.listV {
			parts[i] = e.StringForm()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindGrepHit:
		return v.grepV.Line
	case KindFuzzyHit:
		return v.fuzzyV.Line
	case KindLambda:
		return fmt.Sprintf("<lambda %s>", v.lambdaV.Param)
	case KindRecord:
		parts := make([]string, 0, len(v.recordV.keys))
		for _, k := range v.recordV.keys {
			val, _ := v.recordV.get(k)
			parts = append(parts, k+": "+val.StringForm())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

// AsLine returns the string a primitive should use when it needs text from
// this Value, applying the single documented implicit coercion: a GrepHit
// promotes to its Line field. Any other non-string Value returns ok=false.
func (v Value) AsLine() (string, bool) {
	switch v.kind {
	case KindStr:
		return v.strV, true
	case KindGrepHit:
		return v.grepV.Line, true
	}
	return "", false
}

// Truthy implements the falsey set from spec section 4.D: false, null, 0,
// "", and the empty list are falsey; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.boolV
	case KindInt:
		return v.intV != 0
	case KindFloat:
		return v.floatV != 0
	case KindStr:
		return v.strV != ""
	case KindList:
		return len(v.listV) != 0
	default:
		return true
	}
}

// Equal implements structural, type-strict equality: 1 != 1.0 != "1".
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boolV == b.boolV
	case KindInt:
		return a.intV == b.intV
	case KindFloat:
		return a.floatV == b.floatV
	case KindStr:
		return a.strV == b.strV
	case KindList:
		if len(a.listV) != len(b.listV) {
			return false
		}
		for i := range a.listV {
			if !Equal(a.listV[i], b.listV[i]) {
				return false
			}
		}
		return true
	case KindGrepHit:
		return grepHitEqual(a.grepV, b.grepV)
	case KindFuzzyHit:
		return a.fuzzyV == b.fuzzyV
	case KindLambda:
		return a.lambdaV.id == b.lambdaV.id // lambdas compare by identity
	case KindRecord:
		return recordEqual(a.recordV, b.recordV)
	}
	return false
}

func grepHitEqual(a, b GrepHit) bool {
	if a.Match != b.Match || a.Line != b.Line || a.LineNum != b.LineNum || a.Index != b.Index {
		return false
	}
	if len(a.Groups) != len(b.Groups) {
		return false
	}
	for i := range a.Groups {
		if a.Groups[i] != b.Groups[i] {
			return false
		}
	}
	return true
}

func recordEqual(a, b *orderedRecord) bool {
	if len(a.keys) != len(b.keys) {
		return false
	}
	for _, k := range a.keys {
		av, aok := a.get(k)
		bv, bok := b.get(k)
		if !aok || !bok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

// Less implements ordering: total on {Int,Float} mutually (as Float),
// lexicographic on Str, element-wise on List with shorter < longer under
// prefix equality. Other kind pairs are not ordered and Less returns false
// for both directions.
func Less(a, b Value) bool {
	aIsNum := a.kind == KindInt || a.kind == KindFloat
	bIsNum := b.kind == KindInt || b.kind == KindFloat
	if aIsNum && bIsNum {
		return a.AsFloat() < b.AsFloat()
	}
	if a.kind == KindStr && b.kind == KindStr {
		return a.strV < b.strV
	}
	if a.kind == KindList && b.kind == KindList {
		for i := 0; i < len(a.listV) && i < len(b.listV); i++ {
			if Less(a.listV[i], b.listV[i]) {
				return true
			}
			if Less(b.listV[i], a.listV[i]) {
				return false
			}
		}
		return len(a.listV) < len(b.listV)
	}
	return false
}

// SortValues returns a new, sorted copy of vs using Less, stable so ties
// keep their original relative order.
func SortValues(vs []Value) []Value {
	out := make([]Value, len(vs))
	copy(out, vs)
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}
