package eval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nucleuslang/nucleus/internal/document"
	"github.com/nucleuslang/nucleus/internal/nucleuserr"
	"github.com/nucleuslang/nucleus/internal/parser"
	"github.com/nucleuslang/nucleus/internal/synth"
	"github.com/nucleuslang/nucleus/internal/value"
)

// Config carries the tunable knobs of spec section 6.5 that the evaluator
// itself consults (the rest — preview caps — belong to internal/session).
type Config struct {
	HistoryDepth      int
	MaxCandidates     int
	DefaultFuzzyLimit int
	GrepFlags         document.GrepFlags
}

// scope is the minimal read/write binding surface a primitive or special
// form needs. *Environment satisfies it for top-level evaluation;
// *callFrame satisfies it for a Lambda's body.
type scope interface {
	Get(name string) (value.Value, bool)
	Let(name string, v value.Value)
}

// Evaluator walks Expr trees against a scope, using Doc for the search
// primitives and accumulating Cfg-bounded behavior (fuzzy default limit,
// synthesis candidate bound, grep flags).
type Evaluator struct {
	Doc        *document.Document
	Cfg        Config
	logs       []string
	lastReport *synth.Report
}

// New returns an Evaluator over doc with the given configuration.
func New(doc *document.Document, cfg Config) *Evaluator {
	return &Evaluator{Doc: doc, Cfg: cfg}
}

// EvalTopLevel evaluates expr against env, returning the per-call log
// buffer alongside the result (spec section 4.D: "The evaluator... maintains
// an append-only log buffer per call").
func (ev *Evaluator) EvalTopLevel(ctx context.Context, expr parser.Expr, env *Environment) (value.Value, []string, *nucleuserr.NucleusError) {
	ev.logs = nil
	v, err := ev.eval(ctx, expr, env)
	logs := ev.logs
	if logs == nil {
		logs = []string{}
	}
	return v, logs, err
}

func (ev *Evaluator) eval(ctx context.Context, e parser.Expr, sc scope) (value.Value, *nucleuserr.NucleusError) {
	if ctx.Err() != nil {
		return value.Null(), nucleuserr.New(nucleuserr.TimeoutError, "evaluation deadline exceeded")
	}
	switch e.Kind {
	case parser.NodeInt:
		return value.Int(e.IntVal), nil
	case parser.NodeFloat:
		return value.Float(e.FloatVal), nil
	case parser.NodeString:
		return value.Str(e.StrVal), nil
	case parser.NodeBool:
		return value.Bool(e.BoolVal), nil
	case parser.NodeSymbol:
		v, ok := sc.Get(e.SymbolVal)
		if !ok {
			return value.Null(), nucleuserr.New(nucleuserr.TypeError, fmt.Sprintf("undefined symbol %q", e.SymbolVal)).
				WithSpan(nucleuserr.Span{Line: e.Line, Column: e.Column, Token: e.SymbolVal})
		}
		return v, nil
	case parser.NodeList:
		return ev.evalList(ctx, e, sc)
	}
	return value.Null(), nil
}

func (ev *Evaluator) evalList(ctx context.Context, e parser.Expr, sc scope) (value.Value, *nucleuserr.NucleusError) {
	if len(e.Items) == 0 {
		return value.Null(), nil
	}
	head := e.Items[0]
	args := e.Items[1:]

	if head.Kind == parser.NodeSymbol {
		switch head.SymbolVal {
		case "let":
			return ev.evalLet(ctx, args, sc)
		case "lambda":
			return ev.evalLambdaForm(args, sc)
		case "if":
			return ev.evalIf(ctx, args, sc)
		case "do":
			return ev.evalDo(ctx, args, sc)
		}
		if fn, ok := primitiveTable[head.SymbolVal]; ok {
			return fn(ev, ctx, sc, args)
		}
	}

	// Not a special form or known primitive: treat head as a variable
	// reference that should hold a Lambda, e.g. `(f "$5,000")` where f
	// was bound via `(let f (synthesize-extractor ...))`.
	fnVal, err := ev.eval(ctx, head, sc)
	if err != nil {
		return value.Null(), err
	}
	if fnVal.Kind() != value.KindLambda {
		return value.Null(), nucleuserr.New(nucleuserr.TypeError, "value is not callable").
			WithSpan(nucleuserr.Span{Line: head.Line, Column: head.Column})
	}
	if len(args) != 1 {
		return value.Null(), nucleuserr.Arity(e.Head(), 1, len(args))
	}
	argVal, err := ev.eval(ctx, args[0], sc)
	if err != nil {
		return value.Null(), err
	}
	return ev.apply(ctx, fnVal.AsLambda(), argVal)
}

func (ev *Evaluator) evalLet(ctx context.Context, args []parser.Expr, sc scope) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 {
		return value.Null(), nucleuserr.Arity("let", 2, len(args))
	}
	if args[0].Kind != parser.NodeSymbol {
		return value.Null(), nucleuserr.Type("let", 1, "symbol", nodeKindName(args[0]))
	}
	name := args[0].SymbolVal
	if IsReserved(name, ev.Cfg.HistoryDepth) {
		return value.Null(), ReservedNameError(name)
	}
	v, err := ev.eval(ctx, args[1], sc)
	if err != nil {
		return value.Null(), err
	}
	sc.Let(name, v)
	return v, nil
}

func (ev *Evaluator) evalIf(ctx context.Context, args []parser.Expr, sc scope) (value.Value, *nucleuserr.NucleusError) {
	if len(args) < 2 || len(args) > 3 {
		return value.Null(), nucleuserr.Arity("if", 3, len(args))
	}
	cond, err := ev.eval(ctx, args[0], sc)
	if err != nil {
		return value.Null(), err
	}
	if cond.Truthy() {
		return ev.eval(ctx, args[1], sc)
	}
	if len(args) == 3 {
		return ev.eval(ctx, args[2], sc)
	}
	return value.Null(), nil
}

func (ev *Evaluator) evalDo(ctx context.Context, args []parser.Expr, sc scope) (value.Value, *nucleuserr.NucleusError) {
	last := value.Null()
	for _, a := range args {
		v, err := ev.eval(ctx, a, sc)
		if err != nil {
			return value.Null(), err
		}
		last = v
	}
	return last, nil
}

func nodeKindName(e parser.Expr) string {
	switch e.Kind {
	case parser.NodeInt:
		return "Int"
	case parser.NodeFloat:
		return "Float"
	case parser.NodeString:
		return "Str"
	case parser.NodeBool:
		return "Bool"
	case parser.NodeSymbol:
		return "Symbol"
	case parser.NodeList:
		return "List"
	}
	return "unknown"
}

// callFrame is the binding scope used while evaluating a Lambda's body: the
// single parameter, its value-snapshot captured environment, and any
// locals introduced by a nested `let` within the body.
type callFrame struct {
	param    string
	arg      value.Value
	captured map[string]value.Value
	locals   map[string]value.Value
}

func (f *callFrame) Get(name string) (value.Value, bool) {
	if f.locals != nil {
		if v, ok := f.locals[name]; ok {
			return v, true
		}
	}
	if name == f.param {
		return f.arg, true
	}
	if v, ok := f.captured[name]; ok {
		return v, true
	}
	return value.Null(), false
}

func (f *callFrame) Let(name string, v value.Value) {
	if f.locals == nil {
		f.locals = make(map[string]value.Value)
	}
	f.locals[name] = v
}

// apply invokes a Lambda on a single argument. A Native lambda (produced by
// the synthesizer) runs directly; an interpreted lambda evaluates its Body
// against a fresh callFrame.
func (ev *Evaluator) apply(ctx context.Context, lam value.Lambda, arg value.Value) (value.Value, *nucleuserr.NucleusError) {
	if lam.Native != nil {
		return lam.Native(arg), nil
	}
	body, ok := lam.Body.(parser.Expr)
	if !ok {
		return value.Null(), nucleuserr.New(nucleuserr.InternalError, "lambda body is not a parser.Expr")
	}
	frame := &callFrame{param: lam.Param, arg: arg, captured: lam.Captured}
	return ev.eval(ctx, body, frame)
}

// evalLambdaForm builds a Lambda value from `(lambda PARAM BODY)`,
// snapshotting every free symbol BODY references (besides PARAM itself)
// out of sc at creation time (spec section 9: capture is by value-snapshot
// of referenced names, not the full environment). The scan is
// deliberately over-approximate — it does not try to exclude names that a
// nested `let`/`lambda` inside BODY will locally shadow at call time — a
// nested binding still shadows correctly during evaluation because
// callFrame.Get checks locals before captured, so over-capturing costs a
// little memory, never correctness.
func (ev *Evaluator) evalLambdaForm(args []parser.Expr, sc scope) (value.Value, *nucleuserr.NucleusError) {
	if len(args) != 2 {
		return value.Null(), nucleuserr.Arity("lambda", 2, len(args))
	}
	if args[0].Kind != parser.NodeSymbol {
		return value.Null(), nucleuserr.Type("lambda", 1, "symbol", nodeKindName(args[0]))
	}
	param := args[0].SymbolVal
	body := args[1]

	free := map[string]bool{}
	collectFreeSymbols(body, param, free)
	names := make([]string, 0, len(free))
	for n := range free {
		names = append(names, n)
	}
	sort.Strings(names)

	captured := make(map[string]value.Value, len(names))
	for _, n := range names {
		if v, ok := sc.Get(n); ok {
			captured[n] = v
		}
	}
	return value.Lam(value.NewLambda(param, body, captured)), nil
}

func collectFreeSymbols(e parser.Expr, param string, out map[string]bool) {
	switch e.Kind {
	case parser.NodeSymbol:
		if e.SymbolVal != param {
			out[e.SymbolVal] = true
		}
	case parser.NodeList:
		for i, item := range e.Items {
			if i == 0 && item.Kind == parser.NodeSymbol {
				name := item.SymbolVal
				if isSpecialForm(name) || isPrimitiveName(name) {
					continue
				}
			}
			collectFreeSymbols(item, param, out)
		}
	}
}

func isSpecialForm(name string) bool {
	switch name {
	case "let", "lambda", "if", "do":
		return true
	}
	return false
}

func isPrimitiveName(name string) bool {
	_, ok := primitiveTable[name]
	return ok
}

// logEntryCap is a defensive cap so (print ...) cannot grow the log
// buffer unboundedly from a single call; the Session-level preview caps
// (spec section 6.1) govern Response.value separately.
const logEntryCap = 8192

func joinArgsForPrint(vs []value.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.StringForm()
	}
	s := strings.Join(parts, " ")
	if utf8.RuneCountInString(s) > logEntryCap {
		r := []rune(s)
		s = string(r[:logEntryCap]) + "…"
	}
	return s
}
