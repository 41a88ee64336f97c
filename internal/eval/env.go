// Package eval implements the Nucleus tree-walking evaluator (spec section
// 4.D): special forms, the primitive library, and the log buffer. Grounded
// on the teacher's pkgs/engine/engine.go (command-tree walking against a
// threaded context) and other_examples' losp/eval.go (a persisted
// single-binding evaluation store) and opa/repl/repl.go (turn-scoped
// binding history feeding a REPL), which together shape the
// RESULTS/_k/TURN rotation this package performs at the Session's request.
package eval

import (
	"github.com/nucleuslang/nucleus/internal/nucleuserr"
	"github.com/nucleuslang/nucleus/internal/value"
)

// Reserved environment names (spec section 6.3).
const (
	NameResults = "RESULTS"
	NameTurn    = "TURN"
)

// IsReserved reports whether name is one of the engine-owned bindings:
// RESULTS, TURN, or _1.._historyDepth. let rejects assignment to any of
// these (ReservedName).
func IsReserved(name string, historyDepth int) bool {
	if name == NameResults || name == NameTurn {
		return true
	}
	if len(name) >= 2 && name[0] == '_' {
		if n, ok := parseHistoryIndex(name); ok && n >= 1 && n <= historyDepth {
			return true
		}
	}
	return false
}

func parseHistoryIndex(name string) (int, bool) {
	if len(name) < 2 || name[0] != '_' {
		return 0, false
	}
	n := 0
	for _, r := range name[1:] {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// Environment is a mapping from symbol to Value. It implements
// value.Env so Lambdas can snapshot a subset of it.
type Environment struct {
	vars         map[string]value.Value
	historyDepth int
	history      []value.Value // history[0] is _1, most recent first
	turn         int
}

// NewEnvironment returns a freshly reset Environment: TURN=0, RESULTS and
// history unset.
func NewEnvironment(historyDepth int) *Environment {
	return &Environment{
		vars:         make(map[string]value.Value),
		historyDepth: historyDepth,
	}
}

// Get looks up a name, checking reserved bindings first, then user
// bindings from let.
func (e *Environment) Get(name string) (value.Value, bool) {
	switch name {
	case NameResults:
		v, ok := e.vars[NameResults]
		return v, ok
	case NameTurn:
		return value.Int(int64(e.turn)), true
	}
	if n, ok := parseHistoryIndex(name); ok && name[0] == '_' && n >= 1 && n <= e.historyDepth {
		if n-1 < len(e.history) {
			return e.history[n-1], true
		}
		return value.Null(), false
	}
	v, ok := e.vars[name]
	return v, ok
}

// Let binds name to v in the current environment. Callers must check
// IsReserved first; Let itself does not re-validate so that internal
// bookkeeping (RESULTS/history rotation) can reuse the same storage.
func (e *Environment) Let(name string, v value.Value) {
	e.vars[name] = v
}

// Snapshot captures the current value of every name referenced in names,
// for Lambda closure-by-value-snapshot (spec section 9).
func (e *Environment) Snapshot(names []string) map[string]value.Value {
	out := make(map[string]value.Value, len(names))
	for _, n := range names {
		if v, ok := e.Get(n); ok {
			out[n] = v
		}
	}
	return out
}

// Turn returns the current turn counter.
func (e *Environment) Turn() int { return e.turn }

// AdvanceTurn increments TURN by exactly 1. Called once per execute call,
// whether it succeeds or fails (spec section 4.D/5).
func (e *Environment) AdvanceTurn() {
	e.turn++
}

// CommitResult updates RESULTS and rotates history after a successful
// top-level evaluation whose value is not explicitly Null (spec section
// 3's RESULTS invariant), and always rotates _1.._N with the turn's
// outcome value (spec section 7: "still push the error to history at
// _1" — callers pass the error's sentinel Value for failed turns).
func (e *Environment) CommitResult(v value.Value, updateResults bool) {
	if updateResults && !v.IsNull() {
		e.vars[NameResults] = v
	}
	e.history = append([]value.Value{v}, e.history...)
	if len(e.history) > e.historyDepth {
		e.history = e.history[:e.historyDepth]
	}
}

// Reset clears all bindings and the turn counter, but does not alter
// historyDepth (spec section 4.E: "reset() clears bindings, resets TURN to
// 0; document retained").
func (e *Environment) Reset() {
	e.vars = make(map[string]value.Value)
	e.history = nil
	e.turn = 0
}

// Bindings returns every user-defined and reserved name currently bound,
// for Session.Bindings(). TURN and the filled history slots _1.._k are
// synthesized on demand since they are not stored in vars; TURN always
// appears, a _k appears only once k turns have run, and RESULTS appears
// once it has been set.
func (e *Environment) Bindings() map[string]value.Value {
	out := make(map[string]value.Value, len(e.vars)+e.historyDepth+2)
	for k, v := range e.vars {
		out[k] = v
	}
	out[NameTurn] = value.Int(int64(e.turn))
	for i := 0; i < e.historyDepth && i < len(e.history); i++ {
		out[historyName(i+1)] = e.history[i]
	}
	return out
}

func historyName(n int) string {
	digits := [...]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	if n < 10 {
		return "_" + string(digits[n])
	}
	// historyDepth is configuration-bounded (default 32); a simple
	// two-digit path covers every realistic depth without strconv.
	tens := n / 10
	ones := n % 10
	return "_" + string(digits[tens]) + string(digits[ones])
}

// ReservedNameError builds the ReservedName failure for a let targeting a
// reserved binding.
func ReservedNameError(name string) *nucleuserr.NucleusError {
	return nucleuserr.New(nucleuserr.ReservedName, "cannot bind reserved name").WithMeta("name", name)
}
