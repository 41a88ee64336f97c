// Package session implements the Session component (spec section 4.E): the
// outward load/execute/bindings/reset/stats contract over one Document, one
// Environment, and the evaluator. Grounded on the teacher's pkgs/engine
// (a single owning struct driving parse-then-walk per call) and on
// vippsas-sqlcode's cli/cmd logging convention (a package-level logrus
// entry carrying request-scoped fields) for the structured side-log.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nucleuslang/nucleus/internal/config"
	"github.com/nucleuslang/nucleus/internal/document"
	"github.com/nucleuslang/nucleus/internal/eval"
	"github.com/nucleuslang/nucleus/internal/nucleuserr"
	"github.com/nucleuslang/nucleus/internal/parser"
	"github.com/nucleuslang/nucleus/internal/value"
)

// SpanInfo mirrors nucleuserr.Span in the outward Response shape.
type SpanInfo struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Token  string `json:"token,omitempty"`
}

// ErrorInfo is the outward rendering of a *nucleuserr.NucleusError.
type ErrorInfo struct {
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Span    *SpanInfo              `json:"span,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// BindingsDelta reports which names changed across one execute call.
type BindingsDelta struct {
	Added   []string `json:"added,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// Response is the uniform outward reply to any Session request (spec
// section 6.1).
type Response struct {
	OK            bool           `json:"ok"`
	Value         *Preview       `json:"value,omitempty"`
	Error         *ErrorInfo     `json:"error,omitempty"`
	Logs          []string       `json:"logs"`
	Turn          int            `json:"turn"`
	BindingsDelta *BindingsDelta `json:"bindings_delta,omitempty"`
}

// LoadResult is load's outward reply.
type LoadResult struct {
	LineCount int `json:"line_count"`
	Length    int `json:"length"`
}

var sessionIDSeq int64
var sessionIDMu sync.Mutex

func nextSessionID() int64 {
	sessionIDMu.Lock()
	defer sessionIDMu.Unlock()
	sessionIDSeq++
	return sessionIDSeq
}

// Session owns {Document, Environment, Evaluator} and serializes access to
// them (spec section 4.E: "single-threaded with respect to itself").
type Session struct {
	mu     sync.Mutex
	id     int64
	cfg    *config.Config
	doc    *document.Document
	env    *eval.Environment
	ev     *eval.Evaluator
	log    *logrus.Entry
	closed bool
}

// New constructs an empty Session (no Document loaded yet) under cfg. A
// nil cfg uses config.Default().
func New(cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	id := nextSessionID()
	logger := logrus.StandardLogger()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	return &Session{
		id:  id,
		cfg: cfg,
		env: eval.NewEnvironment(cfg.HistoryDepth),
		log: logger.WithFields(logrus.Fields{"session_id": id, "component": "session"}),
	}
}

// Load ingests text directly, replacing any existing Document and resetting
// bindings/TURN (spec section 3's Lifecycle, section 4.E's load contract).
func (s *Session) Load(text, path string) (LoadResult, *nucleuserr.NucleusError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return LoadResult{}, closedError()
	}
	s.doc = document.Load(text, path)
	s.env.Reset()
	s.ev = eval.New(s.doc, eval.Config{
		HistoryDepth:      s.cfg.HistoryDepth,
		MaxCandidates:     s.cfg.MaxCandidates,
		DefaultFuzzyLimit: s.cfg.DefaultFuzzyLimit,
		GrepFlags:         s.cfg.DocumentGrepFlags(),
	})
	s.log.WithFields(logrus.Fields{"path": path, "line_count": s.doc.LineCount}).Debug("document loaded")
	return LoadResult{LineCount: s.doc.LineCount, Length: s.doc.ByteLen}, nil
}

// LoadFile ingests a document from disk.
func (s *Session) LoadFile(path string) (LoadResult, *nucleuserr.NucleusError) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return LoadResult{}, closedError()
	}
	s.mu.Unlock()
	doc, err := document.LoadFile(path)
	if err != nil {
		return LoadResult{}, nucleuserr.Wrap(nucleuserr.NoDocument, "failed to load document file", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return LoadResult{}, closedError()
	}
	s.doc = doc
	s.env.Reset()
	s.ev = eval.New(s.doc, eval.Config{
		HistoryDepth:      s.cfg.HistoryDepth,
		MaxCandidates:     s.cfg.MaxCandidates,
		DefaultFuzzyLimit: s.cfg.DefaultFuzzyLimit,
		GrepFlags:         s.cfg.DocumentGrepFlags(),
	})
	s.log.WithFields(logrus.Fields{"path": path, "line_count": s.doc.LineCount}).Debug("document loaded")
	return LoadResult{LineCount: s.doc.LineCount, Length: s.doc.ByteLen}, nil
}

// Execute parses and evaluates source against the Session's environment,
// advancing TURN exactly once regardless of outcome (spec section 4.D/5).
// A zero timeout means no deadline.
func (s *Session) Execute(source string, timeout time.Duration) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errorResponse(closedError(), s.env.Turn())
	}
	if s.ev == nil {
		s.env.AdvanceTurn()
		err := nucleuserr.New(nucleuserr.NoDocument, "execute called before load")
		s.env.CommitResult(errorSentinel(), false)
		return errorResponse(err, s.env.Turn())
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	before := s.env.Bindings()

	expr, perr := parser.Parse(source)
	s.env.AdvanceTurn()
	if perr != nil {
		s.env.CommitResult(errorSentinel(), false)
		s.log.WithFields(logrus.Fields{"turn": s.env.Turn(), "outcome": "parse_error"}).Debug("execute")
		return errorResponse(perr, s.env.Turn())
	}

	v, logs, eerr := s.ev.EvalTopLevel(ctx, expr, s.env)
	if eerr != nil {
		s.env.CommitResult(errorSentinel(), false)
		if eerr.Kind == nucleuserr.InternalError {
			s.closed = true
			s.log.WithFields(logrus.Fields{"turn": s.env.Turn()}).Warn("session poisoned by internal error")
		}
		s.log.WithFields(logrus.Fields{"turn": s.env.Turn(), "outcome": "eval_error", "kind": eerr.Kind.String()}).Debug("execute")
		resp := errorResponse(eerr, s.env.Turn())
		resp.Logs = logs
		return resp
	}

	s.env.CommitResult(v, true)
	after := s.env.Bindings()
	s.log.WithFields(logrus.Fields{"turn": s.env.Turn(), "outcome": "ok"}).Debug("execute")

	preview := PreviewOf(v, s.cfg)
	return Response{
		OK:            true,
		Value:         &preview,
		Logs:          logs,
		Turn:          s.env.Turn(),
		BindingsDelta: diffBindings(before, after),
	}
}

// Bindings returns a preview snapshot of every bound name (spec section
// 4.E).
func (s *Session) Bindings() (map[string]Preview, *nucleuserr.NucleusError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, closedError()
	}
	raw := s.env.Bindings()
	out := make(map[string]Preview, len(raw))
	for k, v := range raw {
		out[k] = PreviewOf(v, s.cfg)
	}
	return out, nil
}

// Reset clears bindings and TURN, keeping the Document (spec section 4.E).
func (s *Session) Reset() *nucleuserr.NucleusError {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return closedError()
	}
	s.env.Reset()
	s.log.Debug("session reset")
	return nil
}

// Stats returns the Document's statistics record.
func (s *Session) Stats() (document.Stats, *nucleuserr.NucleusError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return document.Stats{}, closedError()
	}
	if s.doc == nil {
		return document.Stats{}, nucleuserr.New(nucleuserr.NoDocument, "stats called before load")
	}
	return s.doc.Stats(), nil
}

// Close idempotently poisons the Session (spec section 3: "Dropping the
// Session releases everything", made concrete per SPEC_FULL.md's
// Supplemented Features so a stale reference fails cleanly instead of
// operating on freed state).
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.doc = nil
	s.ev = nil
	s.log.Debug("session closed")
}

func closedError() *nucleuserr.NucleusError {
	return nucleuserr.New(nucleuserr.NoDocument, "session is closed")
}

// errorSentinel is the Value pushed to history for a failed turn (spec
// section 7: "still push the error to history at _1"); Null is the only
// Value that carries no information to leak across a failed turn.
func errorSentinel() value.Value {
	return value.Null()
}

func errorResponse(err *nucleuserr.NucleusError, turn int) Response {
	return Response{
		OK:    false,
		Error: toErrorInfo(err),
		Logs:  []string{},
		Turn:  turn,
	}
}

func toErrorInfo(err *nucleuserr.NucleusError) *ErrorInfo {
	info := &ErrorInfo{Kind: err.Kind.String(), Message: err.Message}
	if err.Span != nil {
		info.Span = &SpanInfo{Line: err.Span.Line, Column: err.Span.Column, Token: err.Span.Token}
	}
	if len(err.Meta) > 0 {
		info.Meta = err.Meta
	}
	return info
}

// diffBindings computes which names are new or changed between two
// Bindings() snapshots (spec section 6.1's bindings_delta).
func diffBindings(before, after map[string]value.Value) *BindingsDelta {
	delta := &BindingsDelta{}
	for k, av := range after {
		bv, existed := before[k]
		if !existed {
			delta.Added = append(delta.Added, k)
			continue
		}
		if !value.Equal(bv, av) {
			delta.Changed = append(delta.Changed, k)
		}
	}
	return delta
}
