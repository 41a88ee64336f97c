package session

import (
	"unicode/utf8"

	"github.com/nucleuslang/nucleus/internal/config"
	"github.com/nucleuslang/nucleus/internal/value"
)

// Preview is the bounded rendering of a Value the outward Response carries
// (spec section 6.1: "value is a bounded preview... the full value is
// retained in-session for subsequent queries"). It is a rendering, never a
// second source of truth — bindings stay keyed by the real value.Value.
type Preview struct {
	Kind      string        `json:"kind"`
	Bool      bool          `json:"bool,omitempty"`
	Int       int64         `json:"int,omitempty"`
	Float     float64       `json:"float,omitempty"`
	Str       string        `json:"str,omitempty"`
	List      []Preview     `json:"list,omitempty"`
	Record    []RecordField `json:"record,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
}

// RecordField is one key/value pair of a previewed Record, preserving
// first-appearance key order (spec section 4.D's group-by contract, carried
// through to preview rendering).
type RecordField struct {
	Key   string  `json:"key"`
	Value Preview `json:"value"`
}

// PreviewOf renders v under cfg's preview caps.
func PreviewOf(v value.Value, cfg *config.Config) Preview {
	switch v.Kind() {
	case value.KindNull:
		return Preview{Kind: "Null"}
	case value.KindBool:
		return Preview{Kind: "Bool", Bool: v.AsBool()}
	case value.KindInt:
		return Preview{Kind: "Int", Int: v.AsInt()}
	case value.KindFloat:
		return Preview{Kind: "Float", Float: v.AsFloat()}
	case value.KindStr:
		return previewString(v.AsStr(), cfg)
	case value.KindList:
		return previewList(v.AsList(), cfg)
	case value.KindGrepHit:
		h := v.AsGrepHit()
		groups := make([]Preview, len(h.Groups))
		for i, g := range h.Groups {
			groups[i] = previewString(g, cfg)
		}
		return Preview{Kind: "GrepHit", Record: []RecordField{
			{Key: "match", Value: previewString(h.Match, cfg)},
			{Key: "line", Value: previewString(h.Line, cfg)},
			{Key: "lineNum", Value: Preview{Kind: "Int", Int: int64(h.LineNum)}},
			{Key: "index", Value: Preview{Kind: "Int", Int: int64(h.Index)}},
			{Key: "groups", Value: Preview{Kind: "List", List: groups}},
		}}
	case value.KindFuzzyHit:
		h := v.AsFuzzyHit()
		return Preview{Kind: "FuzzyHit", Record: []RecordField{
			{Key: "line", Value: previewString(h.Line, cfg)},
			{Key: "lineNum", Value: Preview{Kind: "Int", Int: int64(h.LineNum)}},
			{Key: "score", Value: Preview{Kind: "Float", Float: h.Score}},
		}}
	case value.KindLambda:
		return Preview{Kind: "Lambda", Str: "<lambda " + v.AsLambda().Param + ">"}
	case value.KindRecord:
		keys := v.RecordKeys()
		fields := make([]RecordField, len(keys))
		for i, k := range keys {
			fv, _ := v.RecordGet(k)
			fields[i] = RecordField{Key: k, Value: PreviewOf(fv, cfg)}
		}
		return Preview{Kind: "Record", Record: fields}
	}
	return Preview{Kind: "Null"}
}

func previewString(s string, cfg *config.Config) Preview {
	limit := cfg.PreviewStringCap
	if utf8.RuneCountInString(s) <= limit {
		return Preview{Kind: "Str", Str: s}
	}
	r := []rune(s)
	return Preview{Kind: "Str", Str: string(r[:limit]) + "…", Truncated: true}
}

func previewList(items []value.Value, cfg *config.Config) Preview {
	limit := cfg.PreviewListCap
	n := len(items)
	truncated := n > limit
	if truncated {
		n = limit
	}
	out := make([]Preview, n)
	for i := 0; i < n; i++ {
		out[i] = PreviewOf(items[i], cfg)
	}
	return Preview{Kind: "List", List: out, Truncated: truncated}
}
