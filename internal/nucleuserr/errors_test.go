package nucleuserr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnlyInternalErrorIsFatal(t *testing.T) {
	for _, k := range []Kind{ParseError, ArityError, TypeError, RegexError, LineOutOfRange,
		NoDocument, ReservedName, TimeoutError, NeedsMoreExamples, NoCandidate} {
		assert.False(t, k.Fatal(), "%s should not be fatal", k)
	}
	assert.True(t, InternalError.Fatal())
}

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := errors.New("disk gone")
	err := Wrap(NoDocument, "failed to load", cause)
	assert.Same(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "disk gone")
}

func TestIsMatchesKind(t *testing.T) {
	err := New(TypeError, "bad type")
	assert.True(t, Is(err, TypeError))
	assert.False(t, Is(err, ArityError))
	assert.False(t, Is(errors.New("plain"), TypeError))
}

func TestArityAndTypeHelpersAttachMeta(t *testing.T) {
	err := Arity("reduce", 3, 2)
	assert.Equal(t, "reduce", err.Meta["form"])
	assert.Equal(t, 3, err.Meta["expected"])
	assert.Equal(t, 2, err.Meta["received"])

	terr := Type("sum", 1, "List", "Int")
	assert.Equal(t, 1, terr.Meta["position"])
	assert.Equal(t, "List", terr.Meta["expected"])
	assert.Equal(t, "Int", terr.Meta["got"])
}

func TestWithSpanAndWithMetaChain(t *testing.T) {
	err := New(ParseError, "bad token").
		WithSpan(Span{Line: 2, Column: 5, Token: "("}).
		WithMeta("extra", 1)
	assert.Equal(t, 2, err.Span.Line)
	assert.Equal(t, 1, err.Meta["extra"])
}
