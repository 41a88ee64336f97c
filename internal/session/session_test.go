package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleuslang/nucleus/internal/config"
	"github.com/nucleuslang/nucleus/internal/nucleuserr"
)

func TestExecuteBeforeLoadIsNoDocument(t *testing.T) {
	s := New(nil)
	defer s.Close()
	resp := s.Execute("42", 0)
	require.False(t, resp.OK)
	assert.Equal(t, nucleuserr.NoDocument.String(), resp.Error.Kind)
	assert.Equal(t, 1, resp.Turn)
}

func TestLoadThenExecuteLiteral(t *testing.T) {
	s := New(nil)
	defer s.Close()
	lr, err := s.Load("alpha\nbeta\n", "doc.txt")
	require.Nil(t, err)
	assert.Equal(t, 2, lr.LineCount)

	resp := s.Execute("42", 0)
	require.True(t, resp.OK)
	assert.Equal(t, "Int", resp.Value.Kind)
	assert.Equal(t, int64(42), resp.Value.Int)
	assert.Equal(t, 1, resp.Turn)
}

func TestExecuteAdvancesTurnOnParseError(t *testing.T) {
	s := New(nil)
	defer s.Close()
	_, err := s.Load("alpha\n", "")
	require.Nil(t, err)

	resp := s.Execute("(unterminated", 0)
	require.False(t, resp.OK)
	assert.Equal(t, nucleuserr.ParseError.String(), resp.Error.Kind)
	assert.Equal(t, 1, resp.Turn)

	resp2 := s.Execute("1", 0)
	require.True(t, resp2.OK)
	assert.Equal(t, 2, resp2.Turn)
}

func TestLetBindingAppearsInBindingsDelta(t *testing.T) {
	s := New(nil)
	defer s.Close()
	_, err := s.Load("alpha\n", "")
	require.Nil(t, err)

	resp := s.Execute(`(let x 5)`, 0)
	require.True(t, resp.OK)
	require.NotNil(t, resp.BindingsDelta)
	assert.Contains(t, resp.BindingsDelta.Added, "x")

	resp2 := s.Execute(`(let x 6)`, 0)
	require.True(t, resp2.OK)
	assert.Contains(t, resp2.BindingsDelta.Changed, "x")
}

func TestBindingsIncludesReservedNames(t *testing.T) {
	s := New(nil)
	defer s.Close()
	_, err := s.Load("alpha\n", "")
	require.Nil(t, err)
	_ = s.Execute("1", 0)

	bindings, berr := s.Bindings()
	require.Nil(t, berr)
	_, ok := bindings["TURN"]
	assert.True(t, ok)
	_, ok = bindings["_1"]
	assert.True(t, ok)
}

func TestResetClearsBindingsKeepsDocument(t *testing.T) {
	s := New(nil)
	defer s.Close()
	_, err := s.Load("alpha\nbeta\n", "")
	require.Nil(t, err)
	_ = s.Execute(`(let x 1)`, 0)

	require.Nil(t, s.Reset())

	bindings, berr := s.Bindings()
	require.Nil(t, berr)
	_, ok := bindings["x"]
	assert.False(t, ok)

	stats, serr := s.Stats()
	require.Nil(t, serr)
	assert.Equal(t, 2, stats.LineCount)
}

func TestLoadResetsTurnAndBindings(t *testing.T) {
	s := New(nil)
	defer s.Close()
	_, err := s.Load("alpha\n", "")
	require.Nil(t, err)
	_ = s.Execute(`(let x 1)`, 0)
	_ = s.Execute(`(let y 2)`, 0)

	_, err = s.Load("gamma\ndelta\n", "")
	require.Nil(t, err)

	bindings, berr := s.Bindings()
	require.Nil(t, berr)
	_, ok := bindings["x"]
	assert.False(t, ok)
	assert.Equal(t, int64(0), bindings["TURN"].Int)
}

func TestCloseIsIdempotentAndPoisonsSession(t *testing.T) {
	s := New(nil)
	_, err := s.Load("alpha\n", "")
	require.Nil(t, err)
	s.Close()
	s.Close() // must not panic

	_, err = s.Load("beta\n", "")
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.NoDocument, err.Kind)

	resp := s.Execute("1", 0)
	assert.False(t, resp.OK)
}

func TestStatsBeforeLoadIsNoDocument(t *testing.T) {
	s := New(nil)
	defer s.Close()
	_, err := s.Stats()
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.NoDocument, err.Kind)
}

func TestExecuteTimeoutPropagatesThroughSynthesis(t *testing.T) {
	s := New(nil)
	defer s.Close()
	_, err := s.Load("count: 1\ncount: 2\n", "")
	require.Nil(t, err)

	resp := s.Execute(`(synthesize-extractor (list (record "input" "count: 12" "output" 12) (record "input" "count: 34" "output" 34)))`, time.Nanosecond)
	require.False(t, resp.OK)
	assert.Equal(t, nucleuserr.TimeoutError.String(), resp.Error.Kind)
}

func TestPreviewStringTruncatesPastCap(t *testing.T) {
	cfg := config.Default()
	cfg.PreviewStringCap = 3
	s := New(cfg)
	defer s.Close()
	_, err := s.Load("alpha\n", "")
	require.Nil(t, err)

	resp := s.Execute(`"hello"`, 0)
	require.True(t, resp.OK)
	assert.True(t, resp.Value.Truncated)
	assert.Equal(t, "hel…", resp.Value.Str)
}
