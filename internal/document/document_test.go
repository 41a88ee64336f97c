package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleuslang/nucleus/internal/nucleuserr"
)

func sampleDoc() *Document {
	return Load("alpha\nbeta\ngamma\ndelta\n", "sample.txt")
}

func TestLoadSplitsLinesWithoutPhantomTrailing(t *testing.T) {
	d := sampleDoc()
	require.Equal(t, 4, d.LineCount)
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, d.Lines)
}

func TestLineIndexingPositiveAndNegative(t *testing.T) {
	d := sampleDoc()
	l, err := d.Line(1)
	require.Nil(t, err)
	assert.Equal(t, "alpha", l)

	l, err = d.Line(-1)
	require.Nil(t, err)
	assert.Equal(t, "delta", l)

	_, err = d.Line(5)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.LineOutOfRange, err.Kind)
}

func TestLinesRangeReordersAndClamps(t *testing.T) {
	d := sampleDoc()
	assert.Equal(t, []string{"beta", "gamma"}, d.LinesRange(3, 2))
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, d.LinesRange(-100, 100))
}

func TestStatsSampling(t *testing.T) {
	d := sampleDoc()
	s := d.Stats()
	assert.Equal(t, 4, s.LineCount)
	assert.Equal(t, len(d.Text), s.Length)
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, s.Start.Lines)
}

func TestGrepFindsAllMatchesAndGroups(t *testing.T) {
	d := Load("foo=1\nfoo=2\nbar=3\n", "")
	hits, err := d.Grep(`foo=(\d)`, DefaultGrepFlags())
	require.Nil(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "foo=1", hits[0].Match)
	assert.Equal(t, []string{"1"}, hits[0].Groups)
	assert.Equal(t, uint32(1), hits[0].LineNum)
	assert.Equal(t, uint32(2), hits[1].LineNum)
}

func TestGrepCaseInsensitiveByDefault(t *testing.T) {
	d := Load("Hello World\n", "")
	hits, err := d.Grep("hello", DefaultGrepFlags())
	require.Nil(t, err)
	require.Len(t, hits, 1)
}

func TestGrepZeroWidthMatchMakesProgress(t *testing.T) {
	d := Load("abc\n", "")
	flags := DefaultGrepFlags()
	hits, err := d.Grep("x*", flags)
	require.Nil(t, err)
	assert.True(t, len(hits) > 0)
}

func TestGrepInvalidPattern(t *testing.T) {
	d := sampleDoc()
	_, err := d.Grep("(unterminated", DefaultGrepFlags())
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.RegexError, err.Kind)
}

func TestFuzzyExactSubstringScoresZero(t *testing.T) {
	d := Load("hello world\nfoo bar\n", "")
	hits := d.Fuzzy("world", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, float64(0), hits[0].Score)
	assert.Equal(t, uint32(1), hits[0].LineNum)
}

func TestFuzzyRespectsLimit(t *testing.T) {
	d := Load("a\nb\nc\nd\n", "")
	hits := d.Fuzzy("z", 2)
	assert.Len(t, hits, 2)
}
