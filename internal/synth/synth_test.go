package synth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleuslang/nucleus/internal/nucleuserr"
	"github.com/nucleuslang/nucleus/internal/value"
)

func TestSynthesizeRequiresAtLeastTwoExamples(t *testing.T) {
	_, _, err := Synthesize(context.Background(), []Example{
		{Input: value.Str("$5"), Output: value.Int(5)},
	}, 50)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.NeedsMoreExamples, err.Kind)
}

func TestSynthesizeFindsPlainIntegerExtractor(t *testing.T) {
	examples := []Example{
		{Input: value.Str("count: 12"), Output: value.Int(12)},
		{Input: value.Str("count: 34"), Output: value.Int(34)},
	}
	lam, report, err := Synthesize(context.Background(), examples, 50)
	require.Nil(t, err)
	assert.True(t, report.Succeeded)
	assert.NotEmpty(t, report.CandidateName)

	fn := lam.Native
	require.NotNil(t, fn)
	out := fn(value.Str("count: 99"))
	assert.Equal(t, int64(99), out.AsInt())
}

func TestSynthesizeFindsCurrencyExtractor(t *testing.T) {
	examples := []Example{
		{Input: value.Str("price: $12.50"), Output: value.Float(12.50)},
		{Input: value.Str("price: $8.00"), Output: value.Float(8.00)},
	}
	lam, report, err := Synthesize(context.Background(), examples, 50)
	require.Nil(t, err)
	assert.True(t, report.Succeeded)

	out := lam.Native(value.Str("price: $3.75"))
	assert.Equal(t, 3.75, out.AsFloat())
}

func TestSynthesizeQuarterToMonthSpecializer(t *testing.T) {
	examples := []Example{
		{Input: value.Str("Q1-2024"), Output: value.Str("2024-01")},
		{Input: value.Str("Q3-2023"), Output: value.Str("2023-07")},
	}
	lam, report, err := Synthesize(context.Background(), examples, 50)
	require.Nil(t, err)
	assert.True(t, report.Succeeded)
	assert.Equal(t, "quarter-to-month", report.CandidateName)

	out := lam.Native(value.Str("Q4-2022"))
	assert.Equal(t, "2022-10", out.AsStr())
}

func TestSynthesizeNoCandidateWhenExamplesAreInconsistent(t *testing.T) {
	examples := []Example{
		{Input: value.Str("x"), Output: value.Int(1)},
		{Input: value.Str("y"), Output: value.Int(2)},
	}
	_, report, err := Synthesize(context.Background(), examples, 50)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.NoCandidate, err.Kind)
	assert.False(t, report.Succeeded)
	assert.GreaterOrEqual(t, report.FirstFailingExample, 0)
}

func TestSynthesizeRespectsMaxCandidates(t *testing.T) {
	examples := []Example{
		{Input: value.Str("count: 12"), Output: value.Int(12)},
		{Input: value.Str("count: 34"), Output: value.Int(34)},
	}
	_, report, err := Synthesize(context.Background(), examples, 0)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.NoCandidate, err.Kind)
	assert.Equal(t, 0, report.CandidatesExplored)
}

func TestSynthesizeTimeoutPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	examples := []Example{
		{Input: value.Str("count: 12"), Output: value.Int(12)},
		{Input: value.Str("count: 34"), Output: value.Int(34)},
	}
	_, _, err := Synthesize(ctx, examples, 50)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.TimeoutError, err.Kind)
}

func TestSynthesizeNativeLambdaReturnsNullOnNonApplicableInput(t *testing.T) {
	examples := []Example{
		{Input: value.Str("count: 12"), Output: value.Int(12)},
		{Input: value.Str("count: 34"), Output: value.Int(34)},
	}
	lam, _, err := Synthesize(context.Background(), examples, 50)
	require.Nil(t, err)
	out := lam.Native(value.Int(7))
	assert.True(t, out.IsNull())
}

func TestSynthesizeHonoursSlowContextBeforeExhaustingCandidates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)
	examples := []Example{
		{Input: value.Str("count: 12"), Output: value.Int(12)},
		{Input: value.Str("count: 34"), Output: value.Int(34)},
	}
	_, _, err := Synthesize(ctx, examples, 50)
	require.NotNil(t, err)
	assert.Equal(t, nucleuserr.TimeoutError, err.Kind)
}
