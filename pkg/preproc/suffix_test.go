package preproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStepToken(t *testing.T) {
	t.Parallel()
	tcs := map[string]struct {
		step Step
		want string
	}{
		"smooth integer":    {step: Smooth(5), want: "5mm"},
		"smooth fractional": {step: Smooth(4.5), want: "4.5mm"},
		"filter both":       {step: Filter(100, 10), want: "100s10s"},
		"filter highpass":   {step: Filter(100, NoCutoff), want: "100sNone"},
		"filter lowpass":    {step: Filter(NoCutoff, 10), want: "None10s"},
		"normalize zscore":  {step: Normalize(Zscore), want: "Zscore"},
		"normalize psc":     {step: Normalize(PSC), want: "PSC"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.step.Token())
		})
	}
}

func TestTokenConcatenatesInOrder(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "5mm100sNone", Token([]Step{Smooth(5), Filter(100, NoCutoff)}))
	assert.Equal(t, "100sNone5mm", Token([]Step{Filter(100, NoCutoff), Smooth(5)}))
	assert.Equal(t, "5mm100sNoneZscore", Token([]Step{Smooth(5), Filter(100, NoCutoff), Normalize(Zscore)}))
}

func TestTokenDistinguishesParameters(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(0.01, 1000).Draw(t, "a")
		b := rapid.Float64Range(0.01, 1000).Draw(t, "b")
		if a == b {
			return
		}
		assert.NotEqual(t, Smooth(a).Token(), Smooth(b).Token())
		assert.NotEqual(t, Filter(a, NoCutoff).Token(), Filter(b, NoCutoff).Token())
	})
}

func TestTokenStaysFilenameSafe(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		fwhm := rapid.Float64Range(0.01, 1000).Draw(t, "fwhm")
		highpass := rapid.Float64Range(0.01, 1000).Draw(t, "highpass")
		steps := []Step{Smooth(fwhm), Filter(highpass, NoCutoff), Normalize(PSC)}

		token := Token(steps)
		require.NotEmpty(t, token)
		// Underscores and dashes would break the entity structure of a
		// BIDS file name the token is spliced into.
		assert.False(t, strings.ContainsAny(token, "_-/"), "token %q", token)
	})
}
