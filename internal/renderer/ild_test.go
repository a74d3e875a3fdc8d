package renderer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompensationGainsDisabled(t *testing.T) {
	gains := CompensationGains(
		[]float32{1, 0, 0}, []float32{1, 0, 0},
		[]float32{1, 0, 0}, []float32{1, 0, 0},
		false, 0,
	)
	assert.Equal(t, Unity, gains)
}

// TestCompensationGainsEnergyPreservation checks spec.md §8's
// energy-preservation invariant gL^2 + gR^2 = 2, up to round-off, on a
// perfectly mirrored FL/FR pair (zero asymmetry, so r = 1).
func TestCompensationGainsEnergyPreservation(t *testing.T) {
	flLeft := []float32{1, 0.5, 0.25, 0.1}
	flRight := []float32{0.2, 0.1, 0.05, 0.02}
	frLeft := []float32{0.2, 0.1, 0.05, 0.02}
	frRight := []float32{1, 0.5, 0.25, 0.1}

	gains := CompensationGains(flLeft, flRight, frLeft, frRight, true, 0)

	sumSquares := float64(gains.GL)*float64(gains.GL) + float64(gains.GR)*float64(gains.GR)
	assert.InDelta(t, 2.0, sumSquares, 1e-3)
}

func TestCompensationGainsSymmetricInputIsUnity(t *testing.T) {
	flLeft := []float32{1, 0.5, 0.25}
	flRight := []float32{1, 0.5, 0.25}
	frLeft := []float32{1, 0.5, 0.25}
	frRight := []float32{1, 0.5, 0.25}

	gains := CompensationGains(flLeft, flRight, frLeft, frRight, true, 0)

	assert.InDelta(t, 1.0, gains.GL, 1e-4)
	assert.InDelta(t, 1.0, gains.GR, 1e-4)
}

func TestApplyBalanceClampsRange(t *testing.T) {
	g := applyBalance(Unity, 10)
	assert.InDelta(t, float64(1-0.15), float64(g.GL), 1e-6)
	assert.InDelta(t, float64(1+0.15), float64(g.GR), 1e-6)

	g2 := applyBalance(Unity, -10)
	assert.InDelta(t, float64(1+0.15), float64(g2.GL), 1e-6)
	assert.InDelta(t, float64(1-0.15), float64(g2.GR), 1e-6)
}

func TestRMSOfSilenceIsZero(t *testing.T) {
	assert.Equal(t, 0.0, rms(nil))
	assert.Equal(t, 0.0, rms([]float32{0, 0, 0}))
}

func TestILDInfiniteWhenNumeratorSilent(t *testing.T) {
	v := ild([]float32{0, 0, 0}, []float32{1, 1, 1})
	assert.True(t, math.IsInf(v, -1))
}

// TestMirrorCorrectedILDDistinguishesHypotheses exercises the
// selection predicate directly with synthetic (not ild-derived) inputs
// where the as-given and swapped candidates are NOT forced to be
// negatives of one another, proving the comparison genuinely picks
// based on closeness to the signed mirror target -ildFL rather than
// being a magnitude-only test that can never discriminate.
func TestMirrorCorrectedILDDistinguishesHypotheses(t *testing.T) {
	// ildFL = 10, mirror target = -10. asGiven (-9) is much closer to
	// -10 than swapped (7) is.
	got := mirrorCorrectedILD(10, -9, 7)
	assert.Equal(t, -9.0, got)

	// Flip which candidate is closer: now swapped (-11) wins over
	// asGiven (8).
	got = mirrorCorrectedILD(10, 8, -11)
	assert.Equal(t, -11.0, got)
}

// TestCompensationGainsSwappedFRChannelsStillBalance constructs an FR
// ear pair whose file channels are stored in the opposite order from
// FL's. Since the loader has no independent way to know which FR file
// channel is the true left/right ear, CompensationGains must converge
// on the same physically-correct (unity, perfectly mirrored) result
// whichever order the caller happens to pass frLeftEar/frRightEar in.
func TestCompensationGainsSwappedFRChannelsStillBalance(t *testing.T) {
	flLeft := []float32{4, 4, 4, 4}  // rms 4
	flRight := []float32{1, 1, 1, 1} // rms 1, ildFL ~= +12.04 dB

	frQuiet := []float32{1, 1, 1, 1} // rms 1
	frLoud := []float32{4, 4, 4, 4}  // rms 4

	asGiven := CompensationGains(flLeft, flRight, frQuiet, frLoud, true, 0)
	swapped := CompensationGains(flLeft, flRight, frLoud, frQuiet, true, 0)

	assert.InDelta(t, 1.0, asGiven.GL, 1e-3)
	assert.InDelta(t, 1.0, asGiven.GR, 1e-3)
	assert.InDelta(t, 1.0, swapped.GL, 1e-3)
	assert.InDelta(t, 1.0, swapped.GR, 1e-3)
}
