package renderer

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Gains holds the left/right compensation gain pair derived by
// CompensationGains. The pair is copied into each renderer.State at
// construction, so a new pair takes effect only through a newly built
// and published State.
type Gains struct {
	GL, GR float32
}

// Unity is the neutral compensation/balance gain pair.
var Unity = Gains{GL: 1, GR: 1}

// rms computes the root-mean-square energy of a signal using
// vecmath.DotProduct (sum of squares), the same call the teacher's
// sibling repo (CWBudde-algo-dsp's dsp/filter/fir package) uses for an
// analogous one-shot energy reduction. This runs once per preset
// activation on the control thread, never in Process.
func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	doubles := make([]float64, len(samples))
	for i, s := range samples {
		doubles[i] = float64(s)
	}
	sumSquares := vecmath.DotProduct(doubles, doubles)
	return math.Sqrt(sumSquares / float64(len(samples)))
}

// ild returns 20*log10(rms(a)/rms(b)) in dB, the interaural level
// difference of spec.md §4.2.
func ild(a, b []float32) float64 {
	ra, rb := rms(a), rms(b)
	if rb <= 0 {
		return 0
	}
	if ra <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(ra/rb)
}

// CompensationGains derives the ILD-compensation gain pair from the
// FL and FR ear-pair impulse responses per spec.md §4.2:
//
//  1. compute ILD_FL as supplied, and ILD_FR under both index-assignment
//     hypotheses (as supplied, and swapped), and pick whichever FR
//     hypothesis makes ILD_FR the closest mirror of ILD_FL (ILD_FR ≈
//     -ILD_FL once correctly assigned);
//  2. asymmetry = |ILD_FR| - |ILD_FL|; compensation = asymmetry * 0.9 dB;
//  3. convert to a linear ratio and split it energy-preservingly:
//     gL = sqrt(r), gR = 1/sqrt(r), so that gL*gR = 1 (gL^2 + gR^2 is
//     r + 1/r, which equals 2 only when r = 1).
//
// If enabled is false, Unity gains (with balance applied) are returned. balance, in [-1, 1],
// contributes up to a further ±15% per-channel multiplier on top of
// the compensation gains.
func CompensationGains(flLeftEar, flRightEar, frLeftEar, frRightEar []float32, enabled bool, balance float64) Gains {
	if !enabled {
		return applyBalance(Unity, balance)
	}

	ildFL := ild(flLeftEar, flRightEar)
	ildFRAsGiven := ild(frLeftEar, frRightEar)
	ildFRSwapped := ild(frRightEar, frLeftEar)
	ildFR := mirrorCorrectedILD(ildFL, ildFRAsGiven, ildFRSwapped)

	asymmetry := math.Abs(ildFR) - math.Abs(ildFL)
	compensationDB := asymmetry * 0.9

	r := math.Pow(10, compensationDB/20)
	gains := Gains{
		GL: float32(math.Sqrt(r)),
		GR: float32(1 / math.Sqrt(r)),
	}

	return applyBalance(gains, balance)
}

// mirrorCorrectedILD picks whichever FR hypothesis is the closer mirror
// of ildFL: once correctly assigned, ildFR should be approximately
// -ildFL (opposite sign, near-equal magnitude). The comparison is made
// against the signed mirror target -ildFL, not against |ildFL|: a
// magnitude-only comparison can never tell the two hypotheses apart,
// since |ildFRAsGiven| == |ildFRSwapped| always (ild(a,b) == -ild(b,a)).
func mirrorCorrectedILD(ildFL, ildFRAsGiven, ildFRSwapped float64) float64 {
	asGivenErr := math.Abs(ildFRAsGiven - (-ildFL))
	swappedErr := math.Abs(ildFRSwapped - (-ildFL))
	if swappedErr < asGivenErr {
		return ildFRSwapped
	}
	return ildFRAsGiven
}

// applyBalance scales gains by up to ±15% per spec.md §4.2's optional
// manual balance control.
func applyBalance(g Gains, balance float64) Gains {
	if balance < -1 {
		balance = -1
	}
	if balance > 1 {
		balance = 1
	}
	const maxAdjust = 0.15
	// Positive balance shifts energy toward the right ear.
	leftMul := float32(1 - maxAdjust*balance)
	rightMul := float32(1 + maxAdjust*balance)
	return Gains{GL: g.GL * leftMul, GR: g.GR * rightMul}
}
