// Package resample provides high-quality sample rate conversion for
// HRIR data, used by the preset loader (spec.md §4.3 step 4.b) when a
// preset's native rate differs from the device's configured rate.
//
// Adapted from the teacher's pkg/resampler (pw-convoverb): the same
// windowed-sinc, Blackman-windowed interpolation, generalized only in
// name to fit this module's layout.
package resample

import "math"

// Resampler performs sample rate conversion using windowed sinc
// interpolation.
type Resampler struct {
	sincLobes int
}

// New creates a Resampler with default quality (16 sinc lobes).
func New() *Resampler {
	return &Resampler{sincLobes: 16}
}

// NewWithQuality creates a Resampler with the given number of sinc
// lobes per side, clamped to [4, 64].
func NewWithQuality(lobes int) *Resampler {
	if lobes < 4 {
		lobes = 4
	}
	if lobes > 64 {
		lobes = 64
	}
	return &Resampler{sincLobes: lobes}
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-10 {
		return 1.0
	}
	pix := math.Pi * x
	return math.Sin(pix) / pix
}

// blackmanWindow computes the Blackman window value for x in [-1, 1],
// returning 0 outside that range.
func blackmanWindow(x float64) float64 {
	if x < -1.0 || x > 1.0 {
		return 0.0
	}
	t := (x + 1.0) / 2.0
	return 0.42 - 0.5*math.Cos(2*math.Pi*t) + 0.08*math.Cos(4*math.Pi*t)
}

// Resample converts a single channel of audio from srcRate to dstRate.
func (r *Resampler) Resample(data []float32, srcRate, dstRate float64) ([]float32, error) {
	if len(data) == 0 {
		return []float32{}, nil
	}

	if srcRate == dstRate {
		out := make([]float32, len(data))
		copy(out, data)
		return out, nil
	}

	ratio := dstRate / srcRate
	inputLen := len(data)
	outputLen := int(math.Round(float64(inputLen) * ratio))
	if outputLen == 0 {
		return []float32{}, nil
	}

	output := make([]float32, outputLen)

	for i := 0; i < outputLen; i++ {
		inputPos := float64(i) / ratio

		filterRatio := 1.0
		if ratio < 1.0 {
			filterRatio = ratio
		}

		windowRadius := float64(r.sincLobes) / filterRatio
		startIdx := int(math.Floor(inputPos - windowRadius))
		endIdx := int(math.Ceil(inputPos + windowRadius))

		if startIdx < 0 {
			startIdx = 0
		}
		if endIdx >= inputLen {
			endIdx = inputLen - 1
		}

		var sum, weightSum float64
		for j := startIdx; j <= endIdx; j++ {
			d := inputPos - float64(j)
			scaledD := d * filterRatio
			s := sinc(scaledD)
			w := blackmanWindow(d / windowRadius)
			weight := s * w

			sum += float64(data[j]) * weight
			weightSum += weight
		}

		if weightSum > 0 {
			output[i] = float32(sum / weightSum)
		}
	}

	return output, nil
}

// ResampleMultiChannel resamples planar [channel][sample] audio data
// from srcRate to dstRate.
func (r *Resampler) ResampleMultiChannel(data [][]float32, srcRate, dstRate float64) ([][]float32, error) {
	if len(data) == 0 {
		return [][]float32{}, nil
	}

	result := make([][]float32, len(data))
	for ch := range data {
		resampled, err := r.Resample(data[ch], srcRate, dstRate)
		if err != nil {
			return nil, err
		}
		result[ch] = resampled
	}

	return result, nil
}

// OutputLength returns the expected output length for a resample
// operation, without performing it.
func OutputLength(inputLen int, srcRate, dstRate float64) int {
	if inputLen == 0 {
		return 0
	}
	return int(math.Round(float64(inputLen) * dstRate / srcRate))
}
