// Package convolver implements the single-channel partitioned
// overlap-save FFT convolver of spec.md §4.1: one instance convolves
// one input channel against one impulse response (one ear of one
// virtual speaker). It is the innermost real-time component — Process
// must not allocate, lock, or block.
//
// The FFT substrate is the teacher's own (pw-convoverb's
// dsp/convolution_stage.go): a real-to-half-complex plan from
// github.com/MeKo-Christian/algo-fft, used with the identical
// NewPlanReal32/Forward/Inverse calls. The bookkeeping around it is
// rewritten: spec.md asks for a single fixed block size B and an
// explicit frequency-domain delay line (FDL) ring indexed strictly
// modulo P, not the teacher's multi-stage modulo-scheduled ladder
// (which targets widely varying IR lengths at one host latency; HRIRs
// are short and uniform, so the simpler single-stage overlap-save of
// spec.md §4.1 is the right fit).
package convolver

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// ErrInvalidImpulseResponse is returned by New when the impulse
// response is empty or the block size is not a supported FFT size.
var ErrInvalidImpulseResponse = errors.New("convolver: invalid impulse response or block size")

// Convolver performs partitioned overlap-save FFT convolution of one
// input channel against one impulse response, as specified in
// spec.md §4.1.
type Convolver struct {
	blockSize int // B
	fftSize   int // N = 2B
	partitions int // P = ceil(L/B)

	plan *algofft.PlanRealT[float32, complex64]

	// hrirSpectra holds P half-complex spectra (size B+1 each), one per
	// IR partition, immutable after construction.
	hrirSpectra [][]complex64

	// fdl is the frequency-domain delay line: a ring of P half-complex
	// spectra holding the FFTs of the P most recent input blocks.
	// Mutable, owned exclusively by the real-time thread.
	fdl      [][]complex64
	fdlIndex int

	// inputOverlap holds the B most recent input samples, used to form
	// the [previous | current] 2B-sample FFT input of each call.
	inputOverlap []float32

	// Scratch buffers, allocated once at construction; Process never
	// allocates.
	scratchTime []float32   // length N, forward-FFT input
	acc         []complex64 // length B+1, multiply-accumulate
	invTime     []float32   // length N, inverse-FFT output
}

// New constructs a Convolver for the given impulse response and block
// size. The block size must be a power of two (the FFT size 2*B is
// passed to algofft.NewPlanReal32).
func New(ir []float32, blockSize int) (*Convolver, error) {
	if len(ir) == 0 || blockSize <= 0 || !isPowerOfTwo(blockSize) {
		return nil, fmt.Errorf("%w: irLen=%d blockSize=%d", ErrInvalidImpulseResponse, len(ir), blockSize)
	}

	fftSize := 2 * blockSize
	partitions := (len(ir) + blockSize - 1) / blockSize

	plan, err := algofft.NewPlanReal32(fftSize)
	if err != nil {
		return nil, fmt.Errorf("%w: creating FFT plan: %w", ErrInvalidImpulseResponse, err)
	}

	c := &Convolver{
		blockSize:  blockSize,
		fftSize:    fftSize,
		partitions: partitions,
		plan:       plan,

		hrirSpectra: make([][]complex64, partitions),
		fdl:         make([][]complex64, partitions),

		inputOverlap: make([]float32, blockSize),
		scratchTime:  make([]float32, fftSize),
		acc:          make([]complex64, blockSize+1),
		invTime:      make([]float32, fftSize),
	}

	spectrumLen := blockSize + 1
	tempIR := make([]float32, fftSize)

	for p := 0; p < partitions; p++ {
		for i := range tempIR {
			tempIR[i] = 0
		}

		start := p * blockSize
		end := start + blockSize
		if end > len(ir) {
			end = len(ir)
		}
		if start < len(ir) {
			copy(tempIR, ir[start:end])
		}

		c.hrirSpectra[p] = make([]complex64, spectrumLen)
		if err := plan.Forward(c.hrirSpectra[p], tempIR); err != nil {
			return nil, fmt.Errorf("%w: transforming IR partition %d: %w", ErrInvalidImpulseResponse, p, err)
		}

		c.fdl[p] = make([]complex64, spectrumLen)
	}

	return c, nil
}

// BlockSize returns B, the fixed block size this Convolver was built
// with.
func (c *Convolver) BlockSize() int { return c.blockSize }

// Partitions returns P, the partition count ceil(L/B).
func (c *Convolver) Partitions() int { return c.partitions }

// Process convolves one block of B input samples against the impulse
// response, writing B output samples. in and out must each have
// length B and may alias the same underlying array only if identical
// (in == out is fine; partial overlap is not supported). Process does
// not allocate, lock, or block, and cannot fail.
func (c *Convolver) Process(in, out []float32) {
	b := c.blockSize
	p := c.partitions

	// Step 1: build [previous | current] time-domain input, then save
	// the current block as next call's overlap.
	copy(c.scratchTime[:b], c.inputOverlap)
	copy(c.scratchTime[b:], in[:b])
	copy(c.inputOverlap, in[:b])

	// Step 2: advance the FDL and forward-FFT directly into the new
	// newest slot.
	c.fdlIndex = (c.fdlIndex - 1 + p) % p
	_ = c.plan.Forward(c.fdl[c.fdlIndex], c.scratchTime)

	// Step 3/4: multiply-accumulate across all partitions. slot must be
	// taken modulo the true partition count P, never a power-of-two
	// mask — the ring has exactly P valid slots (see package doc and
	// debugAssertFDLIndex).
	for i := range c.acc {
		c.acc[i] = 0
	}
	for part := 0; part < p; part++ {
		slot := (c.fdlIndex + part) % p
		debugAssertFDLIndex(slot, p)
		multiplyAccumulate(c.acc, c.fdl[slot], c.hrirSpectra[part])
	}

	// Step 5: scale and inverse-FFT.
	scale := complex64(complex(0.25/float32(c.fftSize), 0))
	for i := range c.acc {
		c.acc[i] *= scale
	}
	_ = c.plan.Inverse(c.invTime, c.acc)

	// Step 6: discard the wrap-around region, emit the tail.
	copy(out[:b], c.invTime[b:])
}

// Reset clears the FDL and input-overlap history, as if the Convolver
// had just been constructed.
func (c *Convolver) Reset() {
	for _, spectrum := range c.fdl {
		for i := range spectrum {
			spectrum[i] = 0
		}
	}
	c.fdlIndex = 0
	for i := range c.inputOverlap {
		c.inputOverlap[i] = 0
	}
}

func multiplyAccumulate(dst, a, b []complex64) {
	for i := range dst {
		dst[i] += a[i] * b[i]
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
