// Package renderer implements the multi-speaker binaural mixer of
// spec.md §4.2: it holds one Convolver pair (left ear, right ear) per
// virtual speaker, sums their outputs into a stereo mix, and applies
// an interaural-level-difference (ILD) compensation gain pair.
//
// The mixing loop generalizes the teacher's ConvolutionReverb.ProcessBlock
// dry/wet mix (pw-convoverb/dsp/convolution.go) from one channel's
// single reverb tail to N speakers' worth of binaural convolution
// summed into two ears.
package renderer

import (
	"fmt"

	"github.com/meko-christian/hrir-spatializer/internal/convolver"
	"github.com/meko-christian/hrir-spatializer/internal/speaker"
)

// SpeakerConvolvers holds the two Convolvers (one per ear) that render
// a single virtual speaker's contribution to the stereo mix.
type SpeakerConvolvers struct {
	Position speaker.Position
	Left     *convolver.Convolver
	Right    *convolver.Convolver
}

// State is the immutable renderer snapshot published to the real-time
// thread (spec.md §3 "Renderer State"). It owns its Convolvers and the
// pre-sized per-speaker temp buffers used by the accumulation pass;
// once constructed nothing about it changes except via a fresh State
// built on the control thread and swapped in by internal/state.
type State struct {
	blockSize int
	speakers  []SpeakerConvolvers

	gL, gR float32

	// tempL/tempR are per-speaker scratch output buffers of size
	// blockSize, reused across calls to Process — part of the
	// zero-allocation discipline of spec.md §5.
	tempL, tempR [][]float32

	// zeroInput is a never-written scratch block of size blockSize,
	// substituted for any input channel missing from inputChannels.
	// Owned by this State (not shared across States) so concurrent
	// streams never race on it.
	zeroInput []float32

	// Checksum identifies this particular published state; used only by
	// tests exercising spec.md §8 scenario 6 (state-swap atomicity) to
	// confirm a callback never observes a half-installed state.
	Checksum uint64
}

// New constructs a Renderer State from per-speaker ear IR pairs.
// speakers must be non-empty; every Convolver must share the same
// block size.
func New(speakers []SpeakerConvolvers, gL, gR float32, checksum uint64) (*State, error) {
	if len(speakers) == 0 {
		return nil, fmt.Errorf("renderer: at least one speaker is required")
	}

	blockSize := speakers[0].Left.BlockSize()
	tempL := make([][]float32, len(speakers))
	tempR := make([][]float32, len(speakers))

	for i, sp := range speakers {
		if sp.Left.BlockSize() != blockSize || sp.Right.BlockSize() != blockSize {
			return nil, fmt.Errorf("renderer: speaker %s block size mismatch", sp.Position)
		}
		tempL[i] = make([]float32, blockSize)
		tempR[i] = make([]float32, blockSize)
	}

	return &State{
		blockSize: blockSize,
		speakers:  speakers,
		gL:        gL,
		gR:        gR,
		tempL:     tempL,
		tempR:     tempR,
		zeroInput: make([]float32, blockSize),
		Checksum:  checksum,
	}, nil
}

// BlockSize returns B, the fixed processing block size of this state.
func (s *State) BlockSize() int { return s.blockSize }

// Gains returns the current ILD-compensation gain pair.
func (s *State) Gains() (gL, gR float32) { return s.gL, s.gR }

// Process implements spec.md §4.2's Process operation: it consumes
// frameCount frames across inputChannels (planar, one slice per
// virtual speaker's input channel) and writes the binaural mix into
// lOut/rOut. inputChannels may have fewer entries than speakers (the
// remainder is treated as silence, per spec.md §8's boundary rule) but
// never more than len(s.speakers) are read.
//
// Process is called only from the real-time thread and must not
// allocate: every buffer it touches (tempL/tempR, the output slices)
// is supplied by the caller or pre-sized at construction.
func (s *State) Process(inputChannels [][]float32, lOut, rOut []float32, frameCount int) {
	b := s.blockSize
	fullBlocks := frameCount / b
	processed := fullBlocks * b

	for k := 0; k < processed; k += b {
		for i, sp := range s.speakers {
			in := s.inputBlock(inputChannels, i, k, b)
			sp.Left.Process(in, s.tempL[i])
			sp.Right.Process(in, s.tempR[i])
		}

		copy(lOut[k:k+b], s.tempL[0])
		copy(rOut[k:k+b], s.tempR[0])

		for i := 1; i < len(s.speakers); i++ {
			addBlockInPlace(lOut[k:k+b], s.tempL[i])
			addBlockInPlace(rOut[k:k+b], s.tempR[i])
		}
	}

	if s.gL != 1 {
		scaleBlock(lOut[:processed], s.gL)
	}
	if s.gR != 1 {
		scaleBlock(rOut[:processed], s.gR)
	}

	// Partial trailing block: passthrough per spec.md §4.2.
	if processed < frameCount {
		passthrough(inputChannels, processed, lOut[processed:frameCount], rOut[processed:frameCount])
	}
}

// inputBlock returns the b-frame block at offset for the given speaker
// channel, or this State's pre-sized zeroInput scratch buffer if that
// channel is missing or under-supplied (spec.md §8's boundary rule).
func (s *State) inputBlock(inputChannels [][]float32, channel, offset, b int) []float32 {
	if channel < len(inputChannels) {
		ch := inputChannels[channel]
		if offset+b <= len(ch) {
			return ch[offset : offset+b]
		}
	}
	return s.zeroInput[:b]
}

// passthrough implements the Renderer's no-preset / partial-block
// fallback mix (spec.md §4.2): L from input channel 0, R from channel
// 1 if present else channel 0, else silence. lOut[i]/rOut[i] take
// input frame offset+i.
func passthrough(inputChannels [][]float32, offset int, lOut, rOut []float32) {
	n := len(lOut)
	for i := 0; i < n; i++ {
		j := offset + i
		var l, r float32
		if len(inputChannels) > 0 && j < len(inputChannels[0]) {
			l = inputChannels[0][j]
		}
		switch {
		case len(inputChannels) > 1 && j < len(inputChannels[1]):
			r = inputChannels[1][j]
		case len(inputChannels) > 0 && j < len(inputChannels[0]):
			r = inputChannels[0][j]
		}
		lOut[i] = l
		rOut[i] = r
	}
}

// Passthrough implements the Renderer contract bypass of spec.md §4.2
// for when no renderer state has been published at all (nil State):
// L_out <- input channel 0 (or silence), R_out <- input channel 1 (or
// channel 0, or silence).
func Passthrough(inputChannels [][]float32, lOut, rOut []float32) {
	passthrough(inputChannels, 0, lOut, rOut)
}

func addBlockInPlace(dst, src []float32) {
	for i := range dst {
		dst[i] += src[i]
	}
}

func scaleBlock(buf []float32, gain float32) {
	for i := range buf {
		buf[i] *= gain
	}
}
