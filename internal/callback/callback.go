// Package callback implements the real-time render entry point of
// spec.md §4.4: a device.RenderCallback that acquires the currently
// published renderer.State with a wait-free load, bounds-checks the
// block it's asked to process, and either renders through the state or
// falls back to passthrough / silence. Nothing here allocates, locks,
// or blocks.
package callback

import (
	"errors"

	"github.com/meko-christian/hrir-spatializer/internal/device"
	"github.com/meko-christian/hrir-spatializer/internal/renderer"
	"github.com/meko-christian/hrir-spatializer/internal/state"
)

// ErrRequestTooLarge is returned when the device invokes the callback
// with more frames than it was configured to accept, per spec.md §4.4's
// bounds check against MaxFramesPerCallback.
var ErrRequestTooLarge = errors.New("callback: frame count exceeds configured maximum")

// Context holds everything the real-time callback needs to read on
// each invocation: the shared state publisher, the selected output-pair
// index, and the frame/channel bounds. The publisher is read with a
// wait-free atomic load; the other fields are plain values fixed once
// the Context is built, so Context itself carries no mutable state.
type Context struct {
	Publisher *state.Publisher

	// OutputPairBase names which pair of output channels receives the
	// stereo mix, per spec.md §6. It is not changed after Render is
	// called; engine.Engine.SetOutputPair changes the pair by registering
	// a new callback built from a fresh Context.
	OutputPairBase int

	// MaxFrames bounds the frame count this Context will accept, mirror
	// of device.StreamConfig.MaxFramesPerCallback.
	MaxFrames int

	// MaxChannels bounds the number of input channels (C_in) this
	// Context will accept, mirror of device.StreamConfig.InputChannels.
	MaxChannels int
}

// Render builds a device.RenderCallback bound to ctx. The returned
// function is the single real-time entry point: it is safe to invoke
// repeatedly from an audio device's processing thread and performs no
// allocation of its own.
func (ctx *Context) Render() device.RenderCallback {
	return func(in [][]float32, out [][]float32, frameCount int) error {
		if frameCount > ctx.MaxFrames || len(in) > ctx.MaxChannels {
			return ErrRequestTooLarge
		}

		base := ctx.OutputPairBase
		if base < 0 || base+1 >= len(out) {
			return device.ErrInvalidConfiguration
		}

		lOut := out[base][:frameCount]
		rOut := out[base+1][:frameCount]

		// Only the selected pair is zeroed and written; every other
		// output channel is left exactly as the device supplied it.
		zeroChannel(lOut)
		zeroChannel(rOut)

		st := ctx.Publisher.Load()
		if st == nil {
			renderer.Passthrough(in, lOut, rOut)
			return nil
		}

		st.Process(in, lOut, rOut, frameCount)
		return nil
	}
}

func zeroChannel(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
