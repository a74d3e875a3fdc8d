// Package device defines the composite-device collaborator interface
// of spec.md §6. Device discovery, enumeration, and virtual-loopback
// driver installation are explicitly out of scope (spec.md §1); this
// package only describes the shape of a configured composite-device
// handle the core drives through a single registered render callback.
package device

import "errors"

// ErrInvalidConfiguration is returned by Configure when the requested
// channel counts or output pair are unusable, per spec.md §6.
var ErrInvalidConfiguration = errors.New("device: invalid stream configuration")

// StreamConfig describes a composite device's channel envelope and the
// fixed working-set bounds the render callback is configured with.
type StreamConfig struct {
	InputChannels        int
	OutputChannels       int
	OutputPairBase       int
	SampleRate           float64
	MaxFramesPerCallback int
}

// Validate checks the invariant named explicitly in spec.md §6:
// output_pair_base + 1 must be a valid index into the output channel
// range.
func (c StreamConfig) Validate(maxChannels int) error {
	if c.InputChannels <= 0 || c.OutputChannels <= 0 {
		return ErrInvalidConfiguration
	}
	if c.InputChannels > maxChannels || c.OutputChannels > maxChannels {
		return ErrInvalidConfiguration
	}
	if c.OutputPairBase+1 >= c.OutputChannels {
		return ErrInvalidConfiguration
	}
	if c.MaxFramesPerCallback <= 0 {
		return ErrInvalidConfiguration
	}
	return nil
}

// RenderCallback is the single real-time entry point a CompositeDevice
// invokes once per block. in is planar float32 input (one slice per
// input channel, each of length frameCount); out is the planar float32
// output buffer list for all output channels, of which the callback
// writes only the configured output pair. Implementations must not
// allocate, lock, or block (spec.md §4.4, §5).
type RenderCallback func(in [][]float32, out [][]float32, frameCount int) error

// CompositeDevice is the abstracted external collaborator of spec.md
// §6: a configured composite capture/playback device handle plus an
// output-channel-pair selection. The core never enumerates or creates
// devices; it only configures, starts, and stops a handle supplied by
// the host.
type CompositeDevice interface {
	// Configure prepares internal buffers for the given stream shape.
	// Returns ErrInvalidConfiguration if cfg fails StreamConfig.Validate.
	Configure(cfg StreamConfig) error

	// SetOutputPair atomically updates which output-channel pair
	// receives the stereo mix. Callable while running, without
	// stopping the stream.
	SetOutputPair(outputPairBase int) error

	// RegisterCallback installs the single render callback the device
	// invokes once per block while running.
	RegisterCallback(cb RenderCallback)

	Start() error
	Stop() error
	IsRunning() bool
}
