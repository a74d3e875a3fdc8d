// Package mock provides a pure-Go, in-process CompositeDevice used by
// tests and cmd/spatializer-demo. It stands in for the real composite
// audio device, which spec.md §1 explicitly places out of scope: the
// core only ever receives a configured device handle.
//
// It replaces the teacher's cgo PipeWire binding (pw-convoverb's
// main.go) with a synchronous driver that pulls caller-supplied input
// and captures the callback's output, suitable for the deterministic
// end-to-end scenarios of spec.md §8.
package mock

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/meko-christian/hrir-spatializer/internal/device"
)

// Device is a synchronous, in-process CompositeDevice.
type Device struct {
	mu      sync.Mutex
	cfg     device.StreamConfig
	cb      device.RenderCallback
	running atomic.Bool

	// inputQueue holds planar blocks of input yet to be delivered to
	// the callback; Drive pulls from it one frameCount's worth at a
	// time, zero-filling if exhausted.
	inputQueue [][]float32

	// captured accumulates every block written to the output pair by
	// the callback, in order, for test assertions.
	captured [][]float32 // [left, right]
}

// New constructs an unconfigured mock device.
func New() *Device {
	return &Device{captured: [][]float32{{}, {}}}
}

// Configure implements device.CompositeDevice.
func (d *Device) Configure(cfg device.StreamConfig) error {
	const maxChannels = 64
	if err := cfg.Validate(maxChannels); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	return nil
}

// SetOutputPair implements device.CompositeDevice.
func (d *Device) SetOutputPair(base int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg := d.cfg
	cfg.OutputPairBase = base
	if err := cfg.Validate(64); err != nil {
		return err
	}
	d.cfg = cfg
	return nil
}

// RegisterCallback implements device.CompositeDevice.
func (d *Device) RegisterCallback(cb device.RenderCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cb = cb
}

// Start implements device.CompositeDevice.
func (d *Device) Start() error {
	if d.cb == nil {
		return errors.New("mock: no callback registered")
	}
	d.running.Store(true)
	return nil
}

// Stop implements device.CompositeDevice.
func (d *Device) Stop() error {
	d.running.Store(false)
	return nil
}

// IsRunning implements device.CompositeDevice.
func (d *Device) IsRunning() bool { return d.running.Load() }

// QueueInput appends planar input blocks (one slice per input channel)
// to be consumed by subsequent Drive calls.
func (d *Device) QueueInput(channels [][]float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inputQueue == nil {
		d.inputQueue = make([][]float32, len(channels))
	}
	for i, ch := range channels {
		d.inputQueue[i] = append(d.inputQueue[i], ch...)
	}
}

// Drive invokes the registered callback once with frameCount frames of
// input (pulled from the queue, zero-padded if exhausted) and returns
// the callback's two output-pair channels.
func (d *Device) Drive(frameCount int) (left, right []float32, err error) {
	d.mu.Lock()
	cb := d.cb
	cfg := d.cfg
	d.mu.Unlock()

	if cb == nil {
		return nil, nil, errors.New("mock: no callback registered")
	}

	in := make([][]float32, cfg.InputChannels)
	for ch := 0; ch < cfg.InputChannels; ch++ {
		in[ch] = d.pullChannel(ch, frameCount)
	}

	out := make([][]float32, cfg.OutputChannels)
	for ch := range out {
		out[ch] = make([]float32, frameCount)
	}

	if err := cb(in, out, frameCount); err != nil {
		return nil, nil, err
	}

	left = out[cfg.OutputPairBase]
	right = out[cfg.OutputPairBase+1]

	d.mu.Lock()
	d.captured[0] = append(d.captured[0], left...)
	d.captured[1] = append(d.captured[1], right...)
	d.mu.Unlock()

	return left, right, nil
}

func (d *Device) pullChannel(ch, frameCount int) []float32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]float32, frameCount)
	if ch >= len(d.inputQueue) {
		return out
	}

	available := len(d.inputQueue[ch])
	n := frameCount
	if n > available {
		n = available
	}
	copy(out, d.inputQueue[ch][:n])
	d.inputQueue[ch] = d.inputQueue[ch][n:]

	return out
}

// Captured returns every sample written to the output pair across all
// Drive calls so far.
func (d *Device) Captured() (left, right []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]float32(nil), d.captured[0]...), append([]float32(nil), d.captured[1]...)
}
