// Package engine wires the composite-device collaborator, the preset
// loader, and the state publisher into the top-level object described
// by spec.md §6's external interfaces. It owns the stream state
// machine {Stopped, Configuring, Running, Paused} and is the only
// package a host process (cmd/spatializer-demo or a production host)
// needs to import.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/meko-christian/hrir-spatializer/internal/callback"
	"github.com/meko-christian/hrir-spatializer/internal/device"
	"github.com/meko-christian/hrir-spatializer/internal/hrir"
	"github.com/meko-christian/hrir-spatializer/internal/speaker"
	"github.com/meko-christian/hrir-spatializer/internal/state"
)

// StreamState names a position in the state machine of spec.md §4.4:
// {Stopped -> Configuring -> Running <-> Paused -> Stopped}.
type StreamState int

const (
	Stopped StreamState = iota
	Configuring
	Running
	Paused
)

func (s StreamState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Configuring:
		return "configuring"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// ErrInvalidTransition is returned when an operation is attempted from
// a StreamState that does not permit it.
var ErrInvalidTransition = errors.New("engine: invalid stream state transition")

// Engine is the top-level wiring object. Everything under the control
// thread (preset activation, stream configuration, start/stop) funnels
// through its exported methods; the real-time callback it registers
// with the device touches only internal/callback and internal/state.
type Engine struct {
	log *slog.Logger

	mu                sync.Mutex
	streamState       StreamState
	dev               device.CompositeDevice
	cfg               device.StreamConfig
	publisher         *state.Publisher
	activePreset      *hrir.Preset
	compensationOn    bool
	balance           float64
	checksumCounter   uint64
	lastActivation    *hrir.ActivationResult
}

// New constructs an Engine bound to a composite device. The device is
// supplied already constructed by the host (spec.md §6: "the core does
// not enumerate devices").
func New(log *slog.Logger, dev device.CompositeDevice) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		log:            log,
		dev:            dev,
		publisher:      &state.Publisher{},
		compensationOn: true,
	}
	return e
}

// ConfigureStream implements spec.md §6's configure_stream. It may be
// called only from Stopped and transitions through Configuring to
// Stopped (armed but not started) on success.
func (e *Engine) ConfigureStream(cfg device.StreamConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamState != Stopped {
		return fmt.Errorf("%w: configure_stream requires Stopped, got %s", ErrInvalidTransition, e.streamState)
	}
	e.streamState = Configuring

	if err := e.dev.Configure(cfg); err != nil {
		e.streamState = Stopped
		return err
	}

	ctx := &callback.Context{
		Publisher:      e.publisher,
		OutputPairBase: cfg.OutputPairBase,
		MaxFrames:      cfg.MaxFramesPerCallback,
		MaxChannels:    cfg.InputChannels,
	}
	e.dev.RegisterCallback(ctx.Render())

	e.cfg = cfg
	e.streamState = Stopped
	e.log.Info("stream configured",
		"input_channels", cfg.InputChannels, "output_channels", cfg.OutputChannels,
		"output_pair_base", cfg.OutputPairBase, "sample_rate", cfg.SampleRate)
	return nil
}

// SetOutputPair implements spec.md §6's set_output_pair, callable while
// running.
func (e *Engine) SetOutputPair(outputPairBase int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.dev.SetOutputPair(outputPairBase); err != nil {
		return err
	}
	e.cfg.OutputPairBase = outputPairBase
	ctx := &callback.Context{
		Publisher:      e.publisher,
		OutputPairBase: outputPairBase,
		MaxFrames:      e.cfg.MaxFramesPerCallback,
		MaxChannels:    e.cfg.InputChannels,
	}
	e.dev.RegisterCallback(ctx.Render())
	return nil
}

// Start implements spec.md §6's start(), transitioning Stopped -> Running.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamState != Stopped {
		return fmt.Errorf("%w: start requires Stopped, got %s", ErrInvalidTransition, e.streamState)
	}
	if e.cfg.MaxFramesPerCallback <= 0 {
		return fmt.Errorf("%w: start requires a configured stream", ErrInvalidTransition)
	}
	if err := e.dev.Start(); err != nil {
		return err
	}
	e.streamState = Running
	return nil
}

// Stop implements spec.md §6's stop(), transitioning Running or Paused
// back to Stopped.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamState != Running && e.streamState != Paused {
		return fmt.Errorf("%w: stop requires Running or Paused, got %s", ErrInvalidTransition, e.streamState)
	}
	if err := e.dev.Stop(); err != nil {
		return err
	}
	e.streamState = Stopped
	return nil
}

// Pause transitions Running -> Paused. The callback remains registered
// but the host-side device is expected to stop delivering blocks; pure
// bookkeeping from the engine's perspective.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamState != Running {
		return fmt.Errorf("%w: pause requires Running, got %s", ErrInvalidTransition, e.streamState)
	}
	e.streamState = Paused
	return nil
}

// Resume transitions Paused -> Running.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamState != Paused {
		return fmt.Errorf("%w: resume requires Paused, got %s", ErrInvalidTransition, e.streamState)
	}
	e.streamState = Running
	return nil
}

// State returns the current stream state.
func (e *Engine) State() StreamState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streamState
}

// IsRunning reports whether the device itself is running.
func (e *Engine) IsRunning() bool { return e.dev.IsRunning() }

// ActivatePreset implements spec.md §6's activate_preset. r provides
// the preset file content; layout and optionalMap are as described in
// spec.md §4.3. Activation runs entirely on the calling (control)
// thread and publishes the resulting renderer.State by atomic swap.
func (e *Engine) ActivatePreset(r io.Reader, id, displayName string, layout speaker.Layout, optionalMap speaker.ChannelMap) error {
	e.mu.Lock()
	targetRate := e.cfg.SampleRate
	compensationOn := e.compensationOn
	balance := e.balance
	e.checksumCounter++
	checksum := e.checksumCounter
	e.mu.Unlock()

	if targetRate <= 0 {
		return fmt.Errorf("engine: activate_preset requires a configured stream (call ConfigureStream first)")
	}

	result, err := hrir.ActivatePreset(e.log, r, id, displayName, targetRate, layout, optionalMap, compensationOn, balance, checksum)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.lastActivation = result
	preset := result.Preset
	e.activePreset = &preset
	e.mu.Unlock()

	e.publisher.Publish(result.State)
	e.log.Info("preset activated", "id", id, "checksum", checksum)
	return nil
}

// DeactivatePreset implements spec.md §6's deactivate_preset: the
// callback falls back to passthrough on its next invocation.
func (e *Engine) DeactivatePreset() {
	e.mu.Lock()
	e.activePreset = nil
	e.mu.Unlock()
	e.publisher.Clear()
}

// SetCompensationEnabled implements spec.md §6's set_compensation_enabled.
// It does not itself republish state; the caller re-activates the
// current preset (or the next activation picks up the new setting) per
// spec.md §6's note that this may equivalently swap just the gain cell.
func (e *Engine) SetCompensationEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compensationOn = enabled
}

// SetManualBalance implements spec.md §6's set_manual_balance, clamped
// to [-1, 1].
func (e *Engine) SetManualBalance(balance float64) {
	if balance < -1 {
		balance = -1
	}
	if balance > 1 {
		balance = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.balance = balance
}

// ActivePreset returns the currently active preset's metadata, or nil
// if no preset is active.
func (e *Engine) ActivePreset() *hrir.Preset {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activePreset
}
