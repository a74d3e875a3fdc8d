// Package hrir implements the preset loader and channel mapper of
// spec.md §4.3: it parses a multi-channel HRIR WAV file, determines or
// validates the channel map against an input layout, resamples each
// pair of IR channels to the target rate, builds a Convolver pair per
// virtual speaker, derives ILD-compensation gains, and assembles the
// immutable renderer.State published to the real-time thread.
//
// It generalizes the teacher's (pw-convoverb) top-level wiring in
// main.go, which parses one IR file and builds one ConvolutionReverb,
// to N virtual speakers built from one multi-channel file.
package hrir

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/meko-christian/hrir-spatializer/internal/convolver"
	"github.com/meko-christian/hrir-spatializer/internal/renderer"
	"github.com/meko-christian/hrir-spatializer/internal/resample"
	"github.com/meko-christian/hrir-spatializer/internal/speaker"
	"github.com/meko-christian/hrir-spatializer/internal/wav"
)

// ConvolverBlockSize is the fixed real-time processing block size B
// named in spec.md §4.3 step 4c.
const ConvolverBlockSize = 512

// Preset identifies a loadable HRIR file by id, display name, channel
// count and native sample rate; no file path is stored (the file
// content reaches ActivatePreset as an io.Reader). ID is stable across
// file moves; callers key it on filename.
type Preset struct {
	ID               string
	DisplayName      string
	ChannelCount     int
	NativeSampleRate float64
}

// Failure modes of ActivatePreset, per spec.md §4.3's "Failure modes"
// paragraph. All are reported to the caller's error return, never
// through the real-time path.
var (
	ErrFileParse              = errors.New("hrir: failed to parse preset file")
	ErrUnsupportedChannelCount = errors.New("hrir: preset channel count unsupported for requested layout")
	ErrInvalidChannelMapping  = errors.New("hrir: channel map invalid for preset")
	ErrConvolverSetupFailed   = errors.New("hrir: convolver construction failed")
)

// ActivationResult is the outcome of a successful ActivatePreset call:
// the assembled renderer.State plus the Preset metadata it was built
// from, for bookkeeping by the caller (internal/engine).
type ActivationResult struct {
	State  *renderer.State
	Preset Preset
}

// ActivatePreset implements spec.md §4.3's activate_preset operation.
// r is the preset file content (PCM WAV, >=2 channels). targetRate is
// the device's configured sample rate; layout names the input channels
// the renderer will see; optionalMap, if non-nil, overrides channel-map
// inference. compensationEnabled and balance feed renderer.CompensationGains.
// checksum is an opaque tag carried into the resulting renderer.State
// for test/diagnostic identification (spec.md §8 scenario 6).
func ActivatePreset(
	log *slog.Logger,
	r io.Reader,
	id, displayName string,
	targetRate float64,
	layout speaker.Layout,
	optionalMap speaker.ChannelMap,
	compensationEnabled bool,
	balance float64,
	checksum uint64,
) (*ActivationResult, error) {
	if log == nil {
		log = slog.Default()
	}

	file, err := wav.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileParse, err)
	}
	if file.NumChannels < 2 {
		return nil, fmt.Errorf("%w: preset has %d channel(s), need >=2", ErrUnsupportedChannelCount, file.NumChannels)
	}

	channelMap, err := ResolveChannelMap(file.NumChannels, layout, optionalMap)
	if err != nil {
		return nil, err
	}
	if err := channelMap.Validate(layout, file.NumChannels); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChannelMapping, err)
	}

	log.Info("activating hrir preset",
		"id", id, "channels", file.NumChannels, "native_rate", file.SampleRate, "target_rate", targetRate)

	speakers := make([]renderer.SpeakerConvolvers, 0, len(layout))
	var flLeft, flRight, frLeft, frRight []float32

	for _, pos := range layout {
		pair := channelMap[pos]
		leftIR, err := resampleChannel(file.Data[pair.Left], file.SampleRate, targetRate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConvolverSetupFailed, err)
		}
		rightIR, err := resampleChannel(file.Data[pair.Right], file.SampleRate, targetRate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConvolverSetupFailed, err)
		}

		leftConv, err := convolver.New(leftIR, ConvolverBlockSize)
		if err != nil {
			return nil, fmt.Errorf("%w: speaker %s left ear: %v", ErrConvolverSetupFailed, pos, err)
		}
		rightConv, err := convolver.New(rightIR, ConvolverBlockSize)
		if err != nil {
			return nil, fmt.Errorf("%w: speaker %s right ear: %v", ErrConvolverSetupFailed, pos, err)
		}

		speakers = append(speakers, renderer.SpeakerConvolvers{
			Position: pos,
			Left:     leftConv,
			Right:    rightConv,
		})

		switch pos {
		case speaker.FL:
			flLeft, flRight = leftIR, rightIR
		case speaker.FR:
			frLeft, frRight = leftIR, rightIR
		}
	}

	gains := renderer.Unity
	if flLeft != nil && frLeft != nil {
		gains = renderer.CompensationGains(flLeft, flRight, frLeft, frRight, compensationEnabled, balance)
	}

	state, err := renderer.New(speakers, gains.GL, gains.GR, checksum)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConvolverSetupFailed, err)
	}

	return &ActivationResult{
		State: state,
		Preset: Preset{
			ID:               id,
			DisplayName:      displayName,
			ChannelCount:     file.NumChannels,
			NativeSampleRate: file.SampleRate,
		},
	}, nil
}

// ResolveChannelMap implements spec.md §4.3 step 2: an explicit map
// wins; otherwise infer interleaved pairs when C == 2*|layout|, else
// try a built-in fixed table (HeSuVi 14-channel), else fail. Exported
// so callers outside this package (cmd/hrir-inspect) preview the same
// map ActivatePreset would actually build for a given file.
func ResolveChannelMap(channelCount int, layout speaker.Layout, optionalMap speaker.ChannelMap) (speaker.ChannelMap, error) {
	if optionalMap != nil {
		return optionalMap, nil
	}
	if channelCount == 2*len(layout) {
		return speaker.InterleavedPairs(layout), nil
	}
	if m, ok := builtinMap(channelCount, layout); ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: no channel map inferable for %d channels against a %d-speaker layout",
		ErrInvalidChannelMapping, channelCount, len(layout))
}

func resampleChannel(data []float32, srcRate, dstRate float64) ([]float32, error) {
	if srcRate == dstRate {
		return data, nil
	}
	return resample.New().Resample(data, srcRate, dstRate)
}
