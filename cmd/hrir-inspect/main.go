// Command hrir-inspect parses a multi-channel HRIR WAV file offline
// and prints its channel map inference and interaural-level-difference
// analysis, for validating a preset before wiring it into a running
// stream.
//
// Usage:
//
//	hrir-inspect [options] <preset.wav>
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/meko-christian/hrir-spatializer/internal/hrir"
	"github.com/meko-christian/hrir-spatializer/internal/renderer"
	"github.com/meko-christian/hrir-spatializer/internal/speaker"
	"github.com/meko-christian/hrir-spatializer/internal/wav"
)

var layoutName = flag.String("layout", "stereo", "Input layout: stereo, 5.1, 7.1, 7.1.4")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <preset.wav>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	file, err := wav.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	layout, err := resolveLayout(*layoutName)
	if err != nil {
		return err
	}

	fmt.Printf("channels:       %d\n", file.NumChannels)
	fmt.Printf("sample rate:    %.0f Hz\n", file.SampleRate)
	fmt.Printf("bits/sample:    %d\n", file.BitsPerSample)
	fmt.Printf("frame count:    %d\n", file.NumSamples)
	fmt.Printf("input layout:   %d speaker(s)\n", len(layout))

	channelMap, err := hrir.ResolveChannelMap(file.NumChannels, layout, nil)
	if err != nil {
		return fmt.Errorf("resolving channel map: %w", err)
	}
	fmt.Println("channel map:    " + describeChannelMap(file.NumChannels, layout))

	if err := channelMap.Validate(layout, file.NumChannels); err != nil {
		return fmt.Errorf("channel map invalid for this file: %w", err)
	}

	for _, pos := range layout {
		pair := channelMap[pos]
		fmt.Printf("  %-4s -> L=ch%d R=ch%d\n", pos, pair.Left, pair.Right)
	}

	flPair, hasFL := channelMap[speaker.FL]
	frPair, hasFR := channelMap[speaker.FR]
	if hasFL && hasFR {
		gains := renderer.CompensationGains(
			file.Data[flPair.Left], file.Data[flPair.Right],
			file.Data[frPair.Left], file.Data[frPair.Right],
			true, 0,
		)
		fmt.Printf("ILD compensation: gL=%.4f gR=%.4f\n", gains.GL, gains.GR)
	}

	return nil
}

// describeChannelMap reports which of hrir.ResolveChannelMap's
// strategies produced the map, for display only; it never makes its
// own mapping decision.
func describeChannelMap(channelCount int, layout speaker.Layout) string {
	if channelCount == 2*len(layout) {
		return "inferred, interleaved pairs"
	}
	if channelCount == 14 {
		return "inferred, HeSuVi 14-channel built-in table"
	}
	return "inferred, built-in table"
}

func resolveLayout(name string) (speaker.Layout, error) {
	switch name {
	case "stereo":
		return speaker.StereoLayout(), nil
	case "5.1":
		return speaker.Layout51(), nil
	case "7.1":
		return speaker.Layout71(), nil
	case "7.1.4":
		return speaker.Layout714(), nil
	default:
		return nil, fmt.Errorf("unknown layout %q", name)
	}
}
