// Command spatializer-demo drives the binaural spatializer engine
// against a pure-Go mock composite device, prints a live level meter to
// the terminal with termbox-go, and feeds a synthetic multi-channel
// test signal instead of a real capture device.
//
// It replaces the teacher's cgo PipeWire main.go + tui.go: the
// production-grade device enumeration, host menu-bar UI, and directory
// watching collaborators are explicitly out of scope (spec.md §1), so
// this command exists purely as a development harness driving the
// engine end to end with synthetic input.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/nsf/termbox-go"

	"github.com/meko-christian/hrir-spatializer/internal/device"
	"github.com/meko-christian/hrir-spatializer/internal/device/mock"
	"github.com/meko-christian/hrir-spatializer/internal/engine"
	"github.com/meko-christian/hrir-spatializer/internal/speaker"
)

func main() {
	presetPath := flag.String("preset", "", "Path to a multi-channel HRIR WAV preset file")
	sampleRate := flag.Float64("rate", 48000, "Device sample rate")
	blockSize := flag.Int("block", 512, "Callback frame count")
	balance := flag.Float64("balance", 0, "Manual balance adjustment in [-1,1]")
	noCompensation := flag.Bool("no-compensation", false, "Disable ILD compensation")
	noTUI := flag.Bool("no-tui", false, "Disable the level-meter TUI and run headless")
	iterations := flag.Int("blocks", 100, "Number of callback blocks to drive")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *presetPath == "" {
		logger.Error("missing required -preset flag")
		flag.PrintDefaults()
		os.Exit(1)
	}

	dev := mock.New()
	e := engine.New(logger, dev)

	cfg := device.StreamConfig{
		InputChannels:        2,
		OutputChannels:       2,
		OutputPairBase:       0,
		SampleRate:           *sampleRate,
		MaxFramesPerCallback: *blockSize,
	}
	if err := e.ConfigureStream(cfg); err != nil {
		logger.Error("configure_stream failed", "error", err)
		os.Exit(1)
	}

	e.SetCompensationEnabled(!*noCompensation)
	e.SetManualBalance(*balance)

	presetFile, err := os.Open(*presetPath)
	if err != nil {
		logger.Error("failed to open preset file", "path", *presetPath, "error", err)
		os.Exit(1)
	}
	defer presetFile.Close()

	if err := e.ActivatePreset(presetFile, *presetPath, *presetPath, speaker.StereoLayout(), nil); err != nil {
		logger.Error("activate_preset failed", "error", err)
		os.Exit(1)
	}
	logger.Info("preset activated", "path", *presetPath)

	if err := e.Start(); err != nil {
		logger.Error("start failed", "error", err)
		os.Exit(1)
	}
	defer e.Stop()

	if *noTUI {
		runHeadless(logger, dev, *blockSize, *iterations)
		return
	}
	runTUI(logger, dev, *blockSize, *iterations)
}

func runHeadless(logger *slog.Logger, dev *mock.Device, blockSize, iterations int) {
	queueTestSignal(dev, blockSize, iterations)
	for i := 0; i < iterations; i++ {
		left, right, err := dev.Drive(blockSize)
		if err != nil {
			logger.Error("drive failed", "error", err)
			return
		}
		logger.Info("block rendered", "index", i, "l_peak", peak(left), "r_peak", peak(right))
	}
}

func runTUI(logger *slog.Logger, dev *mock.Device, blockSize, iterations int) {
	if err := termbox.Init(); err != nil {
		logger.Error("termbox init failed", "error", err)
		runHeadless(logger, dev, blockSize, iterations)
		return
	}
	defer termbox.Close()

	queueTestSignal(dev, blockSize, iterations)

	for i := 0; i < iterations; i++ {
		left, right, err := dev.Drive(blockSize)
		if err != nil {
			logger.Error("drive failed", "error", err)
			return
		}
		drawMeter(i, iterations, peak(left), peak(right))
		termbox.Flush()
	}
}

// queueTestSignal feeds a two-channel 200Hz/300Hz synthetic sine pair
// into the mock device, enough to cover the requested block count.
func queueTestSignal(dev *mock.Device, blockSize, iterations int) {
	n := blockSize * iterations
	ch0 := make([]float32, n)
	ch1 := make([]float32, n)
	for i := 0; i < n; i++ {
		ch0[i] = float32(0.5 * math.Sin(2*math.Pi*200*float64(i)/48000))
		ch1[i] = float32(0.5 * math.Sin(2*math.Pi*300*float64(i)/48000))
	}
	dev.QueueInput([][]float32{ch0, ch1})
}

func peak(buf []float32) float32 {
	var m float32
	for _, v := range buf {
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}

func drawMeter(block, total int, lPeak, rPeak float32) {
	const width = 40
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	title := fmt.Sprintf("block %d/%d", block+1, total)
	drawText(0, 0, title)

	drawBar(0, 1, "L", lPeak, width)
	drawBar(0, 2, "R", rPeak, width)
}

func drawBar(x, y int, label string, level float32, width int) {
	drawText(x, y, label+" ")
	filled := int(level * float32(width))
	if filled > width {
		filled = width
	}
	for i := 0; i < width; i++ {
		ch := ' '
		if i < filled {
			ch = '#'
		}
		termbox.SetCell(x+2+i, y, ch, termbox.ColorGreen, termbox.ColorDefault)
	}
}

func drawText(x, y int, s string) {
	for i, r := range s {
		termbox.SetCell(x+i, y, r, termbox.ColorDefault, termbox.ColorDefault)
	}
}

