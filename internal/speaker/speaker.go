// Package speaker defines the virtual-speaker position model, the
// standard input layouts, and the HRIR channel map that assigns each
// speaker position a pair of indices into a multi-channel impulse
// response file.
package speaker

import (
	"errors"
	"fmt"
)

// Position identifies a virtual-speaker direction. The set is closed
// except for Custom, which carries an arbitrary label for presets that
// define their own positions (e.g. height channels beyond 7.1.4).
type Position struct {
	tag    positionTag
	custom string
}

type positionTag int

const (
	tagFL positionTag = iota
	tagFR
	tagFC
	tagLFE
	tagBL
	tagBR
	tagSL
	tagSR
	tagTFL
	tagTFR
	tagTBL
	tagTBR
	tagCustom
)

var (
	FL  = Position{tag: tagFL}
	FR  = Position{tag: tagFR}
	FC  = Position{tag: tagFC}
	LFE = Position{tag: tagLFE}
	BL  = Position{tag: tagBL}
	BR  = Position{tag: tagBR}
	SL  = Position{tag: tagSL}
	SR  = Position{tag: tagSR}
	TFL = Position{tag: tagTFL}
	TFR = Position{tag: tagTFR}
	TBL = Position{tag: tagTBL}
	TBR = Position{tag: tagTBR}
)

// Custom returns a named escape-hatch position not in the closed set.
func Custom(name string) Position {
	return Position{tag: tagCustom, custom: name}
}

var tagNames = map[positionTag]string{
	tagFL: "FL", tagFR: "FR", tagFC: "FC", tagLFE: "LFE",
	tagBL: "BL", tagBR: "BR", tagSL: "SL", tagSR: "SR",
	tagTFL: "TFL", tagTFR: "TFR", tagTBL: "TBL", tagTBR: "TBR",
}

// String returns the canonical short name for the position.
func (p Position) String() string {
	if p.tag == tagCustom {
		return p.custom
	}
	return tagNames[p.tag]
}

// Layout is an ordered sequence of virtual speaker positions describing
// what each input channel of a stream represents.
type Layout []Position

// StereoLayout returns the standard two-channel layout [FL, FR].
func StereoLayout() Layout { return Layout{FL, FR} }

// Layout51 returns the standard 5.1 layout.
func Layout51() Layout { return Layout{FL, FR, FC, LFE, BL, BR} }

// Layout71 returns the standard 7.1 layout.
func Layout71() Layout { return Layout{FL, FR, FC, LFE, BL, BR, SL, SR} }

// Layout714 returns the standard 7.1.4 layout (7.1 plus four height
// channels).
func Layout714() Layout {
	return append(Layout71(), TFL, TFR, TBL, TBR)
}

// LayoutFromChannelCount derives a standard layout from an input
// channel count, when the count unambiguously matches one of the
// built-in layouts.
func LayoutFromChannelCount(channels int) (Layout, error) {
	switch channels {
	case 2:
		return StereoLayout(), nil
	case 6:
		return Layout51(), nil
	case 8:
		return Layout71(), nil
	case 12:
		return Layout714(), nil
	default:
		return nil, fmt.Errorf("speaker: no standard layout for %d input channels", channels)
	}
}

// IndexPair is the (left-ear, right-ear) pair of IR-file channel
// indices assigned to one virtual speaker.
type IndexPair struct {
	Left, Right int
}

// ChannelMap assigns every virtual speaker in a Layout a pair of IR
// channel indices.
type ChannelMap map[Position]IndexPair

// Errors returned by channel-map construction and validation.
var (
	ErrMissingSpeaker       = errors.New("speaker: layout position missing from channel map")
	ErrInvalidChannelMap    = errors.New("speaker: channel map index out of range or not distinct")
	ErrUnsupportedChannels  = errors.New("speaker: channel count incompatible with requested mapping")
)

// InterleavedPairs builds the "interleaved pairs" convention of
// spec.md §3: speaker i uses IR channels 2i and 2i+1.
func InterleavedPairs(layout Layout) ChannelMap {
	m := make(ChannelMap, len(layout))
	for i, pos := range layout {
		m[pos] = IndexPair{Left: 2 * i, Right: 2*i + 1}
	}
	return m
}

// SplitBlocks builds the "split blocks" convention of spec.md §3:
// speaker i uses IR channels i and i+N, where N is the speaker count.
func SplitBlocks(layout Layout) ChannelMap {
	n := len(layout)
	m := make(ChannelMap, n)
	for i, pos := range layout {
		m[pos] = IndexPair{Left: i, Right: i + n}
	}
	return m
}

// Validate checks the invariant of spec.md §3: every speaker in layout
// must have a map entry, and both indices of that entry must be
// distinct and within [0, channelCount).
func (m ChannelMap) Validate(layout Layout, channelCount int) error {
	for _, pos := range layout {
		pair, ok := m[pos]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSpeaker, pos)
		}
		if pair.Left == pair.Right {
			return fmt.Errorf("%w: %s has identical left/right index %d", ErrInvalidChannelMap, pos, pair.Left)
		}
		if pair.Left < 0 || pair.Left >= channelCount || pair.Right < 0 || pair.Right >= channelCount {
			return fmt.Errorf("%w: %s indices (%d,%d) outside [0,%d)", ErrInvalidChannelMap, pos, pair.Left, pair.Right, channelCount)
		}
	}
	return nil
}
