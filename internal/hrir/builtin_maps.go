package hrir

import "github.com/meko-christian/hrir-spatializer/internal/speaker"

// hesuvi14Order is the 7 spatial positions HeSuVi's 14-channel IR
// convention assigns a dedicated ear pair: LFE carries no directional
// cue and is intentionally excluded, matching the 2*7=14 channel count.
var hesuvi14Order = []speaker.Position{
	speaker.FL, speaker.FR, speaker.FC,
	speaker.BL, speaker.BR, speaker.SL, speaker.SR,
}

// hesuvi14 is HeSuVi's 14-channel convention: split blocks, L ears in
// channels [0,7), R ears in channels [7,14). layout must name exactly
// these 7 positions (any order); a layout that also carries LFE should
// route that channel through a non-spatialized path before reaching
// the renderer, since it has no entry in this map.
func hesuvi14(layout speaker.Layout) (speaker.ChannelMap, bool) {
	if !sameSpeakerSet(layout, hesuvi14Order) {
		return nil, false
	}
	m := make(speaker.ChannelMap, len(hesuvi14Order))
	for i, pos := range hesuvi14Order {
		m[pos] = speaker.IndexPair{Left: i, Right: i + len(hesuvi14Order)}
	}
	return m, true
}

func sameSpeakerSet(layout speaker.Layout, want []speaker.Position) bool {
	if len(layout) != len(want) {
		return false
	}
	seen := make(map[speaker.Position]bool, len(want))
	for _, pos := range want {
		seen[pos] = true
	}
	for _, pos := range layout {
		if !seen[pos] {
			return false
		}
	}
	return true
}

// builtinMap resolves a fixed built-in map for the given (channel
// count, layout) pair, per spec.md §4.3 step 2's "documented fixed
// mappings supplied as built-in tables" clause. ok is false when no
// built-in table matches and the caller should fall back to the
// interleaved-pairs inference (or fail).
func builtinMap(channelCount int, layout speaker.Layout) (speaker.ChannelMap, bool) {
	switch channelCount {
	case 14:
		return hesuvi14(layout)
	default:
		return nil, false
	}
}
