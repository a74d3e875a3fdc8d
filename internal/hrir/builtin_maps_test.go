package hrir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meko-christian/hrir-spatializer/internal/speaker"
)

func TestHesuvi14Map(t *testing.T) {
	layout := speaker.Layout{speaker.FL, speaker.FR, speaker.FC, speaker.BL, speaker.BR, speaker.SL, speaker.SR}
	m, ok := hesuvi14(layout)
	require.True(t, ok)
	require.NoError(t, m.Validate(layout, 14))

	assert.Equal(t, speaker.IndexPair{Left: 0, Right: 7}, m[speaker.FL])
	assert.Equal(t, speaker.IndexPair{Left: 6, Right: 13}, m[speaker.SR])
}

func TestHesuvi14RejectsWrongLayout(t *testing.T) {
	_, ok := hesuvi14(speaker.Layout51())
	assert.False(t, ok)
}

func TestBuiltinMapUnknownChannelCount(t *testing.T) {
	_, ok := builtinMap(3, speaker.StereoLayout())
	assert.False(t, ok)
}
