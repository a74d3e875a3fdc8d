package wav

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWAV assembles a minimal RIFF/WAVE buffer with one fmt chunk and
// one data chunk, for testing Parse without fixture files.
func buildWAV(numChannels, sampleRate, bitsPerSample, format uint32, data []byte) []byte {
	var buf bytes.Buffer

	fmtChunk := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtChunk[0:2], uint16(format))
	binary.LittleEndian.PutUint16(fmtChunk[2:4], uint16(numChannels))
	binary.LittleEndian.PutUint32(fmtChunk[4:8], sampleRate)
	byteRate := sampleRate * numChannels * (bitsPerSample / 8)
	binary.LittleEndian.PutUint32(fmtChunk[8:12], byteRate)
	blockAlign := uint16(numChannels * (bitsPerSample / 8))
	binary.LittleEndian.PutUint16(fmtChunk[12:14], blockAlign)
	binary.LittleEndian.PutUint16(fmtChunk[14:16], uint16(bitsPerSample))

	riffSize := uint32(4 + 8 + len(fmtChunk) + 8 + len(data))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(fmtChunk)))
	buf.Write(fmtChunk)

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

func TestParsePCM16(t *testing.T) {
	data := make([]byte, 8) // 2 frames, 2 channels, 16-bit
	binary.LittleEndian.PutUint16(data[0:2], uint16(int16(16384)))  // ch0 frame0
	binary.LittleEndian.PutUint16(data[2:4], uint16(int16(-16384))) // ch1 frame0
	binary.LittleEndian.PutUint16(data[4:6], uint16(int16(0)))      // ch0 frame1
	binary.LittleEndian.PutUint16(data[6:8], uint16(int16(32767)))  // ch1 frame1

	raw := buildWAV(2, 48000, 16, formatPCM, data)
	f, err := Parse(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, 2, f.NumChannels)
	assert.Equal(t, 48000.0, f.SampleRate)
	assert.Equal(t, 16, f.BitsPerSample)
	assert.Equal(t, 2, f.NumSamples)
	assert.InDelta(t, 0.5, f.Data[0][0], 1e-4)
	assert.InDelta(t, -0.5, f.Data[1][0], 1e-4)
	assert.InDelta(t, 0.0, f.Data[0][1], 1e-4)
	assert.InDelta(t, 1.0, f.Data[1][1], 1e-4)
}

func TestParseFloat32(t *testing.T) {
	data := make([]byte, 8) // 1 frame, 2 channels, 32-bit float
	binary.LittleEndian.PutUint32(data[0:4], math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(data[4:8], math.Float32bits(-0.75))

	raw := buildWAV(2, 44100, 32, formatIEEEFloat, data)
	f, err := Parse(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.InDelta(t, 0.25, f.Data[0][0], 1e-6)
	assert.InDelta(t, -0.75, f.Data[1][0], 1e-6)
}

func TestParseNotWAV(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("not a wav file at all!!")))
	assert.ErrorIs(t, err, ErrNotWAV)
}

func TestParseMonoRejected(t *testing.T) {
	raw := buildWAV(1, 48000, 16, formatPCM, make([]byte, 4))
	_, err := Parse(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseUnsupportedBitDepth(t *testing.T) {
	raw := buildWAV(2, 48000, 8, formatPCM, make([]byte, 4))
	_, err := Parse(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseMissingDataChunk(t *testing.T) {
	var buf bytes.Buffer
	fmtChunk := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtChunk[0:2], uint16(formatPCM))
	binary.LittleEndian.PutUint16(fmtChunk[2:4], 2)
	binary.LittleEndian.PutUint32(fmtChunk[4:8], 48000)
	binary.LittleEndian.PutUint16(fmtChunk[14:16], 16)

	riffSize := uint32(4 + 8 + len(fmtChunk))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(fmtChunk)))
	buf.Write(fmtChunk)

	_, err := Parse(bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, ErrMissingChunk)
}
