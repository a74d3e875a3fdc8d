// Package wav provides parsing of RIFF WAV files carrying PCM integer
// or IEEE float audio, the preset file format named by spec.md §6.
//
// The chunk-walking structure mirrors the teacher's internal/aiff
// parser (see pw-convoverb), adjusted for RIFF's little-endian layout
// and its fmt/data chunk pair instead of AIFF's COMM/SSND.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Errors.
var (
	ErrNotWAV            = errors.New("wav: not a RIFF/WAVE file")
	ErrUnsupportedFormat = errors.New("wav: unsupported format")
	ErrInvalidFile       = errors.New("wav: invalid file structure")
	ErrMissingChunk      = errors.New("wav: missing required chunk")
)

// audioFormat tags recognized in the fmt chunk.
const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE
)

// File represents a parsed WAV file, decoded to planar float32 in
// [-1.0, 1.0] (integer PCM) or passed through (float32 source).
type File struct {
	NumChannels   int
	SampleRate    float64
	BitsPerSample int
	NumSamples    int

	// Data is organized as [channel][sample].
	Data [][]float32
}

// Parse reads and decodes a WAV file from r.
func Parse(r io.Reader) (*File, error) {
	var riffHeader [12]byte
	if _, err := io.ReadFull(r, riffHeader[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	if string(riffHeader[0:4]) != "RIFF" {
		return nil, ErrNotWAV
	}
	if string(riffHeader[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	f := &File{}
	var fmtFound, dataFound bool
	var format uint16
	var dataBytes []byte

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}

		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])
		paddedSize := chunkSize
		if paddedSize%2 != 0 {
			paddedSize++
		}

		switch chunkID {
		case "fmt ":
			var err error
			format, err = f.parseFmt(r, chunkSize)
			if err != nil {
				return nil, err
			}
			fmtFound = true
			if chunkSize%2 != 0 {
				_, _ = io.ReadFull(r, make([]byte, 1))
			}

		case "data":
			data := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("%w: reading data chunk: %w", ErrInvalidFile, err)
			}
			dataBytes = data
			dataFound = true
			if chunkSize%2 != 0 {
				_, _ = io.ReadFull(r, make([]byte, 1))
			}

		default:
			if _, err := io.CopyN(io.Discard, r, int64(paddedSize)); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("%w: failed to skip chunk %s: %w", ErrInvalidFile, chunkID, err)
			}
		}
	}

	if !fmtFound {
		return nil, fmt.Errorf("%w: fmt chunk", ErrMissingChunk)
	}
	if !dataFound {
		return nil, fmt.Errorf("%w: data chunk", ErrMissingChunk)
	}

	if err := f.decodeAudio(dataBytes, format); err != nil {
		return nil, err
	}

	return f, nil
}

// parseFmt parses the fmt chunk and returns the audio format tag.
func (f *File) parseFmt(r io.Reader, size uint32) (uint16, error) {
	if size < 16 {
		return 0, fmt.Errorf("%w: fmt chunk too small", ErrInvalidFile)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	format := binary.LittleEndian.Uint16(buf[0:2])
	f.NumChannels = int(binary.LittleEndian.Uint16(buf[2:4]))
	f.SampleRate = float64(binary.LittleEndian.Uint32(buf[4:8]))
	f.BitsPerSample = int(binary.LittleEndian.Uint16(buf[14:16]))

	if format == formatExtensible {
		if size < 40 {
			return 0, fmt.Errorf("%w: WAVE_FORMAT_EXTENSIBLE fmt chunk too small", ErrInvalidFile)
		}
		// Sub-format GUID begins at offset 24; the first two bytes carry
		// the real format tag (PCM or IEEE float).
		format = binary.LittleEndian.Uint16(buf[24:26])
	}

	if format != formatPCM && format != formatIEEEFloat {
		return 0, fmt.Errorf("%w: audio format tag %d", ErrUnsupportedFormat, format)
	}

	if f.NumChannels < 2 {
		return 0, fmt.Errorf("%w: channel count %d, need >= 2", ErrUnsupportedFormat, f.NumChannels)
	}

	switch f.BitsPerSample {
	case 16, 24, 32:
	default:
		return 0, fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, f.BitsPerSample)
	}

	if f.SampleRate <= 0 || f.SampleRate > 384000 {
		return 0, fmt.Errorf("%w: sample rate %v", ErrUnsupportedFormat, f.SampleRate)
	}

	return format, nil
}

// decodeAudio converts raw interleaved PCM/float bytes to planar
// float32 audio data.
func (f *File) decodeAudio(data []byte, format uint16) error {
	bytesPerSample := f.BitsPerSample / 8
	frameSize := bytesPerSample * f.NumChannels
	if frameSize == 0 {
		return fmt.Errorf("%w: zero frame size", ErrInvalidFile)
	}

	numFrames := len(data) / frameSize
	f.NumSamples = numFrames

	f.Data = make([][]float32, f.NumChannels)
	for ch := range f.Data {
		f.Data[ch] = make([]float32, numFrames)
	}

	offset := 0
	for frame := 0; frame < numFrames; frame++ {
		for ch := 0; ch < f.NumChannels; ch++ {
			var sample float32

			switch {
			case format == formatIEEEFloat && f.BitsPerSample == 32:
				bits := binary.LittleEndian.Uint32(data[offset : offset+4])
				sample = math.Float32frombits(bits)
				offset += 4

			case f.BitsPerSample == 16:
				s := int16(binary.LittleEndian.Uint16(data[offset : offset+2]))
				sample = float32(s) / 32768.0
				offset += 2

			case f.BitsPerSample == 24:
				b0, b1, b2 := data[offset], data[offset+1], data[offset+2]
				var s int32
				if b2&0x80 != 0 {
					s = -1<<24 | int32(b0) | int32(b1)<<8 | int32(b2)<<16
				} else {
					s = int32(b0) | int32(b1)<<8 | int32(b2)<<16
				}
				sample = float32(s) / 8388608.0
				offset += 3

			case f.BitsPerSample == 32:
				s := int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
				sample = float32(s) / 2147483648.0
				offset += 4
			}

			f.Data[ch][frame] = sample
		}
	}

	return nil
}
