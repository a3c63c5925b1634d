// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     audio
// Description: WAV encoding and decoding (PCM S16LE)
// License:     MIT
// ============================================================================

package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ToInt16 converts float32 samples in [-1, 1] to 16-bit PCM, clamping
// out-of-range values.
func ToInt16(samples []float32) []int16 {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		pcm[i] = int16(s * 32767)
	}
	return pcm
}

// ToFloat32 converts 16-bit PCM to float32 samples in [-1, 1].
func ToFloat32(pcm []int16) []float32 {
	samples := make([]float32, len(pcm))
	for i, s := range pcm {
		samples[i] = float32(s) / 32768.0
	}
	return samples
}

// EncodeWAV writes mono float32 samples as a PCM S16LE WAV stream.
func EncodeWAV(w io.Writer, samples []float32, sampleRate int) error {
	pcm := ToInt16(samples)

	const (
		numChannels   = uint16(1)
		bitsPerSample = uint16(16)
	)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := uint32(len(pcm) * 2)

	// RIFF header
	if _, err := w.Write([]byte("RIFF")); err != nil {
		return err
	}
	binary.Write(w, binary.LittleEndian, uint32(36+dataSize))
	w.Write([]byte("WAVE"))

	// fmt chunk
	w.Write([]byte("fmt "))
	binary.Write(w, binary.LittleEndian, uint32(16))
	binary.Write(w, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(w, binary.LittleEndian, numChannels)
	binary.Write(w, binary.LittleEndian, uint32(sampleRate))
	binary.Write(w, binary.LittleEndian, byteRate)
	binary.Write(w, binary.LittleEndian, blockAlign)
	binary.Write(w, binary.LittleEndian, bitsPerSample)

	// data chunk
	w.Write([]byte("data"))
	binary.Write(w, binary.LittleEndian, dataSize)
	return binary.Write(w, binary.LittleEndian, pcm)
}

// WriteWAVFile writes mono float32 samples to a WAV file.
func WriteWAVFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeWAV(f, samples, sampleRate)
}

// DecodeWAV parses a WAV byte stream and returns the sample rate and the
// raw PCM payload of the data chunk.
func DecodeWAV(data []byte) (sampleRate int, pcm []byte, err error) {
	if len(data) < 44 {
		return 0, nil, fmt.Errorf("file too small to be a valid WAV")
	}
	if string(data[0:4]) != "RIFF" {
		return 0, nil, fmt.Errorf("not a valid RIFF file")
	}
	if string(data[8:12]) != "WAVE" {
		return 0, nil, fmt.Errorf("not a valid WAVE file")
	}

	pos := 12
	var rate uint32
	var dataStart, dataSize int

	for pos < len(data)-8 {
		chunkID := string(data[pos : pos+4])
		chunkSize := binary.LittleEndian.Uint32(data[pos+4 : pos+8])

		switch chunkID {
		case "fmt ":
			// A truncated file can claim a chunk that runs past the end.
			if chunkSize >= 16 && pos+16 <= len(data) {
				rate = binary.LittleEndian.Uint32(data[pos+12 : pos+16])
			}
		case "data":
			dataStart = pos + 8
			dataSize = int(chunkSize)
		}

		pos += 8 + int(chunkSize)
		if pos%2 != 0 {
			pos++ // word alignment
		}
	}

	if rate == 0 || dataStart == 0 {
		return 0, nil, fmt.Errorf("missing required WAV chunks")
	}
	if dataStart+dataSize > len(data) {
		dataSize = len(data) - dataStart
	}

	return int(rate), data[dataStart : dataStart+dataSize], nil
}
