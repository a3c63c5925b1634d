package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeDecodeWAV(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.0, -1.0, 2.0, -2.0}

	var buf bytes.Buffer
	if err := EncodeWAV(&buf, samples, 16000); err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}

	rate, pcm, err := DecodeWAV(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if len(pcm) != len(samples)*2 {
		t.Errorf("pcm size = %d, want %d", len(pcm), len(samples)*2)
	}

	// Out-of-range input must clamp, not wrap.
	got := ToInt16(samples)
	if got[5] != 32767 {
		t.Errorf("clamped positive sample = %d, want 32767", got[5])
	}
	if got[6] != -32767 {
		t.Errorf("clamped negative sample = %d, want -32767", got[6])
	}
}

// truncatedFmtWAV builds a file whose fmt chunk header claims 16 bytes
// of content that the file does not contain. Decoding it must fail, not
// read past the end.
func truncatedFmtWAV() []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(38))
	buf.WriteString("WAVE")

	buf.WriteString("junk")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	buf.Write(make([]byte, 16))

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	buf.Write(make([]byte, 2))
	return buf.Bytes()
}

func TestDecodeWAV_Invalid(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"too small", []byte("RIFF")},
		{"not riff", bytes.Repeat([]byte{0}, 64)},
		{"fmt chunk past end of file", truncatedFmtWAV()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := DecodeWAV(tc.data); err == nil {
				t.Error("DecodeWAV() error = nil, want error")
			}
		})
	}
}
