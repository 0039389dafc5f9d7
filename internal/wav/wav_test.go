package wav_test

import (
	"encoding/binary"
	"testing"

	"mindcare/internal/wav"
)

func TestEncodeSilentMono(t *testing.T) {
	const sampleRate = 44100
	samples := [][]float64{make([]float64, sampleRate)} // one second of silence

	data, err := wav.EncodeBytes(wav.Format{Channels: 1, SampleRate: sampleRate}, samples)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}

	wantSize := 44 + sampleRate*2
	if len(data) != wantSize {
		t.Fatalf("file size: want %d, got %d", wantSize, len(data))
	}

	header, err := wav.ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if header.ChunkSize != uint32(36+sampleRate*2) {
		t.Fatalf("ChunkSize: want %d, got %d", 36+sampleRate*2, header.ChunkSize)
	}
	if header.Channels != 1 || header.SampleRate != sampleRate || header.BitDepth != 16 {
		t.Fatalf("unexpected format: %+v", header)
	}
	if header.ByteRate != sampleRate*2 || header.BlockAlign != 2 {
		t.Fatalf("unexpected derived fields: %+v", header)
	}
	if header.DataSize != uint32(sampleRate*2) {
		t.Fatalf("DataSize: want %d, got %d", sampleRate*2, header.DataSize)
	}

	for i := 44; i < len(data); i++ {
		if data[i] != 0 {
			t.Fatalf("silence must encode to zero PCM, byte %d is %#x", i, data[i])
		}
	}
}

func TestQuantizationExtremesAndClamp(t *testing.T) {
	samples := [][]float64{{-1, 1, -2, 2, 0, -0.5}}
	data, err := wav.EncodeBytes(wav.Format{Channels: 1, SampleRate: 8000}, samples)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}

	want := []int16{-32768, 32767, -32768, 32767, 0, -16384}
	for i, expected := range want {
		got := int16(binary.LittleEndian.Uint16(data[44+2*i:]))
		if got != expected {
			t.Fatalf("sample %d: want %d, got %d", i, expected, got)
		}
	}
}

func TestStereoInterleaving(t *testing.T) {
	left := []float64{0.5, 0.5}
	right := []float64{-0.5, -0.5}
	data, err := wav.EncodeBytes(wav.Format{Channels: 2, SampleRate: 8000}, [][]float64{left, right})
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}

	if len(data) != 44+2*2*2 {
		t.Fatalf("file size: want %d, got %d", 44+8, len(data))
	}
	for frame := 0; frame < 2; frame++ {
		l := int16(binary.LittleEndian.Uint16(data[44+4*frame:]))
		r := int16(binary.LittleEndian.Uint16(data[44+4*frame+2:]))
		if l <= 0 || r >= 0 {
			t.Fatalf("frame %d not interleaved left/right: l=%d r=%d", frame, l, r)
		}
	}
}

func TestEncodeRejectsMismatchedChannels(t *testing.T) {
	_, err := wav.EncodeBytes(wav.Format{Channels: 2, SampleRate: 8000}, [][]float64{{0, 0}, {0}})
	if err == nil {
		t.Fatal("expected error for unequal channel lengths")
	}
	_, err = wav.EncodeBytes(wav.Format{Channels: 2, SampleRate: 8000}, [][]float64{{0}})
	if err == nil {
		t.Fatal("expected error for channel count mismatch")
	}
	_, err = wav.EncodeBytes(wav.Format{Channels: 0, SampleRate: 8000}, nil)
	if err == nil {
		t.Fatal("expected error for zero channels")
	}
}

func TestParseHeaderRejectsGarbage(t *testing.T) {
	if _, err := wav.ParseHeader([]byte("short")); err == nil {
		t.Fatal("expected error for truncated input")
	}
	bogus := make([]byte, 44)
	copy(bogus, "RIFX")
	if _, err := wav.ParseHeader(bogus); err == nil {
		t.Fatal("expected error for wrong magic")
	}
}
