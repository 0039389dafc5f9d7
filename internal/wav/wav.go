// Package wav encodes floating-point audio into 16-bit PCM WAV files.
package wav

import (
	"bytes"
	"encoding/binary"
	"io"

	"mindcare/internal/faults"
)

const (
	headerSize    = 44
	bitsPerSample = 16
	formatPCM     = 1
)

// Format describes the PCM layout of an encoded file.
type Format struct {
	Channels   int
	SampleRate int
}

// Encode writes a complete WAV file: a 44-byte RIFF header followed by
// little-endian 16-bit PCM frames. Each element of samples is one channel's
// buffer; all channels must have equal length. Sample values outside [-1, 1]
// are clamped.
func Encode(w io.Writer, format Format, samples [][]float64) error {
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return faults.Validation("formato WAV inválido: %d canales, %d Hz", format.Channels, format.SampleRate)
	}
	if len(samples) != format.Channels {
		return faults.Validation("se esperaban %d canales, llegaron %d", format.Channels, len(samples))
	}
	frames := 0
	if len(samples) > 0 {
		frames = len(samples[0])
	}
	for _, channel := range samples {
		if len(channel) != frames {
			return faults.Validation("los canales tienen longitudes distintas")
		}
	}

	dataSize := frames * format.Channels * (bitsPerSample / 8)
	if err := writeHeader(w, format, dataSize); err != nil {
		return err
	}

	// Interleave: frame by frame, channel by channel.
	var sample [2]byte
	for frame := 0; frame < frames; frame++ {
		for _, channel := range samples {
			binary.LittleEndian.PutUint16(sample[:], uint16(quantize(channel[frame])))
			if _, err := w.Write(sample[:]); err != nil {
				return faults.Wrap(faults.KindStorage, err, "escritura de muestras WAV")
			}
		}
	}
	return nil
}

// EncodeBytes renders the file into memory.
func EncodeBytes(format Format, samples [][]float64) ([]byte, error) {
	frames := 0
	if len(samples) > 0 {
		frames = len(samples[0])
	}
	var buf bytes.Buffer
	buf.Grow(headerSize + frames*len(samples)*(bitsPerSample/8))
	if err := Encode(&buf, format, samples); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// quantize maps a [-1, 1] sample to a signed 16-bit value. The two half
// ranges scale asymmetrically so that -1 and +1 both land on exact PCM
// extremes.
func quantize(value float64) int16 {
	if value < -1 {
		value = -1
	} else if value > 1 {
		value = 1
	}
	if value < 0 {
		return int16(value * 0x8000)
	}
	return int16(value * 0x7FFF)
}

func writeHeader(w io.Writer, format Format, dataSize int) error {
	blockAlign := format.Channels * (bitsPerSample / 8)
	byteRate := format.SampleRate * blockAlign

	header := make([]byte, headerSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(format.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := w.Write(header); err != nil {
		return faults.Wrap(faults.KindStorage, err, "escritura de cabecera WAV")
	}
	return nil
}

// Header is the parsed fixed-size RIFF header of an encoded file.
type Header struct {
	ChunkSize  uint32
	Channels   int
	SampleRate int
	ByteRate   int
	BlockAlign int
	BitDepth   int
	DataSize   uint32
}

// ParseHeader validates and decodes the 44-byte header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, faults.Validation("archivo WAV truncado: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[12:16]) != "fmt " {
		return Header{}, faults.Validation("cabecera WAV inválida")
	}
	if binary.LittleEndian.Uint16(data[20:22]) != formatPCM {
		return Header{}, faults.Validation("formato de audio no soportado (solo PCM)")
	}
	return Header{
		ChunkSize:  binary.LittleEndian.Uint32(data[4:8]),
		Channels:   int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate: int(binary.LittleEndian.Uint32(data[24:28])),
		ByteRate:   int(binary.LittleEndian.Uint32(data[28:32])),
		BlockAlign: int(binary.LittleEndian.Uint16(data[32:34])),
		BitDepth:   int(binary.LittleEndian.Uint16(data[34:36])),
		DataSize:   binary.LittleEndian.Uint32(data[40:44]),
	}, nil
}
