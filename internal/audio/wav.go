// Package audio provides light inspection of captured utterances before they
// are shipped to the speech backend.
package audio

import (
	"encoding/binary"
	"fmt"
)

// Standard PCM WAV header is 44 bytes
const wavHeaderSize = 44

// Format describes the encoding of a WAV payload.
type Format struct {
	AudioFormat   uint16 // 1 = PCM
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// IsPCM16 reports whether the payload is 16-bit PCM.
func (f *Format) IsPCM16() bool {
	return f.AudioFormat == 1 && f.BitsPerSample == 16
}

// Probe validates a RIFF/WAVE header and extracts the audio format.
func Probe(data []byte) (*Format, error) {
	if len(data) < wavHeaderSize {
		return nil, fmt.Errorf("audio too short for a WAV header: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a WAV container")
	}

	return &Format{
		AudioFormat:   binary.LittleEndian.Uint16(data[20:22]),
		Channels:      binary.LittleEndian.Uint16(data[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(data[24:28]),
		BitsPerSample: binary.LittleEndian.Uint16(data[34:36]),
	}, nil
}

// Samples decodes the PCM16 little-endian payload following the header.
func Samples(data []byte) []int16 {
	if len(data) <= wavHeaderSize {
		return nil
	}
	payload := data[wavHeaderSize:]
	samples := make([]int16, len(payload)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[2*i : 2*i+2]))
	}
	return samples
}
