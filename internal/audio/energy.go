package audio

import "math"

// DefaultSilenceThreshold is the RMS energy below which a capture is treated
// as containing no speech.
const DefaultSilenceThreshold = 500.0

// CalculateRMS computes the root-mean-square energy of PCM16 samples.
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// IsSilence reports whether a captured WAV utterance carries no voice energy.
// Non-WAV or non-PCM16 payloads cannot be judged locally and are never
// classified as silence.
func IsSilence(data []byte, threshold float64) bool {
	format, err := Probe(data)
	if err != nil || !format.IsPCM16() {
		return false
	}
	if threshold <= 0 {
		threshold = DefaultSilenceThreshold
	}
	return CalculateRMS(Samples(data)) < threshold
}
