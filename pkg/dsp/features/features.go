// Package features derives scalar descriptors from magnitude spectra.
package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultRolloff is the energy fraction below the rolloff frequency
const DefaultRolloff = 0.85

// flatnessFloor excludes empty bins from the geometric mean
const flatnessFloor = 1e-10

// Spectral holds the descriptors of one magnitude spectrum (bins DC..Nyquist)
type Spectral struct {
	Centroid  float64 `json:"centroid_hz" yaml:"centroid_hz"`
	Rolloff   float64 `json:"rolloff_hz" yaml:"rolloff_hz"`
	Bandwidth float64 `json:"bandwidth_hz" yaml:"bandwidth_hz"`
	Flatness  float64 `json:"flatness" yaml:"flatness"`
	Crest     float64 `json:"crest" yaml:"crest"`
	Energy    float64 `json:"energy" yaml:"energy"`
}

// BinFrequencies returns the center frequency of each of bins bins for a
// real transform at sampleRate
func BinFrequencies(bins, sampleRate int) []float64 {
	freqs := make([]float64, bins)
	if bins < 2 {
		return freqs
	}
	step := float64(sampleRate) / float64((bins-1)*2)
	for i := range freqs {
		freqs[i] = float64(i) * step
	}
	return freqs
}

// Extract computes the spectral descriptors of magnitudes
func Extract(magnitudes []float32, sampleRate int) Spectral {
	var s Spectral
	if len(magnitudes) == 0 {
		return s
	}

	spectrum := make([]float64, len(magnitudes))
	for i, m := range magnitudes {
		spectrum[i] = float64(m)
	}
	freqs := BinFrequencies(len(spectrum), sampleRate)

	total := floats.Sum(spectrum)
	s.Energy = floats.Dot(spectrum, spectrum)

	if total > 0 {
		s.Centroid = floats.Dot(freqs, spectrum) / total

		var spread float64
		for i, m := range spectrum {
			d := freqs[i] - s.Centroid
			spread += d * d * m
		}
		s.Bandwidth = math.Sqrt(spread / total)
	}

	s.Rolloff = rolloff(spectrum, freqs, s.Energy, DefaultRolloff)
	s.Flatness = flatness(spectrum, total)

	if rms := math.Sqrt(s.Energy / float64(len(spectrum))); rms > 0 {
		s.Crest = floats.Max(spectrum) / rms
	}

	return s
}

// rolloff returns the lowest frequency below which threshold of the energy lies
func rolloff(spectrum, freqs []float64, energy, threshold float64) float64 {
	if energy == 0 {
		return 0
	}

	target := threshold * energy
	var cumulative float64
	for i, m := range spectrum {
		cumulative += m * m
		if cumulative >= target {
			return freqs[i]
		}
	}
	return freqs[len(freqs)-1]
}

// flatness is the geometric over the arithmetic mean (Wiener entropy)
func flatness(spectrum []float64, total float64) float64 {
	if total == 0 {
		return 0
	}

	var logSum float64
	count := 0
	for _, m := range spectrum {
		if m > flatnessFloor {
			logSum += math.Log(m)
			count++
		}
	}
	if count == 0 {
		return 0
	}

	return math.Exp(logSum/float64(count)) / (total / float64(len(spectrum)))
}

// Flux returns the positive spectral change between consecutive rows
func Flux(spectrogram [][]float32) []float64 {
	if len(spectrogram) < 2 {
		return nil
	}

	flux := make([]float64, len(spectrogram)-1)
	for t := 1; t < len(spectrogram); t++ {
		var sum float64
		prev, cur := spectrogram[t-1], spectrogram[t]
		for f := range min(len(prev), len(cur)) {
			if d := float64(cur[f] - prev[f]); d > 0 {
				sum += d * d
			}
		}
		flux[t-1] = math.Sqrt(sum)
	}
	return flux
}

// Mean averages a series of descriptors
func Mean(series []Spectral) Spectral {
	var m Spectral
	if len(series) == 0 {
		return m
	}

	for _, s := range series {
		m.Centroid += s.Centroid
		m.Rolloff += s.Rolloff
		m.Bandwidth += s.Bandwidth
		m.Flatness += s.Flatness
		m.Crest += s.Crest
		m.Energy += s.Energy
	}

	n := float64(len(series))
	m.Centroid /= n
	m.Rolloff /= n
	m.Bandwidth /= n
	m.Flatness /= n
	m.Crest /= n
	m.Energy /= n
	return m
}
