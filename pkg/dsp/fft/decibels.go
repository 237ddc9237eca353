package fft

import "math"

// MinimumDecibels is returned for zero or negative magnitudes
const MinimumDecibels float32 = -1000.0

// MagnitudeToDecibels converts a magnitude to 20*log10(m)
func MagnitudeToDecibels(magnitude float32) float32 {
	if magnitude <= 0 {
		return MinimumDecibels
	}
	return float32(20 * math.Log10(float64(magnitude)))
}

// ClampDecibels limits db to the [floor, ceiling] aperture
func ClampDecibels(db, floor, ceiling float32) float32 {
	return min(max(db, floor), ceiling)
}
