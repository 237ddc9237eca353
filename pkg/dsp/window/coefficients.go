package window

import (
	"fmt"
	"math"
)

// cosineTerms holds the generalized cosine-sum weights for each window type.
// w[i] = a0 - a1*cos(x) + a2*cos(2x) - a3*cos(3x), x = 2*pi*i/(M-1)
var cosineTerms = [...][]float64{
	Hann:           {0.5, 0.5},
	Hamming:        {0.54, 0.46},
	Blackman:       {0.42, 0.5, 0.08},
	BlackmanHarris: {0.35875, 0.48829, 0.14128, 0.01168},
}

// Compute generates the double precision coefficients for spec without caching.
// Lengths below 1 fail with InvalidLengthError; an unknown type panics.
func Compute(spec Spec) ([]float64, error) {
	if spec.Length < 1 {
		return nil, &InvalidLengthError{Length: spec.Length}
	}
	if !spec.Type.valid() {
		panic(&UnsupportedWindowTypeError{Type: spec.Type})
	}

	n := spec.Length
	coefficients := make([]float64, n)

	// Degenerate window, (M-1) would be zero for the symmetric form
	if n == 1 {
		coefficients[0] = 1.0
		return coefficients, nil
	}

	terms := cosineTerms[spec.Type]

	switch spec.Symmetry {
	case Symmetric:
		denominator := float64(n - 1)
		for i := range (n + 1) / 2 {
			v := cosineSum(terms, float64(i), denominator)
			coefficients[i] = v
			coefficients[n-1-i] = v
		}

	case Periodic:
		// Symmetric window of length N+1 with the last sample dropped
		denominator := float64(n)
		for i := range n {
			coefficients[i] = cosineSum(terms, float64(i), denominator)
		}

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSymmetry, uint8(spec.Symmetry))
	}

	return coefficients, nil
}

func cosineSum(terms []float64, i, denominator float64) float64 {
	x := 2 * math.Pi * i / denominator
	sum := 0.0
	sign := 1.0
	for k, a := range terms {
		sum += sign * a * math.Cos(float64(k)*x)
		sign = -sign
	}
	return sum
}
