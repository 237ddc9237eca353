package window

// Generated by `spectro gen-reference --length 8 --symmetry periodic`.

var expectedHannWindow8 = []float32{
	0.0000000, 0.1464466, 0.5000000, 0.8535534,
	1.0000000, 0.8535534, 0.5000000, 0.1464466,
}

var expectedHammingWindow8 = []float32{
	0.0800000, 0.2147309, 0.5400000, 0.8652691,
	1.0000000, 0.8652691, 0.5400000, 0.2147309,
}

var expectedBlackmanWindow8 = []float32{
	-0.0000000, 0.0664466, 0.3400000, 0.7735534,
	1.0000000, 0.7735534, 0.3400000, 0.0664466,
}

var expectedBlackmanHarrisWindow8 = []float32{
	0.0000600, 0.0217358, 0.2174700, 0.6957642,
	1.0000000, 0.6957642, 0.2174700, 0.0217358,
}

// Symmetric Hann of length 8.
var expectedSymmetricHannWindow8 = []float32{
	0.0000000, 0.1882551, 0.6112605, 0.9504844,
	0.9504844, 0.6112605, 0.1882551, 0.0000000,
}
