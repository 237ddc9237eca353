package window

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

// WindowTableTestSuite covers the memoizing table and its frozen view
type WindowTableTestSuite struct {
	suite.Suite
	table *Table
}

func (s *WindowTableTestSuite) SetupTest() {
	s.table = NewTable(WithMaxLength(4096))
}

func TestWindowTableTestSuite(t *testing.T) {
	suite.Run(t, new(WindowTableTestSuite))
}

func (s *WindowTableTestSuite) TestGetOrComputeReturnsSameBuffer() {
	spec := Spec{Type: Hann, Length: 8, Symmetry: Periodic}

	first, err := s.table.GetOrCompute(spec)
	s.Require().NoError(err)
	second, err := s.table.GetOrCompute(spec)
	s.Require().NoError(err)

	s.Same(first, second)
	s.Equal(first.Values(), second.Values())
	s.Equal(1, s.table.Len())
}

func (s *WindowTableTestSuite) TestGetOrComputeMatchesReference() {
	expected := map[Type][]float32{
		Hann:           expectedHannWindow8,
		Hamming:        expectedHammingWindow8,
		Blackman:       expectedBlackmanWindow8,
		BlackmanHarris: expectedBlackmanHarrisWindow8,
	}

	for windowType, want := range expected {
		buf, err := s.table.GetOrCompute(Spec{Type: windowType, Length: 8, Symmetry: Periodic})
		s.Require().NoError(err)
		s.Require().Equal(len(want), buf.Len())

		for i := range want {
			s.InDelta(want[i], buf.At(i), coefficientTolerance, "%s coefficient %d", windowType, i)
		}
	}
}

func (s *WindowTableTestSuite) TestDistinctSpecsAreDistinctEntries() {
	periodic, err := s.table.GetOrCompute(Spec{Type: Hann, Length: 8, Symmetry: Periodic})
	s.Require().NoError(err)
	symmetric, err := s.table.GetOrCompute(Spec{Type: Hann, Length: 8, Symmetry: Symmetric})
	s.Require().NoError(err)

	s.NotSame(periodic, symmetric)
	s.Equal(2, s.table.Len())

	for i := range expectedSymmetricHannWindow8 {
		s.InDelta(expectedSymmetricHannWindow8[i], symmetric.At(i), coefficientTolerance)
	}
}

func (s *WindowTableTestSuite) TestSymmetricBuffersAreExactlySymmetric() {
	for _, windowType := range Types() {
		for _, n := range []int{1, 2, 9, 1024, 4096} {
			buf, err := s.table.GetOrCompute(Spec{Type: windowType, Length: n, Symmetry: Symmetric})
			s.Require().NoError(err)
			s.Require().Equal(n, buf.Len())

			for i := range n {
				s.Equal(buf.At(i), buf.At(n-1-i), "%s/%d coefficient %d", windowType, n, i)
			}
		}
	}
}

func (s *WindowTableTestSuite) TestSingleSampleIsOne() {
	for _, windowType := range Types() {
		for _, symmetry := range []Symmetry{Symmetric, Periodic} {
			buf, err := s.table.GetOrCompute(Spec{Type: windowType, Length: 1, Symmetry: symmetry})
			s.Require().NoError(err)
			s.Equal([]float32{1.0}, buf.Values())
		}
	}
}

func (s *WindowTableTestSuite) TestInvalidLength() {
	for _, windowType := range Types() {
		for _, length := range []int{0, -1, 4097} {
			buf, err := s.table.GetOrCompute(Spec{Type: windowType, Length: length, Symmetry: Periodic})
			s.Nil(buf)

			var lengthErr *InvalidLengthError
			s.Require().True(errors.As(err, &lengthErr), "%s/%d: got %v", windowType, length, err)
			s.Equal(length, lengthErr.Length)
			s.Equal(4096, lengthErr.Max)
		}
	}

	s.Equal(0, s.table.Len())
}

func (s *WindowTableTestSuite) TestMaxLengthIsAccepted() {
	buf, err := s.table.GetOrCompute(Spec{Type: BlackmanHarris, Length: 4096, Symmetry: Periodic})
	s.Require().NoError(err)
	s.Equal(4096, buf.Len())
}

func (s *WindowTableTestSuite) TestDefaultMaxLength() {
	table := NewTable()
	s.Equal(DefaultMaxLength, table.MaxLength())

	_, err := table.GetOrCompute(Spec{Type: Hann, Length: DefaultMaxLength + 1})
	var lengthErr *InvalidLengthError
	s.True(errors.As(err, &lengthErr))
}

func (s *WindowTableTestSuite) TestUnsupportedTypePanics() {
	s.Panics(func() {
		_, _ = s.table.GetOrCompute(Spec{Type: Type(200), Length: 8})
	})
	s.Equal(0, s.table.Len())
}

func (s *WindowTableTestSuite) TestPrewarm() {
	specs := []Spec{
		{Type: Hann, Length: 1024, Symmetry: Periodic},
		{Type: Hamming, Length: 512, Symmetry: Periodic},
	}
	s.Require().NoError(s.table.Prewarm(specs...))
	s.Equal(2, s.table.Len())

	err := s.table.Prewarm(Spec{Type: Hann, Length: 0})
	var lengthErr *InvalidLengthError
	s.True(errors.As(err, &lengthErr))
}

func (s *WindowTableTestSuite) TestFreeze() {
	spec := Spec{Type: Hann, Length: 1024, Symmetry: Periodic}
	buf, err := s.table.GetOrCompute(spec)
	s.Require().NoError(err)

	frozen := s.table.Freeze()
	s.True(s.table.Frozen())
	s.Same(frozen, s.table.Freeze())
	s.Equal(1, frozen.Len())

	// Existing specs are still served
	again, err := s.table.GetOrCompute(spec)
	s.Require().NoError(err)
	s.Same(buf, again)

	// New specs are rejected
	_, err = s.table.GetOrCompute(Spec{Type: Blackman, Length: 1024, Symmetry: Periodic})
	s.ErrorIs(err, ErrFrozen)
	s.Equal(1, s.table.Len())

	looked, ok := frozen.Lookup(spec)
	s.True(ok)
	s.Same(buf, looked)
	s.Same(buf, frozen.MustLookup(spec))

	_, ok = frozen.Lookup(Spec{Type: Blackman, Length: 1024, Symmetry: Periodic})
	s.False(ok)
	s.Panics(func() { frozen.MustLookup(Spec{Type: Blackman, Length: 1024}) })
}

func (s *WindowTableTestSuite) TestFrozenSpecsAreOrdered() {
	s.Require().NoError(s.table.Prewarm(
		Spec{Type: BlackmanHarris, Length: 64, Symmetry: Periodic},
		Spec{Type: Hann, Length: 128, Symmetry: Symmetric},
		Spec{Type: Hann, Length: 64, Symmetry: Periodic},
		Spec{Type: Hann, Length: 64, Symmetry: Symmetric},
	))

	s.Equal([]Spec{
		{Type: Hann, Length: 64, Symmetry: Symmetric},
		{Type: Hann, Length: 64, Symmetry: Periodic},
		{Type: Hann, Length: 128, Symmetry: Symmetric},
		{Type: BlackmanHarris, Length: 64, Symmetry: Periodic},
	}, s.table.Freeze().Specs())
}

func (s *WindowTableTestSuite) TestConcurrentFrozenReads() {
	spec := Spec{Type: Hann, Length: 1024, Symmetry: Periodic}
	s.Require().NoError(s.table.Prewarm(spec))
	frozen := s.table.Freeze()

	const readers = 2
	results := make([]*Buffer, readers)
	sums := make([]float64, readers)

	var wg sync.WaitGroup
	for r := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := frozen.MustLookup(spec)
			frame := make([]float32, buf.Len())
			for i := range frame {
				frame[i] = 1
			}
			for range 100 {
				if err := buf.ApplyInPlace(frame); err != nil {
					return
				}
				for i := range frame {
					frame[i] = 1
				}
			}
			sum := 0.0
			for i := range buf.Len() {
				sum += float64(buf.At(i))
			}
			results[r] = buf
			sums[r] = sum
		}()
	}
	wg.Wait()

	s.Same(results[0], results[1])
	s.Equal(sums[0], sums[1])
	s.InDelta(512.0, sums[0], 1e-3)
}

func (s *WindowTableTestSuite) TestConcurrentGetOrComputeComputesOnce() {
	spec := Spec{Type: Blackman, Length: 2048, Symmetry: Periodic}

	const workers = 16
	results := make([]*Buffer, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf, err := s.table.GetOrCompute(spec)
			if err == nil {
				results[w] = buf
			}
		}()
	}
	wg.Wait()

	for _, buf := range results {
		s.Require().NotNil(buf)
		s.Same(results[0], buf)
	}
	s.Equal(1, s.table.Len())
}

func (s *WindowTableTestSuite) TestCachedLookupsDoNotAllocate() {
	spec := Spec{Type: Hann, Length: 1024, Symmetry: Periodic}
	s.Require().NoError(s.table.Prewarm(spec))

	allocs := testing.AllocsPerRun(100, func() {
		_, _ = s.table.GetOrCompute(spec)
	})
	s.Zero(allocs)

	frozen := s.table.Freeze()
	allocs = testing.AllocsPerRun(100, func() {
		_, _ = frozen.Lookup(spec)
	})
	s.Zero(allocs)
}
