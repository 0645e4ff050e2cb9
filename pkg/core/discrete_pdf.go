package core

import "sort"

// DiscretePDF is a piecewise-constant distribution over a finite set of
// entries, sampled by inverting its cumulative distribution.
type DiscretePDF struct {
	cdf           []float64
	sum           float64
	normalization float64
	normalized    bool
}

// NewDiscretePDF creates an empty distribution with room for n entries
func NewDiscretePDF(n int) *DiscretePDF {
	cdf := make([]float64, 1, n+1)
	return &DiscretePDF{cdf: cdf}
}

// Append adds an entry with the given (unnormalized) weight
func (d *DiscretePDF) Append(weight float64) {
	if len(d.cdf) == 0 {
		d.cdf = append(d.cdf, 0)
	}
	d.cdf = append(d.cdf, d.cdf[len(d.cdf)-1]+weight)
	d.normalized = false
}

// Len returns the number of entries
func (d *DiscretePDF) Len() int {
	if len(d.cdf) == 0 {
		return 0
	}
	return len(d.cdf) - 1
}

// Normalize scales the CDF to end at 1 and returns the original total weight
func (d *DiscretePDF) Normalize() float64 {
	if d.Len() == 0 {
		return 0
	}
	d.sum = d.cdf[len(d.cdf)-1]
	if d.sum > 0 {
		d.normalization = 1.0 / d.sum
		for i := 1; i < len(d.cdf); i++ {
			d.cdf[i] *= d.normalization
		}
		d.cdf[len(d.cdf)-1] = 1
	} else {
		d.normalization = 0
	}
	d.normalized = true
	return d.sum
}

// Sum returns the total weight captured by the last Normalize call
func (d *DiscretePDF) Sum() float64 {
	return d.sum
}

// Normalization returns 1/Sum (zero for an empty or all-zero distribution)
func (d *DiscretePDF) Normalization() float64 {
	return d.normalization
}

// Prob returns the normalized probability of entry i
func (d *DiscretePDF) Prob(i int) float64 {
	return d.cdf[i+1] - d.cdf[i]
}

// Sample picks an entry with probability proportional to its weight
func (d *DiscretePDF) Sample(u float64) int {
	index, _ := d.SampleReuse(u)
	return index
}

// SampleReuse picks an entry and rescales u so it is again uniform in [0, 1)
// and can drive a further sampling decision.
func (d *DiscretePDF) SampleReuse(u float64) (int, float64) {
	n := d.Len()
	if n == 0 {
		return 0, u
	}
	// first cdf entry strictly greater than u, minus one
	index := sort.Search(len(d.cdf), func(i int) bool { return d.cdf[i] > u }) - 1
	index = max(0, min(n-1, index))

	width := d.cdf[index+1] - d.cdf[index]
	if width <= 0 {
		return index, 0
	}
	return index, (u - d.cdf[index]) / width
}
