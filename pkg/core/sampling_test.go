package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestSquareToCosineHemisphere(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	// Estimate E[cos] under the cosine density: integral of cos^2/pi over the hemisphere = 2/3
	const n = 200000
	var sum float64
	for i := 0; i < n; i++ {
		v := SquareToCosineHemisphere(NewVec2(random.Float64(), random.Float64()))
		if math.Abs(v.Length()-1) > 1e-9 {
			t.Fatalf("Direction not normalized: %v", v)
		}
		if v.Z < 0 {
			t.Fatalf("Direction below hemisphere: %v", v)
		}
		sum += v.Z
	}

	mean := sum / n
	if math.Abs(mean-2.0/3.0) > 0.01 {
		t.Errorf("Expected mean cosine 2/3, got %f", mean)
	}
}

func TestSquareToCosineHemispherePDF(t *testing.T) {
	if pdf := SquareToCosineHemispherePDF(NewVec3(0, 0, 1)); math.Abs(pdf-1/math.Pi) > 1e-12 {
		t.Errorf("Expected 1/pi at the pole, got %f", pdf)
	}
	if pdf := SquareToCosineHemispherePDF(NewVec3(0, 0, -1)); pdf != 0 {
		t.Errorf("Expected 0 below the horizon, got %f", pdf)
	}
}

func TestSquareToUniformTriangle(t *testing.T) {
	random := rand.New(rand.NewSource(7))

	// Centroid of uniformly distributed barycentrics is (1/3, 1/3, 1/3)
	const n = 100000
	var sumU, sumV float64
	for i := 0; i < n; i++ {
		b := SquareToUniformTriangle(NewVec2(random.Float64(), random.Float64()))
		if b.X < 0 || b.Y < 0 || b.X+b.Y > 1+1e-12 {
			t.Fatalf("Barycentric outside triangle: %v", b)
		}
		sumU += b.X
		sumV += b.Y
	}

	if math.Abs(sumU/n-1.0/3.0) > 0.01 || math.Abs(sumV/n-1.0/3.0) > 0.01 {
		t.Errorf("Expected centroid (1/3, 1/3), got (%f, %f)", sumU/n, sumV/n)
	}
}

func TestSquareToBeckmannPDFIntegratesToOne(t *testing.T) {
	// The Beckmann density is normalized over the projected hemisphere,
	// so integrating it over the hemisphere with uniform sampling gives 1.
	random := rand.New(rand.NewSource(11))
	const n = 400000
	for _, alpha := range []float64{0.2, 0.5} {
		var sum float64
		for i := 0; i < n; i++ {
			v := SquareToUniformSphere(NewVec2(random.Float64(), random.Float64()))
			if v.Z < 0 {
				v.Z = -v.Z
			}
			// uniform hemisphere pdf is 1/(2pi)
			sum += SquareToBeckmannPDF(v, alpha) * 2 * math.Pi
		}
		if integral := sum / n; math.Abs(integral-1) > 0.05 {
			t.Errorf("alpha=%f: Beckmann pdf integrates to %f, want 1", alpha, integral)
		}
	}
}

func TestSquareToUniformDisk(t *testing.T) {
	random := rand.New(rand.NewSource(3))
	for i := 0; i < 10000; i++ {
		p := SquareToUniformDisk(NewVec2(random.Float64(), random.Float64()))
		if p.X*p.X+p.Y*p.Y > 1+1e-12 {
			t.Fatalf("Point outside unit disk: %v", p)
		}
	}
}

func TestPowerHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		nf       int
		fPdf     float64
		ng       int
		gPdf     float64
		expected float64
	}{
		{"Equal PDFs", 1, 0.5, 1, 0.5, 0.5},
		{"First PDF zero", 1, 0.0, 1, 0.5, 0.0},
		{"Second PDF zero", 1, 0.5, 1, 0.0, 1.0},
		{"First PDF higher", 1, 0.8, 1, 0.2, 0.941176}, // (0.8²) / (0.8² + 0.2²)
		{"Both zero", 1, 0, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PowerHeuristic(tt.nf, tt.fPdf, tt.ng, tt.gPdf)
			if math.Abs(result-tt.expected) > 1e-5 {
				t.Errorf("PowerHeuristic: got %f, expected %f", result, tt.expected)
			}
		})
	}
}

func TestBalanceHeuristicWeightsSumToOne(t *testing.T) {
	random := rand.New(rand.NewSource(5))
	for i := 0; i < 1000; i++ {
		p1 := random.Float64()*10 + 1e-6
		p2 := random.Float64()*10 + 1e-6
		w1 := BalanceHeuristic(p1, p2)
		w2 := BalanceHeuristic(p2, p1)
		if math.Abs(w1+w2-1) > 1e-12 {
			t.Fatalf("Weights for pdfs (%f, %f) sum to %f", p1, p2, w1+w2)
		}
		if math.Abs(w1-p1/(p1+p2)) > 1e-12 {
			t.Fatalf("Balance weight %f != %f", w1, p1/(p1+p2))
		}
	}
}
