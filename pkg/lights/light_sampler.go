package lights

import (
	"fmt"
	"strings"
)

// Selection strategies accepted by NewLightSampler
const (
	SelectUniform = "uniform"
	SelectPower   = "power"
)

// LightSampler picks one emitter per light-sampling event with fixed
// probabilities that do not depend on the shading point
type LightSampler struct {
	emitters []Emitter
	weights  []float64
}

// NewLightSampler creates a sampler for the given strategy
func NewLightSampler(emitters []Emitter, strategy string, sceneRadius float64) (*LightSampler, error) {
	switch strategy {
	case "", SelectUniform:
		return NewUniformLightSampler(emitters), nil
	case SelectPower:
		weights := make([]float64, len(emitters))
		for i, emitter := range emitters {
			weights[i] = emitter.Power(sceneRadius)
		}
		return NewWeightedLightSampler(emitters, weights)
	default:
		return nil, fmt.Errorf("unknown light selection strategy %q", strategy)
	}
}

// NewWeightedLightSampler creates a light sampler with the given weights.
// Weights are normalized to sum to 1; all-zero weights fall back to uniform.
func NewWeightedLightSampler(emitters []Emitter, weights []float64) (*LightSampler, error) {
	if len(emitters) != len(weights) {
		return nil, fmt.Errorf("%d emitters but %d weights", len(emitters), len(weights))
	}

	totalWeight := 0.0
	for _, weight := range weights {
		if weight < 0 {
			return nil, fmt.Errorf("light weights must be non-negative, got %f", weight)
		}
		totalWeight += weight
	}
	if totalWeight == 0 {
		return NewUniformLightSampler(emitters), nil
	}

	normalizedWeights := make([]float64, len(weights))
	for i, weight := range weights {
		normalizedWeights[i] = weight / totalWeight
	}
	return &LightSampler{emitters: emitters, weights: normalizedWeights}, nil
}

// NewUniformLightSampler gives every emitter the same probability
func NewUniformLightSampler(emitters []Emitter) *LightSampler {
	weights := make([]float64, len(emitters))
	for i := range weights {
		weights[i] = 1.0 / float64(len(emitters))
	}
	return &LightSampler{emitters: emitters, weights: weights}
}

// Sample selects an emitter with u in [0, 1). Returns the emitter, its index
// and its selection probability, or (nil, -1, 0) without emitters.
func (s *LightSampler) Sample(u float64) (Emitter, int, float64) {
	if len(s.emitters) == 0 {
		return nil, -1, 0
	}

	var cumulativeProbability float64
	for i := range s.emitters {
		cumulativeProbability += s.weights[i]
		if u < cumulativeProbability {
			return s.emitters[i], i, s.weights[i]
		}
	}

	// Rounding can leave the cumulative sum just below 1
	last := len(s.emitters) - 1
	return s.emitters[last], last, s.weights[last]
}

// Prob returns the selection probability of the emitter at index
func (s *LightSampler) Prob(index int) float64 {
	if index < 0 || index >= len(s.weights) {
		return 0
	}
	return s.weights[index]
}

// Len returns the number of emitters
func (s *LightSampler) Len() int {
	return len(s.emitters)
}

func (s *LightSampler) String() string {
	if len(s.emitters) == 0 {
		return "LightSampler{no lights}"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "LightSampler{%d lights:\n", len(s.emitters))
	for i, emitter := range s.emitters {
		fmt.Fprintf(&b, "  [%d] %v: %.1f%%\n", i, emitter, s.weights[i]*100)
	}
	b.WriteString("}")
	return b.String()
}
