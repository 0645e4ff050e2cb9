package sampler

import (
	"fmt"
	"math/rand/v2"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/registry"
)

// Independent produces uncorrelated uniform samples from a PCG stream.
// Every image block re-seeds the stream from its pixel offset, so the samples
// a block receives do not depend on which worker renders it or when.
type Independent struct {
	sampleCount int
	seed        uint64
	random      *rand.Rand
}

// NewIndependent creates a sampler that takes sampleCount samples per pixel
func NewIndependent(sampleCount int) *Independent {
	s := &Independent{sampleCount: max(sampleCount, 1)}
	s.Prepare(0, 0)
	return s
}

// WithSeed mixes a scene-wide seed into every block stream
func (s *Independent) WithSeed(seed uint64) *Independent {
	s.seed = seed
	s.Prepare(0, 0)
	return s
}

// Clone returns an independent copy; the clone shares no state with s
func (s *Independent) Clone() core.BlockSampler {
	clone := &Independent{sampleCount: s.sampleCount, seed: s.seed}
	clone.Prepare(0, 0)
	return clone
}

// Prepare re-seeds the stream for the block whose top-left pixel is (offsetX, offsetY)
func (s *Independent) Prepare(offsetX, offsetY int) {
	s.random = rand.New(rand.NewPCG(uint64(offsetX)^s.seed, uint64(offsetY)))
}

// Get1D returns a uniform value in [0, 1)
func (s *Independent) Get1D() float64 {
	return s.random.Float64()
}

// Get2D returns two uniform values in [0, 1)
func (s *Independent) Get2D() core.Vec2 {
	return core.NewVec2(s.random.Float64(), s.random.Float64())
}

// SampleCount returns the number of samples per pixel
func (s *Independent) SampleCount() int {
	return s.sampleCount
}

// SetSampleCount overrides the samples per pixel (used by the --spp flag)
func (s *Independent) SetSampleCount(count int) {
	s.sampleCount = max(count, 1)
}

func (s *Independent) String() string {
	return fmt.Sprintf("Independent[sampleCount=%d]", s.sampleCount)
}

// Register adds the built-in samplers to r
func Register(r *registry.Registry[core.BlockSampler]) {
	r.Register("independent", func(props *core.Properties) (core.BlockSampler, error) {
		count := props.Int("sampleCount", 1)
		seed := props.Int("seed", 0)
		if err := props.Err(); err != nil {
			return nil, err
		}
		if count <= 0 {
			return nil, fmt.Errorf("sampleCount must be positive, got %d", count)
		}
		return NewIndependent(count).WithSeed(uint64(seed)), nil
	})
}
