package renderer

import (
	"time"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/film"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
)

// BlockRenderStats describes the work done for one block
type BlockRenderStats struct {
	Block          Block
	Samples        int
	InvalidSamples int
	Elapsed        time.Duration
}

// BlockRenderer renders image blocks with the scene's camera and integrator.
// It owns a sampler clone and a scratch block and is used by one goroutine.
type BlockRenderer struct {
	scene       *scene.Scene
	sampler     core.BlockSampler
	block       *film.ImageBlock
	sampleCount int
}

// NewBlockRenderer creates a renderer taking sampleCount samples per pixel
func NewBlockRenderer(s *scene.Scene, sampleCount, blockSize int) *BlockRenderer {
	return &BlockRenderer{
		scene:       s,
		sampler:     s.Sampler().Clone(),
		block:       film.NewImageBlock(blockSize, blockSize, s.Camera().Filter()),
		sampleCount: sampleCount,
	}
}

// Block returns the scratch block holding the last rendered block
func (br *BlockRenderer) Block() *film.ImageBlock {
	return br.block
}

// RenderBlock clears the scratch block and fills it with sampleCount samples
// for every pixel of b. The sampler is re-seeded from the block position, so
// the result does not depend on which worker renders the block.
func (br *BlockRenderer) RenderBlock(b Block) BlockRenderStats {
	start := time.Now()
	camera := br.scene.Camera()
	integrator := br.scene.Integrator()

	br.block.SetOffset(b.X, b.Y)
	br.block.Resize(b.Width, b.Height)
	br.sampler.Prepare(b.X, b.Y)

	stats := BlockRenderStats{Block: b}
	for y := b.Y; y < b.Y+b.Height; y++ {
		for x := b.X; x < b.X+b.Width; x++ {
			for i := 0; i < br.sampleCount; i++ {
				pixel := core.NewVec2(float64(x), float64(y)).Add(br.sampler.Get2D())
				ray, weight := camera.SampleRay(pixel, br.sampler.Get2D())
				value := integrator.Li(br.scene, br.sampler, ray).MultiplyVec(weight)

				// Numeric failures inside a path are absorbed here
				if !value.IsValid() {
					stats.InvalidSamples++
					value = core.Vec3{}
				}
				br.block.Put(pixel, value)
				stats.Samples++
			}
		}
	}

	stats.Elapsed = time.Since(start)
	return stats
}
