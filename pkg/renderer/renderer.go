package renderer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/df07/go-octree-pathtracer/pkg/film"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
	"go.uber.org/zap"
)

// Options control a render
type Options struct {
	Workers     int // parallel workers (0 = use CPU count)
	BlockSize   int // block edge length in pixels (0 = DefaultBlockSize)
	SampleCount int // samples per pixel (0 = the scene sampler's count)
}

// DefaultOptions returns sensible default values
func DefaultOptions() Options {
	return Options{BlockSize: DefaultBlockSize}
}

// Progress is reported after every completed block
type Progress struct {
	Block     Block
	Completed int
	Total     int
	Elapsed   time.Duration
}

// Fraction returns the completed share of the image in [0, 1]
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}

// Renderer renders an activated scene block by block on a worker pool
type Renderer struct {
	scene    *scene.Scene
	opts     Options
	logger   *zap.Logger
	progress func(Progress)
}

// New creates a renderer for s. A nil logger discards all output.
func New(s *scene.Scene, opts Options, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	return &Renderer{scene: s, opts: opts, logger: logger}
}

// OnProgress registers a callback invoked from the render goroutine after
// every completed block
func (r *Renderer) OnProgress(callback func(Progress)) {
	r.progress = callback
}

// Render renders the whole image and returns the normalized radiance bitmap.
// Cancelling ctx stops the render between blocks; no bitmap is returned then.
func (r *Renderer) Render(ctx context.Context) (*film.Bitmap, *RenderStats, error) {
	if !r.scene.IsActivated() {
		return nil, nil, scene.ErrNotActivated
	}

	camera := r.scene.Camera()
	width, height := camera.OutputSize()
	sampleCount := r.opts.SampleCount
	if sampleCount <= 0 {
		sampleCount = r.scene.Sampler().SampleCount()
	}

	stats := &RenderStats{
		Width:           width,
		Height:          height,
		Workers:         r.opts.Workers,
		BlockSize:       r.opts.BlockSize,
		SamplesPerPixel: sampleCount,
	}

	target := film.NewImageBlock(width, height, camera.Filter())
	generator := NewBlockGenerator(width, height, r.opts.BlockSize)
	total := generator.BlockCount()

	r.logger.Info("Rendering",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("block_size", r.opts.BlockSize),
		zap.Int("blocks", total),
		zap.Int("workers", r.opts.Workers),
		zap.Int("spp", sampleCount),
		zap.String("integrator", fmt.Sprint(r.scene.Integrator())),
	)

	start := time.Now()
	pool := NewWorkerPool(r.scene, target, r.opts.Workers, sampleCount, r.opts.BlockSize, total)
	pool.Start(ctx)

	// Submit every block in spiral order; the queue holds all of them
	for taskID := 0; ; taskID++ {
		block, ok := generator.Next()
		if !ok {
			break
		}
		pool.SubmitTask(BlockTask{Block: block, TaskID: taskID})
	}

	var renderErr error
	for completed := 0; completed < total; completed++ {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			renderErr = result.Error
			continue
		}

		stats.addBlock(result)
		r.logger.Debug("Block done",
			zap.Stringer("block", result.Block),
			zap.Duration("elapsed", result.Elapsed),
			zap.Int("invalid_samples", result.InvalidSamples),
		)
		if r.progress != nil {
			r.progress(Progress{
				Block:     result.Block,
				Completed: stats.Blocks,
				Total:     total,
				Elapsed:   time.Since(start),
			})
		}
	}
	pool.Stop()
	stats.Elapsed = time.Since(start)

	if renderErr != nil {
		r.logger.Warn("Render cancelled", zap.Int("blocks_done", stats.Blocks), zap.Int("blocks", total))
		return nil, stats, renderErr
	}
	if stats.InvalidSamples > 0 {
		r.logger.Debug("Invalid samples were zeroed", zap.Int("count", stats.InvalidSamples))
	}

	r.logger.Info("Render complete",
		zap.Duration("elapsed", stats.Elapsed),
		zap.Int("samples", stats.TotalSamples),
		zap.Float64("samples_per_second", stats.SamplesPerSecond()),
	)
	return target.ToBitmap(), stats, nil
}
