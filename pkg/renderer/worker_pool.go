package renderer

import (
	"context"
	"sync"

	"github.com/df07/go-octree-pathtracer/pkg/film"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
)

// BlockTask is one block to render
type BlockTask struct {
	Block  Block
	TaskID int // submission order
}

// BlockResult reports a rendered block
type BlockResult struct {
	TaskID int
	BlockRenderStats
	Error error
}

// WorkerPool renders blocks in parallel. Every worker owns its own block
// renderer (sampler clone and scratch block); the only shared mutable state
// is the film, which is updated through its locked merge.
type WorkerPool struct {
	taskQueue   chan BlockTask
	resultQueue chan BlockResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual block rendering tasks
type Worker struct {
	ID          int
	renderer    *BlockRenderer
	film        *film.ImageBlock
	taskQueue   chan BlockTask
	resultQueue chan BlockResult
}

// NewWorkerPool creates a worker pool with numWorkers workers that merge into
// target. maxTasks bounds the number of tasks that can be queued without blocking.
func NewWorkerPool(s *scene.Scene, target *film.ImageBlock, numWorkers, sampleCount, blockSize, maxTasks int) *WorkerPool {
	numWorkers = max(numWorkers, 1)

	wp := &WorkerPool{
		taskQueue:   make(chan BlockTask, maxTasks),
		resultQueue: make(chan BlockResult, maxTasks),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			renderer:    NewBlockRenderer(s, sampleCount, blockSize),
			film:        target,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		wp.workers = append(wp.workers, worker)
	}

	return wp
}

// Start begins all workers. Workers skip the remaining tasks once ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(ctx, &wp.wg)
	}
}

// Stop waits for the queued tasks to drain and shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a block task to the worker pool
func (wp *WorkerPool) SubmitTask(task BlockTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed block result
func (wp *WorkerPool) GetResult() (BlockResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		if err := ctx.Err(); err != nil {
			w.resultQueue <- BlockResult{TaskID: task.TaskID, Error: err}
			continue
		}

		// Render into the private block, then merge under the film's lock
		stats := w.renderer.RenderBlock(task.Block)
		w.film.Merge(w.renderer.Block())

		w.resultQueue <- BlockResult{
			TaskID:           task.TaskID,
			BlockRenderStats: stats,
		}
	}
}
