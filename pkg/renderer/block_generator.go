package renderer

import (
	"fmt"
	"sync"
)

// DefaultBlockSize is the edge length of a square render block in pixels
const DefaultBlockSize = 32

// Block is a rectangular region of the output image
type Block struct {
	X, Y          int // top-left pixel
	Width, Height int
}

func (b Block) String() string {
	return fmt.Sprintf("Block[(%d, %d) %dx%d]", b.X, b.Y, b.Width, b.Height)
}

type direction int

const (
	right direction = iota
	down
	left
	up
)

// BlockGenerator hands out the blocks of an image in a spiral starting at the
// center. It is safe for concurrent use; every block is handed out exactly once.
type BlockGenerator struct {
	mu sync.Mutex

	width, height int
	blockSize     int
	numX, numY    int

	blockX, blockY int
	dir            direction
	numSteps       int
	stepsLeft      int
	blocksLeft     int
}

// NewBlockGenerator creates a generator for an image of the given size
func NewBlockGenerator(width, height, blockSize int) *BlockGenerator {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	numX := (width + blockSize - 1) / blockSize
	numY := (height + blockSize - 1) / blockSize
	return &BlockGenerator{
		width:      width,
		height:     height,
		blockSize:  blockSize,
		numX:       numX,
		numY:       numY,
		blockX:     numX / 2,
		blockY:     numY / 2,
		dir:        right,
		numSteps:   1,
		stepsLeft:  1,
		blocksLeft: numX * numY,
	}
}

// BlockCount returns the total number of blocks
func (g *BlockGenerator) BlockCount() int {
	return g.numX * g.numY
}

// Next returns the next block, or false when all blocks were handed out
func (g *BlockGenerator) Next() (Block, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.blocksLeft == 0 {
		return Block{}, false
	}

	x, y := g.blockX*g.blockSize, g.blockY*g.blockSize
	block := Block{
		X:      x,
		Y:      y,
		Width:  min(g.blockSize, g.width-x),
		Height: min(g.blockSize, g.height-y),
	}

	g.blocksLeft--
	if g.blocksLeft == 0 {
		return block, true
	}

	// Walk the spiral, skipping positions outside the image
	for {
		switch g.dir {
		case right:
			g.blockX++
		case down:
			g.blockY++
		case left:
			g.blockX--
		case up:
			g.blockY--
		}

		g.stepsLeft--
		if g.stepsLeft == 0 {
			g.dir = (g.dir + 1) % 4
			if g.dir == left || g.dir == right {
				g.numSteps++
			}
			g.stepsLeft = g.numSteps
		}

		if g.blockX >= 0 && g.blockY >= 0 && g.blockX < g.numX && g.blockY < g.numY {
			break
		}
	}
	return block, true
}
