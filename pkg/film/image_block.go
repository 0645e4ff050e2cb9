package film

import (
	"fmt"
	"math"
	"sync"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// Pixel accumulates filter-weighted radiance and the total filter weight
type Pixel struct {
	Color  core.Vec3
	Weight float64
}

// ImageBlock is a rectangular piece of the image plus a border wide enough to
// hold the filter footprint of samples near its edge. Workers fill private
// blocks with Put; the shared output block receives them through Merge.
type ImageBlock struct {
	offsetX, offsetY int
	width, height    int
	border           int
	pixels           []Pixel

	radius       float64
	table        [FilterResolution + 1]float64
	lookupFactor float64

	// scratch weights for one Put call
	weightsX, weightsY []float64

	mu sync.Mutex
}

// NewImageBlock allocates a cleared block of width x height pixels for filter f
func NewImageBlock(width, height int, f Filter) *ImageBlock {
	if f == nil {
		f = DefaultFilter()
	}
	b := &ImageBlock{
		radius:       f.Radius(),
		table:        rasterize(f),
		lookupFactor: FilterResolution / f.Radius(),
		border:       int(math.Ceil(f.Radius() - 0.5)),
	}
	size := int(math.Ceil(2*f.Radius())) + 1
	b.weightsX = make([]float64, size)
	b.weightsY = make([]float64, size)
	b.Resize(width, height)
	return b
}

// Resize changes the block size and clears it. Storage is reused when it is
// large enough, so a worker can keep one block for every image block it renders.
func (b *ImageBlock) Resize(width, height int) {
	b.width, b.height = width, height
	n := (width + 2*b.border) * (height + 2*b.border)
	if cap(b.pixels) >= n {
		b.pixels = b.pixels[:n]
	} else {
		b.pixels = make([]Pixel, n)
	}
	b.Clear()
}

// SetOffset places the block's top-left pixel at (x, y) in the image
func (b *ImageBlock) SetOffset(x, y int) {
	b.offsetX, b.offsetY = x, y
}

// Offset returns the image position of the block's top-left pixel
func (b *ImageBlock) Offset() (int, int) {
	return b.offsetX, b.offsetY
}

// Size returns the block size without the border
func (b *ImageBlock) Size() (int, int) {
	return b.width, b.height
}

// Border returns the border width in pixels
func (b *ImageBlock) Border() int {
	return b.border
}

// Clear zeroes all pixels including the border
func (b *ImageBlock) Clear() {
	clear(b.pixels)
}

func (b *ImageBlock) stride() int {
	return b.width + 2*b.border
}

// At returns the accumulated pixel at block coordinates (x, y), where (0, 0)
// is the top-left pixel inside the border
func (b *ImageBlock) At(x, y int) Pixel {
	return b.pixels[(y+b.border)*b.stride()+x+b.border]
}

// Put splats a radiance sample taken at image position pos (in pixels) into
// every pixel within the filter radius. Invalid samples are rejected and
// reported by returning false.
func (b *ImageBlock) Put(pos core.Vec2, value core.Vec3) bool {
	if !value.IsValid() {
		return false
	}

	// Position in the block's storage, pixel centers at integer coordinates
	px := pos.X - 0.5 - float64(b.offsetX-b.border)
	py := pos.Y - 0.5 - float64(b.offsetY-b.border)

	minX := max(int(math.Ceil(px-b.radius)), 0)
	minY := max(int(math.Ceil(py-b.radius)), 0)
	maxX := min(int(math.Floor(px+b.radius)), b.width+2*b.border-1)
	maxY := min(int(math.Floor(py+b.radius)), b.height+2*b.border-1)
	if minX > maxX || minY > maxY {
		return true
	}

	for x, i := minX, 0; x <= maxX; x, i = x+1, i+1 {
		b.weightsX[i] = b.table[int(math.Abs(float64(x)-px)*b.lookupFactor)]
	}
	for y, i := minY, 0; y <= maxY; y, i = y+1, i+1 {
		b.weightsY[i] = b.table[int(math.Abs(float64(y)-py)*b.lookupFactor)]
	}

	stride := b.stride()
	for y, yi := minY, 0; y <= maxY; y, yi = y+1, yi+1 {
		row := b.pixels[y*stride : (y+1)*stride]
		for x, xi := minX, 0; x <= maxX; x, xi = x+1, xi+1 {
			weight := b.weightsX[xi] * b.weightsY[yi]
			row[x].Color = row[x].Color.Add(value.Multiply(weight))
			row[x].Weight += weight
		}
	}
	return true
}

// Merge adds another block, border included, into this one. Merge is safe for
// concurrent use; additions commute, so the merge order does not matter.
func (b *ImageBlock) Merge(other *ImageBlock) {
	dx := other.offsetX - b.offsetX + b.border - other.border
	dy := other.offsetY - b.offsetY + b.border - other.border
	ow, oh := other.width+2*other.border, other.height+2*other.border

	b.mu.Lock()
	defer b.mu.Unlock()

	stride := b.stride()
	rows := b.height + 2*b.border
	for y := 0; y < oh; y++ {
		ty := y + dy
		if ty < 0 || ty >= rows {
			continue
		}
		for x := 0; x < ow; x++ {
			tx := x + dx
			if tx < 0 || tx >= stride {
				continue
			}
			src := other.pixels[y*ow+x]
			dst := &b.pixels[ty*stride+tx]
			dst.Color = dst.Color.Add(src.Color)
			dst.Weight += src.Weight
		}
	}
}

// ToBitmap normalizes every pixel inside the border by its filter weight
func (b *ImageBlock) ToBitmap() *Bitmap {
	b.mu.Lock()
	defer b.mu.Unlock()

	bitmap := NewBitmap(b.width, b.height)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			p := b.pixels[(y+b.border)*b.stride()+x+b.border]
			if p.Weight > 0 {
				bitmap.Set(x, y, p.Color.Divide(p.Weight))
			}
		}
	}
	return bitmap
}

func (b *ImageBlock) String() string {
	return fmt.Sprintf("ImageBlock[offset=(%d, %d), size=%dx%d, border=%d]",
		b.offsetX, b.offsetY, b.width, b.height, b.border)
}
