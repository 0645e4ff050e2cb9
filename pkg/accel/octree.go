package accel

import (
	"context"
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"golang.org/x/sync/errgroup"
)

// Provider supplies primitive-level geometry to the octree. A triangle mesh is
// the usual provider; tests substitute counting mocks.
type Provider interface {
	PrimitiveCount() int
	PrimitiveBounds(prim int) core.AABB
	// Intersect tests one primitive against the ray and reports the
	// barycentric (u, v) and the distance t, which must lie in [ray.TMin, ray.TMax].
	Intersect(prim int, ray core.Ray) (u, v, t float64, ok bool)
}

// Options control octree subdivision
type Options struct {
	MaxDepth      int // nodes at this depth become leaves
	LeafSize      int // nodes holding fewer primitives become leaves
	ParallelDepth int // child subtrees above this depth are built concurrently
}

// DefaultOptions returns the standard subdivision limits
func DefaultOptions() Options {
	return Options{MaxDepth: 12, LeafSize: 10, ParallelDepth: 2}
}

// Hit is the raw result of a nearest-hit query
type Hit struct {
	Mesh int     // index of the provider that was hit
	Prim int     // primitive index within the provider
	U, V float64 // barycentric coordinates of the hit
	T    float64 // ray parameter of the hit
}

type primRef struct {
	mesh uint32
	prim uint32
}

// node is an arena entry. Internal nodes reference a contiguous range of
// child nodes; leaves reference a contiguous range of primitive refs.
type node struct {
	box        core.AABB
	childStart uint32
	childCount uint32
	primStart  uint32
	primCount  uint32
}

func (n *node) isLeaf() bool {
	return n.childCount == 0
}

// Octree is an octree over the primitives of a set of providers. Primitives
// straddling a split are referenced from every child they overlap.
type Octree struct {
	providers []Provider
	nodes     []node
	refs      []primRef
	bounds    core.AABB
	opts      Options
}

// Build constructs the octree. Sibling subtrees near the root are built in
// parallel; the build stops early if ctx is cancelled.
func Build(ctx context.Context, providers []Provider, opts Options) (*Octree, error) {
	if opts.MaxDepth <= 0 || opts.LeafSize <= 0 {
		opts = DefaultOptions()
	}

	tree := &Octree{providers: providers, opts: opts, bounds: core.EmptyAABB()}

	var refs []primRef
	for m, provider := range providers {
		for p := 0; p < provider.PrimitiveCount(); p++ {
			tree.bounds = tree.bounds.Union(provider.PrimitiveBounds(p))
			refs = append(refs, primRef{mesh: uint32(m), prim: uint32(p)})
		}
	}

	if len(refs) == 0 {
		return tree, nil
	}

	b := &builder{providers: providers, opts: opts}
	root, err := b.build(ctx, tree.bounds, refs, 0)
	if err != nil {
		return nil, err
	}

	tree.nodes = root.nodes
	tree.refs = root.refs
	return tree, nil
}

// subtree is a self-contained arena with its root at index 0
type subtree struct {
	nodes []node
	refs  []primRef
}

type builder struct {
	providers []Provider
	opts      Options
}

func (b *builder) bounds(ref primRef) core.AABB {
	return b.providers[ref.mesh].PrimitiveBounds(int(ref.prim))
}

func (b *builder) leaf(box core.AABB, refs []primRef) subtree {
	owned := make([]primRef, len(refs))
	copy(owned, refs)
	return subtree{
		nodes: []node{{box: box, primCount: uint32(len(refs))}},
		refs:  owned,
	}
}

// build recursively subdivides box, handing every primitive to each octant it overlaps
func (b *builder) build(ctx context.Context, box core.AABB, refs []primRef, depth int) (subtree, error) {
	if err := ctx.Err(); err != nil {
		return subtree{}, err
	}

	if len(refs) < b.opts.LeafSize || depth >= b.opts.MaxDepth {
		return b.leaf(box, refs), nil
	}

	// A flat box has identical lower and upper octants along its flat axes
	size := box.Size()
	flat := 0
	for axis := 0; axis < 3; axis++ {
		if size.Axis(axis) <= 0 {
			flat |= 1 << axis
		}
	}

	var octants [8]core.AABB
	var childRefs [8][]primRef
	progress := false
	for i := range octants {
		octants[i] = box.Octant(i)
		if i&flat != 0 {
			continue
		}
		for _, ref := range refs {
			if b.bounds(ref).Overlaps(octants[i]) {
				childRefs[i] = append(childRefs[i], ref)
			}
		}
		if len(childRefs[i]) < len(refs) {
			progress = true
		}
	}

	// Every primitive overlaps every octant: splitting further only duplicates
	if !progress {
		return b.leaf(box, refs), nil
	}

	var children [8]subtree
	if depth < b.opts.ParallelDepth {
		g, gctx := errgroup.WithContext(ctx)
		for i := range octants {
			if len(childRefs[i]) == 0 {
				continue
			}
			g.Go(func() error {
				child, err := b.build(gctx, octants[i], childRefs[i], depth+1)
				children[i] = child
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return subtree{}, err
		}
	} else {
		for i := range octants {
			if len(childRefs[i]) == 0 {
				continue
			}
			child, err := b.build(ctx, octants[i], childRefs[i], depth+1)
			if err != nil {
				return subtree{}, err
			}
			children[i] = child
		}
	}

	return assemble(box, children[:]), nil
}

// assemble places the non-empty children's roots in one contiguous range right
// after the parent and appends the rest of every child arena behind them.
func assemble(box core.AABB, children []subtree) subtree {
	count, total, totalRefs := 0, 1, 0
	for _, child := range children {
		if len(child.nodes) == 0 {
			continue
		}
		count++
		total += len(child.nodes)
		totalRefs += len(child.refs)
	}

	out := subtree{
		nodes: make([]node, 1+count, total),
		refs:  make([]primRef, 0, totalRefs),
	}
	out.nodes[0] = node{box: box, childStart: 1, childCount: uint32(count)}

	slot := 1
	for _, child := range children {
		if len(child.nodes) == 0 {
			continue
		}
		// child index i > 0 moves to base + i - 1
		base := uint32(len(out.nodes))
		refBase := uint32(len(out.refs))
		relocate := func(n node) node {
			if n.isLeaf() {
				n.primStart += refBase
			} else {
				n.childStart = base + n.childStart - 1
			}
			return n
		}

		out.nodes[slot] = relocate(child.nodes[0])
		for _, n := range child.nodes[1:] {
			out.nodes = append(out.nodes, relocate(n))
		}
		out.refs = append(out.refs, child.refs...)
		slot++
	}
	return out
}

// Bounds returns the bounding box of all primitives
func (o *Octree) Bounds() core.AABB {
	return o.bounds
}

// RayIntersect traverses the tree. For a nearest-hit query it returns the
// closest hit in [ray.TMin, ray.TMax]; for a shadow query it returns as soon
// as any primitive is hit and the Hit record is left empty.
func (o *Octree) RayIntersect(ray core.Ray, shadow bool) (Hit, bool) {
	var hit Hit
	if len(o.nodes) == 0 {
		return hit, false
	}
	q := query{tree: o, ray: ray, shadow: shadow}
	found := q.visit(0)
	if shadow {
		return Hit{}, found
	}
	return q.hit, found
}

type query struct {
	tree   *Octree
	ray    core.Ray
	shadow bool
	found  bool
	hit    Hit
}

type childOrder struct {
	index uint32
	dist  float64
}

func (q *query) visit(index uint32) bool {
	n := &q.tree.nodes[index]
	if !n.box.Hit(q.ray, q.ray.TMin, q.ray.TMax) {
		return false
	}

	if n.isLeaf() {
		hitHere := false
		for _, ref := range q.tree.refs[n.primStart : n.primStart+n.primCount] {
			u, v, t, ok := q.tree.providers[ref.mesh].Intersect(int(ref.prim), q.ray)
			if !ok {
				continue
			}
			if q.shadow {
				return true
			}
			// first-found wins ties
			if q.found && t >= q.ray.TMax {
				continue
			}
			q.ray.TMax = t
			q.hit = Hit{Mesh: int(ref.mesh), Prim: int(ref.prim), U: u, V: v, T: t}
			q.found = true
			hitHere = true
		}
		return hitHere
	}

	// Visit children nearest-first by box distance to the ray origin
	var order [8]childOrder
	count := int(n.childCount)
	for i := 0; i < count; i++ {
		child := n.childStart + uint32(i)
		order[i] = childOrder{index: child, dist: q.tree.nodes[child].box.DistanceSquaredTo(q.ray.Origin)}
		for j := i; j > 0 && order[j].dist < order[j-1].dist; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	hitAny := false
	for _, child := range order[:count] {
		if q.visit(child.index) {
			if q.shadow {
				return true
			}
			hitAny = true
		}
	}
	return hitAny
}

// Stats describes the shape of a built octree
type Stats struct {
	Nodes       int
	Leaves      int
	MaxDepth    int
	AvgDepth    float64
	Primitives  int     // distinct primitives indexed
	References  int     // primitive references stored in leaves
	Duplication float64 // References / Primitives
	MaxLeafSize int
}

// Stats returns statistics about the tree structure
func (o *Octree) Stats() Stats {
	var stats Stats
	for _, provider := range o.providers {
		stats.Primitives += provider.PrimitiveCount()
	}
	if len(o.nodes) == 0 {
		return stats
	}

	o.collectStats(0, 0, &stats)
	if stats.Leaves > 0 {
		stats.AvgDepth /= float64(stats.Leaves)
	}
	if stats.Primitives > 0 {
		stats.Duplication = float64(stats.References) / float64(stats.Primitives)
	}
	return stats
}

func (o *Octree) collectStats(index uint32, depth int, stats *Stats) {
	n := &o.nodes[index]
	stats.Nodes++
	stats.MaxDepth = max(stats.MaxDepth, depth)

	if n.isLeaf() {
		stats.Leaves++
		stats.References += int(n.primCount)
		stats.MaxLeafSize = max(stats.MaxLeafSize, int(n.primCount))
		stats.AvgDepth += float64(depth)
		return
	}
	for i := uint32(0); i < n.childCount; i++ {
		o.collectStats(n.childStart+i, depth+1, stats)
	}
}

// SurfaceAreaHeuristicCost estimates traversal cost relative to brute force,
// using the ratio of node box areas to the root box area. Mostly useful for logging.
func (o *Octree) SurfaceAreaHeuristicCost() float64 {
	if len(o.nodes) == 0 {
		return 0
	}
	rootArea := o.nodes[0].box.SurfaceArea()
	if rootArea <= 0 || math.IsInf(rootArea, 0) {
		return 0
	}
	var cost float64
	for i := range o.nodes {
		n := &o.nodes[i]
		ratio := n.box.SurfaceArea() / rootArea
		if n.isLeaf() {
			cost += ratio * float64(n.primCount)
		} else {
			cost += ratio
		}
	}
	return cost
}
