package accel

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
)

// countingProvider wraps a provider and records every primitive test
type countingProvider struct {
	Provider
	calls int
	hits  int
}

func (c *countingProvider) Intersect(prim int, ray core.Ray) (float64, float64, float64, bool) {
	c.calls++
	u, v, t, ok := c.Provider.Intersect(prim, ray)
	if ok {
		c.hits++
	}
	return u, v, t, ok
}

func randomTriangles(random *rand.Rand, n int, extent, size float64) *geometry.Mesh {
	positions := make([]core.Vec3, 0, 3*n)
	indices := make([]uint32, 0, 3*n)
	randomPoint := func(scale float64) core.Vec3 {
		return core.NewVec3(random.Float64()-0.5, random.Float64()-0.5, random.Float64()-0.5).Multiply(scale)
	}
	for i := 0; i < n; i++ {
		center := randomPoint(extent)
		for k := 0; k < 3; k++ {
			positions = append(positions, center.Add(randomPoint(size)))
			indices = append(indices, uint32(3*i+k))
		}
	}
	return geometry.NewMesh("random", positions, indices)
}

func bruteForce(providers []Provider, ray core.Ray) (Hit, bool) {
	var best Hit
	found := false
	for m, provider := range providers {
		for p := 0; p < provider.PrimitiveCount(); p++ {
			u, v, t, ok := provider.Intersect(p, ray)
			if ok {
				ray.TMax = t
				best = Hit{Mesh: m, Prim: p, U: u, V: v, T: t}
				found = true
			}
		}
	}
	return best, found
}

func TestOctree_Empty(t *testing.T) {
	tree, err := Build(context.Background(), nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1))
	if _, ok := tree.RayIntersect(ray, false); ok {
		t.Error("Empty tree should never report a hit")
	}
	if _, ok := tree.RayIntersect(ray, true); ok {
		t.Error("Empty tree should never report an occlusion")
	}
	if stats := tree.Stats(); stats.Nodes != 0 || stats.Primitives != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
}

func TestOctree_SingleTriangle(t *testing.T) {
	mesh := geometry.NewMesh("triangle", []core.Vec3{
		core.NewVec3(-1, -1, 5),
		core.NewVec3(1, -1, 5),
		core.NewVec3(0, 1, 5),
	}, []uint32{0, 1, 2})

	tree, err := Build(context.Background(), []Provider{mesh}, DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	hit, ok := tree.RayIntersect(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1)), false)
	if !ok {
		t.Fatal("Expected a hit")
	}
	if math.Abs(hit.T-5) > 1e-9 {
		t.Errorf("Expected t=5, got %f", hit.T)
	}
	if hit.Mesh != 0 || hit.Prim != 0 {
		t.Errorf("Unexpected hit record %+v", hit)
	}
	if b0 := 1 - hit.U - hit.V; b0 < 0 || hit.U < 0 || hit.V < 0 {
		t.Errorf("Barycentrics outside the triangle: (%f, %f, %f)", b0, hit.U, hit.V)
	}

	tests := []struct {
		name string
		ray  core.Ray
	}{
		{"Pointing away", core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))},
		{"Passing beside", core.NewRay(core.NewVec3(3, 0, 0), core.NewVec3(0, 0, 1))},
		{"Segment too short", core.NewRaySegment(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1), core.Epsilon, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := tree.RayIntersect(tt.ray, false); ok {
				t.Error("Expected a miss")
			}
			if _, ok := tree.RayIntersect(tt.ray, true); ok {
				t.Error("Expected no occlusion")
			}
		})
	}
}

func TestOctree_MatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	providers := []Provider{
		randomTriangles(random, 600, 10, 1),
		randomTriangles(random, 400, 6, 2),
	}

	tree, err := Build(context.Background(), providers, DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	hits := 0
	for i := 0; i < 2000; i++ {
		origin := core.NewVec3(random.Float64()-0.5, random.Float64()-0.5, random.Float64()-0.5).Multiply(14)
		direction := core.SquareToUniformSphere(core.NewVec2(random.Float64(), random.Float64()))
		ray := core.NewRay(origin, direction)

		want, wantOK := bruteForce(providers, ray)
		got, gotOK := tree.RayIntersect(ray, false)
		if gotOK != wantOK {
			t.Fatalf("Ray %d: octree hit=%v, brute force hit=%v", i, gotOK, wantOK)
		}
		if _, occluded := tree.RayIntersect(ray, true); occluded != wantOK {
			t.Fatalf("Ray %d: shadow query=%v, brute force hit=%v", i, occluded, wantOK)
		}
		if !wantOK {
			continue
		}
		hits++
		if math.Abs(got.T-want.T) > 1e-9 {
			t.Fatalf("Ray %d: octree t=%f, brute force t=%f", i, got.T, want.T)
		}
	}

	if hits == 0 {
		t.Fatal("Test setup produced no hits")
	}
}

func TestOctree_ShadowStopsAtFirstHit(t *testing.T) {
	// A stack of parallel triangles along the ray
	var positions []core.Vec3
	var indices []uint32
	for i := 0; i < 40; i++ {
		z := float64(i)
		positions = append(positions,
			core.NewVec3(-1, -1, z), core.NewVec3(1, -1, z), core.NewVec3(0, 1, z))
		indices = append(indices, uint32(3*i), uint32(3*i+1), uint32(3*i+2))
	}
	counter := &countingProvider{Provider: geometry.NewMesh("stack", positions, indices)}

	tree, err := Build(context.Background(), []Provider{counter}, DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	ray := core.NewRay(core.NewVec3(0, 0, -1), core.NewVec3(0, 0, 1))

	if _, occluded := tree.RayIntersect(ray, true); !occluded {
		t.Fatal("Expected occlusion")
	}
	if counter.hits != 1 {
		t.Errorf("Shadow query should stop at the first hit, got %d hits", counter.hits)
	}

	counter.calls, counter.hits = 0, 0
	hit, ok := tree.RayIntersect(ray, false)
	if !ok || hit.Prim != 0 {
		t.Fatalf("Expected nearest triangle 0, got %+v (ok=%v)", hit, ok)
	}
	if counter.calls < 2 {
		t.Errorf("Nearest-hit query should keep testing after the first hit, got %d calls", counter.calls)
	}
}

func TestOctree_RespectsLimits(t *testing.T) {
	random := rand.New(rand.NewSource(3))
	mesh := randomTriangles(random, 2000, 20, 0.5)
	opts := Options{MaxDepth: 4, LeafSize: 10, ParallelDepth: 1}

	tree, err := Build(context.Background(), []Provider{mesh}, opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	stats := tree.Stats()
	if stats.MaxDepth > opts.MaxDepth {
		t.Errorf("Depth %d exceeds the limit %d", stats.MaxDepth, opts.MaxDepth)
	}
	if stats.Primitives != 2000 {
		t.Errorf("Expected 2000 primitives, got %d", stats.Primitives)
	}
	if stats.References < stats.Primitives {
		t.Errorf("Every primitive must be referenced at least once: %d refs", stats.References)
	}
	if stats.Leaves == 0 || stats.Nodes <= stats.Leaves {
		t.Errorf("Expected a subdivided tree, got %+v", stats)
	}
	if cost := tree.SurfaceAreaHeuristicCost(); cost <= 0 || cost >= float64(stats.Primitives) {
		t.Errorf("SAH cost %f should be between 0 and brute force", cost)
	}
}

func TestOctree_ParallelBuildIsDeterministic(t *testing.T) {
	random := rand.New(rand.NewSource(11))
	mesh := randomTriangles(random, 1500, 10, 1)

	sequential, err := Build(context.Background(), []Provider{mesh}, Options{MaxDepth: 8, LeafSize: 10, ParallelDepth: 0})
	if err != nil {
		t.Fatalf("Sequential build failed: %v", err)
	}
	parallel, err := Build(context.Background(), []Provider{mesh}, Options{MaxDepth: 8, LeafSize: 10, ParallelDepth: 3})
	if err != nil {
		t.Fatalf("Parallel build failed: %v", err)
	}

	if sequential.Stats() != parallel.Stats() {
		t.Errorf("Stats differ: sequential %+v, parallel %+v", sequential.Stats(), parallel.Stats())
	}
	if len(sequential.nodes) != len(parallel.nodes) || len(sequential.refs) != len(parallel.refs) {
		t.Fatal("Arena sizes differ")
	}
	for i := range sequential.nodes {
		if sequential.nodes[i] != parallel.nodes[i] {
			t.Fatalf("Node %d differs", i)
		}
	}
}

func TestOctree_FlatScene(t *testing.T) {
	// A grid of quads in the z=0 plane must not be duplicated along z
	var meshes []Provider
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			corner := core.NewVec3(float64(x), float64(y), 0)
			meshes = append(meshes, geometry.NewQuadMesh("tile", corner, core.NewVec3(0.9, 0, 0), core.NewVec3(0, 0.9, 0)))
		}
	}

	tree, err := Build(context.Background(), meshes, DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if stats := tree.Stats(); stats.Duplication > 2 {
		t.Errorf("Flat scene duplicated primitives %.2fx", stats.Duplication)
	}

	hit, ok := tree.RayIntersect(core.NewRay(core.NewVec3(3.5, 7.5, 1), core.NewVec3(0, 0, -1)), false)
	if !ok || hit.Mesh != 3*16+7 {
		t.Errorf("Expected tile 55, got %+v (ok=%v)", hit, ok)
	}
}

func TestOctree_BuildCancelled(t *testing.T) {
	random := rand.New(rand.NewSource(5))
	mesh := randomTriangles(random, 500, 10, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Build(ctx, []Provider{mesh}, DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
