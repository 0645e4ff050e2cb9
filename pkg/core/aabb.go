package core

import (
	"fmt"
	"math"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns an inverted box that any Extend or Union will overwrite
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: Splat(inf), Max: Splat(-inf)}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	box := AABB{Min: points[0], Max: points[0]}
	for _, point := range points[1:] {
		box = box.Extend(point)
	}
	return box
}

// Hit tests if a ray intersects with this AABB within [tMin, tMax] using the slab method.
// The test is inclusive so that flat boxes (planar geometry) are still hit.
func (aabb AABB) Hit(ray Ray, tMin, tMax float64) bool {
	for axis := 0; axis < 3; axis++ {
		min := aabb.Min.Axis(axis)
		max := aabb.Max.Axis(axis)
		origin := ray.Origin.Axis(axis)
		direction := ray.Direction.Axis(axis)

		// Handle parallel rays (direction near zero)
		if math.Abs(direction) < 1e-12 {
			if origin < min || origin > max {
				return false // Ray origin outside slab
			}
			continue
		}

		invDirection := 1.0 / direction
		t1 := (min - origin) * invDirection
		t2 := (max - origin) * invDirection
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}

	return true
}

// Extend returns the box grown to contain the point
func (aabb AABB) Extend(point Vec3) AABB {
	return AABB{Min: aabb.Min.Min(point), Max: aabb.Max.Max(point)}
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return AABB{Min: aabb.Min.Min(other.Min), Max: aabb.Max.Max(other.Max)}
}

// Overlaps reports whether two boxes share at least one point (touching counts)
func (aabb AABB) Overlaps(other AABB) bool {
	return aabb.Min.X <= other.Max.X && aabb.Max.X >= other.Min.X &&
		aabb.Min.Y <= other.Max.Y && aabb.Max.Y >= other.Min.Y &&
		aabb.Min.Z <= other.Max.Z && aabb.Max.Z >= other.Min.Z
}

// Contains reports whether the point lies inside the box (boundary included)
func (aabb AABB) Contains(point Vec3) bool {
	return point.X >= aabb.Min.X && point.X <= aabb.Max.X &&
		point.Y >= aabb.Min.Y && point.Y <= aabb.Max.Y &&
		point.Z >= aabb.Min.Z && point.Z <= aabb.Max.Z
}

// Octant returns one of the eight boxes obtained by splitting this box at its
// center on every axis. Bit 0 of index selects the upper X half, bit 1 the
// upper Y half and bit 2 the upper Z half.
func (aabb AABB) Octant(index int) AABB {
	center := aabb.Center()
	octant := AABB{Min: aabb.Min, Max: center}
	if index&1 != 0 {
		octant.Min.X, octant.Max.X = center.X, aabb.Max.X
	}
	if index&2 != 0 {
		octant.Min.Y, octant.Max.Y = center.Y, aabb.Max.Y
	}
	if index&4 != 0 {
		octant.Min.Z, octant.Max.Z = center.Z, aabb.Max.Z
	}
	return octant
}

// DistanceSquaredTo returns the squared distance from a point to the box (zero inside)
func (aabb AABB) DistanceSquaredTo(point Vec3) float64 {
	var result float64
	for axis := 0; axis < 3; axis++ {
		value := point.Axis(axis)
		if lo := aabb.Min.Axis(axis); value < lo {
			result += (lo - value) * (lo - value)
		} else if hi := aabb.Max.Axis(axis); value > hi {
			result += (value - hi) * (value - hi)
		}
	}
	return result
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Size returns the size (extent) of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// SurfaceArea returns the surface area of the AABB
func (aabb AABB) SurfaceArea() float64 {
	size := aabb.Size()
	return 2.0 * (size.X*size.Y + size.Y*size.Z + size.Z*size.X)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (aabb AABB) LongestAxis() int {
	size := aabb.Size()
	if size.X > size.Y && size.X > size.Z {
		return 0 // X axis
	}
	if size.Y > size.Z {
		return 1 // Y axis
	}
	return 2 // Z axis
}

// IsValid returns true if this is a valid AABB (min <= max for all axes)
func (aabb AABB) IsValid() bool {
	return aabb.Min.X <= aabb.Max.X &&
		aabb.Min.Y <= aabb.Max.Y &&
		aabb.Min.Z <= aabb.Max.Z
}

// Expand returns an AABB expanded by the given amount in all directions
func (aabb AABB) Expand(amount float64) AABB {
	expansion := Splat(amount)
	return AABB{
		Min: aabb.Min.Subtract(expansion),
		Max: aabb.Max.Add(expansion),
	}
}

func (aabb AABB) String() string {
	return fmt.Sprintf("AABB[min=%v, max=%v]", aabb.Min, aabb.Max)
}
