package voxel

import (
	"fmt"
	"sort"
)

const (
	VOXEL_EMPTY  int32 = 0
	VOXEL_OPAQUE int32 = 1
	// flood fill group ids start here
	firstGroupID int32 = 2
)

// VoxelGraph labels the connected empty regions of a cube of voxels and
// records which of the cube's six faces each region touches.
// Voxels are indexed (y*d+z)*d+x, matching section block order.
type VoxelGraph struct {
	dimension  int
	voxels     []int32
	faceGroups [6]map[int32]struct{}
	groupCount int
}

// NewVoxelGraph flood fills occupancy, where 0 is empty and 1 is opaque.
// It panics unless dimension is a power of two and occupancy is dimension cubed long.
func NewVoxelGraph(occupancy []int32, dimension int) *VoxelGraph {
	if dimension <= 0 || dimension&(dimension-1) != 0 || len(occupancy) != dimension*dimension*dimension {
		panic(fmt.Sprintf("voxel graph: %d voxels do not form a cube of dimension %d", len(occupancy), dimension))
	}
	g := &VoxelGraph{
		dimension: dimension,
		voxels:    append([]int32(nil), occupancy...),
	}
	for i := range g.faceGroups {
		g.faceGroups[i] = make(map[int32]struct{})
	}
	g.fill()
	return g
}

// NewSectionVoxelGraph treats every block for which isOpaque returns true as a wall.
func NewSectionVoxelGraph(section *Section, isOpaque func(BlockID) bool) *VoxelGraph {
	occupancy := make([]int32, SECTION_VOLUME)
	if !section.IsEmpty() {
		for i, id := range section.Blocks() {
			if !id.IsAir() && isOpaque(id) {
				occupancy[i] = VOXEL_OPAQUE
			}
		}
	}
	return NewVoxelGraph(occupancy, SECTION_SIZE)
}

func (g *VoxelGraph) index(x, y, z int) int {
	return (y*g.dimension+z)*g.dimension + x
}

func (g *VoxelGraph) fill() {
	d := g.dimension
	next := firstGroupID
	stack := make([]int, 0, 256)
	for start := range g.voxels {
		if g.voxels[start] != VOXEL_EMPTY {
			continue
		}
		group := next
		next++
		g.groupCount++
		g.voxels[start] = group
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x := current % d
			z := (current / d) % d
			y := current / (d * d)
			g.touchFaces(group, x, y, z)
			g.visit(&stack, group, x-1, y, z)
			g.visit(&stack, group, x+1, y, z)
			g.visit(&stack, group, x, y-1, z)
			g.visit(&stack, group, x, y+1, z)
			g.visit(&stack, group, x, y, z-1)
			g.visit(&stack, group, x, y, z+1)
		}
	}
}

func (g *VoxelGraph) visit(stack *[]int, group int32, x, y, z int) {
	d := g.dimension
	if x < 0 || y < 0 || z < 0 || x >= d || y >= d || z >= d {
		return
	}
	i := g.index(x, y, z)
	if g.voxels[i] != VOXEL_EMPTY {
		return
	}
	g.voxels[i] = group
	*stack = append(*stack, i)
}

func (g *VoxelGraph) touchFaces(group int32, x, y, z int) {
	last := g.dimension - 1
	if x == 0 {
		g.faceGroups[West][group] = struct{}{}
	}
	if x == last {
		g.faceGroups[East][group] = struct{}{}
	}
	if y == 0 {
		g.faceGroups[Down][group] = struct{}{}
	}
	if y == last {
		g.faceGroups[Up][group] = struct{}{}
	}
	if z == 0 {
		g.faceGroups[North][group] = struct{}{}
	}
	if z == last {
		g.faceGroups[South][group] = struct{}{}
	}
}

func (g *VoxelGraph) Dimension() int {
	return g.dimension
}

func (g *VoxelGraph) GroupCount() int {
	return g.groupCount
}

// GroupAt returns 1 for opaque voxels and the group id otherwise.
func (g *VoxelGraph) GroupAt(x, y, z int) int32 {
	return g.voxels[g.index(x, y, z)]
}

// FaceGroups lists the group ids touching a face in ascending order.
func (g *VoxelGraph) FaceGroups(face Direction) []int32 {
	groups := make([]int32, 0, len(g.faceGroups[face]))
	for group := range g.faceGroups[face] {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// IsConnected reports whether a single empty region touches both faces.
func (g *VoxelGraph) IsConnected(a, b Direction) bool {
	groupsA, groupsB := g.faceGroups[a], g.faceGroups[b]
	if len(groupsB) < len(groupsA) {
		groupsA, groupsB = groupsB, groupsA
	}
	for group := range groupsA {
		if _, ok := groupsB[group]; ok {
			return true
		}
	}
	return false
}

func (g *VoxelGraph) Connectivity() SectionConnectivity {
	var c SectionConnectivity
	for i, a := range AllDirections {
		for _, b := range AllDirections[i+1:] {
			if g.IsConnected(a, b) {
				c = c.Connect(a, b)
			}
		}
	}
	return c
}

// SectionConnectivity has one bit per unordered pair of distinct faces.
type SectionConnectivity uint16

const FullyOpenConnectivity SectionConnectivity = 1<<15 - 1

var pairBits [6][6]uint8

func init() {
	bit := uint8(0)
	for i := 0; i < 6; i++ {
		for j := i + 1; j < 6; j++ {
			pairBits[i][j] = bit
			pairBits[j][i] = bit
			bit++
		}
	}
}

func (c SectionConnectivity) Connect(a, b Direction) SectionConnectivity {
	if a == b {
		return c
	}
	return c | 1<<pairBits[a][b]
}

// IsConnected is always true for a face with itself.
func (c SectionConnectivity) IsConnected(a, b Direction) bool {
	if a == b {
		return true
	}
	return c&(1<<pairBits[a][b]) != 0
}

// ExitsFrom lists the faces reachable after entering through face.
func (c SectionConnectivity) ExitsFrom(face Direction) DirectionSet {
	var result DirectionSet
	for _, d := range AllDirections {
		if d != face && c.IsConnected(face, d) {
			result = result.Add(d)
		}
	}
	return result
}

func (c SectionConnectivity) IsFullyEnclosed() bool {
	return c == 0
}
