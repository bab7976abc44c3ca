package mesher

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stackotter/delta-client-sub000/engine/mesh"
	"github.com/stackotter/delta-client-sub000/engine/model"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// fluid surface corners
const (
	cornerNW = iota
	cornerNE
	cornerSE
	cornerSW
)

const heightEpsilon = 1e-4

// cornerOffsets are the (x, z) positions of the corners inside the block.
var cornerOffsets = [4]mgl32.Vec2{
	cornerNW: {0, 0},
	cornerNE: {1, 0},
	cornerSE: {1, 1},
	cornerSW: {0, 1},
}

// cornerNeighbours are the two orthogonal and one diagonal neighbour sharing each corner.
var cornerNeighbours = [4][3]voxel.Int3{
	cornerNW: {{X: -1}, {Z: -1}, {X: -1, Z: -1}},
	cornerNE: {{X: 1}, {Z: -1}, {X: 1, Z: -1}},
	cornerSE: {{X: 1}, {Z: 1}, {X: 1, Z: 1}},
	cornerSW: {{X: -1}, {Z: 1}, {X: -1, Z: 1}},
}

// topCorners orders the corners like faceCorners[voxel.Up].
var topCorners = [4]int{cornerSW, cornerSE, cornerNE, cornerNW}

// splits the top quad along its 1-3 diagonal
var rotatedWinding = [6]uint32{1, 2, 3, 3, 0, 1}

func cornerAt(x, z float32) int {
	switch {
	case x < 0.5 && z < 0.5:
		return cornerNW
	case z < 0.5:
		return cornerNE
	case x < 0.5:
		return cornerSW
	}
	return cornerSE
}

func (b *SectionMeshBuilder) sameFluidAt(state model.FluidState, position voxel.Int3) (model.FluidState, bool) {
	id, ok := b.neighbourhood.BlockAt(position)
	if !ok || id.IsAir() {
		return model.FluidState{}, false
	}
	other, ok := b.registry.Fluid(id)
	if !ok || !other.SameFluid(state) {
		return model.FluidState{}, false
	}
	return other, true
}

// fluidCornerHeights computes the surface height at the four top corners.
func (b *SectionMeshBuilder) fluidCornerHeights(state model.FluidState, position voxel.Int3) [4]float32 {
	var heights [4]float32
	if _, above := b.sameFluidAt(state, position.Add(voxel.Up.Offset())); above {
		return [4]float32{1, 1, 1, 1}
	}
	base := state.Height()
	for corner := range heights {
		height := base
		for _, offset := range cornerNeighbours[corner] {
			neighbourPosition := position.Add(offset)
			neighbour, ok := b.sameFluidAt(state, neighbourPosition)
			if !ok {
				continue
			}
			if _, above := b.sameFluidAt(state, neighbourPosition.Add(voxel.Up.Offset())); above {
				height = 1
				break
			}
			height = util.Max(height, neighbour.Height())
		}
		heights[corner] = height
	}
	return heights
}

// fluidCulledFaces mirrors culledFaces, the same fluid always hides the shared face.
func (b *SectionMeshBuilder) fluidCulledFaces(state model.FluidState, world voxel.Int3, around neighbours) voxel.DirectionSet {
	culled := voxel.NoDirections
	for _, d := range voxel.AllDirections {
		neighbour := around.ids[d]
		if !around.present[d] || neighbour.IsAir() {
			continue
		}
		if other, ok := b.registry.Fluid(neighbour); ok && other.SameFluid(state) {
			culled = culled.Add(d)
			continue
		}
		if m, ok := b.registry.Model(neighbour, world.Add(d.Offset())); ok && m.CullingFaces.Has(d.Opposite()) {
			culled = culled.Add(d)
		}
	}
	return culled
}

// flowingTopUVs picks the UV rotation and quad winding of a sloped surface.
// UVs are returned in topCorners order.
func flowingTopUVs(heights [4]float32) ([4]mgl32.Vec2, [6]uint32) {
	lowest := heights[0]
	var average float32
	for _, h := range heights {
		lowest = util.Min(lowest, h)
		average += h / 4
	}
	lowCount := 0
	for _, h := range heights {
		if h-lowest < heightEpsilon {
			lowCount++
		}
	}

	center := mgl32.Vec2{0.5, 0.5}
	var flow mgl32.Vec2
	for corner, h := range heights {
		flow = flow.Add(cornerOffsets[corner].Sub(center).Mul(average - h))
	}
	var angle float32
	if flow.Len() > heightEpsilon {
		// flowing textures scroll towards +v
		step := mgl32.DegToRad(45)
		angle = util.Round(util.Atan2(flow.X(), flow.Y())/step) * step
	}

	var uvs [4]mgl32.Vec2
	for i, corner := range topCorners {
		half := center.Add(cornerOffsets[corner].Sub(center).Mul(0.5))
		uvs[i] = util.RotateAround(half, center, angle)
	}

	winding := mesh.QuadWinding
	if lowCount == 1 || lowCount == 3 {
		for i, corner := range topCorners {
			isLow := heights[corner]-lowest < heightEpsilon
			if isLow == (lowCount == 1) && (i == 1 || i == 3) {
				winding = rotatedWinding
			}
		}
	}
	return uvs, winding
}

func isStill(heights [4]float32) bool {
	for _, h := range heights[1:] {
		if h-heights[0] > heightEpsilon || heights[0]-h > heightEpsilon {
			return false
		}
	}
	return true
}

// addFluid emits the fluid surface of one block as a single translucent element.
func (b *SectionMeshBuilder) addFluid(result *mesh.SectionMesh, state model.FluidState, position, world voxel.Int3) {
	fluid := state.Fluid
	if fluid == nil {
		util.LogMeshWarning("fluid state without fluid", "position", world.ToString())
		return
	}
	if fluid.StillTexture < 0 || fluid.FlowingTexture < 0 {
		util.LogMeshWarning("missing fluid texture", "fluid", fluid.Identifier, "position", world.ToString())
		return
	}
	b.stats.Fluids++

	around := b.neighboursOf(position)
	culled := b.fluidCulledFaces(state, world, around)
	if culled == voxel.AllDirectionsSet {
		return
	}

	heights := b.fluidCornerHeights(state, position)
	lights := b.faceLights(position)
	tint := model.White
	if fluid.Tinted {
		tint = b.tintAt(position, model.TintWater)
	}
	origin := world.ToVec3()
	vertex := func(corner mgl32.Vec3, uv mgl32.Vec2, texture int, d voxel.Direction) mesh.Vertex {
		shade := directionShade[d] * lights[d].Brightness()
		return mesh.Vertex{
			Position:     origin.Add(corner),
			UV:           uv,
			Color:        faceColor(shade, fluid.Tinted, tint),
			TextureIndex: uint32(texture),
			Transparent:  true,
		}
	}

	var geometry mesh.Geometry

	// the surface below a solid block is only hidden when it reaches the top
	_, sameAbove := b.sameFluidAt(state, position.Add(voxel.Up.Offset()))
	lowestCorner := util.Min(util.Min(heights[0], heights[1]), util.Min(heights[2], heights[3]))
	if !sameAbove && !(culled.Has(voxel.Up) && lowestCorner >= 1) {
		var quad [4]mesh.Vertex
		if isStill(heights) {
			for i, corner := range topCorners {
				offset := cornerOffsets[corner]
				top := mgl32.Vec3{offset.X(), heights[corner], offset.Y()}
				quad[i] = vertex(top, offset, fluid.StillTexture, voxel.Up)
			}
			geometry.AppendQuad(quad)
		} else {
			uvs, winding := flowingTopUVs(heights)
			for i, corner := range topCorners {
				offset := cornerOffsets[corner]
				top := mgl32.Vec3{offset.X(), heights[corner], offset.Y()}
				quad[i] = vertex(top, uvs[i], fluid.FlowingTexture, voxel.Up)
			}
			geometry.AppendQuadWinding(quad, winding)
		}
		b.stats.Faces++
	}

	for _, d := range voxel.HorizontalDirections {
		if culled.Has(d) {
			continue
		}
		var quad [4]mesh.Vertex
		for i, corner := range faceCorners[d] {
			u := float32(0)
			if i == 1 || i == 2 {
				u = 0.5
			}
			v := float32(0.5)
			if corner.Y() > 0 {
				h := heights[cornerAt(corner.X(), corner.Z())]
				corner = mgl32.Vec3{corner.X(), h, corner.Z()}
				v = (1 - h) * 0.5
			}
			quad[i] = vertex(corner, mgl32.Vec2{u, v}, fluid.FlowingTexture, d)
		}
		geometry.AppendQuad(quad)
		b.stats.Faces++
	}

	if !culled.Has(voxel.Down) {
		var quad [4]mesh.Vertex
		bottomUVs := [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
		for i, corner := range faceCorners[voxel.Down] {
			quad[i] = vertex(corner, bottomUVs[i], fluid.StillTexture, voxel.Down)
		}
		geometry.AppendQuad(quad)
		b.stats.Faces++
	}

	if !geometry.IsEmpty() {
		result.Translucent.Add(mesh.SortableMeshElement{
			Geometry: geometry,
			Center:   world.ToBlockCenterVec3(),
		})
	}
}
