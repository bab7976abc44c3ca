package mesher

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// directionShade darkens faces by the direction they point to.
var directionShade = [6]float32{
	voxel.Down:  0.5,
	voxel.Up:    1.0,
	voxel.North: 0.8,
	voxel.South: 0.8,
	voxel.West:  0.6,
	voxel.East:  0.6,
}

// faceCorners are the unit cube corners of each face in
// bottom left, bottom right, top right, top left order seen from outside.
var faceCorners = [6][4]mgl32.Vec3{
	voxel.Down:  {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	voxel.Up:    {{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}},
	voxel.North: {{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}},
	voxel.South: {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	voxel.West:  {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	voxel.East:  {{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}},
}

// neighbours caches the six blocks around the block being meshed.
type neighbours struct {
	ids     [6]voxel.BlockID
	present [6]bool
}

func (b *SectionMeshBuilder) neighboursOf(position voxel.Int3) neighbours {
	var result neighbours
	for _, d := range voxel.AllDirections {
		result.ids[d], result.present[d] = b.neighbourhood.BlockAt(position.Add(d.Offset()))
	}
	return result
}

// culledFaces lists the directions in which a neighbour hides the touching face.
// Missing neighbours never cull.
func (b *SectionMeshBuilder) culledFaces(id voxel.BlockID, world voxel.Int3, around neighbours) voxel.DirectionSet {
	culled := voxel.NoDirections
	for _, d := range voxel.AllDirections {
		neighbour := around.ids[d]
		if !around.present[d] || neighbour.IsAir() {
			continue
		}
		if b.registry.SelfCulls(id, neighbour) {
			culled = culled.Add(d)
			continue
		}
		m, ok := b.registry.Model(neighbour, world.Add(d.Offset()))
		if !ok {
			if _, isFluid := b.registry.Fluid(neighbour); !isFluid {
				util.LogMeshWarning("no model for neighbour", "block", neighbour, "position", world.Add(d.Offset()).ToString())
			}
			continue
		}
		if m.CullingFaces.Has(d.Opposite()) {
			culled = culled.Add(d)
		}
	}
	return culled
}

// faceLights merges the light at the block with the light in front of each face.
func (b *SectionMeshBuilder) faceLights(position voxel.Int3) [6]voxel.LightLevel {
	var lights [6]voxel.LightLevel
	light := b.neighbourhood.LightAt(position)
	for _, d := range voxel.AllDirections {
		lights[d] = light.Max(b.neighbourhood.LightAt(position.Add(d.Offset())))
	}
	return lights
}

func faceColor(shade float32, tinted bool, tint mgl32.Vec3) mgl32.Vec3 {
	if tinted {
		return tint.Mul(shade)
	}
	return mgl32.Vec3{shade, shade, shade}
}
