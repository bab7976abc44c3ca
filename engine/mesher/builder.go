package mesher

import (
	"github.com/stackotter/delta-client-sub000/engine/mesh"
	"github.com/stackotter/delta-client-sub000/engine/model"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// BuildStats counts what a build produced, for debug logging and tests.
type BuildStats struct {
	Blocks        int
	Fluids        int
	Faces         int
	MissingModels int
}

// SectionMeshBuilder turns one section of the centre chunk into geometry.
// A builder is used for a single build and is not safe for concurrent use.
type SectionMeshBuilder struct {
	neighbourhood Neighbourhood
	sectionIndex  int
	registry      model.Registry
	biomes        model.BiomeRegistry
	stats         BuildStats
}

func NewSectionMeshBuilder(neighbourhood Neighbourhood, sectionIndex int, registry model.Registry, biomes model.BiomeRegistry) *SectionMeshBuilder {
	return &SectionMeshBuilder{
		neighbourhood: neighbourhood,
		sectionIndex:  sectionIndex,
		registry:      registry,
		biomes:        biomes,
	}
}

func (b *SectionMeshBuilder) Position() voxel.SectionPosition {
	chunk := b.neighbourhood.Center.Position()
	return voxel.SectionPosition{X: chunk.X, Y: int32(b.sectionIndex), Z: chunk.Z}
}

func (b *SectionMeshBuilder) Stats() BuildStats {
	return b.stats
}

// Build meshes every non air block of the section. Empty sections return an
// empty mesh without touching the registry.
func (b *SectionMeshBuilder) Build() *mesh.SectionMesh {
	position := b.Position()
	result := mesh.NewSectionMesh(position)
	b.stats = BuildStats{}

	section := b.neighbourhood.Center.Section(b.sectionIndex)
	if section == nil || section.IsEmpty() {
		return result
	}

	origin := position.Origin()
	chunkOrigin := b.neighbourhood.Center.Position().BlockOrigin()
	for index, id := range section.Blocks() {
		if id.IsAir() {
			continue
		}
		local := voxel.PositionOfIndex(index)
		// relative to the centre chunk, y spans the whole column
		inChunk := voxel.Int3{X: local.X, Y: origin.Y + local.Y, Z: local.Z}
		b.addBlock(result, id, inChunk, chunkOrigin.Add(inChunk))
	}

	if b.stats.Faces > 0 {
		util.LogMeshDebug("section meshed",
			"section", position.String(),
			"blocks", b.stats.Blocks,
			"fluids", b.stats.Fluids,
			"faces", b.stats.Faces,
			"vertices", result.VertexCount(),
		)
	}
	return result
}

func (b *SectionMeshBuilder) addBlock(result *mesh.SectionMesh, id voxel.BlockID, position, world voxel.Int3) {
	if fluid, isFluid := b.registry.Fluid(id); isFluid {
		b.addFluid(result, fluid, position, world)
		if !fluid.Waterlogged {
			return
		}
	}

	m, ok := b.registry.Model(id, world)
	if !ok {
		b.stats.MissingModels++
		util.LogMeshWarning("no model for block", "block", id, "position", world.ToString())
		return
	}
	b.stats.Blocks++

	around := b.neighboursOf(position)
	culled := b.culledFaces(id, world, around)
	if culled.IsSupersetOf(m.CullableFaces) && m.AlwaysVisibleFaces.IsEmpty() {
		return
	}
	visible := m.CullableFaces.Subtract(culled).Union(m.AlwaysVisibleFaces)
	if visible.IsEmpty() {
		return
	}
	b.addModel(result, m, visible, position, world)
}
