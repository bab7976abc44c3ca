package mesher

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stackotter/delta-client-sub000/engine/mesh"
	"github.com/stackotter/delta-client-sub000/engine/model"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

func (b *SectionMeshBuilder) addModel(result *mesh.SectionMesh, m *model.Model, visible voxel.DirectionSet, position, world voxel.Int3) {
	lights := b.faceLights(position)
	tint := model.White
	tintResolved := false

	blockTransform := mgl32.Translate3D(float32(world.X), float32(world.Y), float32(world.Z))
	for e := range m.Elements {
		element := &m.Elements[e]
		transform := blockTransform.Mul4(element.Transform)
		var translucent mesh.Geometry
		for _, face := range element.Faces {
			if face.HasCullFace && !visible.Has(face.CullFace) {
				continue
			}
			if face.Tinted && !tintResolved {
				tint = b.tintAt(position, m.Tint)
				tintResolved = true
			}

			shade := float32(1)
			if element.Shade {
				shade = directionShade[face.Direction]
			}
			shade *= lights[face.Direction].Brightness()
			color := faceColor(shade, face.Tinted, tint)

			var quad [4]mesh.Vertex
			for i, corner := range faceCorners[face.Direction] {
				quad[i] = mesh.Vertex{
					Position:     transform.Mul4x1(corner.Vec4(1)).Vec3(),
					UV:           face.UVs[i],
					Color:        color,
					TextureIndex: uint32(face.Texture),
					Transparent:  face.TextureType != model.TextureOpaque,
				}
			}
			b.stats.Faces++

			switch face.TextureType {
			case model.TextureOpaque:
				result.Opaque.AppendQuad(quad)
			case model.TextureTransparent:
				result.Transparent.AppendQuad(quad)
			default:
				translucent.AppendQuad(quad)
			}
		}
		if !translucent.IsEmpty() {
			result.Translucent.Add(mesh.SortableMeshElement{
				Geometry: translucent,
				Center:   blockTransform.Mul4x1(element.Center().Vec4(1)).Vec3(),
			})
		}
	}
}

// tintAt resolves the biome colour at a block, white when the biome is unknown.
func (b *SectionMeshBuilder) tintAt(position voxel.Int3, tint model.TintType) mgl32.Vec3 {
	if tint == model.TintNone || b.biomes == nil {
		return model.White
	}
	id, ok := b.neighbourhood.BiomeAt(position)
	if !ok {
		return model.White
	}
	biome, ok := b.biomes.Biome(id)
	if !ok {
		util.LogMeshWarning("unknown biome", "biome", id, "position", position.ToString())
		return model.White
	}
	return b.biomes.Tint(biome, tint)
}
