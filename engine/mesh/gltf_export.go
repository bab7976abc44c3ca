package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// UVMapper converts a texture local uv into the exported texture space, e.g. an atlas.
type UVMapper func(textureIndex uint32, uv mgl32.Vec2) mgl32.Vec2

const (
	materialOpaque = iota
	materialTransparent
	materialTranslucent
)

// BuildGLTF creates one node per non-empty section mesh. Translucent
// geometry is sorted back to front as seen from viewpoint.
func BuildGLTF(meshes []*SectionMesh, viewpoint mgl32.Vec3, mapUV UVMapper) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Materials = []*gltf.Material{
		{Name: "opaque", AlphaMode: gltf.AlphaOpaque},
		{Name: "transparent", AlphaMode: gltf.AlphaMask, AlphaCutoff: gltf.Float(0.5), DoubleSided: true},
		{Name: "translucent", AlphaMode: gltf.AlphaBlend, DoubleSided: true},
	}
	for _, sectionMesh := range meshes {
		if sectionMesh == nil || sectionMesh.IsEmpty() {
			continue
		}
		batches := [3]Geometry{
			materialOpaque:      sectionMesh.Opaque,
			materialTransparent: sectionMesh.Transparent,
			materialTranslucent: sectionMesh.Translucent.Render(viewpoint, true),
		}
		gltfMesh := &gltf.Mesh{Name: sectionMesh.Position.String()}
		for material, geometry := range batches {
			if geometry.IsEmpty() {
				continue
			}
			gltfMesh.Primitives = append(gltfMesh.Primitives, writePrimitive(doc, geometry, material, mapUV))
		}
		doc.Meshes = append(doc.Meshes, gltfMesh)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: sectionMesh.Position.String(),
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}
	return doc
}

func writePrimitive(doc *gltf.Document, geometry Geometry, material int, mapUV UVMapper) *gltf.Primitive {
	positions := make([][3]float32, len(geometry.Vertices))
	colors := make([][4]uint8, len(geometry.Vertices))
	uvs := make([][2]float32, len(geometry.Vertices))
	alpha := uint8(255)
	if material == materialTranslucent {
		alpha = 191
	}
	for i, v := range geometry.Vertices {
		positions[i] = v.Position
		colors[i] = [4]uint8{colorByte(v.Color.X()), colorByte(v.Color.Y()), colorByte(v.Color.Z()), alpha}
		uv := v.UV
		if mapUV != nil {
			uv = mapUV(v.TextureIndex, uv)
		}
		uvs[i] = uv
	}
	return &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, geometry.Indices)),
		Attributes: map[string]uint32{
			gltf.POSITION:   modeler.WritePosition(doc, positions),
			gltf.COLOR_0:    modeler.WriteColor(doc, colors),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
		},
		Material: gltf.Index(uint32(material)),
	}
}

func colorByte(c float32) uint8 {
	if c <= 0 {
		return 0
	}
	if c >= 1 {
		return 255
	}
	return uint8(c*255 + 0.5)
}

// ExportGLTF writes the meshes as a binary glTF file.
func ExportGLTF(filename string, meshes []*SectionMesh, viewpoint mgl32.Vec3, mapUV UVMapper) error {
	doc := BuildGLTF(meshes, viewpoint, mapUV)
	if err := gltf.SaveBinary(doc, filename); err != nil {
		return errors.Wrapf(err, "saving %s", filename)
	}
	return nil
}
