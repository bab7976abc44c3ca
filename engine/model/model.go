package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

type TextureType uint8

const (
	TextureOpaque TextureType = iota
	// alpha tested, no blending
	TextureTransparent
	// blended, needs back to front sorting
	TextureTranslucent
)

func (t TextureType) String() string {
	switch t {
	case TextureOpaque:
		return "opaque"
	case TextureTransparent:
		return "transparent"
	case TextureTranslucent:
		return "translucent"
	}
	return "unknown"
}

type Face struct {
	// Direction the face points to after the element transform
	Direction voxel.Direction
	// bottom left, bottom right, top right, top left
	UVs         [4]mgl32.Vec2
	Texture     int
	CullFace    voxel.Direction
	HasCullFace bool
	Tinted      bool
	TextureType TextureType
}

// Element is a cuboid. Transform maps the unit cube onto the element box in block space.
type Element struct {
	Transform mgl32.Mat4
	Shade     bool
	Faces     []Face
}

// Center is the centre of the element box in block space.
func (e *Element) Center() mgl32.Vec3 {
	return e.Transform.Mul4x1(mgl32.Vec4{0.5, 0.5, 0.5, 1}).Vec3()
}

type Model struct {
	Elements []Element
	// faces that fully hide the neighbouring block's touching face
	CullingFaces voxel.DirectionSet
	// faces that may be hidden by a neighbour
	CullableFaces voxel.DirectionSet
	// faces without a cull face, never hidden
	AlwaysVisibleFaces voxel.DirectionSet
	Tint               TintType
}

// IsFullyOpaque is true for models that hide every neighbour, these block visibility.
func (m *Model) IsFullyOpaque() bool {
	return m.CullingFaces == voxel.AllDirectionsSet
}

// ComputeFaceSets derives the cullable and always visible sets from the faces.
func (m *Model) ComputeFaceSets() {
	m.CullableFaces = voxel.NoDirections
	m.AlwaysVisibleFaces = voxel.NoDirections
	for _, element := range m.Elements {
		for _, face := range element.Faces {
			if face.HasCullFace {
				m.CullableFaces = m.CullableFaces.Add(face.CullFace)
			} else {
				m.AlwaysVisibleFaces = m.AlwaysVisibleFaces.Add(face.Direction)
			}
		}
	}
}

// BoxTransform maps the unit cube onto a box given in sixteenths of a block.
func BoxTransform(from, to mgl32.Vec3) mgl32.Mat4 {
	size := to.Sub(from).Mul(1.0 / 16)
	return mgl32.Translate3D(from.X()/16, from.Y()/16, from.Z()/16).Mul4(mgl32.Scale3D(size.X(), size.Y(), size.Z()))
}

// RotatedBoxTransform rotates the box around the y axis through origin (in sixteenths).
// With rescale the box is stretched back to the full block width, as vanilla does for 45 degree plants.
func RotatedBoxTransform(from, to, origin mgl32.Vec3, degrees float32, rescale bool) mgl32.Mat4 {
	o := origin.Mul(1.0 / 16)
	rotation := mgl32.HomogRotate3DY(mgl32.DegToRad(degrees))
	if rescale {
		factor := 1 / util.Cos(mgl32.DegToRad(degrees))
		rotation = rotation.Mul4(mgl32.Scale3D(factor, 1, factor))
	}
	return mgl32.Translate3D(o.X(), o.Y(), o.Z()).
		Mul4(rotation).
		Mul4(mgl32.Translate3D(-o.X(), -o.Y(), -o.Z())).
		Mul4(BoxTransform(from, to))
}

var fullFaceUV = [4]float32{0, 0, 16, 16}

// NewCubeModel builds a full block. textures is indexed by voxel.Direction.
func NewCubeModel(textures [6]int, textureType TextureType, tinted voxel.DirectionSet, tint TintType) *Model {
	element := Element{
		Transform: mgl32.Ident4(),
		Shade:     true,
	}
	for _, d := range voxel.AllDirections {
		element.Faces = append(element.Faces, Face{
			Direction:   d,
			UVs:         CalculateCornerUVs(fullFaceUV, 0),
			Texture:     textures[d],
			CullFace:    d,
			HasCullFace: true,
			Tinted:      tinted.Has(d),
			TextureType: textureType,
		})
	}
	m := &Model{Elements: []Element{element}, Tint: tint}
	if textureType == TextureOpaque {
		m.CullingFaces = voxel.AllDirectionsSet
	}
	m.ComputeFaceSets()
	return m
}

// NewUniformCubeModel uses one texture on all six faces.
func NewUniformCubeModel(texture int, textureType TextureType) *Model {
	return NewCubeModel([6]int{texture, texture, texture, texture, texture, texture}, textureType, voxel.NoDirections, TintNone)
}

// NewCrossModel builds the two diagonal planes used by flowers and grass.
func NewCrossModel(texture int, tint TintType) *Model {
	center := mgl32.Vec3{8, 8, 8}
	tinted := tint != TintNone
	plane := func(from, to mgl32.Vec3, a, b voxel.Direction) Element {
		return Element{
			Transform: RotatedBoxTransform(from, to, center, 45, true),
			Faces: []Face{
				{Direction: a, UVs: CalculateCornerUVs(fullFaceUV, 0), Texture: texture, Tinted: tinted, TextureType: TextureTransparent},
				{Direction: b, UVs: CalculateCornerUVs(fullFaceUV, 0), Texture: texture, Tinted: tinted, TextureType: TextureTransparent},
			},
		}
	}
	m := &Model{
		Elements: []Element{
			plane(mgl32.Vec3{0.8, 0, 8}, mgl32.Vec3{15.2, 16, 8}, voxel.North, voxel.South),
			plane(mgl32.Vec3{8, 0, 0.8}, mgl32.Vec3{8, 16, 15.2}, voxel.West, voxel.East),
		},
		Tint: tint,
	}
	m.ComputeFaceSets()
	return m
}

// NewSlabModel builds a bottom slab, only its bottom face hides neighbours.
func NewSlabModel(texture int) *Model {
	element := Element{
		Transform: BoxTransform(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{16, 8, 16}),
		Shade:     true,
	}
	for _, d := range voxel.AllDirections {
		uv := [4]float32{0, 8, 16, 16}
		if !d.IsHorizontal() {
			uv = fullFaceUV
		}
		face := Face{
			Direction: d,
			UVs:       CalculateCornerUVs(uv, 0),
			Texture:   texture,
		}
		if d != voxel.Up {
			face.CullFace = d
			face.HasCullFace = true
		}
		element.Faces = append(element.Faces, face)
	}
	m := &Model{Elements: []Element{element}, CullingFaces: voxel.NewDirectionSet(voxel.Down)}
	m.ComputeFaceSets()
	return m
}
