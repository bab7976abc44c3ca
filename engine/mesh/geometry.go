package mesh

import "github.com/go-gl/mathgl/mgl32"

type Vertex struct {
	Position     mgl32.Vec3
	UV           mgl32.Vec2
	Color        mgl32.Vec3
	TextureIndex uint32
	Transparent  bool
}

// QuadWinding splits a quad along its 0-2 diagonal.
var QuadWinding = [6]uint32{0, 1, 2, 2, 3, 0}

// Geometry is an indexed triangle list.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

func (g *Geometry) AppendQuad(corners [4]Vertex) {
	g.AppendQuadWinding(corners, QuadWinding)
}

// AppendQuadWinding appends 4 vertices and 6 indices relative to them.
func (g *Geometry) AppendQuadWinding(corners [4]Vertex, winding [6]uint32) {
	base := uint32(len(g.Vertices))
	g.Vertices = append(g.Vertices, corners[:]...)
	for _, i := range winding {
		g.Indices = append(g.Indices, base+i)
	}
}

// Append concatenates other, rebasing its indices.
func (g *Geometry) Append(other Geometry) {
	base := uint32(len(g.Vertices))
	g.Vertices = append(g.Vertices, other.Vertices...)
	for _, i := range other.Indices {
		g.Indices = append(g.Indices, base+i)
	}
}

func (g *Geometry) Reset() {
	g.Vertices = g.Vertices[:0]
	g.Indices = g.Indices[:0]
}

func (g Geometry) IsEmpty() bool {
	return len(g.Indices) == 0
}

func (g Geometry) VertexCount() int {
	return len(g.Vertices)
}

func (g Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

func (g Geometry) Clone() Geometry {
	return Geometry{
		Vertices: append([]Vertex(nil), g.Vertices...),
		Indices:  append([]uint32(nil), g.Indices...),
	}
}
