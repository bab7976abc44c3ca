package mesh

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stackotter/delta-client-sub000/engine/util"
)

// SortableMeshElement is a piece of translucent geometry sorted as a whole.
type SortableMeshElement struct {
	Geometry Geometry
	Center   mgl32.Vec3
}

// SortableMesh keeps translucent elements and a flattened buffer of them.
// It is owned by one goroutine at a time.
type SortableMesh struct {
	elements []SortableMeshElement
	buffer   Geometry
	dirty    bool
}

func NewSortableMesh() *SortableMesh {
	return &SortableMesh{}
}

func (m *SortableMesh) Add(element SortableMeshElement) {
	if element.Geometry.IsEmpty() {
		return
	}
	m.elements = append(m.elements, element)
	m.dirty = true
}

func (m *SortableMesh) Len() int {
	return len(m.elements)
}

func (m *SortableMesh) IsEmpty() bool {
	return len(m.elements) == 0
}

func (m *SortableMesh) Elements() []SortableMeshElement {
	return m.elements
}

// Render returns a copy of the flattened geometry, so earlier results stay
// intact when the mesh is sorted again. With sortElements the elements are
// first ordered back to front as seen from viewedFrom, ties keep their order.
func (m *SortableMesh) Render(viewedFrom mgl32.Vec3, sortElements bool) Geometry {
	if sortElements && len(m.elements) > 1 {
		keys := make([]float32, len(m.elements))
		for i, element := range m.elements {
			keys[i] = util.SquaredDistance3D(element.Center, viewedFrom)
		}
		sort.Stable(byDistance{elements: m.elements, keys: keys})
		m.dirty = true
	}
	if m.dirty {
		m.buffer.Reset()
		for _, element := range m.elements {
			m.buffer.Append(element.Geometry)
		}
		m.dirty = false
	}
	return m.buffer.Clone()
}

func (m *SortableMesh) VertexCount() int {
	count := 0
	for _, element := range m.elements {
		count += element.Geometry.VertexCount()
	}
	return count
}

// byDistance sorts farthest first and moves the precomputed keys along.
type byDistance struct {
	elements []SortableMeshElement
	keys     []float32
}

func (b byDistance) Len() int { return len(b.elements) }

func (b byDistance) Less(i, j int) bool { return b.keys[i] > b.keys[j] }

func (b byDistance) Swap(i, j int) {
	b.elements[i], b.elements[j] = b.elements[j], b.elements[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
