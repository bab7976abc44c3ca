package mesh

import "github.com/stackotter/delta-client-sub000/engine/voxel"

// SectionMesh is the output of one section build. Once published it is not
// modified again, except that the renderer owning it may sort Translucent.
type SectionMesh struct {
	Position    voxel.SectionPosition
	Generation  uint64
	Opaque      Geometry
	Transparent Geometry
	Translucent *SortableMesh
}

func NewSectionMesh(position voxel.SectionPosition) *SectionMesh {
	return &SectionMesh{Position: position, Translucent: NewSortableMesh()}
}

func (m *SectionMesh) IsEmpty() bool {
	return m.Opaque.IsEmpty() && m.Transparent.IsEmpty() && m.Translucent.IsEmpty()
}

func (m *SectionMesh) VertexCount() int {
	return m.Opaque.VertexCount() + m.Transparent.VertexCount() + m.Translucent.VertexCount()
}
