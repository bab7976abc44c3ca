package mesh

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

func quadAt(center mgl32.Vec3, marker uint32) Geometry {
	var g Geometry
	var corners [4]Vertex
	for i := range corners {
		corners[i] = Vertex{Position: center, TextureIndex: marker, Color: mgl32.Vec3{1, 1, 1}}
	}
	g.AppendQuad(corners)
	return g
}

func TestGeometryAppendQuad(t *testing.T) {
	var g Geometry
	g.AppendQuad([4]Vertex{})
	g.AppendQuadWinding([4]Vertex{}, [6]uint32{1, 2, 3, 3, 0, 1})
	want := []uint32{0, 1, 2, 2, 3, 0, 5, 6, 7, 7, 4, 5}
	if len(g.Indices) != len(want) {
		t.Fatalf("indices = %v", g.Indices)
	}
	for i := range want {
		if g.Indices[i] != want[i] {
			t.Errorf("index %d = %d, want %d", i, g.Indices[i], want[i])
		}
	}
	if g.VertexCount() != 8 || g.TriangleCount() != 4 {
		t.Errorf("counts = %d vertices, %d triangles", g.VertexCount(), g.TriangleCount())
	}

	var merged Geometry
	merged.Append(quadAt(mgl32.Vec3{}, 0))
	merged.Append(g)
	if merged.Indices[6] != 4 || merged.Indices[len(merged.Indices)-1] != 4+5 {
		t.Errorf("appended indices not rebased: %v", merged.Indices)
	}
}

func markers(g Geometry) []uint32 {
	var result []uint32
	for i := 0; i < len(g.Vertices); i += 4 {
		result = append(result, g.Vertices[i].TextureIndex)
	}
	return result
}

func TestSortableMeshOrdersBackToFront(t *testing.T) {
	m := NewSortableMesh()
	m.Add(SortableMeshElement{Geometry: quadAt(mgl32.Vec3{1, 0, 0}, 1), Center: mgl32.Vec3{1, 0, 0}})
	m.Add(SortableMeshElement{Geometry: quadAt(mgl32.Vec3{5, 0, 0}, 2), Center: mgl32.Vec3{5, 0, 0}})
	m.Add(SortableMeshElement{Geometry: quadAt(mgl32.Vec3{0, 3, 0}, 3), Center: mgl32.Vec3{0, 3, 0}})
	// same distance as element 3, must stay behind it
	m.Add(SortableMeshElement{Geometry: quadAt(mgl32.Vec3{0, 0, 3}, 4), Center: mgl32.Vec3{0, 0, 3}})
	m.Add(SortableMeshElement{})

	if m.Len() != 4 {
		t.Fatalf("Len = %d, empty elements must be dropped", m.Len())
	}
	unsorted := m.Render(mgl32.Vec3{}, false)
	if got := markers(unsorted); len(got) != 4 || got[0] != 1 || got[3] != 4 {
		t.Errorf("unsorted order = %v", got)
	}

	sorted := m.Render(mgl32.Vec3{}, true)
	want := []uint32{2, 3, 4, 1}
	got := markers(sorted)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted order = %v, want %v", got, want)
		}
	}
	if sorted.TriangleCount() != 8 || sorted.Indices[6] != 4 {
		t.Errorf("flattened buffer broken: %v", sorted.Indices)
	}

	// without sorting the previous order stays even if the viewer moved
	again := m.Render(mgl32.Vec3{10, 0, 0}, false)
	if got := markers(again); got[0] != 2 {
		t.Errorf("order changed without sorting: %v", got)
	}
	moved := m.Render(mgl32.Vec3{10, 0, 0}, true)
	if got := markers(moved); got[0] != 3 && got[0] != 4 {
		t.Errorf("farthest element from x=10 should come first, got %v", got)
	}
	if got := markers(sorted); got[0] != 2 || got[3] != 1 {
		t.Errorf("re-sorting changed an earlier result: %v", got)
	}
	if sorted.Vertices[0].Position != (mgl32.Vec3{5, 0, 0}) {
		t.Errorf("earlier result vertex moved to %v", sorted.Vertices[0].Position)
	}
}

type fakeUploader struct {
	next     BufferID
	live     map[BufferID]uint64
	uploads  int
	failNext bool
}

func (u *fakeUploader) Upload(m *SectionMesh) (BufferID, error) {
	if u.failNext {
		u.failNext = false
		return 0, errors.New("device lost")
	}
	u.next++
	u.uploads++
	u.live[u.next] = m.Generation
	return u.next, nil
}

func (u *fakeUploader) Release(buffer BufferID) {
	delete(u.live, buffer)
}

func meshWithGeneration(position voxel.SectionPosition, generation uint64) *SectionMesh {
	m := NewSectionMesh(position)
	m.Generation = generation
	m.Opaque = quadAt(mgl32.Vec3{}, 0)
	return m
}

func TestBufferCacheUploadsOnlyNewerGenerations(t *testing.T) {
	uploader := &fakeUploader{live: make(map[BufferID]uint64)}
	cache := NewBufferCache(uploader)
	pos := voxel.SectionPosition{X: 1, Y: 2, Z: 3}

	tests := []struct {
		name       string
		generation uint64
		uploaded   bool
	}{
		{"first", 2, true},
		{"same", 2, false},
		{"older", 1, false},
		{"newer", 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploaded, err := cache.Sync(meshWithGeneration(pos, tt.generation))
			if err != nil {
				t.Fatal(err)
			}
			if uploaded != tt.uploaded {
				t.Errorf("uploaded = %v, want %v", uploaded, tt.uploaded)
			}
		})
	}
	if generation, _ := cache.Generation(pos); generation != 5 {
		t.Errorf("cached generation = %d, want 5", generation)
	}
	if len(uploader.live) != 1 || uploader.uploads != 2 {
		t.Errorf("live buffers %v after %d uploads, superseded buffers must be released", uploader.live, uploader.uploads)
	}

	uploader.failNext = true
	if _, err := cache.Sync(meshWithGeneration(pos, 6)); err == nil {
		t.Error("expected the upload error")
	}
	if generation, _ := cache.Generation(pos); generation != 5 || cache.Mesh(pos) == nil {
		t.Error("a failed upload must keep the previous buffer")
	}

	empty := NewSectionMesh(pos)
	empty.Generation = 7
	if uploaded, _ := cache.Sync(empty); !uploaded || len(uploader.live) != 0 {
		t.Errorf("an empty mesh should release the buffer, live %v", uploader.live)
	}
	cache.Remove(pos)
	if cache.Len() != 0 {
		t.Errorf("Len = %d after Remove", cache.Len())
	}
}

func TestExportGLTF(t *testing.T) {
	a := NewSectionMesh(voxel.SectionPosition{X: 0, Y: 3, Z: 0})
	a.Opaque = quadAt(mgl32.Vec3{1, 2, 3}, 0)
	a.Opaque.Append(quadAt(mgl32.Vec3{1, 3, 3}, 0))
	a.Translucent.Add(SortableMeshElement{Geometry: quadAt(mgl32.Vec3{4, 4, 4}, 1), Center: mgl32.Vec3{4, 4, 4}})
	b := NewSectionMesh(voxel.SectionPosition{X: 1, Y: 3, Z: 0})
	b.Transparent = quadAt(mgl32.Vec3{20, 50, 3}, 2)
	empty := NewSectionMesh(voxel.SectionPosition{X: 2, Y: 3, Z: 0})

	filename := filepath.Join(t.TempDir(), "sections.glb")
	mapped := 0
	err := ExportGLTF(filename, []*SectionMesh{a, b, empty}, mgl32.Vec3{}, func(texture uint32, uv mgl32.Vec2) mgl32.Vec2 {
		mapped++
		return uv
	})
	if err != nil {
		t.Fatal(err)
	}
	if mapped != 16 {
		t.Errorf("uv mapper called %d times, want 16", mapped)
	}

	doc, err := gltf.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 2 || len(doc.Meshes) != 2 {
		t.Fatalf("%d nodes and %d meshes, want 2 each", len(doc.Nodes), len(doc.Meshes))
	}
	if len(doc.Meshes[0].Primitives) != 2 || len(doc.Meshes[1].Primitives) != 1 {
		t.Errorf("primitive counts = %d, %d", len(doc.Meshes[0].Primitives), len(doc.Meshes[1].Primitives))
	}
	opaque := doc.Meshes[0].Primitives[0]
	positions, err := modeler.ReadPosition(doc, doc.Accessors[opaque.Attributes[gltf.POSITION]], nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != a.Opaque.VertexCount() {
		t.Errorf("exported %d positions, want %d", len(positions), a.Opaque.VertexCount())
	}
	indices, err := modeler.ReadIndices(doc, doc.Accessors[*opaque.Indices], nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(indices) != len(a.Opaque.Indices) {
		t.Errorf("exported %d indices, want %d", len(indices), len(a.Opaque.Indices))
	}
	if *doc.Meshes[0].Primitives[1].Material != materialTranslucent {
		t.Error("second primitive of section a should be translucent")
	}
}
