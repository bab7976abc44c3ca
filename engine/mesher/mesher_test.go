package mesher

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stackotter/delta-client-sub000/engine/mesh"
	"github.com/stackotter/delta-client-sub000/engine/model"
	"github.com/stackotter/delta-client-sub000/engine/protocol"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

const (
	stone voxel.BlockID = iota + 1
	glass
	water
	flower
	stainedGlass
	waterLevel4
	brokenWater
)

const (
	stillWaterTexture   = 10
	flowingWaterTexture = 11
)

var testWater = &model.Fluid{
	Identifier:     "minecraft:water",
	StillTexture:   stillWaterTexture,
	FlowingTexture: flowingWaterTexture,
	Tinted:         true,
}

var waterColor = model.HexColor(0x3F76E4)

func testRegistry() *model.MemoryRegistry {
	r := model.NewMemoryRegistry()
	r.AddBlock(stone, "minecraft:stone", model.NewUniformCubeModel(1, model.TextureOpaque))
	r.AddBlock(glass, "minecraft:glass", model.NewUniformCubeModel(2, model.TextureTransparent))
	r.SetSelfCulling(glass)
	r.AddBlock(flower, "minecraft:poppy", model.NewCrossModel(3, model.TintNone))
	r.AddBlock(stainedGlass, "minecraft:blue_stained_glass", model.NewUniformCubeModel(4, model.TextureTranslucent))
	r.AddFluid(water, "minecraft:water", model.FluidState{Fluid: testWater, Level: 0})
	r.AddFluid(waterLevel4, "minecraft:water", model.FluidState{Fluid: testWater, Level: 4})
	r.AddFluid(brokenWater, "minecraft:water", model.FluidState{
		Fluid: &model.Fluid{Identifier: "minecraft:water", StillTexture: -1, FlowingTexture: -1},
	})
	return r
}

func testBiomes() *model.MemoryBiomeRegistry {
	biomes := model.NewMemoryBiomeRegistry(nil, nil)
	biomes.AddBiome(&model.Biome{ID: 0, Identifier: "minecraft:ocean", WaterColor: waterColor})
	return biomes
}

// columns is a tiny world around chunk (0, 0).
type columns map[voxel.ChunkPosition]*voxel.Chunk

func newColumns(withNeighbours bool) columns {
	c := columns{}
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			if !withNeighbours && (dx != 0 || dz != 0) {
				continue
			}
			position := voxel.ChunkPosition{X: dx, Z: dz}
			c[position] = voxel.NewChunk(position)
		}
	}
	return c
}

func (c columns) lookup(position voxel.ChunkPosition) *voxel.Chunk {
	return c[position]
}

// set takes world coordinates.
func (c columns) set(x, y, z int32, id voxel.BlockID) {
	chunk := c[voxel.ChunkPositionOf(voxel.Int3{X: x, Y: y, Z: z})]
	_, lx := voxel.FloorDiv16(x)
	_, lz := voxel.FloorDiv16(z)
	chunk.SetBlockID(lx, y, lz, id)
}

func (c columns) fillSection(chunk voxel.ChunkPosition, sectionY int32, id voxel.BlockID) {
	for y := int32(0); y < voxel.SECTION_SIZE; y++ {
		for z := int32(0); z < voxel.SECTION_SIZE; z++ {
			for x := int32(0); x < voxel.SECTION_SIZE; x++ {
				c[chunk].SetBlockID(x, sectionY*voxel.SECTION_SIZE+y, z, id)
			}
		}
	}
}

func (c columns) build(sectionIndex int, registry model.Registry) *mesh.SectionMesh {
	n := NewNeighbourhood(c[voxel.ChunkPosition{}], c.lookup)
	return NewSectionMeshBuilder(n, sectionIndex, registry, testBiomes()).Build()
}

type countingRegistry struct {
	model.Registry
	lookups int
}

func (r *countingRegistry) Model(id voxel.BlockID, position voxel.Int3) (*model.Model, bool) {
	r.lookups++
	return r.Registry.Model(id, position)
}

func (r *countingRegistry) Fluid(id voxel.BlockID) (model.FluidState, bool) {
	r.lookups++
	return r.Registry.Fluid(id)
}

func approxVec3(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-4)
}

func elementAt(m *mesh.SectionMesh, center mgl32.Vec3) (mesh.SortableMeshElement, bool) {
	for _, element := range m.Translucent.Elements() {
		if approxVec3(element.Center, center) {
			return element, true
		}
	}
	return mesh.SortableMeshElement{}, false
}

func TestEmptySectionSkipsRegistry(t *testing.T) {
	world := newColumns(true)
	world.set(1, 40, 1, stone)

	registry := &countingRegistry{Registry: testRegistry()}
	result := world.build(5, registry)
	if !result.IsEmpty() {
		t.Errorf("empty section produced %d vertices", result.VertexCount())
	}
	if registry.lookups != 0 {
		t.Errorf("empty section made %d registry lookups", registry.lookups)
	}
	if result.Position != (voxel.SectionPosition{Y: 5}) {
		t.Errorf("position = %v", result.Position)
	}
}

func TestSingleDecodedBlock(t *testing.T) {
	section := voxel.NewEmptySection()
	section.Set(0, 0, 0, stone)
	packet := &protocol.ChunkData{FullChunk: true}
	packet.Sections[3] = section

	var buf bytes.Buffer
	if err := protocol.EncodeChunkData(&buf, packet); err != nil {
		t.Fatal(err)
	}
	decoded, err := protocol.DecodeChunkData(&buf)
	if err != nil {
		t.Fatal(err)
	}

	world := newColumns(true)
	world[voxel.ChunkPosition{}] = decoded.Apply(nil)
	result := world.build(3, testRegistry())

	if got := result.Opaque.VertexCount(); got != 24 {
		t.Errorf("vertices = %d, want 24", got)
	}
	if got := len(result.Opaque.Indices); got != 36 {
		t.Errorf("indices = %d, want 36", got)
	}
	if !result.Transparent.IsEmpty() || !result.Translucent.IsEmpty() {
		t.Error("opaque block leaked into other batches")
	}

	shades := map[float32]int{}
	for _, v := range result.Opaque.Vertices {
		p := v.Position
		if p.X() < 0 || p.X() > 1 || p.Y() < 48 || p.Y() > 49 || p.Z() < 0 || p.Z() > 1 {
			t.Errorf("vertex %v outside the block", p)
		}
		shades[v.Color.X()]++
	}
	want := map[float32]int{1.0: 4, 0.5: 4, 0.8: 8, 0.6: 8}
	for shade, count := range want {
		if shades[shade] != count {
			t.Errorf("%d vertices with shade %v, want %d", shades[shade], shade, count)
		}
	}
}

func TestOpaqueSectionCulling(t *testing.T) {
	center := voxel.ChunkPosition{}
	tests := []struct {
		name  string
		setup func(c columns)
		quads int
	}{
		{
			name: "enclosed by loaded stone",
			setup: func(c columns) {
				c.fillSection(center, 3, stone)
				c.fillSection(center, 5, stone)
				for _, d := range voxel.HorizontalDirections {
					c.fillSection(center.Neighbour(d), 4, stone)
				}
			},
			quads: 0,
		},
		{
			name:  "air neighbours",
			setup: func(c columns) {},
			quads: 6 * 256,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := newColumns(true)
			world.fillSection(center, 4, stone)
			tt.setup(world)
			result := world.build(4, testRegistry())
			if got := result.Opaque.VertexCount(); got != tt.quads*4 {
				t.Errorf("vertices = %d, want %d", got, tt.quads*4)
			}
			if got := len(result.Opaque.Indices); got != tt.quads*6 {
				t.Errorf("indices = %d, want %d", got, tt.quads*6)
			}
		})
	}

	t.Run("unloaded neighbours do not cull", func(t *testing.T) {
		world := newColumns(false)
		world.fillSection(center, 4, stone)
		result := world.build(4, testRegistry())
		if got := result.Opaque.VertexCount(); got != 6*256*4 {
			t.Errorf("vertices = %d, want %d", got, 6*256*4)
		}
	})
}

func TestFaceCulling(t *testing.T) {
	tests := []struct {
		name        string
		section     int
		blocks      map[voxel.Int3]voxel.BlockID
		opaque      int
		transparent int
	}{
		{
			name:        "glass culls glass",
			section:     4,
			blocks:      map[voxel.Int3]voxel.BlockID{{X: 3, Y: 64, Z: 3}: glass, {X: 4, Y: 64, Z: 3}: glass},
			transparent: 10,
		},
		{
			name:        "stone hides glass but not the other way",
			section:     4,
			blocks:      map[voxel.Int3]voxel.BlockID{{X: 3, Y: 64, Z: 3}: glass, {X: 4, Y: 64, Z: 3}: stone},
			opaque:      6,
			transparent: 5,
		},
		{
			name:    "stone in the neighbouring chunk",
			section: 4,
			blocks:  map[voxel.Int3]voxel.BlockID{{X: 15, Y: 64, Z: 0}: stone, {X: 16, Y: 64, Z: 0}: stone},
			opaque:  5,
		},
		{
			name:    "section boundary",
			section: 4,
			blocks:  map[voxel.Int3]voxel.BlockID{{X: 2, Y: 64, Z: 2}: stone, {X: 2, Y: 63, Z: 2}: stone},
			opaque:  5,
		},
		{
			name:    "world top",
			section: 15,
			blocks:  map[voxel.Int3]voxel.BlockID{{X: 2, Y: 255, Z: 2}: stone},
			opaque:  6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := newColumns(true)
			for p, id := range tt.blocks {
				world.set(p.X, p.Y, p.Z, id)
			}
			result := world.build(tt.section, testRegistry())
			if got := result.Opaque.VertexCount() / 4; got != tt.opaque {
				t.Errorf("opaque quads = %d, want %d", got, tt.opaque)
			}
			if got := result.Transparent.VertexCount() / 4; got != tt.transparent {
				t.Errorf("transparent quads = %d, want %d", got, tt.transparent)
			}
		})
	}
}

func TestAlwaysVisibleFaces(t *testing.T) {
	world := newColumns(true)
	p := voxel.Int3{X: 8, Y: 72, Z: 8}
	world.set(p.X, p.Y, p.Z, flower)
	for _, d := range voxel.AllDirections {
		n := p.Add(d.Offset())
		world.set(n.X, n.Y, n.Z, stone)
	}
	result := world.build(4, testRegistry())
	if got := result.Transparent.VertexCount(); got != 16 {
		t.Errorf("flower vertices = %d, want 16", got)
	}
	for _, v := range result.Transparent.Vertices {
		if !v.Transparent {
			t.Fatal("flower vertex not flagged transparent")
		}
	}
}

func TestTranslucentElementIsCentred(t *testing.T) {
	world := newColumns(true)
	world.set(3, 70, 5, stainedGlass)
	result := world.build(4, testRegistry())

	if got := result.Translucent.Len(); got != 1 {
		t.Fatalf("translucent elements = %d, want 1", got)
	}
	element := result.Translucent.Elements()[0]
	if want := (mgl32.Vec3{3.5, 70.5, 5.5}); !approxVec3(element.Center, want) {
		t.Errorf("centre = %v, want %v", element.Center, want)
	}
	if got := element.Geometry.VertexCount(); got != 24 {
		t.Errorf("vertices = %d, want 24", got)
	}
	if !result.Opaque.IsEmpty() || !result.Transparent.IsEmpty() {
		t.Error("translucent faces leaked into other batches")
	}
}

func maxY(g mesh.Geometry) float32 {
	var result float32
	for _, v := range g.Vertices {
		if v.Position.Y() > result {
			result = v.Position.Y()
		}
	}
	return result
}

func TestFluidSurfaces(t *testing.T) {
	source := voxel.Int3{X: 4, Y: 65, Z: 4}
	center := source.ToBlockCenterVec3()

	t.Run("still", func(t *testing.T) {
		world := newColumns(true)
		world.set(source.X, source.Y, source.Z, water)
		result := world.build(4, testRegistry())
		element, ok := elementAt(result, center)
		if !ok {
			t.Fatal("no element at the block centre")
		}
		if got := element.Geometry.VertexCount(); got != 24 {
			t.Errorf("vertices = %d, want 24", got)
		}
		if got := maxY(element.Geometry); got != 65+model.MAX_FLUID_HEIGHT {
			t.Errorf("surface at %v, want %v", got, 65+model.MAX_FLUID_HEIGHT)
		}
		top := element.Geometry.Vertices[0]
		if top.TextureIndex != stillWaterTexture {
			t.Errorf("top texture = %d, want still", top.TextureIndex)
		}
		if !approxVec3(top.Color, waterColor) {
			t.Errorf("top colour = %v, want %v", top.Color, waterColor)
		}
	})

	t.Run("same fluid above", func(t *testing.T) {
		world := newColumns(true)
		world.set(source.X, source.Y, source.Z, water)
		world.set(source.X, source.Y+1, source.Z, water)
		result := world.build(4, testRegistry())
		element, ok := elementAt(result, center)
		if !ok {
			t.Fatal("no element at the block centre")
		}
		if got := element.Geometry.VertexCount(); got != 20 {
			t.Errorf("vertices = %d, want 20", got)
		}
		if got := maxY(element.Geometry); got != 66 {
			t.Errorf("corners reach %v, want 66", got)
		}
	})

	t.Run("enclosed", func(t *testing.T) {
		world := newColumns(true)
		for dx := int32(-1); dx <= 1; dx++ {
			for dy := int32(-1); dy <= 1; dy++ {
				for dz := int32(-1); dz <= 1; dz++ {
					world.set(source.X+dx, source.Y+dy, source.Z+dz, water)
				}
			}
		}
		result := world.build(4, testRegistry())
		if _, ok := elementAt(result, center); ok {
			t.Error("enclosed fluid produced geometry")
		}
		if got := result.Translucent.Len(); got != 26 {
			t.Errorf("elements = %d, want 26", got)
		}
	})

	t.Run("missing texture", func(t *testing.T) {
		world := newColumns(true)
		world.set(source.X, source.Y, source.Z, brokenWater)
		if result := world.build(4, testRegistry()); !result.IsEmpty() {
			t.Error("fluid without textures produced geometry")
		}
	})
}

func TestFlowingFluid(t *testing.T) {
	low := voxel.Int3{X: 4, Y: 65, Z: 4}
	tests := []struct {
		name    string
		source  voxel.Int3
		winding [6]uint32
		heights map[[2]float32]float32
	}{
		{
			name:    "two raised corners",
			source:  voxel.Int3{X: 5, Y: 65, Z: 4},
			winding: mesh.QuadWinding,
			heights: map[[2]float32]float32{{4, 4}: 0.40625, {5, 4}: 0.8125, {5, 5}: 0.8125, {4, 5}: 0.40625},
		},
		{
			name:    "one raised corner",
			source:  voxel.Int3{X: 5, Y: 65, Z: 5},
			winding: rotatedWinding,
			heights: map[[2]float32]float32{{4, 4}: 0.40625, {5, 4}: 0.40625, {5, 5}: 0.8125, {4, 5}: 0.40625},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := newColumns(true)
			world.set(low.X, low.Y, low.Z, waterLevel4)
			world.set(tt.source.X, tt.source.Y, tt.source.Z, water)
			result := world.build(4, testRegistry())
			element, ok := elementAt(result, low.ToBlockCenterVec3())
			if !ok {
				t.Fatal("no element at the block centre")
			}
			g := element.Geometry
			for i := 0; i < 4; i++ {
				v := g.Vertices[i]
				if v.TextureIndex != flowingWaterTexture {
					t.Errorf("top vertex %d texture = %d, want flowing", i, v.TextureIndex)
				}
				key := [2]float32{v.Position.X(), v.Position.Z()}
				if want := tt.heights[key] + 65; v.Position.Y() != want {
					t.Errorf("corner %v at %v, want %v", key, v.Position.Y(), want)
				}
				for _, c := range []float32{v.UV.X(), v.UV.Y()} {
					if c < 0 || c > 1 {
						t.Errorf("flowing uv %v outside the texture", v.UV)
					}
				}
			}
			var winding [6]uint32
			copy(winding[:], g.Indices[:6])
			if winding != tt.winding {
				t.Errorf("winding = %v, want %v", winding, tt.winding)
			}
		})
	}
}

func TestFlowingTopUVsAxisAligned(t *testing.T) {
	// west side low, flow towards -x
	uvs, winding := flowingTopUVs([4]float32{cornerNW: 0.4, cornerNE: 0.8, cornerSE: 0.8, cornerSW: 0.4})
	if winding != mesh.QuadWinding {
		t.Errorf("winding = %v", winding)
	}
	// a quarter turn keeps the half texture axis aligned
	for _, uv := range uvs {
		for _, c := range []float32{uv.X(), uv.Y()} {
			if !mgl32.FloatEqualThreshold(c, 0.25, 1e-4) && !mgl32.FloatEqualThreshold(c, 0.75, 1e-4) {
				t.Errorf("uv %v is not axis aligned", uv)
			}
		}
	}
}

func BenchmarkBuildSection(b *testing.B) {
	world := newColumns(true)
	ids := []voxel.BlockID{voxel.AIR, stone, glass, water, flower, stainedGlass, stone, voxel.AIR}
	for y := int32(64); y < 80; y++ {
		for z := int32(0); z < 16; z++ {
			for x := int32(0); x < 16; x++ {
				world.set(x, y, z, ids[(x*7+y*3+z*5)%int32(len(ids))])
			}
		}
	}
	registry := testRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.build(4, registry)
	}
}
