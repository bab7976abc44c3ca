package voxel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Tnze/go-mc/nbt"
)

func TestBlockIndexRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z int32
		index   int
	}{
		{"origin", 0, 0, 0, 0},
		{"x_max", 15, 0, 0, 15},
		{"z_one", 0, 0, 1, 16},
		{"y_one", 0, 1, 0, 256},
		{"corner", 15, 15, 15, 4095},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BlockIndex(tt.x, tt.y, tt.z); got != tt.index {
				t.Errorf("BlockIndex = %d, want %d", got, tt.index)
			}
			if got := PositionOfIndex(tt.index); got != (Int3{tt.x, tt.y, tt.z}) {
				t.Errorf("PositionOfIndex(%d) = %s", tt.index, got.ToString())
			}
		})
	}
}

func TestSectionSetKeepsBlockCount(t *testing.T) {
	s := NewEmptySection()
	if !s.IsEmpty() {
		t.Fatal("new section should be empty")
	}
	s.Set(1, 2, 3, 7)
	s.Set(1, 2, 3, 8)
	s.Set(4, 4, 4, 9)
	if s.BlockCount() != 2 {
		t.Errorf("BlockCount = %d, want 2", s.BlockCount())
	}
	if s.Get(1, 2, 3) != 8 {
		t.Errorf("Get = %d, want 8", s.Get(1, 2, 3))
	}
	s.Set(1, 2, 3, AIR)
	s.Set(4, 4, 4, AIR)
	if !s.IsEmpty() {
		t.Errorf("section should be empty again, count %d", s.BlockCount())
	}
	if s.Get(-1, 0, 0) != AIR || s.Get(0, 16, 0) != AIR {
		t.Errorf("out of range reads must return air")
	}
}

func TestNewSectionRequiresFullArray(t *testing.T) {
	_, err := NewSection(make([]BlockID, 100), 1, nil)
	if err == nil {
		t.Fatal("expected an error for a short block array")
	}
	if !strings.Contains(err.Error(), "got 100") {
		t.Errorf("error %q does not name the block count", err)
	}
	s, err := NewSection(make([]BlockID, SECTION_VOLUME), 0, []BlockID{0})
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsEmpty() {
		t.Error("a zero block count marks the section empty")
	}
}

func TestChunkBlocksAndBiomes(t *testing.T) {
	c := NewChunk(ChunkPosition{X: -2, Z: 5})
	c.SetBlockID(3, 200, 15, 42)
	if got := c.BlockID(3, 200, 15); got != 42 {
		t.Errorf("BlockID = %d, want 42", got)
	}
	if c.Section(12).BlockCount() != 1 {
		t.Errorf("section 12 count = %d, want 1", c.Section(12).BlockCount())
	}
	if c.BlockID(3, 256, 15) != AIR || c.BlockID(3, -1, 15) != AIR {
		t.Errorf("outside the column must be air")
	}

	var biomes [BIOMES_PER_CHUNK]uint8
	biomes[BiomeIndex(5, 9, 13)] = 6
	c.SetBiomes(biomes)
	if got := c.Biome(4, 8, 12); got != 6 {
		t.Errorf("Biome in the same 4x4x4 cell = %d, want 6", got)
	}
	if BiomeIndex(5, 9, 13) != 2<<4|3<<2|1 {
		t.Errorf("BiomeIndex = %d", BiomeIndex(5, 9, 13))
	}
	if origin := c.Position().SectionOrigin(3); origin != (Int3{-32, 48, 80}) {
		t.Errorf("SectionOrigin = %s", origin.ToString())
	}
}

func TestChunkLightingNibbles(t *testing.T) {
	c := NewChunk(ChunkPosition{})
	if got := c.Light(0, 0, 0); got != DefaultLightLevel {
		t.Errorf("default light = %+v", got)
	}
	sky := make([]byte, LIGHT_ARRAY_LENGTH)
	sky[0] = 0x3A // x=0 -> 10, x=1 -> 3
	c.Lighting().SetSkyLight(0, sky)
	c.Lighting().ZeroBlockLight(0)
	if got := c.Light(0, 0, 0); got != (LightLevel{Block: 0, Sky: 10}) {
		t.Errorf("light at x=0 = %+v", got)
	}
	if got := c.Light(1, 0, 0); got.Sky != 3 {
		t.Errorf("sky at x=1 = %d, want 3", got.Sky)
	}
	// section -1 sits below y=0
	block := make([]byte, LIGHT_ARRAY_LENGTH)
	block[BlockIndex(0, 15, 0)>>1] = 0x0C
	c.Lighting().SetBlockLight(-1, block)
	if got := c.Light(0, -1, 0); got.Block != 12 || got.Sky != MAX_LIGHT_LEVEL {
		t.Errorf("light below the world = %+v", got)
	}
	if got := (LightLevel{Block: 4, Sky: 2}).Max(LightLevel{Block: 1, Sky: 9}); got != (LightLevel{4, 9}) {
		t.Errorf("Max = %+v", got)
	}
}

func TestWorldGlobalAccess(t *testing.T) {
	w := NewWorld()
	w.Update(func(w *World) {
		w.SetChunk(NewChunk(ChunkPosition{X: -1, Z: -1}))
		if !w.SetGlobalBlock(Int3{X: -1, Y: 64, Z: -16}, 5) {
			t.Error("SetGlobalBlock in a loaded chunk failed")
		}
		if w.SetGlobalBlock(Int3{X: 0, Y: 64, Z: 0}, 5) {
			t.Error("SetGlobalBlock in a missing chunk succeeded")
		}
	})
	w.View(func(w *World) {
		if got := w.GetGlobalBlock(Int3{X: -1, Y: 64, Z: -16}); got != 5 {
			t.Errorf("GetGlobalBlock = %d, want 5", got)
		}
		if w.GetChunk(ChunkPosition{X: -1, Z: -1}).BlockID(15, 64, 0) != 5 {
			t.Error("block landed at the wrong local position")
		}
		if w.NeighboursLoaded(ChunkPosition{X: -1, Z: -1}) {
			t.Error("neighbours are not loaded")
		}
	})
}

func TestWorldSnapshotRoundTrip(t *testing.T) {
	w := NewWorld()
	entityData, err := nbt.Marshal(map[string]any{"x": int32(1), "y": int32(70), "z": int32(2), "id": "minecraft:chest"})
	if err != nil {
		t.Fatal(err)
	}
	w.Update(func(w *World) {
		c := NewChunk(ChunkPosition{X: 3, Z: -4})
		c.SetBlockID(1, 70, 2, 54)
		c.SetBlockID(0, 0, 0, 1)
		var heights HeightMap
		heights[17] = 71
		c.SetHeightMap(heights)
		c.Lighting().ZeroSkyLight(4)
		c.SetBlockEntity(BlockEntity{
			Position:   Int3{X: 49, Y: 70, Z: -62},
			Identifier: "minecraft:chest",
			Data:       entityData,
		})
		w.SetChunk(c)
	})

	var buf bytes.Buffer
	if err := w.SaveSnapshot(&buf); err != nil {
		t.Fatal(err)
	}
	loaded := NewWorld()
	count, err := loaded.LoadSnapshot(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("loaded %d chunks, want 1", count)
	}
	loaded.View(func(w *World) {
		c := w.GetChunk(ChunkPosition{X: 3, Z: -4})
		if c == nil {
			t.Fatal("chunk missing after load")
		}
		if c.BlockID(1, 70, 2) != 54 || c.BlockID(0, 0, 0) != 1 {
			t.Error("blocks differ after load")
		}
		if c.Section(4).BlockCount() != 1 {
			t.Errorf("section 4 count = %d, want 1", c.Section(4).BlockCount())
		}
		if c.HeightMap()[17] != 71 {
			t.Error("height map differs after load")
		}
		if c.Light(0, 64, 0).Sky != 0 {
			t.Error("zeroed sky light was lost")
		}
		entity, ok := c.BlockEntityAt(Int3{X: 49, Y: 70, Z: -62})
		if !ok || entity.Identifier != "minecraft:chest" || !bytes.Equal(entity.Data, entityData) {
			t.Fatalf("block entity differs after load: %+v", entity)
		}
		var fields struct {
			Y  int32  `nbt:"y"`
			ID string `nbt:"id"`
		}
		if err := entity.Unmarshal(&fields); err != nil {
			t.Fatal(err)
		}
		if fields.Y != 70 || fields.ID != "minecraft:chest" {
			t.Errorf("decoded block entity = %+v", fields)
		}
	})
}

func TestLoadSnapshotRejectsGarbage(t *testing.T) {
	if _, err := NewWorld().LoadSnapshot(bytes.NewReader([]byte("not gzip"))); err == nil {
		t.Error("expected an error")
	}
}
