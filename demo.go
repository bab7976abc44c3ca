package main

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/stackotter/delta-client-sub000/engine/model"
	"github.com/stackotter/delta-client-sub000/engine/protocol"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// block states of the demo world, numbered like the 1.16 global palette
const (
	blockStone     voxel.BlockID = 1
	blockGrass     voxel.BlockID = 9
	blockDirt      voxel.BlockID = 10
	blockWater     voxel.BlockID = 34
	blockGlass     voxel.BlockID = 231
	blockPoppy     voxel.BlockID = 1413
	blockGlowstone voxel.BlockID = 4013
	biomePlains    uint8         = 1
	demoSeaLevel                 = 62
	demoGlowstoneY               = 70
)

var demoTextures = map[string]color.NRGBA{
	"block/stone":            {125, 125, 125, 255},
	"block/dirt":             {134, 96, 67, 255},
	"block/grass_block_top":  {145, 145, 145, 255},
	"block/grass_block_side": {120, 110, 80, 255},
	"block/glass":            {200, 230, 240, 90},
	"block/water_still":      {170, 170, 170, 180},
	"block/water_flow":       {160, 160, 160, 180},
	"block/poppy":            {200, 30, 30, 255},
	"block/glowstone":        {250, 210, 120, 255},
}

// demoTile draws a checkered tile so faces stay distinguishable in the export.
func demoTile(c color.NRGBA) image.Image {
	tile := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			shade := c
			if (x/4+y/4)%2 == 0 {
				shade.R, shade.G, shade.B = shade.R-shade.R/8, shade.G-shade.G/8, shade.B-shade.B/8
			}
			tile.SetNRGBA(x, y, shade)
		}
	}
	return tile
}

func demoTextureIDs() []string {
	identifiers := make([]string, 0, len(demoTextures))
	for id := range demoTextures {
		identifiers = append(identifiers, id)
	}
	return identifiers
}

func demoPalette() *model.TexturePalette {
	palette := model.NewTexturePalette(demoTextureIDs())
	for id, c := range demoTextures {
		index, _ := palette.TextureIndex(id)
		palette.SetTile(index, demoTile(c))
	}
	return palette
}

func demoRegistry(palette *model.TexturePalette) *model.MemoryRegistry {
	texture := func(id string) int {
		index, ok := palette.TextureIndex(id)
		if !ok {
			return -1
		}
		return index
	}
	registry := model.NewMemoryRegistry()
	registry.AddBlock(blockStone, "minecraft:stone", model.NewUniformCubeModel(texture("block/stone"), model.TextureOpaque))
	registry.AddBlock(blockDirt, "minecraft:dirt", model.NewUniformCubeModel(texture("block/dirt"), model.TextureOpaque))
	registry.AddBlock(blockGlowstone, "minecraft:glowstone", model.NewUniformCubeModel(texture("block/glowstone"), model.TextureOpaque))

	side := texture("block/grass_block_side")
	grass := [6]int{}
	for _, d := range voxel.AllDirections {
		grass[d] = side
	}
	grass[voxel.Up] = texture("block/grass_block_top")
	grass[voxel.Down] = texture("block/dirt")
	registry.AddBlock(blockGrass, "minecraft:grass_block", model.NewCubeModel(grass, model.TextureOpaque, voxel.NewDirectionSet(voxel.Up), model.TintGrass))

	registry.AddBlock(blockGlass, "minecraft:glass", model.NewUniformCubeModel(texture("block/glass"), model.TextureTransparent))
	registry.SetSelfCulling(blockGlass)
	registry.AddBlock(blockPoppy, "minecraft:poppy", model.NewCrossModel(texture("block/poppy"), model.TintNone))

	water := &model.Fluid{
		Identifier:     "minecraft:water",
		StillTexture:   texture("block/water_still"),
		FlowingTexture: texture("block/water_flow"),
		Tinted:         true,
	}
	for level := 0; level < model.FLUID_LEVELS; level++ {
		registry.AddFluid(blockWater+voxel.BlockID(level), "minecraft:water", model.FluidState{Fluid: water, Level: level})
	}
	return registry
}

func demoBiomes() *model.MemoryBiomeRegistry {
	grass := model.GradientColorMap(color.NRGBA{R: 191, G: 183, B: 85, A: 255}, color.NRGBA{R: 71, G: 205, B: 51, A: 255})
	foliage := model.GradientColorMap(color.NRGBA{R: 174, G: 164, B: 42, A: 255}, color.NRGBA{R: 26, G: 191, B: 0, A: 255})
	biomes := model.NewMemoryBiomeRegistry(grass, foliage)
	biomes.AddBiome(&model.Biome{
		ID:          biomePlains,
		Identifier:  "minecraft:plains",
		Temperature: 0.8,
		Rainfall:    0.4,
		WaterColor:  model.HexColor(0x3F76E4),
	})
	return biomes
}

func demoHeight(x, z int32) int32 {
	fx, fz := float64(x), float64(z)
	return demoSeaLevel + int32(math.Round(4*math.Sin(fx/7)+3*math.Cos(fz/5)))
}

// demoColumn generates rolling hills with a lake at sea level, a few
// flowers, a glass tower and a glowstone lamp in the middle of the area.
func demoColumn(position voxel.ChunkPosition) *protocol.ChunkData {
	chunk := voxel.NewChunk(position)
	origin := position.BlockOrigin()
	var heightMap voxel.HeightMap
	for z := int32(0); z < voxel.SECTION_SIZE; z++ {
		for x := int32(0); x < voxel.SECTION_SIZE; x++ {
			wx, wz := origin.X+x, origin.Z+z
			height := demoHeight(wx, wz)
			top := height
			for y := int32(0); y <= height; y++ {
				switch {
				case y < height-3:
					chunk.SetBlockID(x, y, z, blockStone)
				case y < height || height < demoSeaLevel:
					chunk.SetBlockID(x, y, z, blockDirt)
				default:
					chunk.SetBlockID(x, y, z, blockGrass)
				}
			}
			for y := height + 1; y <= demoSeaLevel; y++ {
				chunk.SetBlockID(x, y, z, blockWater)
				top = y
			}
			if height >= demoSeaLevel && (wx*31+wz*17)%23 == 0 {
				chunk.SetBlockID(x, height+1, z, blockPoppy)
			}
			if wx == 3 && wz == 3 {
				for y := height + 1; y < height+6; y++ {
					chunk.SetBlockID(x, y, z, blockGlass)
				}
				top = height + 5
			}
			if wx == 8 && wz == 8 {
				chunk.SetBlockID(x, demoGlowstoneY, z, blockGlowstone)
				top = demoGlowstoneY
			}
			heightMap[z*voxel.SECTION_SIZE+x] = int16(top)
		}
	}

	biomes := [voxel.BIOMES_PER_CHUNK]uint8{}
	for i := range biomes {
		biomes[i] = biomePlains
	}
	data := &protocol.ChunkData{
		Position:     position,
		FullChunk:    true,
		HeightMap:    heightMap,
		HasHeightMap: true,
		Biomes:       &biomes,
	}
	for i := 0; i < voxel.SECTIONS_PER_CHUNK; i++ {
		data.Sections[i] = chunk.Section(i)
	}
	return data
}

// demoLight lights every section with full sky light and gives the section
// holding the glowstone lamp block light 10.
func demoLight(position voxel.ChunkPosition) *protocol.LightData {
	light := &protocol.LightData{Position: position}
	for i := 0; i < voxel.LIGHT_SECTIONS; i++ {
		light.SkyLightMask |= 1 << i
		light.SkyLight[i] = bytes.Repeat([]byte{0xFF}, voxel.LIGHT_ARRAY_LENGTH)
	}
	if position == (voxel.ChunkPosition{}) {
		slot := demoGlowstoneY/voxel.SECTION_SIZE + 1
		light.BlockLightMask |= 1 << slot
		light.BlockLight[slot] = bytes.Repeat([]byte{0xAA}, voxel.LIGHT_ARRAY_LENGTH)
	}
	return light
}

// demoPackets encodes light and chunk data packets for every column within radius of the origin.
func demoPackets(radius int32) (light [][]byte, chunks [][]byte, err error) {
	for x := -radius; x <= radius; x++ {
		for z := -radius; z <= radius; z++ {
			position := voxel.ChunkPosition{X: x, Z: z}
			var lightBuf, chunkBuf bytes.Buffer
			if err := protocol.EncodeLightData(&lightBuf, demoLight(position)); err != nil {
				return nil, nil, err
			}
			if err := protocol.EncodeChunkData(&chunkBuf, demoColumn(position)); err != nil {
				return nil, nil, err
			}
			light = append(light, lightBuf.Bytes())
			chunks = append(chunks, chunkBuf.Bytes())
		}
	}
	return light, chunks, nil
}
