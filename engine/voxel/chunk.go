package voxel

import (
	"fmt"

	"github.com/Tnze/go-mc/nbt"
)

type ChunkPosition struct {
	X, Z int32
}

func ChunkPositionOf(block Int3) ChunkPosition {
	return ChunkPosition{X: block.X >> 4, Z: block.Z >> 4}
}

func (p ChunkPosition) Offset(dx, dz int32) ChunkPosition {
	return ChunkPosition{X: p.X + dx, Z: p.Z + dz}
}

// Neighbour returns p itself for Up and Down.
func (p ChunkPosition) Neighbour(d Direction) ChunkPosition {
	o := d.Offset()
	return p.Offset(o.X, o.Z)
}

func (p ChunkPosition) BlockOrigin() Int3 {
	return Int3{X: p.X * SECTION_SIZE, Z: p.Z * SECTION_SIZE}
}

func (p ChunkPosition) SectionOrigin(sectionY int32) Int3 {
	return Int3{X: p.X * SECTION_SIZE, Y: sectionY * SECTION_SIZE, Z: p.Z * SECTION_SIZE}
}

func (p ChunkPosition) String() string {
	return fmt.Sprintf("chunk(%d, %d)", p.X, p.Z)
}

// SectionPosition is measured in sections, Y in 0..15 for sections that exist.
type SectionPosition struct {
	X, Y, Z int32
}

func SectionPositionOf(block Int3) SectionPosition {
	return SectionPosition{X: block.X >> 4, Y: block.Y >> 4, Z: block.Z >> 4}
}

func (p SectionPosition) Chunk() ChunkPosition {
	return ChunkPosition{X: p.X, Z: p.Z}
}

func (p SectionPosition) Origin() Int3 {
	return Int3{X: p.X * SECTION_SIZE, Y: p.Y * SECTION_SIZE, Z: p.Z * SECTION_SIZE}
}

func (p SectionPosition) Neighbour(d Direction) SectionPosition {
	o := d.Offset()
	return SectionPosition{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

func (p SectionPosition) IsValid() bool {
	return p.Y >= 0 && p.Y < SECTIONS_PER_CHUNK
}

func (p SectionPosition) String() string {
	return fmt.Sprintf("section(%d, %d, %d)", p.X, p.Y, p.Z)
}

// HeightMap holds the MOTION_BLOCKING height of each column, indexed by z*16+x.
type HeightMap [HEIGHTMAP_SIZE]int16

func (h *HeightMap) Height(x, z int32) int16 {
	return h[(z&15)<<4|(x&15)]
}

// BlockEntity.Data is the full compound as a standalone NBT document.
type BlockEntity struct {
	Position   Int3
	Identifier string
	Data       []byte
}

func (e BlockEntity) Unmarshal(v any) error {
	return nbt.Unmarshal(e.Data, v)
}

type Chunk struct {
	position      ChunkPosition
	sections      [SECTIONS_PER_CHUNK]*Section
	heightMap     HeightMap
	biomes        [BIOMES_PER_CHUNK]uint8
	blockEntities map[Int3]BlockEntity
	lighting      *ChunkLighting
}

// NewChunk creates an all air chunk with default lighting.
func NewChunk(position ChunkPosition) *Chunk {
	c := &Chunk{
		position:      position,
		blockEntities: make(map[Int3]BlockEntity),
		lighting:      NewChunkLighting(),
	}
	for i := range c.sections {
		c.sections[i] = NewEmptySection()
	}
	return c
}

func (c *Chunk) Position() ChunkPosition {
	return c.position
}

func (c *Chunk) Section(index int) *Section {
	if index < 0 || index >= SECTIONS_PER_CHUNK {
		return nil
	}
	return c.sections[index]
}

func (c *Chunk) SetSection(index int, section *Section) {
	if index < 0 || index >= SECTIONS_PER_CHUNK {
		return
	}
	if section == nil {
		section = NewEmptySection()
	}
	c.sections[index] = section
}

func (c *Chunk) Contains(x, y, z int32) bool {
	return x >= 0 && x < SECTION_SIZE && y >= 0 && y < CHUNK_HEIGHT && z >= 0 && z < SECTION_SIZE
}

// BlockID takes chunk local coordinates and returns air outside the chunk.
func (c *Chunk) BlockID(x, y, z int32) BlockID {
	if !c.Contains(x, y, z) {
		return AIR
	}
	return c.sections[y>>4].Get(x, y&15, z)
}

func (c *Chunk) SetBlockID(x, y, z int32, id BlockID) {
	if !c.Contains(x, y, z) {
		return
	}
	c.sections[y>>4].Set(x, y&15, z, id)
}

func (c *Chunk) HeightMap() HeightMap {
	return c.heightMap
}

func (c *Chunk) SetHeightMap(heightMap HeightMap) {
	c.heightMap = heightMap
}

func BiomeIndex(x, y, z int32) int {
	return int(y>>2)<<4 | int(z>>2)<<2 | int(x>>2)
}

func (c *Chunk) Biome(x, y, z int32) uint8 {
	if !c.Contains(x, y, z) {
		return 0
	}
	return c.biomes[BiomeIndex(x, y, z)]
}

func (c *Chunk) Biomes() [BIOMES_PER_CHUNK]uint8 {
	return c.biomes
}

func (c *Chunk) SetBiomes(biomes [BIOMES_PER_CHUNK]uint8) {
	c.biomes = biomes
}

func (c *Chunk) BlockEntities() []BlockEntity {
	result := make([]BlockEntity, 0, len(c.blockEntities))
	for _, entity := range c.blockEntities {
		result = append(result, entity)
	}
	return result
}

func (c *Chunk) BlockEntityAt(position Int3) (BlockEntity, bool) {
	entity, ok := c.blockEntities[position]
	return entity, ok
}

func (c *Chunk) SetBlockEntity(entity BlockEntity) {
	c.blockEntities[entity.Position] = entity
}

func (c *Chunk) RemoveBlockEntity(position Int3) {
	delete(c.blockEntities, position)
}

func (c *Chunk) ClearBlockEntities() {
	c.blockEntities = make(map[Int3]BlockEntity)
}

func (c *Chunk) Lighting() *ChunkLighting {
	return c.lighting
}

func (c *Chunk) SetLighting(lighting *ChunkLighting) {
	if lighting == nil {
		lighting = NewChunkLighting()
	}
	c.lighting = lighting
}

// Light takes chunk local x and z and a world y.
func (c *Chunk) Light(x, y, z int32) LightLevel {
	return c.lighting.LightAt(x, y, z)
}
