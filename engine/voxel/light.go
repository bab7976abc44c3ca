package voxel

const (
	MAX_LIGHT_LEVEL = 15

	// one section below and one above the chunk carry light too
	LIGHT_SECTIONS     = SECTIONS_PER_CHUNK + 2
	LIGHT_ARRAY_LENGTH = SECTION_VOLUME / 2
)

type LightLevel struct {
	Block uint8
	Sky   uint8
}

var DefaultLightLevel = LightLevel{Block: 0, Sky: MAX_LIGHT_LEVEL}

func (l LightLevel) Max(other LightLevel) LightLevel {
	if other.Block > l.Block {
		l.Block = other.Block
	}
	if other.Sky > l.Sky {
		l.Sky = other.Sky
	}
	return l
}

// Brightness is max(block, sky) normalised to [0, 1].
func (l LightLevel) Brightness() float32 {
	level := l.Block
	if l.Sky > level {
		level = l.Sky
	}
	return float32(level) / MAX_LIGHT_LEVEL
}

// ChunkLighting holds nibble arrays for light sections -1..16.
// A nil array falls back to DefaultLightLevel for that channel.
type ChunkLighting struct {
	sky   [LIGHT_SECTIONS][]byte
	block [LIGHT_SECTIONS][]byte
}

func NewChunkLighting() *ChunkLighting {
	return &ChunkLighting{}
}

func lightSlot(sectionY int) (int, bool) {
	slot := sectionY + 1
	return slot, slot >= 0 && slot < LIGHT_SECTIONS
}

// SetSkyLight replaces the sky light of a section, data nil resets it to the default.
func (l *ChunkLighting) SetSkyLight(sectionY int, data []byte) {
	if slot, ok := lightSlot(sectionY); ok {
		l.sky[slot] = data
	}
}

func (l *ChunkLighting) SetBlockLight(sectionY int, data []byte) {
	if slot, ok := lightSlot(sectionY); ok {
		l.block[slot] = data
	}
}

// SkyLight returns the raw nibble array of a section, nil when unknown.
func (l *ChunkLighting) SkyLight(sectionY int) []byte {
	if slot, ok := lightSlot(sectionY); ok && l != nil {
		return l.sky[slot]
	}
	return nil
}

func (l *ChunkLighting) BlockLight(sectionY int) []byte {
	if slot, ok := lightSlot(sectionY); ok && l != nil {
		return l.block[slot]
	}
	return nil
}

// ZeroSkyLight marks a section as having no sky light at all.
func (l *ChunkLighting) ZeroSkyLight(sectionY int) {
	l.SetSkyLight(sectionY, make([]byte, LIGHT_ARRAY_LENGTH))
}

func (l *ChunkLighting) ZeroBlockLight(sectionY int) {
	l.SetBlockLight(sectionY, make([]byte, LIGHT_ARRAY_LENGTH))
}

// LightAt takes chunk local x and z and a world y.
func (l *ChunkLighting) LightAt(x, y, z int32) LightLevel {
	if l == nil {
		return DefaultLightLevel
	}
	sectionY, localY := FloorDiv16(y)
	slot, ok := lightSlot(int(sectionY))
	if !ok {
		return DefaultLightLevel
	}
	index := BlockIndex(x&15, localY, z&15)
	result := DefaultLightLevel
	if data := l.sky[slot]; data != nil {
		result.Sky = nibble(data, index)
	}
	if data := l.block[slot]; data != nil {
		result.Block = nibble(data, index)
	}
	return result
}

func nibble(data []byte, index int) uint8 {
	b := index >> 1
	if b >= len(data) {
		return 0
	}
	if index&1 == 0 {
		return data[b] & 0x0F
	}
	return data[b] >> 4
}

func (l *ChunkLighting) Clone() *ChunkLighting {
	clone := &ChunkLighting{}
	for i := 0; i < LIGHT_SECTIONS; i++ {
		if l.sky[i] != nil {
			clone.sky[i] = append([]byte(nil), l.sky[i]...)
		}
		if l.block[i] != nil {
			clone.block[i] = append([]byte(nil), l.block[i]...)
		}
	}
	return clone
}
