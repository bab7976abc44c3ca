package voxel

import "github.com/pkg/errors"

// Section is a 16x16x16 cube of block ids indexed by (y<<8)|(z<<4)|x.
// A nil block slice means the section is all air.
type Section struct {
	blocks     []BlockID
	blockCount int
	palette    []BlockID
}

var sectionPositions [SECTION_VOLUME]Int3

func init() {
	for i := 0; i < SECTION_VOLUME; i++ {
		sectionPositions[i] = Int3{X: int32(i & 15), Y: int32(i >> 8), Z: int32((i >> 4) & 15)}
	}
}

func BlockIndex(x, y, z int32) int {
	return int(y)<<8 | int(z)<<4 | int(x)
}

func PositionOfIndex(index int) Int3 {
	return sectionPositions[index]
}

func InSection(x, y, z int32) bool {
	return x >= 0 && x < SECTION_SIZE && y >= 0 && y < SECTION_SIZE && z >= 0 && z < SECTION_SIZE
}

func NewEmptySection() *Section {
	return &Section{}
}

// NewSection takes ownership of blocks. blockCount is the number of non-air blocks as reported by the server.
func NewSection(blocks []BlockID, blockCount int, palette []BlockID) (*Section, error) {
	if len(blocks) != SECTION_VOLUME {
		return nil, errors.Errorf("section needs %d blocks, got %d", SECTION_VOLUME, len(blocks))
	}
	return &Section{blocks: blocks, blockCount: blockCount, palette: palette}, nil
}

func (s *Section) IsEmpty() bool {
	return s == nil || s.blockCount <= 0 || s.blocks == nil
}

func (s *Section) BlockCount() int {
	if s == nil {
		return 0
	}
	return s.blockCount
}

// Palette is the palette the section was decoded with, nil for direct encoding.
func (s *Section) Palette() []BlockID {
	return s.palette
}

func (s *Section) BlockAt(index int) BlockID {
	if s == nil || s.blocks == nil || index < 0 || index >= SECTION_VOLUME {
		return AIR
	}
	return s.blocks[index]
}

func (s *Section) Get(x, y, z int32) BlockID {
	if !InSection(x, y, z) {
		return AIR
	}
	return s.BlockAt(BlockIndex(x, y, z))
}

// Set keeps the block count in sync. The palette is dropped since it no longer describes the content.
func (s *Section) Set(x, y, z int32, id BlockID) {
	if !InSection(x, y, z) {
		return
	}
	if s.blocks == nil {
		if id.IsAir() {
			return
		}
		s.blocks = make([]BlockID, SECTION_VOLUME)
		s.blockCount = 0
	}
	index := BlockIndex(x, y, z)
	old := s.blocks[index]
	if old == id {
		return
	}
	if old.IsAir() {
		s.blockCount++
	} else if id.IsAir() {
		s.blockCount--
	}
	s.blocks[index] = id
	s.palette = nil
}

// Blocks exposes the backing slice for read-only iteration.
func (s *Section) Blocks() []BlockID {
	if s == nil {
		return nil
	}
	return s.blocks
}

func (s *Section) Clone() *Section {
	if s == nil {
		return nil
	}
	clone := &Section{blockCount: s.blockCount}
	if s.blocks != nil {
		clone.blocks = append([]BlockID(nil), s.blocks...)
	}
	if s.palette != nil {
		clone.palette = append([]BlockID(nil), s.palette...)
	}
	return clone
}
