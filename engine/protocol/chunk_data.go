package protocol

import (
	"io"

	"github.com/Tnze/go-mc/nbt"
	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

const (
	HEIGHTMAP_BITS       = 9
	BIOME_BYTES          = voxel.BIOMES_PER_CHUNK * 4
	MaxPaletteBits       = 8
	maxSectionLongs      = voxel.SECTION_VOLUME
	maxBlockEntityCount  = 1 << 16
	blockEntityCompound  = "block entity"
	motionBlockingHeight = "MOTION_BLOCKING"
)

type heightmaps struct {
	MotionBlocking []int64 `nbt:"MOTION_BLOCKING"`
}

// ChunkData is a decoded chunk data packet.
type ChunkData struct {
	Position       voxel.ChunkPosition
	FullChunk      bool
	IgnoreOldData  bool
	PrimaryBitMask int32
	HeightMap      voxel.HeightMap
	HasHeightMap   bool
	// nil unless FullChunk
	Biomes *[voxel.BIOMES_PER_CHUNK]uint8
	// nil entries were not part of the packet
	Sections      [voxel.SECTIONS_PER_CHUNK]*voxel.Section
	BlockEntities []voxel.BlockEntity
}

// DecodeChunkData reads one chunk data packet body. Structural problems are
// returned as errors. Malformed block entities are logged and skipped.
func DecodeChunkData(r io.Reader) (*ChunkData, error) {
	p := newPacketReader(r)
	d := &ChunkData{}
	d.Position.X = p.integer("chunk x")
	d.Position.Z = p.integer("chunk z")
	d.FullChunk = p.boolean("full chunk")
	d.IgnoreOldData = p.boolean("ignore old data")
	d.PrimaryBitMask = p.varInt("primary bit mask")
	if p.err == nil && uint32(d.PrimaryBitMask)>>voxel.SECTIONS_PER_CHUNK != 0 {
		p.fail(errors.Wrapf(ErrSectionMask, "primary bit mask %#x", uint32(d.PrimaryBitMask)))
	}

	var hm heightmaps
	p.nbt("heightmaps", &hm)
	if p.err == nil {
		if err := d.decodeHeightMap(hm.MotionBlocking); err != nil {
			p.fail(err)
		}
	}

	if d.FullChunk {
		raw := p.raw("biomes", BIOME_BYTES)
		if raw != nil {
			var biomes [voxel.BIOMES_PER_CHUNK]uint8
			for k := range biomes {
				// biomes are big endian ints, ids fit the low byte
				biomes[k] = raw[k*4+3]
			}
			d.Biomes = &biomes
		}
	}

	// the section data size is not needed to walk the records
	p.varInt("data length")

	scratch := make([]uint32, voxel.SECTION_VOLUME)
	for i := 0; i < voxel.SECTIONS_PER_CHUNK && p.err == nil; i++ {
		if d.PrimaryBitMask&(1<<i) == 0 {
			if d.FullChunk {
				d.Sections[i] = voxel.NewEmptySection()
			}
			continue
		}
		section, err := decodeSection(p, scratch)
		if err != nil {
			return nil, errors.Wrapf(err, "section %d of %s", i, d.Position)
		}
		d.Sections[i] = section
	}
	if p.err != nil {
		return nil, errors.Wrapf(p.err, "decoding %s", d.Position)
	}

	d.BlockEntities = decodeBlockEntities(p, d.Position)
	return d, nil
}

func (d *ChunkData) decodeHeightMap(packed []int64) error {
	if len(packed) == 0 {
		util.LogNetworkDebug("chunk without motion blocking height map", "chunk", d.Position)
		for i := range d.HeightMap {
			d.HeightMap[i] = -1
		}
		return nil
	}
	words := make([]uint64, len(packed))
	for i, w := range packed {
		words[i] = uint64(w)
	}
	var heights [voxel.HEIGHTMAP_SIZE]uint32
	if err := UnpackLongArrayInto(heights[:], words, HEIGHTMAP_BITS); err != nil {
		return errors.Wrap(err, motionBlockingHeight)
	}
	for i, h := range heights {
		d.HeightMap[i] = int16(h) - 1
	}
	d.HasHeightMap = true
	return nil
}

func decodeSection(p *packetReader, scratch []uint32) (*voxel.Section, error) {
	blockCount := p.short("block count")
	bits := int(p.unsignedByte("bits per block"))
	if p.err != nil {
		return nil, p.err
	}
	if bits < 1 || bits > MaxBitsPerValue {
		return nil, errors.Wrapf(ErrBitsPerValue, "section uses %d bits per block", bits)
	}

	var palette []voxel.BlockID
	if bits <= MaxPaletteBits {
		n := p.length("palette length", voxel.SECTION_VOLUME)
		palette = make([]voxel.BlockID, n)
		for i := range palette {
			palette[i] = voxel.BlockID(p.varInt("palette entry"))
		}
	}

	n := p.length("data array length", maxSectionLongs)
	words := make([]uint64, n)
	for i := range words {
		words[i] = p.long("data array")
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := UnpackLongArrayInto(scratch, words, bits); err != nil {
		return nil, err
	}
	blocks := make([]voxel.BlockID, voxel.SECTION_VOLUME)
	if palette != nil {
		for i, v := range scratch {
			if int(v) >= len(palette) {
				return nil, errors.Wrapf(ErrPaletteIndex, "index %d at block %d, palette has %d entries", v, i, len(palette))
			}
			blocks[i] = palette[v]
		}
	} else {
		for i, v := range scratch {
			blocks[i] = voxel.BlockID(v)
		}
	}
	return voxel.NewSection(blocks, int(blockCount), palette)
}

// decodeBlockEntities never fails the chunk. A record without a valid
// position or id is skipped, a stream that stops parsing ends the list.
func decodeBlockEntities(p *packetReader, position voxel.ChunkPosition) []voxel.BlockEntity {
	count := p.length("block entity count", maxBlockEntityCount)
	if p.err != nil {
		util.LogNetworkWarning("dropping block entities", "chunk", position, "err", p.err)
		return nil
	}
	entities := make([]voxel.BlockEntity, 0, count)
	for i := 0; i < count; i++ {
		var fields map[string]any
		p.nbt(blockEntityCompound, &fields)
		if p.err != nil {
			util.LogNetworkWarning("block entity stream unreadable", "chunk", position, "index", i, "err", p.err)
			break
		}
		entity, err := blockEntityFromFields(fields)
		if err != nil {
			util.LogNetworkWarning("skipping block entity", "chunk", position, "index", i, "err", err)
			continue
		}
		entities = append(entities, entity)
	}
	return entities
}

func blockEntityFromFields(fields map[string]any) (voxel.BlockEntity, error) {
	var entity voxel.BlockEntity
	coords := [3]*int32{&entity.Position.X, &entity.Position.Y, &entity.Position.Z}
	for i, key := range [3]string{"x", "y", "z"} {
		v, ok := fields[key].(int32)
		if !ok {
			return entity, errors.Errorf("field %q is %T, want int32", key, fields[key])
		}
		*coords[i] = v
	}
	id, ok := fields["id"].(string)
	if !ok {
		return entity, errors.Errorf("field \"id\" is %T, want string", fields["id"])
	}
	entity.Identifier = id
	data, err := nbt.Marshal(fields)
	if err != nil {
		return entity, errors.Wrap(err, "re-encoding block entity")
	}
	entity.Data = data
	return entity, nil
}

// Apply merges the packet into the column. A full chunk replaces existing
// block data but keeps lighting, which arrives in its own packet.
func (d *ChunkData) Apply(existing *voxel.Chunk) *voxel.Chunk {
	chunk := existing
	if d.FullChunk || chunk == nil {
		chunk = voxel.NewChunk(d.Position)
		if existing != nil {
			chunk.SetLighting(existing.Lighting())
		}
	}
	for i, section := range d.Sections {
		if section != nil {
			chunk.SetSection(i, section)
		}
	}
	if d.HasHeightMap {
		chunk.SetHeightMap(d.HeightMap)
	}
	if d.Biomes != nil {
		chunk.SetBiomes(*d.Biomes)
	}
	for _, entity := range d.BlockEntities {
		chunk.SetBlockEntity(entity)
	}
	return chunk
}

// UpdatedSections lists the section indices carried by the packet.
func (d *ChunkData) UpdatedSections() []int {
	result := make([]int, 0, voxel.SECTIONS_PER_CHUNK)
	for i, section := range d.Sections {
		if section != nil {
			result = append(result, i)
		}
	}
	return result
}
