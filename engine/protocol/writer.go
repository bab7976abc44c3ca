package protocol

import (
	"bytes"
	"io"

	"github.com/Tnze/go-mc/nbt"
	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// DirectBits is the global palette width used when a section has too many distinct blocks.
const DirectBits = 15

const minPaletteBits = 4

type packetWriter struct {
	w   io.Writer
	err error
}

func (p *packetWriter) field(f io.WriterTo) {
	if p.err != nil {
		return
	}
	_, p.err = f.WriteTo(p.w)
}

func (p *packetWriter) raw(b []byte) {
	if p.err != nil {
		return
	}
	_, p.err = p.w.Write(b)
}

func (p *packetWriter) nbt(v any) {
	if p.err != nil {
		return
	}
	p.err = nbt.NewEncoder(p.w).Encode(v, "")
}

// EncodeChunkData writes d in the layout DecodeChunkData reads. Nil sections
// are omitted, empty sections are omitted from full chunks only.
func EncodeChunkData(w io.Writer, d *ChunkData) error {
	var mask int32
	for i, section := range d.Sections {
		if section == nil || (d.FullChunk && section.IsEmpty()) {
			continue
		}
		mask |= 1 << i
	}

	p := &packetWriter{w: w}
	p.field(pk.Int(d.Position.X))
	p.field(pk.Int(d.Position.Z))
	p.field(pk.Boolean(d.FullChunk))
	p.field(pk.Boolean(d.IgnoreOldData))
	p.field(pk.VarInt(mask))

	heights := make([]uint32, voxel.HEIGHTMAP_SIZE)
	for i, h := range d.HeightMap {
		heights[i] = uint32(h + 1)
	}
	words, err := PackLongArray(heights, HEIGHTMAP_BITS)
	if err != nil {
		return errors.Wrap(err, "packing height map")
	}
	packed := make([]int64, len(words))
	for i, word := range words {
		packed[i] = int64(word)
	}
	p.nbt(heightmaps{MotionBlocking: packed})

	if d.FullChunk {
		raw := make([]byte, BIOME_BYTES)
		if d.Biomes != nil {
			for k, biome := range d.Biomes {
				raw[k*4+3] = biome
			}
		}
		p.raw(raw)
	}

	var sections bytes.Buffer
	for i, section := range d.Sections {
		if mask&(1<<i) == 0 {
			continue
		}
		if err := encodeSection(&sections, section); err != nil {
			return errors.Wrapf(err, "encoding section %d", i)
		}
	}
	p.field(pk.VarInt(sections.Len()))
	p.raw(sections.Bytes())

	p.field(pk.VarInt(len(d.BlockEntities)))
	for _, entity := range d.BlockEntities {
		p.raw(entity.Data)
	}
	return errors.Wrap(p.err, "encoding chunk data")
}

func encodeSection(w io.Writer, section *voxel.Section) error {
	values := make([]uint32, voxel.SECTION_VOLUME)
	palette := []voxel.BlockID{voxel.AIR}
	indices := map[voxel.BlockID]uint32{voxel.AIR: 0}
	var maxID voxel.BlockID
	for i := range values {
		id := section.BlockAt(i)
		if id > maxID {
			maxID = id
		}
		index, ok := indices[id]
		if !ok {
			index = uint32(len(palette))
			indices[id] = index
			palette = append(palette, id)
		}
		values[i] = index
	}

	bitsPerBlock := BitsFor(len(palette))
	if bitsPerBlock < minPaletteBits {
		bitsPerBlock = minPaletteBits
	}
	direct := bitsPerBlock > MaxPaletteBits
	if direct {
		bitsPerBlock = DirectBits
		if needed := BitsFor(int(maxID) + 1); needed > bitsPerBlock {
			bitsPerBlock = needed
		}
		for i := range values {
			values[i] = uint32(section.BlockAt(i))
		}
	}
	words, err := PackLongArray(values, bitsPerBlock)
	if err != nil {
		return err
	}

	p := &packetWriter{w: w}
	p.field(pk.Short(section.BlockCount()))
	p.field(pk.UnsignedByte(bitsPerBlock))
	if !direct {
		p.field(pk.VarInt(len(palette)))
		for _, id := range palette {
			p.field(pk.VarInt(id))
		}
	}
	p.field(pk.VarInt(len(words)))
	for _, word := range words {
		p.field(pk.Long(word))
	}
	return p.err
}

// EncodeLightData writes d in the layout DecodeLightData reads. Masks are
// taken from the struct, arrays for set bits must be present.
func EncodeLightData(w io.Writer, d *LightData) error {
	p := &packetWriter{w: w}
	p.field(pk.VarInt(d.Position.X))
	p.field(pk.VarInt(d.Position.Z))
	p.field(pk.Boolean(d.TrustEdges))
	p.field(pk.VarInt(d.SkyLightMask))
	p.field(pk.VarInt(d.BlockLightMask))
	p.field(pk.VarInt(d.EmptySkyLightMask))
	p.field(pk.VarInt(d.EmptyBlockLightMask))
	for _, arrays := range []struct {
		mask int32
		data *[voxel.LIGHT_SECTIONS][]byte
	}{{d.SkyLightMask, &d.SkyLight}, {d.BlockLightMask, &d.BlockLight}} {
		for i := 0; i < voxel.LIGHT_SECTIONS; i++ {
			if arrays.mask&(1<<i) == 0 {
				continue
			}
			data := arrays.data[i]
			if len(data) != voxel.LIGHT_ARRAY_LENGTH {
				return errors.Wrapf(ErrLightArrayMismatch, "array for section %d has %d bytes", i-1, len(data))
			}
			p.field(pk.VarInt(len(data)))
			p.raw(data)
		}
	}
	return errors.Wrap(p.err, "encoding light data")
}
