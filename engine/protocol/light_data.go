package protocol

import (
	"io"
	"math/bits"

	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// LightData is a decoded update light packet. Bit i of each mask stands for section i-1.
type LightData struct {
	Position            voxel.ChunkPosition
	TrustEdges          bool
	SkyLightMask        int32
	BlockLightMask      int32
	EmptySkyLightMask   int32
	EmptyBlockLightMask int32
	SkyLight            [voxel.LIGHT_SECTIONS][]byte
	BlockLight          [voxel.LIGHT_SECTIONS][]byte
}

func DecodeLightData(r io.Reader) (*LightData, error) {
	p := newPacketReader(r)
	d := &LightData{}
	d.Position.X = p.varInt("chunk x")
	d.Position.Z = p.varInt("chunk z")
	d.TrustEdges = p.boolean("trust edges")
	d.SkyLightMask = p.varInt("sky light mask")
	d.BlockLightMask = p.varInt("block light mask")
	d.EmptySkyLightMask = p.varInt("empty sky light mask")
	d.EmptyBlockLightMask = p.varInt("empty block light mask")
	if p.err != nil {
		return nil, errors.Wrap(p.err, "decoding light header")
	}
	for _, mask := range [4]int32{d.SkyLightMask, d.BlockLightMask, d.EmptySkyLightMask, d.EmptyBlockLightMask} {
		if uint32(mask)>>voxel.LIGHT_SECTIONS != 0 {
			return nil, errors.Wrapf(ErrSectionMask, "light mask %#x of %s", uint32(mask), d.Position)
		}
	}

	if err := readLightArrays(p, "sky light", d.SkyLightMask, &d.SkyLight); err != nil {
		return nil, errors.Wrapf(err, "decoding light of %s", d.Position)
	}
	if err := readLightArrays(p, "block light", d.BlockLightMask, &d.BlockLight); err != nil {
		return nil, errors.Wrapf(err, "decoding light of %s", d.Position)
	}
	if !p.atEOF() {
		if p.err != nil {
			return nil, errors.Wrapf(p.err, "decoding light of %s", d.Position)
		}
		return nil, errors.Wrapf(ErrLightArrayMismatch, "trailing data after %d sky and %d block arrays",
			bits.OnesCount32(uint32(d.SkyLightMask)), bits.OnesCount32(uint32(d.BlockLightMask)))
	}
	return d, nil
}

func readLightArrays(p *packetReader, name string, mask int32, dst *[voxel.LIGHT_SECTIONS][]byte) error {
	expected := bits.OnesCount32(uint32(mask))
	read := 0
	for i := 0; i < voxel.LIGHT_SECTIONS; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		n := p.varInt(name + " length")
		if p.err != nil {
			if errors.Is(p.err, io.EOF) || errors.Is(p.err, io.ErrUnexpectedEOF) {
				return errors.Wrapf(ErrLightArrayMismatch, "%s: mask has %d arrays, packet has %d", name, expected, read)
			}
			return p.err
		}
		if n != voxel.LIGHT_ARRAY_LENGTH {
			return errors.Wrapf(ErrLightArrayMismatch, "%s array %d has %d bytes, want %d", name, read, n, voxel.LIGHT_ARRAY_LENGTH)
		}
		data := p.raw(name, voxel.LIGHT_ARRAY_LENGTH)
		if p.err != nil {
			return errors.Wrapf(ErrLightArrayMismatch, "%s array %d truncated: %v", name, read, p.err)
		}
		dst[i] = data
		read++
	}
	return nil
}

// Apply stores the arrays in lighting. Sections in neither mask keep their current light.
func (d *LightData) Apply(lighting *voxel.ChunkLighting) {
	for i := 0; i < voxel.LIGHT_SECTIONS; i++ {
		sectionY := i - 1
		bit := int32(1) << i
		switch {
		case d.SkyLightMask&bit != 0:
			lighting.SetSkyLight(sectionY, d.SkyLight[i])
		case d.EmptySkyLightMask&bit != 0:
			lighting.ZeroSkyLight(sectionY)
		}
		switch {
		case d.BlockLightMask&bit != 0:
			lighting.SetBlockLight(sectionY, d.BlockLight[i])
		case d.EmptyBlockLightMask&bit != 0:
			lighting.ZeroBlockLight(sectionY)
		}
	}
}

// UpdatedSections lists the chunk section indices (0..15) whose meshes see
// changed light. Light below and above the column belongs to sections 0 and 15.
func (d *LightData) UpdatedSections() []int {
	changed := d.SkyLightMask | d.BlockLightMask | d.EmptySkyLightMask | d.EmptyBlockLightMask
	result := make([]int, 0, voxel.SECTIONS_PER_CHUNK)
	for slot := 0; slot < voxel.LIGHT_SECTIONS; slot++ {
		if changed&(1<<slot) == 0 {
			continue
		}
		section := slot - 1
		if section < 0 {
			section = 0
		}
		if section >= voxel.SECTIONS_PER_CHUNK {
			section = voxel.SECTIONS_PER_CHUNK - 1
		}
		if n := len(result); n > 0 && result[n-1] == section {
			continue
		}
		result = append(result, section)
	}
	return result
}
