package game

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/stackotter/delta-client-sub000/engine/mesher"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// sectionFingerprint hashes everything a section mesh depends on: the section's
// blocks, light and biome cells plus the one block shell around it.
func sectionFingerprint(n mesher.Neighbourhood, sectionIndex int) uint64 {
	digest := xxhash.New()
	buf := make([]byte, 0, voxel.SECTION_VOLUME*4)

	section := n.Center.Section(sectionIndex)
	if section == nil || section.IsEmpty() {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		for _, id := range section.Blocks() {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
		}
	}
	digest.Write(buf)
	buf = buf[:0]

	lighting := n.Center.Lighting()
	for _, data := range [][]byte{lighting.SkyLight(sectionIndex), lighting.BlockLight(sectionIndex)} {
		if data == nil {
			digest.Write([]byte{0})
			continue
		}
		digest.Write([]byte{1})
		digest.Write(data)
	}

	// biome cells are 4 blocks tall, so a section covers 4 layers of 16 cells
	biomes := n.Center.Biomes()
	layer := voxel.BIOMES_PER_CHUNK / voxel.SECTIONS_PER_CHUNK
	digest.Write(biomes[sectionIndex*layer : (sectionIndex+1)*layer])

	base := int32(sectionIndex) * voxel.SECTION_SIZE
	for y := int32(-1); y <= voxel.SECTION_SIZE; y++ {
		for z := int32(-1); z <= voxel.SECTION_SIZE; z++ {
			for x := int32(-1); x <= voxel.SECTION_SIZE; x++ {
				if voxel.InSection(x, y, z) {
					continue
				}
				position := voxel.Int3{X: x, Y: base + y, Z: z}
				id, ok := n.BlockAt(position)
				if !ok {
					buf = append(buf, 0)
					continue
				}
				light := n.LightAt(position)
				buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
				buf = append(buf, 1, light.Block, light.Sky)
			}
		}
	}
	digest.Write(buf)
	return digest.Sum64()
}
