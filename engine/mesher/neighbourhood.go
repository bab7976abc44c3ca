package mesher

import "github.com/stackotter/delta-client-sub000/engine/voxel"

// ChunkLookup returns a loaded chunk or nil.
type ChunkLookup func(position voxel.ChunkPosition) *voxel.Chunk

// Neighbourhood is a chunk together with the eight columns around it.
// Coordinates passed to its methods are relative to the centre chunk, x and z
// may range over -16..31. Callers must hold the world read lock while a
// neighbourhood is in use.
type Neighbourhood struct {
	Center *voxel.Chunk
	// indexed [dx+1][dz+1]
	chunks [3][3]*voxel.Chunk
}

func NewNeighbourhood(center *voxel.Chunk, lookup ChunkLookup) Neighbourhood {
	n := Neighbourhood{Center: center}
	position := center.Position()
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			if dx == 0 && dz == 0 {
				n.chunks[1][1] = center
				continue
			}
			if lookup != nil {
				n.chunks[dx+1][dz+1] = lookup(position.Offset(dx, dz))
			}
		}
	}
	return n
}

// ChunkAt returns the column at the given offset from the centre, nil if not loaded.
func (n Neighbourhood) ChunkAt(dx, dz int32) *voxel.Chunk {
	if dx < -1 || dx > 1 || dz < -1 || dz > 1 {
		return nil
	}
	return n.chunks[dx+1][dz+1]
}

// IsComplete is true when all eight neighbours are loaded.
func (n Neighbourhood) IsComplete() bool {
	for _, column := range n.chunks {
		for _, c := range column {
			if c == nil {
				return false
			}
		}
	}
	return true
}

// resolve maps centre relative coordinates to a chunk and its local x and z.
func (n Neighbourhood) resolve(x, z int32) (*voxel.Chunk, int32, int32) {
	dx, lx := voxel.FloorDiv16(x)
	dz, lz := voxel.FloorDiv16(z)
	return n.ChunkAt(dx, dz), lx, lz
}

// BlockAt is false for positions outside the world height or in an unloaded chunk.
func (n Neighbourhood) BlockAt(position voxel.Int3) (voxel.BlockID, bool) {
	if position.Y < 0 || position.Y >= voxel.CHUNK_HEIGHT {
		return voxel.AIR, false
	}
	c, x, z := n.resolve(position.X, position.Z)
	if c == nil {
		return voxel.AIR, false
	}
	return c.BlockID(x, position.Y, z), true
}

// LightAt falls back to the default light level for unloaded chunks.
func (n Neighbourhood) LightAt(position voxel.Int3) voxel.LightLevel {
	c, x, z := n.resolve(position.X, position.Z)
	if c == nil {
		return voxel.DefaultLightLevel
	}
	return c.Light(x, position.Y, z)
}

func (n Neighbourhood) BiomeAt(position voxel.Int3) (uint8, bool) {
	if position.Y < 0 || position.Y >= voxel.CHUNK_HEIGHT {
		return 0, false
	}
	c, x, z := n.resolve(position.X, position.Z)
	if c == nil {
		return 0, false
	}
	return c.Biome(x, position.Y, z), true
}
