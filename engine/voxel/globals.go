package voxel

const (
	SECTION_SIZE         = 16
	SECTION_SIZE_SQUARED = SECTION_SIZE * SECTION_SIZE
	SECTION_VOLUME       = SECTION_SIZE * SECTION_SIZE * SECTION_SIZE

	SECTIONS_PER_CHUNK = 16
	CHUNK_HEIGHT       = SECTIONS_PER_CHUNK * SECTION_SIZE

	// one biome per 4x4x4 cell
	BIOMES_PER_CHUNK = (SECTION_SIZE / 4) * (SECTION_SIZE / 4) * (CHUNK_HEIGHT / 4)
	HEIGHTMAP_SIZE   = SECTION_SIZE * SECTION_SIZE
)

func Abs(i int32) int32 {
	if i < 0 {
		return -i
	}
	return i
}

func ManhattanDistance3(a, b Int3) int32 {
	return Abs(a.X-b.X) + Abs(a.Y-b.Y) + Abs(a.Z-b.Z)
}

// ChebyshevDistance2 ignores the y axis.
func ChebyshevDistance2(a, b Int3) int32 {
	dx, dz := Abs(a.X-b.X), Abs(a.Z-b.Z)
	if dx > dz {
		return dx
	}
	return dz
}
