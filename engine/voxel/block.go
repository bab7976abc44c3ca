package voxel

// BlockID is a global block state id. 0 is always air.
type BlockID uint32

const AIR BlockID = 0

func (b BlockID) IsAir() bool {
	return b == AIR
}
