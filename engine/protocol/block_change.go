package protocol

import (
	"io"

	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// BlockChange is a single block update.
type BlockChange struct {
	Position voxel.Int3
	BlockID  voxel.BlockID
}

func DecodeBlockChange(r io.Reader) (*BlockChange, error) {
	p := newPacketReader(r)
	var position pk.Position
	p.field("location", &position)
	id := p.varInt("block id")
	if p.err != nil {
		return nil, errors.Wrap(p.err, "decoding block change")
	}
	if id < 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "negative block id %d", id)
	}
	return &BlockChange{
		Position: voxel.Int3{X: int32(position.X), Y: int32(position.Y), Z: int32(position.Z)},
		BlockID:  voxel.BlockID(id),
	}, nil
}

func EncodeBlockChange(w io.Writer, change *BlockChange) error {
	p := &packetWriter{w: w}
	p.field(pk.Position{X: int(change.Position.X), Y: int(change.Position.Y), Z: int(change.Position.Z)})
	p.field(pk.VarInt(change.BlockID))
	return errors.Wrap(p.err, "encoding block change")
}

// DecodeUnloadChunk reads the column position of an unload packet.
func DecodeUnloadChunk(r io.Reader) (voxel.ChunkPosition, error) {
	p := newPacketReader(r)
	x := p.integer("chunk x")
	z := p.integer("chunk z")
	if p.err != nil {
		return voxel.ChunkPosition{}, errors.Wrap(p.err, "decoding unload chunk")
	}
	return voxel.ChunkPosition{X: x, Z: z}, nil
}

func EncodeUnloadChunk(w io.Writer, position voxel.ChunkPosition) error {
	p := &packetWriter{w: w}
	p.field(pk.Int(position.X))
	p.field(pk.Int(position.Z))
	return errors.Wrap(p.err, "encoding unload chunk")
}
