package voxel

import (
	"compress/gzip"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var snapshotMagic = [4]byte{'V', 'X', 'S', '1'}

const (
	lightHasSky   = 1 << 0
	lightHasBlock = 1 << 1
)

type binaryWriter struct {
	w   io.Writer
	err error
}

func (b *binaryWriter) write(v any) {
	if b.err != nil {
		return
	}
	b.err = binary.Write(b.w, binary.LittleEndian, v)
}

type binaryReader struct {
	r   io.Reader
	err error
}

func (b *binaryReader) read(v any) {
	if b.err != nil {
		return
	}
	b.err = binary.Read(b.r, binary.LittleEndian, v)
}

// SaveSnapshot writes every loaded chunk as a gzip compressed little endian dump.
func (w *World) SaveSnapshot(out io.Writer) error {
	gzipWriter := gzip.NewWriter(out)
	bw := &binaryWriter{w: gzipWriter}
	w.View(func(w *World) {
		positions := w.LoadedChunks()
		bw.write(snapshotMagic)
		bw.write(int32(len(positions)))
		for _, position := range positions {
			writeChunk(bw, w.chunks[position])
		}
	})
	if bw.err != nil {
		return errors.Wrap(bw.err, "writing snapshot")
	}
	return errors.Wrap(gzipWriter.Close(), "closing snapshot")
}

func writeChunk(bw *binaryWriter, c *Chunk) {
	bw.write(c.position.X)
	bw.write(c.position.Z)
	bw.write(c.heightMap)
	bw.write(c.biomes)

	var mask uint16
	for i, section := range c.sections {
		if !section.IsEmpty() {
			mask |= 1 << i
		}
	}
	bw.write(mask)
	for _, section := range c.sections {
		if section.IsEmpty() {
			continue
		}
		bw.write(int16(section.blockCount))
		bw.write(section.blocks)
	}

	for i := 0; i < LIGHT_SECTIONS; i++ {
		var flags uint8
		if c.lighting.sky[i] != nil {
			flags |= lightHasSky
		}
		if c.lighting.block[i] != nil {
			flags |= lightHasBlock
		}
		bw.write(flags)
		if c.lighting.sky[i] != nil {
			bw.write(c.lighting.sky[i])
		}
		if c.lighting.block[i] != nil {
			bw.write(c.lighting.block[i])
		}
	}

	entities := c.BlockEntities()
	bw.write(int32(len(entities)))
	for _, entity := range entities {
		bw.write(entity.Position.X)
		bw.write(entity.Position.Y)
		bw.write(entity.Position.Z)
		bw.write(uint16(len(entity.Identifier)))
		bw.write([]byte(entity.Identifier))
		bw.write(uint32(len(entity.Data)))
		bw.write(entity.Data)
	}
}

// LoadSnapshot adds the chunks of a snapshot to the world, replacing chunks at the same positions.
func (w *World) LoadSnapshot(in io.Reader) (int, error) {
	gzipReader, err := gzip.NewReader(in)
	if err != nil {
		return 0, errors.Wrap(err, "opening snapshot")
	}
	defer gzipReader.Close()
	br := &binaryReader{r: gzipReader}

	var magic [4]byte
	br.read(&magic)
	if br.err == nil && magic != snapshotMagic {
		return 0, errors.New("not a world snapshot")
	}
	var count int32
	br.read(&count)
	if br.err != nil {
		return 0, errors.Wrap(br.err, "reading snapshot header")
	}
	if count < 0 {
		return 0, errors.Errorf("invalid chunk count %d", count)
	}
	chunks := make([]*Chunk, 0, count)
	for i := int32(0); i < count; i++ {
		chunk := readChunk(br)
		if br.err != nil {
			return 0, errors.Wrapf(br.err, "reading chunk %d of %d", i+1, count)
		}
		chunks = append(chunks, chunk)
	}
	w.Update(func(w *World) {
		for _, chunk := range chunks {
			w.SetChunk(chunk)
		}
	})
	return len(chunks), nil
}

func readChunk(br *binaryReader) *Chunk {
	var position ChunkPosition
	br.read(&position.X)
	br.read(&position.Z)
	c := NewChunk(position)
	br.read(&c.heightMap)
	br.read(&c.biomes)

	var mask uint16
	br.read(&mask)
	for i := 0; i < SECTIONS_PER_CHUNK; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		var blockCount int16
		br.read(&blockCount)
		blocks := make([]BlockID, SECTION_VOLUME)
		br.read(blocks)
		c.sections[i] = &Section{blocks: blocks, blockCount: int(blockCount)}
	}

	for i := 0; i < LIGHT_SECTIONS; i++ {
		var flags uint8
		br.read(&flags)
		if flags&lightHasSky != 0 {
			c.lighting.sky[i] = make([]byte, LIGHT_ARRAY_LENGTH)
			br.read(c.lighting.sky[i])
		}
		if flags&lightHasBlock != 0 {
			c.lighting.block[i] = make([]byte, LIGHT_ARRAY_LENGTH)
			br.read(c.lighting.block[i])
		}
	}

	var entityCount int32
	br.read(&entityCount)
	for i := int32(0); i < entityCount && br.err == nil; i++ {
		var entity BlockEntity
		br.read(&entity.Position.X)
		br.read(&entity.Position.Y)
		br.read(&entity.Position.Z)
		var idLength uint16
		br.read(&idLength)
		id := make([]byte, idLength)
		br.read(id)
		entity.Identifier = string(id)
		var dataLength uint32
		br.read(&dataLength)
		if dataLength > 1<<24 {
			br.err = errors.Errorf("block entity data too large: %d bytes", dataLength)
			break
		}
		entity.Data = make([]byte, dataLength)
		br.read(entity.Data)
		c.SetBlockEntity(entity)
	}
	return c
}
