package game

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/protocol"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// Client applies network events to the world. Packets are decoded before the
// world lock is taken, the result is applied under the write lock and the
// affected sections are handed to the mesh scheduler.
type Client struct {
	world     *voxel.World
	scheduler *MeshScheduler
	timer     *util.Timer

	// light for columns that have not arrived yet, guarded by the world lock
	pendingLight map[voxel.ChunkPosition]*voxel.ChunkLighting

	viewerMu sync.Mutex
	viewer   voxel.ChunkPosition

	dropped atomic.Uint64
}

func NewClient(world *voxel.World, scheduler *MeshScheduler, timer *util.Timer) *Client {
	if timer == nil {
		timer = util.NewTimer()
	}
	return &Client{
		world:        world,
		scheduler:    scheduler,
		timer:        timer,
		pendingLight: make(map[voxel.ChunkPosition]*voxel.ChunkLighting),
	}
}

// DroppedPackets counts packets rejected by the decoder.
func (c *Client) DroppedPackets() uint64 {
	return c.dropped.Load()
}

func (c *Client) drop(kind string, err error) error {
	c.dropped.Add(1)
	util.LogNetworkError("dropping packet", "packet", kind, "error", err)
	return errors.Wrapf(err, "handling %s", kind)
}

func (c *Client) HandleChunkData(r io.Reader) error {
	stopTimer := c.timer.Start("decode.chunk")
	data, err := protocol.DecodeChunkData(r)
	stopTimer()
	if err != nil {
		return c.drop("chunk data", err)
	}
	c.ApplyChunkData(data)
	return nil
}

// ApplyChunkData stores an already decoded column. Partial updates for columns
// that are not loaded are ignored.
func (c *Client) ApplyChunkData(data *protocol.ChunkData) {
	var affected []voxel.SectionPosition
	c.world.Update(func(w *voxel.World) {
		existing := w.GetChunk(data.Position)
		if existing == nil && !data.FullChunk {
			util.LogNetworkWarning("partial chunk update for unloaded chunk", "chunk", data.Position.String())
			return
		}
		chunk := data.Apply(existing)
		if existing == nil {
			if lighting, ok := c.pendingLight[data.Position]; ok {
				chunk.SetLighting(lighting)
				delete(c.pendingLight, data.Position)
			}
		}
		w.SetChunk(chunk)
		affected = loadedSections(w, data.Position, data.UpdatedSections())
	})
	c.invalidate(affected)
}

func (c *Client) HandleLightData(r io.Reader) error {
	data, err := protocol.DecodeLightData(r)
	if err != nil {
		return c.drop("light data", err)
	}
	c.ApplyLightData(data)
	return nil
}

func (c *Client) ApplyLightData(data *protocol.LightData) {
	var affected []voxel.SectionPosition
	c.world.Update(func(w *voxel.World) {
		chunk := w.GetChunk(data.Position)
		if chunk == nil {
			lighting, ok := c.pendingLight[data.Position]
			if !ok {
				lighting = voxel.NewChunkLighting()
				c.pendingLight[data.Position] = lighting
			}
			data.Apply(lighting)
			return
		}
		data.Apply(chunk.Lighting())
		affected = loadedSections(w, data.Position, data.UpdatedSections())
	})
	c.invalidate(affected)
}

func (c *Client) HandleBlockChange(r io.Reader) error {
	change, err := protocol.DecodeBlockChange(r)
	if err != nil {
		return c.drop("block change", err)
	}
	c.ApplyBlockChange(change.Position, change.BlockID)
	return nil
}

// ApplyBlockChange sets one block and invalidates every section whose mesh can see it.
func (c *Client) ApplyBlockChange(position voxel.Int3, id voxel.BlockID) {
	var affected []voxel.SectionPosition
	c.world.Update(func(w *voxel.World) {
		if !w.SetGlobalBlock(position, id) {
			util.LogNetworkDebug("block change outside loaded chunks", "position", position.ToString())
			return
		}
		seen := make(map[voxel.SectionPosition]struct{})
		for dx := int32(-1); dx <= 1; dx++ {
			for dy := int32(-1); dy <= 1; dy++ {
				for dz := int32(-1); dz <= 1; dz++ {
					section := voxel.SectionPositionOf(position.Add(voxel.Int3{X: dx, Y: dy, Z: dz}))
					if _, ok := seen[section]; ok || !section.IsValid() || !w.ChunkExists(section.Chunk()) {
						continue
					}
					seen[section] = struct{}{}
					affected = append(affected, section)
				}
			}
		}
	})
	c.invalidate(affected)
}

func (c *Client) HandleUnloadChunk(r io.Reader) error {
	position, err := protocol.DecodeUnloadChunk(r)
	if err != nil {
		return c.drop("unload chunk", err)
	}
	c.UnloadChunk(position)
	return nil
}

func (c *Client) UnloadChunk(position voxel.ChunkPosition) {
	var affected []voxel.SectionPosition
	c.world.Update(func(w *voxel.World) {
		affected = c.unloadLocked(w, position)
	})
	c.invalidate(affected)
}

// unloadLocked expects the world write lock to be held.
func (c *Client) unloadLocked(w *voxel.World, position voxel.ChunkPosition) []voxel.SectionPosition {
	delete(c.pendingLight, position)
	if !w.RemoveChunk(position) {
		return nil
	}
	if c.scheduler != nil {
		c.scheduler.Forget(position)
	}
	// neighbours lose the faces this column was hiding
	all := make([]int, voxel.SECTIONS_PER_CHUNK)
	for i := range all {
		all[i] = i
	}
	return loadedSections(w, position, all)
}

func (c *Client) SetViewer(position voxel.ChunkPosition) {
	c.viewerMu.Lock()
	defer c.viewerMu.Unlock()
	c.viewer = position
}

func (c *Client) Viewer() voxel.ChunkPosition {
	c.viewerMu.Lock()
	defer c.viewerMu.Unlock()
	return c.viewer
}

// UnloadSystem drops columns further than renderDistance from the viewer, the
// way a server would send unload packets.
func (c *Client) UnloadSystem(renderDistance int) System {
	return SystemFunc("unload", func(w *voxel.World, tick uint64) error {
		viewer := c.Viewer()
		var affected []voxel.SectionPosition
		for _, position := range w.LoadedChunks() {
			dx := voxel.Abs(position.X - viewer.X)
			dz := voxel.Abs(position.Z - viewer.Z)
			if dx <= int32(renderDistance) && dz <= int32(renderDistance) {
				continue
			}
			util.LogVoxelDebug("unloading distant chunk", "chunk", position.String(), "tick", tick)
			affected = append(affected, c.unloadLocked(w, position)...)
		}
		c.invalidate(affected)
		return nil
	})
}

func (c *Client) invalidate(sections []voxel.SectionPosition) {
	if c.scheduler == nil || len(sections) == 0 {
		return
	}
	c.scheduler.Invalidate(sections...)
}

// loadedSections lists the given sections of a column and every section next
// to them, diagonals included, that lies in a loaded column.
func loadedSections(w *voxel.World, position voxel.ChunkPosition, sections []int) []voxel.SectionPosition {
	seen := make(map[voxel.SectionPosition]struct{})
	var result []voxel.SectionPosition
	for _, index := range sections {
		for dx := int32(-1); dx <= 1; dx++ {
			for dz := int32(-1); dz <= 1; dz++ {
				column := position.Offset(dx, dz)
				if !w.ChunkExists(column) {
					continue
				}
				for dy := int32(-1); dy <= 1; dy++ {
					section := voxel.SectionPosition{X: column.X, Y: int32(index) + dy, Z: column.Z}
					if _, ok := seen[section]; ok || !section.IsValid() {
						continue
					}
					seen[section] = struct{}{}
					result = append(result, section)
				}
			}
		}
	}
	return result
}
