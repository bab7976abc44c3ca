package mesh

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
)

// BufferID names a renderer side buffer.
type BufferID uint64

// Uploader moves section meshes to a renderer. Upload must not keep references to the geometry slices.
type Uploader interface {
	Upload(mesh *SectionMesh) (BufferID, error)
	Release(buffer BufferID)
}

type cacheEntry struct {
	generation uint64
	buffer     BufferID
	mesh       *SectionMesh
}

// BufferCache tracks which mesh generation is uploaded for every section.
type BufferCache struct {
	lock     sync.Mutex
	uploader Uploader
	entries  map[voxel.SectionPosition]cacheEntry
}

func NewBufferCache(uploader Uploader) *BufferCache {
	return &BufferCache{uploader: uploader, entries: make(map[voxel.SectionPosition]cacheEntry)}
}

// Sync uploads mesh unless the cache already holds the same or a newer
// generation. The buffer it replaces is released after the upload succeeded.
func (c *BufferCache) Sync(mesh *SectionMesh) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	existing, ok := c.entries[mesh.Position]
	if ok && existing.generation >= mesh.Generation {
		return false, nil
	}
	if mesh.IsEmpty() {
		if ok && existing.mesh != nil {
			c.uploader.Release(existing.buffer)
		}
		c.entries[mesh.Position] = cacheEntry{generation: mesh.Generation}
		return true, nil
	}
	buffer, err := c.uploader.Upload(mesh)
	if err != nil {
		return false, errors.Wrapf(err, "uploading %s generation %d", mesh.Position, mesh.Generation)
	}
	if ok && existing.mesh != nil {
		c.uploader.Release(existing.buffer)
	}
	c.entries[mesh.Position] = cacheEntry{generation: mesh.Generation, buffer: buffer, mesh: mesh}
	return true, nil
}

func (c *BufferCache) Generation(position voxel.SectionPosition) (uint64, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	entry, ok := c.entries[position]
	return entry.generation, ok
}

// Mesh returns the uploaded mesh, nil for empty or unknown sections.
func (c *BufferCache) Mesh(position voxel.SectionPosition) *SectionMesh {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.entries[position].mesh
}

func (c *BufferCache) Remove(position voxel.SectionPosition) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if entry, ok := c.entries[position]; ok {
		if entry.mesh != nil {
			c.uploader.Release(entry.buffer)
		}
		delete(c.entries, position)
	}
}

func (c *BufferCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.entries)
}

func (c *BufferCache) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, entry := range c.entries {
		if entry.mesh != nil {
			c.uploader.Release(entry.buffer)
		}
	}
	c.entries = make(map[voxel.SectionPosition]cacheEntry)
}
