package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/mesh"
	"github.com/stackotter/delta-client-sub000/engine/model"
	"github.com/stackotter/delta-client-sub000/engine/util"
	"github.com/stackotter/delta-client-sub000/engine/voxel"
	"github.com/stackotter/delta-client-sub000/game"
	"golang.org/x/term"
)

// exportUploader keeps track of what a renderer would hold on the GPU.
type exportUploader struct {
	next     mesh.BufferID
	buffers  int
	vertices map[mesh.BufferID]int
}

func (u *exportUploader) Upload(m *mesh.SectionMesh) (mesh.BufferID, error) {
	u.next++
	u.buffers++
	u.vertices[u.next] = m.VertexCount()
	return u.next, nil
}

func (u *exportUploader) Release(buffer mesh.BufferID) {
	u.buffers--
	delete(u.vertices, buffer)
}

func (u *exportUploader) VertexCount() int {
	total := 0
	for _, n := range u.vertices {
		total += n
	}
	return total
}

func main() {
	cfg := game.DefaultConfig()
	configFile := flag.String("config", "", "JSON config file")
	packetSource := flag.String("packets", "", "directory, archive or URL with chunk_*.bin and light_*.bin packet bodies, a generated area is used when empty")
	resourceSource := flag.String("resources", "", "directory, archive or URL of a resource pack, generated textures are used when empty")
	cacheDir := flag.String("cache", filepath.Join(os.TempDir(), "delta-client"), "where fetched packets and resources are kept")
	demoRadius := flag.Int("demo-radius", 2, "radius in chunks of the generated area")
	outFile := flag.String("out", "sections.glb", "binary glTF output")
	atlasFile := flag.String("atlas", "", "write the texture atlas PNG here")
	snapshotFile := flag.String("snapshot", "", "write a world snapshot here")
	runFor := flag.Duration("run", 500*time.Millisecond, "how long to run the tick loop")
	flag.IntVar(&cfg.TickRate, "tick-rate", cfg.TickRate, "ticks per second")
	flag.IntVar(&cfg.MeshWorkers, "workers", cfg.MeshWorkers, "mesh worker count")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "error, warning, info or debug")
	flag.StringVar(&cfg.LogCategories, "log-categories", cfg.LogCategories, "comma separated log categories or all")
	flag.IntVar(&cfg.RenderDistance, "render-distance", cfg.RenderDistance, "render distance in chunks")
	flag.Parse()

	explicitFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		explicitFlags[f.Name] = true
	})
	if *configFile != "" {
		fromFile, err := game.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		game.Merge(cfg, fromFile, explicitFlags)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	util.SetLogger(slog.New(handler))
	if err := cfg.ApplyLogging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, options{
		packetSource:   *packetSource,
		resourceSource: *resourceSource,
		cacheDir:       *cacheDir,
		demoRadius:     int32(*demoRadius),
		outFile:        *outFile,
		atlasFile:      *atlasFile,
		snapshotFile:   *snapshotFile,
		runFor:         *runFor,
	}); err != nil {
		util.LogSystemError("run failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	packetSource   string
	resourceSource string
	cacheDir       string
	demoRadius     int32
	outFile        string
	atlasFile      string
	snapshotFile   string
	runFor         time.Duration
}

func run(ctx context.Context, cfg *game.Config, opts options) error {
	palette, err := loadPalette(ctx, opts)
	if err != nil {
		return err
	}
	registry := demoRegistry(palette)
	biomes := demoBiomes()

	world := voxel.NewWorld()
	timer := util.NewTimer()
	uploader := &exportUploader{vertices: make(map[mesh.BufferID]int)}
	cache := mesh.NewBufferCache(uploader)
	scheduler := game.NewMeshScheduler(world, registry, biomes, cfg.MeshWorkers, game.CacheSink(cache), timer)
	defer scheduler.Stop()
	client := game.NewClient(world, scheduler, timer)

	light, chunks, err := loadPackets(ctx, opts)
	if err != nil {
		return err
	}
	for _, packet := range light {
		if err := client.HandleLightData(bytes.NewReader(packet)); err != nil {
			util.LogNetworkWarning("skipping light packet", "error", err)
		}
	}
	for _, packet := range chunks {
		if err := client.HandleChunkData(bytes.NewReader(packet)); err != nil {
			util.LogNetworkWarning("skipping chunk packet", "error", err)
		}
	}
	var loaded int
	world.View(func(w *voxel.World) { loaded = w.ChunkCount() })
	util.LogNetworkInfo("packets applied", "chunks", loaded, "dropped", client.DroppedPackets())

	loop := game.NewTickLoop(world, cfg.TickRate, timer)
	loop.AddSystem(client.UnloadSystem(cfg.RenderDistance))
	loop.AddSystem(scheduler)
	tickCtx, cancel := context.WithTimeout(ctx, opts.runFor)
	err = loop.Run(tickCtx)
	cancel()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	scheduler.Flush()
	scheduler.Wait()

	stats := scheduler.Stats()
	util.LogMeshInfo("meshing done",
		"ticks", loop.TickCount(),
		"submitted", stats.Submitted,
		"published", stats.Published,
		"discarded", stats.Discarded,
		"unchanged", stats.Unchanged,
		"buffers", uploader.buffers,
		"vertices", uploader.VertexCount(),
	)

	viewer := voxel.SectionPosition{X: 0, Y: demoSeaLevel / voxel.SECTION_SIZE, Z: 0}
	visible := visibleSections(world, registry, viewer, int32(cfg.RenderDistance))
	meshes := make([]*mesh.SectionMesh, 0, len(visible))
	for _, position := range visible {
		if m := cache.Mesh(position); m != nil && !m.IsEmpty() {
			meshes = append(meshes, m)
		}
	}
	util.LogMeshInfo("visible sections", "visible", len(visible), "with geometry", len(meshes))

	viewpoint := viewer.Origin().ToVec3().Add(mgl32.Vec3{8, 24, 8})
	mapUV := func(textureIndex uint32, uv mgl32.Vec2) mgl32.Vec2 {
		return palette.AtlasUV(int(textureIndex), uv)
	}
	if err := mesh.ExportGLTF(opts.outFile, meshes, viewpoint, mapUV); err != nil {
		return err
	}
	util.LogIOInfo("wrote glTF", "file", opts.outFile, "sections", len(meshes))

	if opts.atlasFile != "" {
		if err := palette.SaveAtlasPNG(opts.atlasFile); err != nil {
			return err
		}
	}
	if opts.snapshotFile != "" {
		if err := saveSnapshot(world, opts.snapshotFile); err != nil {
			return err
		}
	}
	fmt.Print(timer.String())
	return nil
}

// visibleSections runs the cave culling search from viewer over the connectivity of loaded sections.
func visibleSections(world *voxel.World, registry model.Registry, viewer voxel.SectionPosition, renderDistance int32) []voxel.SectionPosition {
	isOpaque := model.OpaquePredicate(registry)
	connectivity := make(map[voxel.SectionPosition]voxel.SectionConnectivity)
	var visible []voxel.SectionPosition
	world.View(func(w *voxel.World) {
		lookup := func(position voxel.SectionPosition) (voxel.SectionConnectivity, bool) {
			if !position.IsValid() {
				return 0, false
			}
			if c, ok := connectivity[position]; ok {
				return c, true
			}
			chunk := w.GetChunk(position.Chunk())
			if chunk == nil {
				return 0, false
			}
			c := voxel.NewSectionVoxelGraph(chunk.Section(int(position.Y)), isOpaque).Connectivity()
			connectivity[position] = c
			return c, true
		}
		visible = voxel.VisibleSections(viewer, lookup, renderDistance)
	})
	return visible
}

func saveSnapshot(world *voxel.World, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "creating snapshot")
	}
	defer file.Close()
	if err := world.SaveSnapshot(file); err != nil {
		return err
	}
	util.LogIOInfo("wrote snapshot", "file", filename)
	return nil
}

// loadPalette builds the atlas from a resource pack, or from generated tiles when none is given.
func loadPalette(ctx context.Context, opts options) (*model.TexturePalette, error) {
	if opts.resourceSource == "" {
		return demoPalette(), nil
	}
	dir, err := game.FetchResources(ctx, opts.resourceSource, opts.cacheDir)
	if err != nil {
		return nil, err
	}
	return model.LoadTexturePalette(filepath.Join(dir, "assets", "minecraft", "textures"), demoTextureIDs())
}

// loadPackets reads captured packet bodies, or encodes the generated area when no source is given.
func loadPackets(ctx context.Context, opts options) (light [][]byte, chunks [][]byte, err error) {
	if opts.packetSource == "" {
		light, chunks, err = demoPackets(opts.demoRadius)
		return light, chunks, errors.Wrap(err, "encoding demo area")
	}
	dir, err := game.FetchResources(ctx, opts.packetSource, opts.cacheDir)
	if err != nil {
		return nil, nil, err
	}
	read := func(pattern string) ([][]byte, error) {
		files, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, errors.Wrapf(err, "listing %s", pattern)
		}
		sort.Strings(files)
		packets := make([][]byte, 0, len(files))
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s", file)
			}
			packets = append(packets, data)
		}
		return packets, nil
	}
	if light, err = read("light_*.bin"); err != nil {
		return nil, nil, err
	}
	if chunks, err = read("chunk_*.bin"); err != nil {
		return nil, nil, err
	}
	util.LogIOInfo("loaded packets", "source", opts.packetSource, "light", len(light), "chunks", len(chunks))
	return light, chunks, nil
}
