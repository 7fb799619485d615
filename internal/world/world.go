package world

import (
	"math"

	"alphacraft/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Options configures a World.
type Options struct {
	Streaming StreamingOptions
	SpawnX    int     // spawn column, world block coordinates
	SpawnZ    int
	EyeHeight float32 // added to the spawn feet height in teleport targets
}

// Teleport is the one-shot directive returned by UpdateChunks when the spawn
// column first becomes available. Position is at eye height.
type Teleport struct {
	Position mgl32.Vec3
}

// World is the public face of the chunk engine consumed by physics and
// rendering layers.
type World struct {
	store *ChunkStore
	props BlockProperties
	opts  Options

	spawnChunk ChunkCoord
	spawnReady bool
	center     ChunkCoord
	hasCenter  bool

	log *zap.Logger
}

// New creates a world streaming through d. The spawn chunk is pinned until it
// has been generated.
func New(dims Dimensions, props BlockProperties, d Dispatcher, opts Options, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	w := &World{
		store:      NewChunkStore(dims, d, opts.Streaming, log.Named("store")),
		props:      props,
		opts:       opts,
		spawnChunk: ChunkCoordAt(opts.SpawnX, opts.SpawnZ, dims.ChunkSize),
		log:        log,
	}
	w.store.Pin(w.spawnChunk)
	return w
}

// Store exposes the underlying chunk store.
func (w *World) Store() *ChunkStore {
	return w.store
}

// Dimensions returns the grid layout.
func (w *World) Dimensions() Dimensions {
	return w.store.dims
}

// GetBlock returns the block at world coordinates, air if unresolvable.
func (w *World) GetBlock(x, y, z int) BlockType {
	return w.store.Get(x, y, z)
}

// IsAir checks if the block at the specified world coordinates is air.
func (w *World) IsAir(x, y, z int) bool {
	return w.store.Get(x, y, z) == BlockTypeAir
}

// IsSolidBlock reports whether the block at world coordinates collides.
// Without block properties every non-air block counts as solid.
func (w *World) IsSolidBlock(x, y, z int) bool {
	b := w.store.Get(x, y, z)
	if w.props == nil {
		return b != BlockTypeAir
	}
	return w.props.IsSolid(b)
}

// IsTransparentBlock reports whether light and sight pass through the block.
func (w *World) IsTransparentBlock(x, y, z int) bool {
	b := w.store.Get(x, y, z)
	if w.props == nil {
		return b == BlockTypeAir
	}
	return w.props.IsTransparent(b)
}

// AddBlock places id into an air cell of a loaded chunk.
func (w *World) AddBlock(x, y, z int, id BlockType) bool {
	if id == BlockTypeAir || w.store.Get(x, y, z) != BlockTypeAir {
		return false
	}
	return w.store.Set(x, y, z, id)
}

// RemoveBlock clears a non-air cell. Bedrock cannot be removed.
func (w *World) RemoveBlock(x, y, z int) bool {
	b := w.store.Get(x, y, z)
	if b == BlockTypeAir || b == BlockTypeBedrock {
		return false
	}
	return w.store.Set(x, y, z, BlockTypeAir)
}

// SurfaceAt returns the highest solid block Y in a loaded column.
func (w *World) SurfaceAt(x, z int) (int, bool) {
	for y := w.store.dims.WorldHeight - 1; y >= 0; y-- {
		if w.IsSolidBlock(x, y, z) {
			return y, true
		}
	}
	return 0, false
}

// UpdateChunks advances streaming for a player at pos. It returns a teleport
// the first time the spawn column is loaded and nil otherwise.
func (w *World) UpdateChunks(pos mgl32.Vec3) *Teleport {
	defer profiling.Track("world.UpdateChunks")()
	size := w.store.dims.ChunkSize
	w.center = ChunkCoordAt(int(math.Floor(float64(pos.X()))), int(math.Floor(float64(pos.Z()))), size)
	w.hasCenter = true

	rep := w.store.Update(w.center)
	if rep.Merged > 0 || rep.Evicted > 0 || rep.Dropped > 0 {
		w.log.Debug("chunks updated",
			zap.Int("cx", w.center.X),
			zap.Int("cz", w.center.Z),
			zap.Int("merged", rep.Merged),
			zap.Int("requested", rep.Requested),
			zap.Int("evicted", rep.Evicted),
			zap.Int("dropped", rep.Dropped),
			zap.Int("loaded", w.store.LoadedCount()),
		)
	}

	if w.spawnReady || !w.store.HasChunk(w.spawnChunk) {
		return nil
	}
	w.spawnReady = true
	w.store.Unpin(w.spawnChunk)

	feet := float32(w.store.dims.GroundLevel + 1)
	if y, ok := w.SurfaceAt(w.opts.SpawnX, w.opts.SpawnZ); ok {
		feet = float32(y + 1)
	}
	tp := &Teleport{Position: mgl32.Vec3{
		float32(w.opts.SpawnX) + 0.5,
		feet + w.opts.EyeHeight,
		float32(w.opts.SpawnZ) + 0.5,
	}}
	w.log.Info("spawn column ready",
		zap.Int("x", w.opts.SpawnX),
		zap.Int("z", w.opts.SpawnZ),
		zap.Float32("feet_y", feet),
	)
	return tp
}

// IsSafeToApplyGravity reports whether the spawn column has been generated
// and the chunk under the last updated position is loaded.
func (w *World) IsSafeToApplyGravity() bool {
	return w.spawnReady && w.hasCenter && w.store.HasChunk(w.center)
}

// SpawnReady reports whether the spawn teleport has been issued.
func (w *World) SpawnReady() bool {
	return w.spawnReady
}
