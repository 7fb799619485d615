package world

import (
	"cmp"
	"slices"

	"alphacraft/internal/profiling"

	"go.uber.org/zap"
)

// ChunkState is the streaming lifecycle of one coordinate.
type ChunkState int

const (
	ChunkUnloaded ChunkState = iota
	ChunkPending
	ChunkLoaded
)

func (s ChunkState) String() string {
	switch s {
	case ChunkPending:
		return "pending"
	case ChunkLoaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// StreamingOptions controls which chunks are kept around the player.
// Distances are circular: a chunk is inside radius r when dx*dx+dz*dz <= r*r.
type StreamingOptions struct {
	LoadRadius         int
	UnloadRadius       int // must exceed LoadRadius
	MaxRequestsPerTick int // <= 0 means no per-tick cap
}

// UpdateReport summarizes one Update call.
type UpdateReport struct {
	Merged    int
	Dropped   int // completed outside the unload radius, discarded on arrival
	Requested int
	Evicted   int
	Failures  []Failure
}

// ChunkStore owns every loaded chunk. It is not safe for concurrent use: the
// simulation goroutine performs all merges, evictions and edits.
type ChunkStore struct {
	dims       Dimensions
	chunks     map[ChunkCoord]*Chunk
	pinned     map[ChunkCoord]struct{}
	dispatcher Dispatcher
	opts       StreamingOptions
	offsets    []ChunkCoord // load ring, nearest first
	modCount   uint64       // increases on any chunk add/remove/edit
	log        *zap.Logger
}

// NewChunkStore creates an empty store. UnloadRadius is raised to
// LoadRadius+1 when it does not exceed the load radius.
func NewChunkStore(dims Dimensions, d Dispatcher, opts StreamingOptions, log *zap.Logger) *ChunkStore {
	if log == nil {
		log = zap.NewNop()
	}
	opts.LoadRadius = max(opts.LoadRadius, 0)
	if opts.UnloadRadius <= opts.LoadRadius {
		opts.UnloadRadius = opts.LoadRadius + 1
	}
	return &ChunkStore{
		dims:       dims,
		chunks:     make(map[ChunkCoord]*Chunk),
		pinned:     make(map[ChunkCoord]struct{}),
		dispatcher: d,
		opts:       opts,
		offsets:    loadOffsets(opts.LoadRadius),
		log:        log,
	}
}

// loadOffsets lists every offset inside radius r ordered by distance, then X, then Z.
func loadOffsets(r int) []ChunkCoord {
	var out []ChunkCoord
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			if dx*dx+dz*dz <= r*r {
				out = append(out, ChunkCoord{X: dx, Z: dz})
			}
		}
	}
	slices.SortFunc(out, func(a, b ChunkCoord) int {
		return cmp.Or(
			cmp.Compare(a.X*a.X+a.Z*a.Z, b.X*b.X+b.Z*b.Z),
			cmp.Compare(a.X, b.X),
			cmp.Compare(a.Z, b.Z),
		)
	})
	return out
}

func within(a, b ChunkCoord, r int) bool {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return dx*dx+dz*dz <= r*r
}

// Dimensions returns the grid layout.
func (cs *ChunkStore) Dimensions() Dimensions {
	return cs.dims
}

// Options returns the normalized streaming options.
func (cs *ChunkStore) Options() StreamingOptions {
	return cs.opts
}

// Update merges finished generation, requests missing chunks inside the load
// radius around center and evicts chunks outside the unload radius.
func (cs *ChunkStore) Update(center ChunkCoord) UpdateReport {
	defer profiling.Track("world.ChunkStore.Update")()
	var rep UpdateReport

	done, failed := cs.dispatcher.Poll()
	rep.Failures = failed
	for _, c := range done {
		if !cs.keep(c.Coord, center) {
			rep.Dropped++
			cs.log.Debug("dropping chunk outside unload radius", zap.Int("cx", c.Coord.X), zap.Int("cz", c.Coord.Z))
			continue
		}
		if cs.AddChunk(c.Coord, c.Chunk) {
			rep.Merged++
		}
	}

	budget := cs.opts.MaxRequestsPerTick
	for coord := range cs.pinned {
		if cs.RequestChunk(coord) {
			rep.Requested++
		}
	}
	for _, off := range cs.offsets {
		if budget > 0 && rep.Requested >= budget {
			break
		}
		coord := ChunkCoord{X: center.X + off.X, Z: center.Z + off.Z}
		if cs.State(coord) != ChunkUnloaded {
			continue
		}
		if !cs.RequestChunk(coord) {
			// rate limit or full queue, try again next tick
			break
		}
		rep.Requested++
	}

	rep.Evicted = cs.EvictFarChunks(center, cs.opts.UnloadRadius)
	return rep
}

func (cs *ChunkStore) keep(coord, center ChunkCoord) bool {
	if _, ok := cs.pinned[coord]; ok {
		return true
	}
	return within(coord, center, cs.opts.UnloadRadius)
}

// RequestChunk asks the dispatcher for coord unless it is loaded or pending.
func (cs *ChunkStore) RequestChunk(coord ChunkCoord) bool {
	if _, ok := cs.chunks[coord]; ok {
		return false
	}
	return cs.dispatcher.Request(coord)
}

// Pin keeps coord requested and exempt from eviction until Unpin.
func (cs *ChunkStore) Pin(coord ChunkCoord) {
	cs.pinned[coord] = struct{}{}
}

// Unpin releases a pinned coordinate.
func (cs *ChunkStore) Unpin(coord ChunkCoord) {
	delete(cs.pinned, coord)
}

// State reports where coord is in the streaming lifecycle.
func (cs *ChunkStore) State(coord ChunkCoord) ChunkState {
	if _, ok := cs.chunks[coord]; ok {
		return ChunkLoaded
	}
	if cs.dispatcher.Pending(coord) {
		return ChunkPending
	}
	return ChunkUnloaded
}

// AddChunk installs a generated chunk. It reports false if coord was already loaded.
func (cs *ChunkStore) AddChunk(coord ChunkCoord, chunk *Chunk) bool {
	if _, ok := cs.chunks[coord]; ok {
		cs.log.Debug("chunk already loaded", zap.Int("cx", coord.X), zap.Int("cz", coord.Z))
		return false
	}
	cs.chunks[coord] = chunk
	cs.modCount++
	cs.markNeighborsDirty(coord)
	return true
}

func (cs *ChunkStore) markNeighborsDirty(coord ChunkCoord) {
	for _, d := range [4]ChunkCoord{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}} {
		if nb, ok := cs.chunks[ChunkCoord{X: coord.X + d.X, Z: coord.Z + d.Z}]; ok {
			nb.dirty = true
		}
	}
}

// EvictFarChunks removes unpinned chunks outside radius of center and
// returns how many were removed.
func (cs *ChunkStore) EvictFarChunks(center ChunkCoord, radius int) int {
	removed := 0
	for coord := range cs.chunks {
		if _, ok := cs.pinned[coord]; ok || within(coord, center, radius) {
			continue
		}
		delete(cs.chunks, coord)
		cs.modCount++
		removed++
	}
	if removed > 0 {
		cs.log.Debug("evicted chunks", zap.Int("count", removed), zap.Int("cx", center.X), zap.Int("cz", center.Z))
	}
	return removed
}

// HasChunk reports whether coord is loaded.
func (cs *ChunkStore) HasChunk(coord ChunkCoord) bool {
	_, ok := cs.chunks[coord]
	return ok
}

// GetChunk returns the loaded chunk at coord or nil.
func (cs *ChunkStore) GetChunk(coord ChunkCoord) *Chunk {
	return cs.chunks[coord]
}

// LoadedCount returns the number of loaded chunks.
func (cs *ChunkStore) LoadedCount() int {
	return len(cs.chunks)
}

// Loaded returns the loaded coordinates sorted by X then Z.
func (cs *ChunkStore) Loaded() []ChunkCoord {
	out := make([]ChunkCoord, 0, len(cs.chunks))
	for coord := range cs.chunks {
		out = append(out, coord)
	}
	slices.SortFunc(out, func(a, b ChunkCoord) int {
		return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Z, b.Z))
	})
	return out
}

// GetModCount returns the current modification count.
func (cs *ChunkStore) GetModCount() uint64 {
	return cs.modCount
}

// Get returns the block at world coordinates; air outside the vertical range
// or in an unloaded chunk.
func (cs *ChunkStore) Get(x, y, z int) BlockType {
	if y < 0 || y >= cs.dims.WorldHeight {
		return BlockTypeAir
	}
	c := cs.chunks[ChunkCoordAt(x, z, cs.dims.ChunkSize)]
	if c == nil {
		return BlockTypeAir
	}
	return c.GetBlock(mod(x, cs.dims.ChunkSize), y, mod(z, cs.dims.ChunkSize))
}

// Set writes a block at world coordinates. Writes into unloaded chunks or
// outside the vertical range are dropped and reported as false.
func (cs *ChunkStore) Set(x, y, z int, val BlockType) bool {
	if y < 0 || y >= cs.dims.WorldHeight {
		return false
	}
	size := cs.dims.ChunkSize
	coord := ChunkCoordAt(x, z, size)
	c := cs.chunks[coord]
	if c == nil {
		return false
	}
	lx, lz := mod(x, size), mod(z, size)
	if !c.SetBlock(lx, y, lz, val) {
		return false
	}
	cs.modCount++

	// border edits change neighbor faces
	if lx == 0 {
		cs.markDirty(ChunkCoord{X: coord.X - 1, Z: coord.Z})
	} else if lx == size-1 {
		cs.markDirty(ChunkCoord{X: coord.X + 1, Z: coord.Z})
	}
	if lz == 0 {
		cs.markDirty(ChunkCoord{X: coord.X, Z: coord.Z - 1})
	} else if lz == size-1 {
		cs.markDirty(ChunkCoord{X: coord.X, Z: coord.Z + 1})
	}
	return true
}

func (cs *ChunkStore) markDirty(coord ChunkCoord) {
	if nb, ok := cs.chunks[coord]; ok {
		nb.dirty = true
	}
}
