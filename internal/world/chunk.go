package world

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadChunkKey is returned when a "x,z" chunk key cannot be parsed.
var ErrBadChunkKey = errors.New("world: malformed chunk key")

// Dimensions describes the voxel grid shared by the generator and the store.
type Dimensions struct {
	ChunkSize   int
	WorldHeight int
	SeaLevel    int
	GroundLevel int
}

// DefaultDimensions returns the Alpha-style 16x128x16 layout.
func DefaultDimensions() Dimensions {
	return Dimensions{
		ChunkSize:   16,
		WorldHeight: 128,
		SeaLevel:    62,
		GroundLevel: 64,
	}
}

// Validate reports whether the dimensions can hold a generated column.
func (d Dimensions) Validate() error {
	switch {
	case d.ChunkSize <= 0:
		return fmt.Errorf("chunk size must be positive, got %d", d.ChunkSize)
	case d.WorldHeight < 8:
		return fmt.Errorf("world height must be at least 8, got %d", d.WorldHeight)
	case d.SeaLevel <= 0 || d.SeaLevel >= d.WorldHeight:
		return fmt.Errorf("sea level %d outside (0, %d)", d.SeaLevel, d.WorldHeight)
	case d.GroundLevel <= 0 || d.GroundLevel >= d.WorldHeight:
		return fmt.Errorf("ground level %d outside (0, %d)", d.GroundLevel, d.WorldHeight)
	}
	return nil
}

// Volume is the number of cells in one chunk.
func (d Dimensions) Volume() int {
	return d.ChunkSize * d.WorldHeight * d.ChunkSize
}

// ChunkCoord identifies a chunk column in the horizontal grid.
type ChunkCoord struct {
	X, Z int
}

// Key renders the coordinate in the "x,z" form used by worker envelopes.
func (c ChunkCoord) Key() string {
	return strconv.Itoa(c.X) + "," + strconv.Itoa(c.Z)
}

// ParseChunkKey is the inverse of ChunkCoord.Key.
func ParseChunkKey(key string) (ChunkCoord, error) {
	xs, zs, ok := strings.Cut(key, ",")
	if !ok {
		return ChunkCoord{}, fmt.Errorf("%w: %q", ErrBadChunkKey, key)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return ChunkCoord{}, fmt.Errorf("%w: %q: %v", ErrBadChunkKey, key, err)
	}
	z, err := strconv.Atoi(strings.TrimSpace(zs))
	if err != nil {
		return ChunkCoord{}, fmt.Errorf("%w: %q: %v", ErrBadChunkKey, key, err)
	}
	return ChunkCoord{X: x, Z: z}, nil
}

// ChunkCoordAt returns the chunk containing world column (x, z).
func ChunkCoordAt(x, z, chunkSize int) ChunkCoord {
	return ChunkCoord{X: floorDiv(x, chunkSize), Z: floorDiv(z, chunkSize)}
}

// Chunk is a full-height column of voxels. Cells are stored x-major:
// index = (x*height + y)*size + z.
type Chunk struct {
	X, Z   int
	size   int
	height int
	blocks []BlockType
	dirty  bool
}

// NewChunk creates an all-air chunk at the given chunk coordinates.
func NewChunk(x, z int, dims Dimensions) *Chunk {
	return &Chunk{
		X:      x,
		Z:      z,
		size:   dims.ChunkSize,
		height: dims.WorldHeight,
		blocks: make([]BlockType, dims.Volume()),
		dirty:  true,
	}
}

// ChunkFromBlocks wraps decoded cell data. The slice is owned by the chunk afterwards.
func ChunkFromBlocks(x, z int, dims Dimensions, blocks []BlockType) (*Chunk, error) {
	if len(blocks) != dims.Volume() {
		return nil, fmt.Errorf("chunk %d,%d: got %d cells, want %d", x, z, len(blocks), dims.Volume())
	}
	return &Chunk{
		X:      x,
		Z:      z,
		size:   dims.ChunkSize,
		height: dims.WorldHeight,
		blocks: blocks,
		dirty:  true,
	}, nil
}

// Coord returns the chunk coordinate.
func (c *Chunk) Coord() ChunkCoord {
	return ChunkCoord{X: c.X, Z: c.Z}
}

// Size returns the horizontal edge length.
func (c *Chunk) Size() int { return c.size }

// Height returns the vertical extent.
func (c *Chunk) Height() int { return c.height }

func (c *Chunk) inBounds(x, y, z int) bool {
	return x >= 0 && x < c.size && y >= 0 && y < c.height && z >= 0 && z < c.size
}

func (c *Chunk) index(x, y, z int) int {
	return (x*c.height+y)*c.size + z
}

// GetBlock returns the block at local coordinates, or air when out of range.
func (c *Chunk) GetBlock(x, y, z int) BlockType {
	if !c.inBounds(x, y, z) {
		return BlockTypeAir
	}
	return c.blocks[c.index(x, y, z)]
}

// SetBlock writes a block at local coordinates. It reports false when the
// coordinates are outside the chunk.
func (c *Chunk) SetBlock(x, y, z int, blockType BlockType) bool {
	if !c.inBounds(x, y, z) {
		return false
	}
	idx := c.index(x, y, z)
	if c.blocks[idx] != blockType {
		c.blocks[idx] = blockType
		c.dirty = true
	}
	return true
}

// IsAir checks if the block at the specified local coordinates is air
func (c *Chunk) IsAir(x, y, z int) bool {
	return c.GetBlock(x, y, z) == BlockTypeAir
}

// IsDirty returns whether the chunk changed since the last SetClean.
func (c *Chunk) IsDirty() bool {
	return c.dirty
}

// SetClean marks the chunk as clean.
func (c *Chunk) SetClean() {
	c.dirty = false
}

// Blocks exposes the raw cell slice for encoders. Callers must not modify it.
func (c *Chunk) Blocks() []BlockType {
	return c.blocks
}

// Clone returns a detached copy.
func (c *Chunk) Clone() *Chunk {
	cp := *c
	cp.blocks = make([]BlockType, len(c.blocks))
	copy(cp.blocks, c.blocks)
	return &cp
}

// Count returns how many cells hold the given block.
func (c *Chunk) Count(id BlockType) int {
	n := 0
	for _, b := range c.blocks {
		if b == id {
			n++
		}
	}
	return n
}

// Digest is a sha256 over the cell data, stable across processes.
func (c *Chunk) Digest() [32]byte {
	h := sha256.New()
	var buf [2]byte
	for _, b := range c.blocks {
		binary.LittleEndian.PutUint16(buf[:], uint16(b))
		h.Write(buf[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
