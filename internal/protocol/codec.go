// Package protocol is the JSON wire form of the generation worker
// envelopes. Chunk payloads travel as zstd-compressed little-endian uint16
// block arrays.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"alphacraft/internal/world"

	"github.com/klauspost/compress/zstd"
)

var (
	// ErrUnknownType is returned for envelopes with an unrecognised type tag.
	ErrUnknownType = errors.New("protocol: unknown message type")
	// ErrChunkSize is returned when a decoded chunk does not match the
	// codec's dimensions.
	ErrChunkSize = errors.New("protocol: chunk data size mismatch")
)

// maxDecodedChunk bounds zstd output for a single chunk payload.
const maxDecodedChunk = 64 << 20

type wireEnvelope struct {
	Type    world.MessageType `json:"type"`
	Payload json.RawMessage   `json:"payload"`
}

type wireInit struct {
	ChunkSize    int                        `json:"CHUNK_SIZE"`
	WorldHeight  int                        `json:"WORLD_HEIGHT"`
	SeaLevel     int                        `json:"SEA_LEVEL"`
	GroundLevel  int                        `json:"GROUND_LEVEL"`
	Blocks       map[string]world.BlockType `json:"blocks"`
	WorldSeed    int64                      `json:"worldSeed"`
	DisableCaves bool                       `json:"disableCaves,omitempty"`
	DisableOres  bool                       `json:"disableOres,omitempty"`
	FlatHeight   int                        `json:"flatHeight,omitempty"`
}

type wireGenerate struct {
	ChunkX    int    `json:"chunkX"`
	ChunkZ    int    `json:"chunkZ"`
	RequestID string `json:"requestId,omitempty"`
}

type wireResult struct {
	ChunkKey  string `json:"chunkKey"`
	RequestID string `json:"requestId,omitempty"`
	ChunkData []byte `json:"chunkData"`
}

type wireError struct {
	ChunkKey  string `json:"chunkKey"`
	RequestID string `json:"requestId,omitempty"`
	Message   string `json:"message"`
}

// Codec converts envelopes to and from their wire form. Result decoding
// needs the grid dimensions; they come from NewCodec or the last init
// envelope passed through Decode or Encode.
type Codec struct {
	dims world.Dimensions
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// NewCodec creates a codec for chunks of the given dimensions.
func NewCodec(dims world.Dimensions) (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("protocol: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedChunk))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("protocol: zstd decoder: %w", err)
	}
	return &Codec{dims: dims, enc: enc, dec: dec}, nil
}

// Dimensions returns the grid used to rebuild result chunks.
func (c *Codec) Dimensions() world.Dimensions {
	return c.dims
}

// Close releases the compressor state.
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}

// Encode marshals env into a single JSON document.
func (c *Codec) Encode(env world.Envelope) ([]byte, error) {
	var payload any
	switch env.Type {
	case world.MessageInit:
		if env.Init == nil {
			return nil, errors.New("protocol: init envelope without payload")
		}
		p := env.Init
		c.dims = p.Dimensions()
		payload = wireInit{
			ChunkSize:    p.ChunkSize,
			WorldHeight:  p.WorldHeight,
			SeaLevel:     p.SeaLevel,
			GroundLevel:  p.GroundLevel,
			Blocks:       p.Blocks,
			WorldSeed:    p.WorldSeed,
			DisableCaves: p.DisableCaves,
			DisableOres:  p.DisableOres,
			FlatHeight:   p.FlatHeight,
		}
	case world.MessageGenerate:
		if env.Generate == nil {
			return nil, errors.New("protocol: generate envelope without payload")
		}
		payload = wireGenerate{ChunkX: env.Generate.ChunkX, ChunkZ: env.Generate.ChunkZ, RequestID: env.Generate.RequestID}
	case world.MessageResult:
		if env.Result == nil || env.Result.Chunk == nil {
			return nil, errors.New("protocol: result envelope without chunk")
		}
		payload = wireResult{
			ChunkKey:  env.Result.ChunkKey,
			RequestID: env.Result.RequestID,
			ChunkData: c.compress(env.Result.Chunk),
		}
	case world.MessageError:
		if env.Error == nil {
			return nil, errors.New("protocol: error envelope without payload")
		}
		payload = wireError(*env.Error)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s payload: %w", env.Type, err)
	}
	return json.Marshal(wireEnvelope{Type: env.Type, Payload: raw})
}

// Decode validates data against the envelope schema and unmarshals it.
func (c *Codec) Decode(data []byte) (world.Envelope, error) {
	if err := validate(data); err != nil {
		return world.Envelope{}, err
	}
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return world.Envelope{}, fmt.Errorf("protocol: %w", err)
	}

	switch w.Type {
	case world.MessageInit:
		var p wireInit
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return world.Envelope{}, fmt.Errorf("protocol: init payload: %w", err)
		}
		init := world.InitPayload{
			ChunkSize:    p.ChunkSize,
			WorldHeight:  p.WorldHeight,
			SeaLevel:     p.SeaLevel,
			GroundLevel:  p.GroundLevel,
			Blocks:       p.Blocks,
			WorldSeed:    p.WorldSeed,
			DisableCaves: p.DisableCaves,
			DisableOres:  p.DisableOres,
			FlatHeight:   p.FlatHeight,
		}
		c.dims = init.Dimensions()
		return world.InitEnvelope(init), nil

	case world.MessageGenerate:
		var p wireGenerate
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return world.Envelope{}, fmt.Errorf("protocol: generate payload: %w", err)
		}
		return world.GenerateEnvelope(world.ChunkCoord{X: p.ChunkX, Z: p.ChunkZ}, p.RequestID), nil

	case world.MessageResult:
		var p wireResult
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return world.Envelope{}, fmt.Errorf("protocol: result payload: %w", err)
		}
		coord, err := world.ParseChunkKey(p.ChunkKey)
		if err != nil {
			return world.Envelope{}, err
		}
		chunk, err := c.decompress(coord, p.ChunkData)
		if err != nil {
			return world.Envelope{}, fmt.Errorf("protocol: chunk %s: %w", p.ChunkKey, err)
		}
		return world.ResultEnvelope(chunk, p.RequestID), nil

	case world.MessageError:
		var p wireError
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return world.Envelope{}, fmt.Errorf("protocol: error payload: %w", err)
		}
		return world.ErrorEnvelope(p.ChunkKey, p.RequestID, p.Message), nil
	}
	return world.Envelope{}, fmt.Errorf("%w: %q", ErrUnknownType, w.Type)
}

func (c *Codec) compress(ch *world.Chunk) []byte {
	blocks := ch.Blocks()
	raw := make([]byte, 2*len(blocks))
	for i, b := range blocks {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(b))
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/8))
}

func (c *Codec) decompress(coord world.ChunkCoord, data []byte) (*world.Chunk, error) {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	if len(raw) != 2*c.dims.Volume() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrChunkSize, len(raw), 2*c.dims.Volume())
	}
	blocks := make([]world.BlockType, len(raw)/2)
	for i := range blocks {
		blocks[i] = world.BlockType(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return world.ChunkFromBlocks(coord.X, coord.Z, c.dims, blocks)
}
