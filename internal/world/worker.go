package world

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotInitialized is reported for generate requests that arrive before a
// successful init.
var ErrNotInitialized = errors.New("world: worker not initialized")

// MessageType tags a worker envelope.
type MessageType string

const (
	MessageInit     MessageType = "init"
	MessageGenerate MessageType = "generate"
	MessageResult   MessageType = "result"
	MessageError    MessageType = "error"
)

// InitPayload configures a worker's generator.
type InitPayload struct {
	ChunkSize   int
	WorldHeight int
	SeaLevel    int
	GroundLevel int
	Blocks      map[string]BlockType
	WorldSeed   int64

	// Optional pipeline switches; zero values keep the full pipeline.
	DisableCaves bool
	DisableOres  bool
	FlatHeight   int
}

// NewInitPayload describes params as an init payload.
func NewInitPayload(p GenParams) InitPayload {
	return InitPayload{
		ChunkSize:    p.Dims.ChunkSize,
		WorldHeight:  p.Dims.WorldHeight,
		SeaLevel:     p.Dims.SeaLevel,
		GroundLevel:  p.Dims.GroundLevel,
		Blocks:       p.Palette.Names(),
		WorldSeed:    p.Seed,
		DisableCaves: !p.Caves,
		DisableOres:  !p.Ores,
	}
}

// Dimensions returns the grid described by the payload.
func (p InitPayload) Dimensions() Dimensions {
	return Dimensions{
		ChunkSize:   p.ChunkSize,
		WorldHeight: p.WorldHeight,
		SeaLevel:    p.SeaLevel,
		GroundLevel: p.GroundLevel,
	}
}

// GenParams resolves the payload into generator parameters.
func (p InitPayload) GenParams() (GenParams, error) {
	pal, err := PaletteFromNames(p.Blocks)
	if err != nil {
		return GenParams{}, err
	}
	dims := p.Dimensions()
	if err := dims.Validate(); err != nil {
		return GenParams{}, err
	}
	return GenParams{
		Seed:    p.WorldSeed,
		Dims:    dims,
		Palette: pal,
		Caves:   !p.DisableCaves,
		Ores:    !p.DisableOres,
	}, nil
}

// GeneratePayload asks for one chunk. RequestID is echoed in the reply.
type GeneratePayload struct {
	ChunkX    int
	ChunkZ    int
	RequestID string
}

// ResultPayload carries a detached generated chunk.
type ResultPayload struct {
	ChunkKey  string
	RequestID string
	Chunk     *Chunk
}

// ErrorPayload reports a failed generation.
type ErrorPayload struct {
	ChunkKey  string
	RequestID string
	Message   string
}

// Envelope is one message crossing the worker boundary. Exactly one payload
// pointer matching Type is set.
type Envelope struct {
	Type     MessageType
	Init     *InitPayload
	Generate *GeneratePayload
	Result   *ResultPayload
	Error    *ErrorPayload
}

func InitEnvelope(p InitPayload) Envelope {
	return Envelope{Type: MessageInit, Init: &p}
}

func GenerateEnvelope(coord ChunkCoord, requestID string) Envelope {
	return Envelope{Type: MessageGenerate, Generate: &GeneratePayload{ChunkX: coord.X, ChunkZ: coord.Z, RequestID: requestID}}
}

func ResultEnvelope(c *Chunk, requestID string) Envelope {
	return Envelope{Type: MessageResult, Result: &ResultPayload{ChunkKey: c.Coord().Key(), RequestID: requestID, Chunk: c}}
}

func ErrorEnvelope(key, requestID, message string) Envelope {
	return Envelope{Type: MessageError, Error: &ErrorPayload{ChunkKey: key, RequestID: requestID, Message: message}}
}

// Worker answers generate requests with a private generator. It owns no
// world state; every result is a fresh chunk handed to the receiver.
type Worker struct {
	gen     TerrainGenerator
	initErr error
	log     *zap.Logger
}

// NewWorker creates an uninitialized worker.
func NewWorker(log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{log: log}
}

// Handle processes one request. Init produces no reply; generate always
// produces a result or an error envelope.
func (w *Worker) Handle(env Envelope) (Envelope, bool) {
	switch env.Type {
	case MessageInit:
		w.initialize(env.Init)
		return Envelope{}, false
	case MessageGenerate:
		return w.generate(env.Generate), true
	default:
		w.log.Warn("ignoring envelope", zap.String("type", string(env.Type)))
		return Envelope{}, false
	}
}

func (w *Worker) initialize(p *InitPayload) {
	w.gen, w.initErr = nil, nil
	if p == nil {
		w.initErr = errors.New("init envelope without payload")
		w.log.Error("worker init failed", zap.Error(w.initErr))
		return
	}
	params, err := p.GenParams()
	if err != nil {
		w.initErr = fmt.Errorf("init: %w", err)
		w.log.Error("worker init failed", zap.Error(w.initErr))
		return
	}
	if p.FlatHeight > 0 {
		w.gen = NewFlatGeneratorFor(params.Dims, params.Palette, p.FlatHeight)
		w.log.Debug("worker initialized", zap.String("generator", "flat"), zap.Int("height", p.FlatHeight))
		return
	}
	gen, err := NewGenerator(params)
	if err != nil {
		w.initErr = fmt.Errorf("init: %w", err)
		w.log.Error("worker init failed", zap.Error(w.initErr))
		return
	}
	w.gen = gen
	w.log.Debug("worker initialized", zap.Int64("seed", params.Seed))
}

func (w *Worker) generate(req *GeneratePayload) (resp Envelope) {
	if req == nil {
		return ErrorEnvelope("", "", "generate envelope without payload")
	}
	coord := ChunkCoord{X: req.ChunkX, Z: req.ChunkZ}
	key := coord.Key()
	if w.gen == nil {
		err := ErrNotInitialized
		if w.initErr != nil {
			err = fmt.Errorf("%w: %v", ErrNotInitialized, w.initErr)
		}
		return ErrorEnvelope(key, req.RequestID, err.Error())
	}
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("generation panicked", zap.String("chunk", key), zap.Any("panic", r))
			resp = ErrorEnvelope(key, req.RequestID, fmt.Sprintf("generation panicked: %v", r))
		}
	}()

	c := NewChunk(coord.X, coord.Z, w.gen.Dimensions())
	w.gen.PopulateChunk(c)
	return ResultEnvelope(c, req.RequestID)
}
