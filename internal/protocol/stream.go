package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"alphacraft/internal/world"

	"go.uber.org/zap"
)

// MaxLine bounds a single envelope line. A result line for a 16x128x16
// chunk stays well under this after compression.
const MaxLine = 8 << 20

// Serve answers newline-delimited envelopes from in with h, writing each
// reply as one line on out. Undecodable lines are logged and skipped. It
// returns when in is exhausted or a write fails.
func Serve(in io.Reader, out io.Writer, codec *Codec, h world.Handler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64<<10), MaxLine)
	bw := bufio.NewWriter(out)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		env, err := codec.Decode(line)
		if err != nil {
			log.Warn("dropping envelope", zap.Error(err))
			continue
		}
		resp, ok := h.Handle(env)
		if !ok {
			continue
		}
		raw, err := codec.Encode(resp)
		if err != nil {
			log.Error("encode reply", zap.Error(err))
			continue
		}
		if err := writeLine(bw, raw); err != nil {
			return err
		}
	}
	return sc.Err()
}

func writeLine(bw *bufio.Writer, raw []byte) error {
	if _, err := bw.Write(raw); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

// Conn is the client side of Serve. It implements world.Handler, so a
// scheduler slot can drive a worker in another process. A Conn carries one
// request at a time and owns its codec.
type Conn struct {
	codec *Codec
	bw    *bufio.Writer
	sc    *bufio.Scanner
	log   *zap.Logger

	mu     sync.Mutex // held for a whole request
	closed bool

	hangup    func() error
	closeOnce sync.Once
	closeErr  error
}

// NewConn speaks the line protocol over r and w. hangup, if non-nil, runs
// once on Close and must unblock a pending read on r.
func NewConn(r io.Reader, w io.Writer, codec *Codec, hangup func() error, log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), MaxLine)
	return &Conn{codec: codec, bw: bufio.NewWriter(w), sc: sc, log: log, hangup: hangup}
}

// Handle forwards env to the peer. Only generate requests wait for a reply;
// a broken stream or undecodable reply becomes an error envelope for the
// request so the caller's pending entry is released.
func (c *Conn) Handle(env world.Envelope) (world.Envelope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := errConnClosed
	if !c.closed {
		var raw []byte
		if raw, err = c.codec.Encode(env); err == nil {
			err = writeLine(c.bw, raw)
		}
	}
	if env.Type != world.MessageGenerate || env.Generate == nil {
		if err != nil {
			c.log.Warn("send to worker failed", zap.String("type", string(env.Type)), zap.Error(err))
		}
		return world.Envelope{}, false
	}
	req := env.Generate
	fail := func(err error) (world.Envelope, bool) {
		key := world.ChunkCoord{X: req.ChunkX, Z: req.ChunkZ}.Key()
		return world.ErrorEnvelope(key, req.RequestID, err.Error()), true
	}
	if err != nil {
		return fail(fmt.Errorf("send: %w", err))
	}
	for c.sc.Scan() {
		line := c.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		reply, err := c.codec.Decode(line)
		if err != nil {
			return fail(fmt.Errorf("decode reply: %w", err))
		}
		return reply, true
	}
	err = c.sc.Err()
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return fail(fmt.Errorf("receive: %w", err))
}

var errConnClosed = errors.New("protocol: connection closed")

// Close hangs up on the peer, waits for an in-flight request to unwind and
// releases the codec. It is safe to call more than once and concurrently
// with Handle.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		if c.hangup != nil {
			c.closeErr = c.hangup()
		}
		c.mu.Lock()
		c.closed = true
		c.codec.Close()
		c.mu.Unlock()
	})
	return c.closeErr
}

// exitGrace is how long a worker process gets to exit after its stdin
// closes before it is killed.
const exitGrace = 2 * time.Second

// StartProcess launches a worker command and connects to it over its stdio.
// The child's stderr passes through to ours.
func StartProcess(dims world.Dimensions, name string, args []string, log *zap.Logger) (*Conn, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cmd := exec.Command(name, args...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("protocol: worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("protocol: worker stdout: %w", err)
	}
	codec, err := NewCodec(dims)
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		codec.Close()
		return nil, fmt.Errorf("protocol: start %s: %w", name, err)
	}
	log.Info("worker process started", zap.String("cmd", name), zap.Int("pid", cmd.Process.Pid))

	waited := make(chan error, 1)
	go func() { waited <- cmd.Wait() }()

	stop := func() error {
		_ = stdin.Close()
		var err error
		select {
		case err = <-waited:
		case <-time.After(exitGrace):
			log.Warn("worker process did not exit, killing", zap.Int("pid", cmd.Process.Pid))
			_ = cmd.Process.Kill()
			err = <-waited
		}
		if err != nil {
			return fmt.Errorf("protocol: worker exited: %w", err)
		}
		return nil
	}
	return NewConn(stdout, stdin, codec, stop, log), nil
}
