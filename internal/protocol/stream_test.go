package protocol

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"alphacraft/internal/world"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func encodeLines(t *testing.T, envs ...world.Envelope) []string {
	t.Helper()
	c := newCodec(t)
	lines := make([]string, 0, len(envs))
	for _, env := range envs {
		raw, err := c.Encode(env)
		require.NoError(t, err)
		lines = append(lines, string(raw))
	}
	return lines
}

func runServe(t *testing.T, lines []string) []world.Envelope {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, Serve(in, &out, newCodec(t), world.NewWorker(nil), zap.NewNop()))

	reader := newCodec(t)
	var replies []world.Envelope
	sc := bufio.NewScanner(&out)
	sc.Buffer(nil, MaxLine)
	for sc.Scan() {
		env, err := reader.Decode(sc.Bytes())
		require.NoError(t, err)
		replies = append(replies, env)
	}
	require.NoError(t, sc.Err())
	return replies
}

func TestServeGeneratesChunks(t *testing.T) {
	params := world.DefaultGenParams(42)
	lines := encodeLines(t,
		world.InitEnvelope(world.NewInitPayload(params)),
		world.GenerateEnvelope(world.ChunkCoord{X: 0, Z: 0}, "a"),
		world.GenerateEnvelope(world.ChunkCoord{X: -1, Z: 2}, "b"),
	)
	// garbage and blank lines are skipped without a reply
	lines = append(lines[:2], append([]string{"{nope", ""}, lines[2:]...)...)

	replies := runServe(t, lines)
	require.Len(t, replies, 2)

	g, err := world.NewGenerator(params)
	require.NoError(t, err)
	for i, want := range []struct {
		coord world.ChunkCoord
		id    string
	}{{world.ChunkCoord{}, "a"}, {world.ChunkCoord{X: -1, Z: 2}, "b"}} {
		r := replies[i]
		require.Equal(t, world.MessageResult, r.Type)
		assert.Equal(t, want.id, r.Result.RequestID)
		assert.Equal(t, want.coord.Key(), r.Result.ChunkKey)
		assert.Equal(t, g.Generate(want.coord.X, want.coord.Z).Digest(), r.Result.Chunk.Digest())
	}
}

func TestServeReportsGenerateBeforeInit(t *testing.T) {
	replies := runServe(t, encodeLines(t, world.GenerateEnvelope(world.ChunkCoord{X: 3, Z: 3}, "early")))
	require.Len(t, replies, 1)
	require.Equal(t, world.MessageError, replies[0].Type)
	assert.Equal(t, "3,3", replies[0].Error.ChunkKey)
	assert.Equal(t, "early", replies[0].Error.RequestID)
}

// pipePeer is a Conn wired to an in-memory peer. The peer reads what the
// Conn writes on toPeer and answers on fromPeer.
type pipePeer struct {
	conn     *Conn
	toPeer   *io.PipeReader
	fromPeer *io.PipeWriter
}

func newPipePeer(t *testing.T) *pipePeer {
	t.Helper()
	upR, upW := io.Pipe()
	downR, downW := io.Pipe()
	codec, err := NewCodec(world.DefaultDimensions())
	require.NoError(t, err)
	hangup := func() error {
		_ = upW.Close()
		return downR.Close()
	}
	conn := NewConn(downR, upW, codec, hangup, zap.NewNop())
	t.Cleanup(func() { _ = conn.Close() })
	return &pipePeer{conn: conn, toPeer: upR, fromPeer: downW}
}

// serveWorker runs Serve with an in-process worker on the peer side.
func (p *pipePeer) serveWorker(t *testing.T) <-chan error {
	t.Helper()
	codec, err := NewCodec(world.DefaultDimensions())
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		defer codec.Close()
		err := Serve(p.toPeer, p.fromPeer, codec, world.NewWorker(nil), zap.NewNop())
		_ = p.fromPeer.Close()
		done <- err
	}()
	return done
}

func TestConnDrivesRemoteWorker(t *testing.T) {
	p := newPipePeer(t)
	p.serveWorker(t)

	params := world.DefaultGenParams(77)
	_, ok := p.conn.Handle(world.InitEnvelope(world.NewInitPayload(params)))
	assert.False(t, ok, "init must not wait for a reply")

	g, err := world.NewGenerator(params)
	require.NoError(t, err)
	for i, coord := range []world.ChunkCoord{{X: 0, Z: 0}, {X: 5, Z: -3}} {
		id := string(rune('a' + i))
		resp, ok := p.conn.Handle(world.GenerateEnvelope(coord, id))
		require.True(t, ok)
		require.Equal(t, world.MessageResult, resp.Type)
		assert.Equal(t, id, resp.Result.RequestID)
		assert.Equal(t, coord.Key(), resp.Result.ChunkKey)
		assert.Equal(t, g.Generate(coord.X, coord.Z).Digest(), resp.Result.Chunk.Digest())
	}
}

func TestConnAsSchedulerHandler(t *testing.T) {
	params := world.DefaultGenParams(9)
	opts := world.SchedulerOptions{Workers: 1, QueueSize: 4}
	opts.NewHandler = func(_ int, _ *zap.Logger) (world.Handler, error) {
		p := newPipePeer(t)
		p.serveWorker(t)
		return p.conn, nil
	}
	s := world.NewScheduler(world.NewInitPayload(params), opts, nil)
	defer s.Close()

	c := world.ChunkCoord{X: -4, Z: 1}
	require.True(t, s.Request(c))
	var got []world.Completed
	require.Eventually(t, func() bool {
		done, failed := s.Poll()
		assert.Empty(t, failed)
		got = append(got, done...)
		return len(got) == 1
	}, 10*time.Second, 5*time.Millisecond)

	g, err := world.NewGenerator(params)
	require.NoError(t, err)
	assert.Equal(t, g.Generate(c.X, c.Z).Digest(), got[0].Chunk.Digest())
}

func TestConnReportsDeadPeer(t *testing.T) {
	p := newPipePeer(t)
	_ = p.toPeer.Close()

	resp, ok := p.conn.Handle(world.GenerateEnvelope(world.ChunkCoord{X: 1, Z: 2}, "gone"))
	require.True(t, ok)
	require.Equal(t, world.MessageError, resp.Type)
	assert.Equal(t, "1,2", resp.Error.ChunkKey)
	assert.Equal(t, "gone", resp.Error.RequestID)
	assert.Contains(t, resp.Error.Message, "send")
}

func TestConnReportsBadReply(t *testing.T) {
	p := newPipePeer(t)
	go func() {
		sc := bufio.NewScanner(p.toPeer)
		sc.Buffer(nil, MaxLine)
		for sc.Scan() {
			_, _ = io.WriteString(p.fromPeer, "\n{\"type\":\"bogus\"}\n")
		}
	}()

	resp, ok := p.conn.Handle(world.GenerateEnvelope(world.ChunkCoord{X: -1, Z: 0}, "x"))
	require.True(t, ok)
	require.Equal(t, world.MessageError, resp.Type)
	assert.Equal(t, "-1,0", resp.Error.ChunkKey)
	assert.Contains(t, resp.Error.Message, "decode reply")
}

func TestConnCloseUnblocksPendingRequest(t *testing.T) {
	p := newPipePeer(t)
	// swallow requests without answering
	go func() { _, _ = io.Copy(io.Discard, p.toPeer) }()

	replied := make(chan world.Envelope, 1)
	go func() {
		resp, _ := p.conn.Handle(world.GenerateEnvelope(world.ChunkCoord{}, "stuck"))
		replied <- resp
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, p.conn.Close())
	select {
	case resp := <-replied:
		require.Equal(t, world.MessageError, resp.Type)
		assert.Equal(t, "stuck", resp.Error.RequestID)
	case <-time.After(5 * time.Second):
		t.Fatal("Handle still blocked after Close")
	}

	resp, ok := p.conn.Handle(world.GenerateEnvelope(world.ChunkCoord{}, "late"))
	require.True(t, ok)
	assert.Contains(t, resp.Error.Message, errConnClosed.Error())
}
