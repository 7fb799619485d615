// Command voxelsim runs the world engine headless: it streams chunks around
// a walking player on a fixed tick and mines the blocks in front of it.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"alphacraft/internal/config"
	"alphacraft/internal/player"
	"alphacraft/internal/profiling"
	"alphacraft/internal/registry"
	"alphacraft/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"
	"go.uber.org/zap"
)

const tickRate = 20

func main() {
	cfgPath := flag.String("config", "", "YAML config file (defaults when empty)")
	ticks := flag.Int("ticks", 600, "ticks to simulate, 0 runs until interrupted")
	yaw := flag.Float64("yaw", 0, "walking direction in radians, 0 faces -Z")
	mine := flag.Bool("mine", true, "mine the block in view while walking")
	pitch := flag.Float64("pitch", -0.35, "view pitch in radians, negative looks down")
	realtime := flag.Bool("realtime", false, "sleep to hold the tick rate")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, "voxelsim:", err)
			os.Exit(2)
		}
	}
	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "voxelsim:", err)
		os.Exit(2)
	}

	reg := registry.Default()
	sched := world.NewScheduler(cfg.World.InitPayload(reg.Names()), cfg.Streaming.SchedulerOptions(), log.Named("gen"))
	closer.Bind(func() {
		sched.Close()
		st := sched.Stats()
		log.Info("scheduler closed",
			zap.Uint64("dispatched", st.Dispatched),
			zap.Uint64("completed", st.Completed),
			zap.Uint64("failed", st.Failed),
			zap.Uint64("timed_out", st.TimedOut),
			zap.Uint64("stale", st.Stale),
		)
		_ = log.Sync()
	})

	w := world.New(cfg.World.Dimensions(), reg, sched, world.Options{
		Streaming: cfg.Streaming.StreamingOptions(),
		SpawnX:    cfg.World.SpawnX,
		SpawnZ:    cfg.World.SpawnZ,
		EyeHeight: cfg.Player.EyeHeight,
	}, log.Named("world"))

	spawn := mgl32.Vec3{float32(cfg.World.SpawnX) + 0.5, cfg.Player.SpawnHoldY, float32(cfg.World.SpawnZ) + 0.5}
	p := player.New(w, cfg.Player.Settings(), spawn, log.Named("player"))

	var m *player.Miner
	if *mine {
		m = player.NewMiner(w, reg)
	}
	run(w, p, m, *ticks, float32(*yaw), float32(*pitch), *realtime, log)
	closer.Close()
}

func run(w *world.World, p *player.Controller, m *player.Miner, ticks int, yaw, pitch float32, realtime bool, log *zap.Logger) {
	dt := float32(1) / tickRate
	budget := time.Second / tickRate
	in := player.Input{Forward: 1, Yaw: yaw}
	limiter := newTickLimiter(0)
	if realtime {
		limiter = newTickLimiter(tickRate)
	}

	for tick := 1; ticks <= 0 || tick <= ticks; tick++ {
		profiling.ResetFrame()
		start := time.Now()

		rep := p.Step(dt, in)
		if rep.Teleported {
			log.Info("spawn ready", zap.Int("tick", tick))
		}
		// hop over anything the auto-step could not climb
		in.Jump = rep.Collided[0] || rep.Collided[2]

		if m != nil && p.PhysicsEnabled() {
			mineTick(w, p, m, dt, yaw, pitch, log)
		}

		elapsed := time.Since(start)
		if elapsed > budget {
			log.Warn("slow tick",
				zap.Int("tick", tick),
				zap.Duration("elapsed", elapsed),
				zap.String("top", profiling.TopN(3)),
			)
		}
		if tick%tickRate == 0 {
			log.Info("tick",
				zap.Int("tick", tick),
				zap.Float32("x", p.Position.X()),
				zap.Float32("y", p.Position.Y()),
				zap.Float32("z", p.Position.Z()),
				zap.Bool("on_ground", p.OnGround),
				zap.Int("loaded", w.Store().LoadedCount()),
				zap.Duration("world", profiling.SumWithPrefix("world.")),
			)
		}
		limiter.Wait()
	}
}

func mineTick(w *world.World, p *player.Controller, m *player.Miner, dt, yaw, pitch float32, log *zap.Logger) {
	hit := p.Hovered(yaw, pitch)
	x, y, z := hit.HitPosition[0], hit.HitPosition[1], hit.HitPosition[2]
	before := w.GetBlock(x, y, z)
	if m.Update(dt, hit.HitPosition, hit.Hit) {
		log.Debug("mined block", zap.Int("x", x), zap.Int("y", y), zap.Int("z", z), zap.Uint16("id", uint16(before)))
	}
}
