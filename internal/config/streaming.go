package config

import (
	"runtime"
	"time"

	"alphacraft/internal/protocol"
	"alphacraft/internal/world"

	"go.uber.org/zap"
)

// StreamingConfig controls chunk loading around the player and the worker pool.
type StreamingConfig struct {
	LoadRadius         int     `yaml:"load_radius"`
	UnloadRadius       int     `yaml:"unload_radius"` // 0 means twice the load radius
	MaxRequestsPerTick int     `yaml:"max_requests_per_tick"`
	Workers            int     `yaml:"workers"` // 0 means one per CPU
	QueueSize          int     `yaml:"queue_size"`
	RequestRate        float64 `yaml:"request_rate"` // dispatches per second, 0 means unlimited
	RequestBurst       int     `yaml:"request_burst"`
	WatchdogMs         int     `yaml:"watchdog_ms"` // 0 disables the watchdog
	// WorkerCommand runs each worker as a child process speaking the
	// envelope protocol on stdio, e.g. ["genworker", "-log-level", "warn"].
	// Empty means in-process workers.
	WorkerCommand []string `yaml:"worker_command"`
}

// DefaultStreaming returns the streaming defaults.
func DefaultStreaming() StreamingConfig {
	return StreamingConfig{
		LoadRadius:         6,
		UnloadRadius:       12,
		MaxRequestsPerTick: 32,
		QueueSize:          1024,
		RequestBurst:       64,
		WatchdogMs:         30000,
	}
}

// StreamingOptions converts to the chunk store options.
func (s StreamingConfig) StreamingOptions() world.StreamingOptions {
	return world.StreamingOptions{
		LoadRadius:         s.LoadRadius,
		UnloadRadius:       s.UnloadRadius,
		MaxRequestsPerTick: s.MaxRequestsPerTick,
	}
}

// SchedulerOptions converts to the worker pool options.
func (s StreamingConfig) SchedulerOptions() world.SchedulerOptions {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	opts := world.SchedulerOptions{
		Workers:      workers,
		QueueSize:    s.QueueSize,
		RequestRate:  s.RequestRate,
		RequestBurst: s.RequestBurst,
		Timeout:      time.Duration(s.WatchdogMs) * time.Millisecond,
	}
	if len(s.WorkerCommand) > 0 {
		name, args := s.WorkerCommand[0], s.WorkerCommand[1:]
		opts.NewHandler = func(_ int, log *zap.Logger) (world.Handler, error) {
			// the init envelope resets the codec to the world's dimensions
			conn, err := protocol.StartProcess(world.DefaultDimensions(), name, args, log)
			if err != nil {
				return nil, err
			}
			return conn, nil
		}
	}
	return opts
}
