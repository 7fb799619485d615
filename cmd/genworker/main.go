// Command genworker runs one chunk generation worker over stdio. Each input
// line is a JSON envelope; each reply is written as one line on stdout.
// Logs go to stderr.
package main

import (
	"flag"
	"fmt"
	"os"

	"alphacraft/internal/config"
	"alphacraft/internal/protocol"
	"alphacraft/internal/world"

	"github.com/xlab/closer"
	"go.uber.org/zap"
)

func main() {
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	dev := flag.Bool("log-dev", false, "human readable logs")
	flag.Parse()

	log, err := config.NewLogger(config.LogConfig{Level: *level, Development: *dev})
	if err != nil {
		fmt.Fprintln(os.Stderr, "genworker:", err)
		os.Exit(2)
	}

	codec, err := protocol.NewCodec(world.DefaultDimensions())
	if err != nil {
		log.Fatal("codec", zap.Error(err))
	}
	closer.Bind(func() {
		codec.Close()
		_ = log.Sync()
	})

	if err := protocol.Serve(os.Stdin, os.Stdout, codec, world.NewWorker(log), log); err != nil {
		log.Error("worker stopped", zap.Error(err))
		closer.Exit(1)
	}
	closer.Close()
}
