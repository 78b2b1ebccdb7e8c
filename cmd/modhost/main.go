// Command modhost runs a patch on the default audio device.
//
// Usage:
//
//	modhost [flags]
//
// Without -preset it plays a small built-in sequence. The transport starts
// playing immediately; interrupt (Ctrl-C) or -duration stops it.
//
// Examples:
//
//	modhost
//	modhost -preset patch.xml -save patch.xml
//	modhost -rate 44100 -block 128 -bpm 96 -duration 30s
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-modular/engine/caps"
	"github.com/cwbudde/algo-modular/engine/graph"
	"github.com/cwbudde/algo-modular/engine/preset"
	"github.com/cwbudde/algo-modular/engine/registry"
	"github.com/cwbudde/algo-modular/engine/transport"
	"github.com/cwbudde/algo-modular/internal/device"
	"github.com/cwbudde/algo-modular/internal/logging"
	"github.com/cwbudde/algo-modular/modules"
)

func main() {
	presetPath := flag.String("preset", "", "preset file to load")
	savePath := flag.String("save", "", "write the patch to this file on exit")
	rate := flag.Float64("rate", 0, "sample rate in Hz (0 = device default)")
	block := flag.Int("block", 256, "block size in frames")
	level := flag.String("log-level", "info", "log level: debug, info, warn, error")
	bpm := flag.Float64("bpm", transport.DefaultBPM, "initial tempo")
	duration := flag.Duration("duration", 0, "stop after this long (0 = until interrupted)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: modhost [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a modular patch on the default audio device.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	lvl, err := logging.ParseLevel(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger := logging.Setup(lvl, os.Stderr)

	if err := run(logger, options{
		preset:   *presetPath,
		save:     *savePath,
		rate:     *rate,
		block:    *block,
		bpm:      *bpm,
		duration: *duration,
	}); err != nil {
		logger.Error("modhost failed", "err", err)
		os.Exit(1)
	}
}

type options struct {
	preset   string
	save     string
	rate     float64
	block    int
	bpm      float64
	duration time.Duration
}

func run(logger *slog.Logger, opts options) error {
	if err := device.Initialize(); err != nil {
		return err
	}
	defer device.Terminate()

	dev, err := device.Query()
	if err != nil {
		return err
	}

	caps.Init(dev)
	snap := caps.Get()
	logger.Info("capabilities", "caps", snap.String())

	if opts.rate <= 0 {
		opts.rate = dev.DefaultSampleRate
	}

	modules.MustRegister(registry.Default)

	p := graph.New(
		graph.WithSampleRate(opts.rate),
		graph.WithBlockSize(opts.block),
		graph.WithHardwareChannels(dev.Inputs, dev.Outputs),
		graph.WithLogger(logger),
	)
	defer p.Close()

	if err := loadPatch(p, opts.preset); err != nil {
		return err
	}

	ctl := transport.NewController()
	ctl.SetBPM(opts.bpm)
	ctl.Play()

	renderer := device.NewRenderer(p, ctl, dev.Inputs, dev.Outputs, opts.block)

	stream, err := device.Open(renderer, dev.Inputs, dev.Outputs, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)

		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return stream.Run(ctx)
	})
	g.Go(func() error {
		err := p.RunMaintenance(ctx, 250*time.Millisecond)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}

		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if opts.save != "" {
		if err := preset.SaveFile(opts.save, p); err != nil {
			return err
		}

		logger.Info("patch saved", "path", opts.save)
	}

	return nil
}

func loadPatch(p *graph.Processor, path string) error {
	if path == "" {
		return defaultPatch(p)
	}

	report, err := preset.LoadFile(path, p)
	if err != nil {
		return err
	}

	p.Logger().Info("patch loaded", "path", path,
		"modules", report.ModulesCreated, "connections", report.ConnectionsMade)

	return nil
}
