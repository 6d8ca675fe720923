package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nholden/rotor/agent"
	"github.com/nholden/rotor/config"
	"github.com/nholden/rotor/simworld"
)

const banner = `
██████╗  ██████╗ ████████╗ ██████╗ ██████╗
██╔══██╗██╔═══██╗╚══██╔══╝██╔═══██╗██╔══██╗
██████╔╝██║   ██║   ██║   ██║   ██║██████╔╝
██╔══██╗██║   ██║   ██║   ██║   ██║██╔══██╗
██║  ██║╚██████╔╝   ██║   ╚██████╔╝██║  ██║
╚═╝  ╚═╝ ╚═════╝    ╚═╝    ╚═════╝ ╚═╝  ╚═╝

Reactive Decision Core`

func main() {
	configPath := flag.String("config", "", "path to YAML settings (defaults apply when absent)")
	verbose := flag.Bool("v", false, "enable debug logging")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until signalled)")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load settings", "path", *configPath, "error", err)
		os.Exit(1)
	}
	slog.Info("starting rotor", "tick", cfg.TickDuration(), "modeOverride", cfg.ModeOverride)

	world := simworld.New(cfg)
	a, err := agent.New(world, cfg)
	if err != nil {
		slog.Error("failed to build agent", "error", err)
		os.Exit(1)
	}
	a.Register(world)

	a.Events().Subscribe(func(ev agent.Event) {
		slog.Debug("world event", "kind", string(ev.Kind), "tick", ev.Tick, "detail", ev.Detail)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	ticker := time.NewTicker(cfg.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			requests := world.Requests()
			accepted := 0
			for _, r := range requests {
				if r.Accepted {
					accepted++
				}
			}
			slog.Info("shutting down",
				"ticks", world.Tick(),
				"dispatches", len(requests),
				"accepted", accepted,
				"mode", string(a.Mode()),
			)
			return
		case <-ticker.C:
			world.Step()
		}
	}
}
