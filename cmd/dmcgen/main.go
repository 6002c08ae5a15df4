package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"dmcgen/internal/config"
	"dmcgen/internal/pipeline"
	"dmcgen/pkg/lifecycle"
)

func newRuntime(cmd *cli.Command, logger *slog.Logger) (*pipeline.Runtime, error) {
	cfg, err := config.LoadFile(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return pipeline.NewRuntime(cfg, logger)
}

func runBatch(_ context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd)

	rt, err := newRuntime(cmd, logger)
	if err != nil {
		return err
	}

	coord := newCoordinator(rt, logger)

	summary, err := rt.Run(coord.Context())
	if shutdownErr := coord.Shutdown(10 * time.Second); shutdownErr != nil {
		logger.Warn("shutdown incomplete", "error", shutdownErr)
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", summary.Failed, summary.Processed)
	}
	return nil
}

func runWatch(_ context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd)

	rt, err := newRuntime(cmd, logger)
	if err != nil {
		return err
	}

	coord := newCoordinator(rt, logger)

	err = rt.Watch(coord.Context())
	if shutdownErr := coord.Shutdown(10 * time.Second); shutdownErr != nil {
		logger.Warn("shutdown incomplete", "error", shutdownErr)
	}
	return err
}

// newCoordinator ties the run log and outcome history teardown to batch
// cancellation so an interrupted run still flushes its sinks.
func newCoordinator(rt *pipeline.Runtime, logger *slog.Logger) *lifecycle.Coordinator {
	coord := lifecycle.New()
	coord.OnTeardown(func() {
		<-coord.Context().Done()
		if err := rt.Close(); err != nil {
			logger.Warn("sink teardown failed", "error", err)
		}
	})
	return coord
}

func newLogger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	cmd := &cli.Command{
		Name:  "dmcgen",
		Usage: "Classify documents and assign S1000D data module codes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.BaseConfigFile,
				Sources: cli.EnvVars("DMCGEN_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Process every document in the input directory once",
				Action: runBatch,
			},
			{
				Name:   "watch",
				Usage:  "Process the input directory, then watch it for new documents",
				Action: runWatch,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("dmcgen error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
