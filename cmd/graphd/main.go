// Command graphd runs the durable graph server: server [-f] [flags] <port> <devfile>.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/graphd/internal/api"
	"github.com/calvinalkan/graphd/internal/config"
	"github.com/calvinalkan/graphd/internal/device"
	"github.com/calvinalkan/graphd/internal/durability"
	"github.com/calvinalkan/graphd/internal/obs"
	"github.com/calvinalkan/graphd/internal/store"
)

const shutdownGrace = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Environ(), os.Stdout, os.Stderr))
}

func run(args, environ []string, stdout, stderr *os.File) int {
	flags := flag.NewFlagSet("graphd", flag.ContinueOnError)
	flags.SetOutput(stderr)

	format := flags.BoolP("format", "f", false, "format the superblock before starting")
	configPath := flags.String("config", "", "path to a JSONC config file")
	logLevel := flags.String("log-level", "", "debug|info|warn|error (overrides config)")
	checkpointSize := flags.Int64("checkpoint-size", 0, "checkpoint region size in bytes (overrides config)")
	logSize := flags.Uint32("log-size", 0, "log region size in bytes, must be a multiple of 4096 (overrides config)")

	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: graphd [-f] [--config path] [--log-level level] <port> <devfile>")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		return 1
	}

	rest := flags.Args()
	if len(rest) != 2 {
		flags.Usage()
		return 1
	}

	port, devFile := rest[0], rest[1]

	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	overridden := map[string]bool{
		"log_level":       flags.Changed("log-level"),
		"checkpoint_size": flags.Changed("checkpoint-size"),
		"log_size":        flags.Changed("log-size"),
	}

	cliOverrides := config.Config{LogLevel: *logLevel, CheckpointSize: *checkpointSize, LogSize: *logSize}

	cfg, sources, err := config.Load(workDir, *configPath, cliOverrides, overridden, environ)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	logger := obs.NewLogger(stderr, cfg.LogLevel)
	logger.Info("config loaded", "global", sources.Global, "project", sources.Project, "log_level", cfg.LogLevel)

	layout := durability.Layout{LogSize: cfg.LogSize, CheckpointSize: cfg.CheckpointSize}

	mode := durability.ModeNormal
	if *format {
		mode = durability.ModeFormat
	}

	s, err := store.OpenWithOptions(device.NewReal(), devFile, mode, layout, logger, store.Options{
		AutoCheckpointEvery: cfg.AutoCheckpointEvery,
	})
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	defer s.Close()

	srv := api.NewServer(s, logger)
	httpServer := api.NewHTTPServer(":"+strings.TrimPrefix(port, ":"), srv)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("listening", "addr", httpServer.Addr, "devfile", devFile)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	}

	return 0
}
