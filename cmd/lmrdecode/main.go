package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dbehnke/lmrdecode/internal/config"
	"github.com/dbehnke/lmrdecode/internal/logging"
)

const VERSION = "0.3.0"

const defaultConfigFile = "lmrdecode.yaml"

func main() {
	var configFile = pflag.StringP("config", "c", defaultConfigFile, "Configuration file.")
	var capturePath = pflag.StringP("capture", "i", "", "Capture file to replay, - for stdin. Overrides capture.path.")
	var logLevel = pflag.StringP("log-level", "l", "", "Log level (debug, info, warn, error). Overrides log.level.")
	var syncNow = pflag.Bool("sync-now", false, "Import the RadioID user list once and exit.")
	var keepRunning = pflag.BoolP("keep-running", "k", false, "Keep metrics and sync running after the capture ends.")
	var version = pflag.BoolP("version", "v", false, "Show version information.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "lmrdecode v%s - P25, DMR and NXDN message decoder\n\n", VERSION)
		fmt.Fprintf(os.Stderr, "Usage: lmrdecode [options] [capture]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}
	if *version {
		fmt.Printf("lmrdecode v%s\n", VERSION)
		return
	}
	if pflag.NArg() > 0 {
		*capturePath = pflag.Arg(0)
	}

	cfg := config.NewConfig(*configFile)
	if err := cfg.Load(); err != nil {
		// The default file is optional; an explicit one is not.
		if pflag.CommandLine.Changed("config") || !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	level := cfg.GetLogLevel()
	if *logLevel != "" {
		level = *logLevel
	}
	logger, logCloser, err := logging.New(logging.Config{
		Level:      level,
		FilePath:   cfg.GetLogFilePath(),
		FileRoot:   cfg.GetLogFileRoot(),
		MaxSizeMB:  cfg.GetLogMaxSizeMB(),
		MaxBackups: cfg.GetLogMaxBackups(),
		MaxAgeDays: cfg.GetLogMaxAgeDays(),
		Compress:   cfg.GetLogCompress(),
	}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	logger.Info("lmrdecode starting", "version", VERSION, "config", *configFile)

	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to start", "err", err)
	}
	defer app.Close()

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	if *syncNow {
		if err := app.SyncNow(ctx); err != nil {
			logger.Error("RadioID sync failed", "err", err)
			os.Exit(1)
		}
		return
	}

	app.Start(ctx)

	path := *capturePath
	if path == "" {
		path = cfg.GetCapturePath()
	}
	if path != "" {
		if err := app.Replay(ctx, path); err != nil {
			logger.Error("Replay failed", "err", err)
		}
	} else if !*keepRunning {
		logger.Warn("No capture given, nothing to decode")
	}

	if *keepRunning {
		logger.Info("Capture done, running until interrupted")
		<-ctx.Done()
	}
	cancel()
	app.Wait()

	logger.Info("lmrdecode stopped")
}
