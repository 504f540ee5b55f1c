package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/nguyentantai21042004/mockjson/internal/config"
	"github.com/nguyentantai21042004/mockjson/internal/logger"
	"github.com/nguyentantai21042004/mockjson/internal/router"
	"github.com/nguyentantai21042004/mockjson/internal/server"
	"github.com/nguyentantai21042004/mockjson/internal/store"
	"github.com/nguyentantai21042004/mockjson/internal/watcher"
)

// version is overridden at build time via -ldflags
var version = "1.2.0"

func main() {
	if err := newApp(run).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(action cli.ActionFunc) *cli.App {
	return &cli.App{
		Name:      "mockjson",
		Usage:     "serve a local JSON file as a REST API for prototyping",
		UsageText: "mockjson [options] [dbFile] [port]",
		ArgsUsage: "[dbFile] [port]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load settings from a yaml `FILE`",
			},
			&cli.StringFlag{
				Name:  "cors-origin",
				Value: config.DefaultCORSOrigin,
				Usage: "Access-Control-Allow-Origin header value",
			},
			&cli.StringFlag{
				Name:  "cors-methods",
				Value: config.DefaultCORSMethods,
				Usage: "comma-separated Access-Control-Allow-Methods value",
			},
			&cli.StringFlag{
				Name:  "cors-headers",
				Value: config.DefaultCORSHeaders,
				Usage: "comma-separated Access-Control-Allow-Headers value",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: config.DefaultLogLevel,
				Usage: "log level: debug, info, warn or error",
			},
		},
		Action: action,
	}
}

// buildConfig merges the optional config file, the flags and the positional
// args. Flags and positionals win over file values.
func buildConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("cors-origin") {
		cfg.CORS.Origin = c.String("cors-origin")
	}
	if c.IsSet("cors-methods") {
		cfg.CORS.Methods = c.String("cors-methods")
	}
	if c.IsSet("cors-headers") {
		cfg.CORS.Headers = c.String("cors-headers")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}

	if file := c.Args().Get(0); file != "" {
		cfg.Database.File = file
	}
	if portStr := c.Args().Get(1); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", portStr)
		}
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The initial read must succeed; a server with no data is useless
	st, err := store.New(cfg.Database.File, log)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.Database.File, err)
	}

	srv := server.New(cfg, router.New(st, log), log)

	// A watch setup failure degrades to serving the last loaded data
	// without hot reload; it never stops the server.
	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	w, err := watcher.New(st.Path(), st.Reload, log, debounce)
	if err != nil {
		log.Error(ctx, "Watch setup failed, hot reload disabled: %v", err)
	} else {
		defer w.Stop()
		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "Watcher stopped: %v", err)
			}
		}()
	}

	log.Info(ctx, "========================================")
	log.Info(ctx, "mockjson %s", version)
	log.Info(ctx, "Serving %s", st.Path())
	log.Info(ctx, "")
	log.Info(ctx, "Resources:")
	for name := range st.Snapshot() {
		log.Info(ctx, "  http://localhost:%d/%s", cfg.Server.Port, name)
	}
	log.Info(ctx, "")
	log.Info(ctx, "CORS origin: %s", cfg.CORS.Origin)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	return srv.Run(ctx)
}
