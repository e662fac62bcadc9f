package main

import (
	"context"
	"errors"
	"flag"
	"io"

	"depara/internal/config"
	"depara/internal/crawl"
	"depara/internal/engine"
	"depara/internal/rerank"
	"depara/internal/server"
)

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML config file")
	addr := fs.String("addr", "", "Listen address (default "+config.DefaultAddr+")")
	endpoint := fs.String("rerank-endpoint", "", "URL of the re-ranking service")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return errUsage
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if *endpoint != "" {
		cfg.Rerank.Endpoint = *endpoint
	}

	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var enricher engine.Enricher
	if cfg.Crawl.Enabled {
		enricher = crawl.New(cfg.Crawl, logger)
	}

	srv := server.New(cfg, enricher, rerank.New(cfg.Rerank, logger), logger)

	return srv.ListenAndServe(ctx)
}
