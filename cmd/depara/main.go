// Package main provides the CLI entrypoint for depara.
//
// depara maps the URLs of an old site (DE) to the most similar URLs of a new
// site (PARA, read from the RASTREIO crawl list) by comparing slug, title,
// meta description and H1, and writes a DE x PARA report.
//
// Commands:
//
//	match     rank candidates and write the report
//	validate  check that a workbook can be processed
//	serve     run the HTTP backend
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `Usage: depara <command> [options]

Commands:
  match     rank candidates and write the DE x PARA report
  validate  check that a workbook has non-empty DE and RASTREIO sheets
  serve     run the HTTP backend

Run "depara <command> -h" for the options of a command.
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "depara: %v\n", err)
		}

		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)

		return errUsage
	}

	switch args[0] {
	case "match":
		return runMatch(ctx, args[1:], stdout, stderr)
	case "validate":
		return runValidate(args[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, args[1:], stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)

		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)

		return errUsage
	}
}
