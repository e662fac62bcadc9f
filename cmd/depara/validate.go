package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"depara/internal/config"
	"depara/internal/sheet"
)

func runValidate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML config file")
	in := fs.String("in", "", "Workbook (.xlsx) to check")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return errUsage
	}

	if *in == "" {
		fs.Usage()

		return fmt.Errorf("%w: --in is required", errUsage)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", *in, err)
	}
	defer f.Close()

	v := sheet.Validate(f, cfg.Sheets)
	if !v.Valid {
		return errors.New(v.Message)
	}

	fmt.Fprintf(stdout, "%s: %d DE and %d RASTREIO rows\n", v.Message, v.DECount, v.RastreioCount)

	return nil
}
