package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/askiada/go-docpipeline/pkg/records"
)

const defaultDocsPerFile = 1000

func loadCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("docpipeline load", pflag.ContinueOnError)
	docsPerFile := flagSet.IntP("docs-per-file", "n", defaultDocsPerFile, "maximum number of documents per bundle")

	rest, err := parseFlags(flagSet, args, stderr)
	if errors.Is(err, errHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(rest) != 2 { //nolint:mnd
		return errors.Wrap(errUsage, "load takes SRC and PREFIX")
	}

	paths, err := records.Load(ctx, source(rest[0]), rest[1], *docsPerFile)
	if err != nil {
		return err //nolint:wrapcheck
	}

	for _, path := range paths {
		fmt.Fprintln(stdout, path)
	}

	return nil
}

func unloadCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("docpipeline unload", pflag.ContinueOnError)

	rest, err := parseFlags(flagSet, args, stderr)
	if errors.Is(err, errHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(rest) != 2 { //nolint:mnd
		return errors.Wrap(errUsage, "unload takes PATTERN and DIR")
	}

	count, err := records.Unload(ctx, rest[0], rest[1])
	if err != nil {
		return err //nolint:wrapcheck
	}

	fmt.Fprintf(stdout, "%d documents written to %s\n", count, rest[1])

	return nil
}
