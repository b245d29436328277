// docpipeline runs documents through a chain of external programs.
//
// Usage:
//
//	docpipeline run --layout FILE --input SRC --output DIR --errors DIR [flags]
//	docpipeline load SRC PREFIX [--docs-per-file N]
//	docpipeline unload PATTERN DIR
//
// SRC is either a directory of documents, one file per document, or a glob pattern matching bundles written by
// load.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)

		return errors.Wrap(errUsage, "missing command")
	}

	switch args[0] {
	case "run":
		return runCommand(ctx, args[1:], stdout, stderr)
	case "load":
		return loadCommand(ctx, args[1:], stdout, stderr)
	case "unload":
		return unloadCommand(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)

		return nil
	default:
		printUsage(stderr)

		return errors.Wrapf(errUsage, "unknown command %q", args[0])
	}
}

func printUsage(wrt io.Writer) {
	fmt.Fprint(wrt, `docpipeline runs documents through a chain of external programs.

Usage:
  docpipeline run --layout FILE --input SRC --output DIR --errors DIR [flags]
  docpipeline load SRC PREFIX [--docs-per-file N]
  docpipeline unload PATTERN DIR

Run "docpipeline COMMAND --help" for the flags of a command.
`)
}

// parseFlags parses args and returns the positional arguments. errHelp is returned after printing the defaults when
// help is requested.
func parseFlags(flagSet *pflag.FlagSet, args []string, stderr io.Writer) ([]string, error) {
	flagSet.SetOutput(stderr)

	err := flagSet.Parse(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, errHelp
		}

		return nil, errors.Wrap(errUsage, err.Error())
	}

	return flagSet.Args(), nil
}

var errHelp = errors.New("help requested")

func newLogger(wrt io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level

	err := lvl.UnmarshalText([]byte(level))
	if err != nil {
		return nil, errors.Wrapf(errUsage, "invalid log level %q", level)
	}

	return slog.New(slog.NewTextHandler(wrt, &slog.HandlerOptions{Level: lvl})), nil
}
