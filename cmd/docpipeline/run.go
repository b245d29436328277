package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/askiada/go-docpipeline/pkg/batch"
	"github.com/askiada/go-docpipeline/pkg/driver"
	"github.com/askiada/go-docpipeline/pkg/executor"
	"github.com/askiada/go-docpipeline/pkg/layout"
	"github.com/askiada/go-docpipeline/pkg/pipeline/drawer"
	"github.com/askiada/go-docpipeline/pkg/pipeline/measure"
	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
	"github.com/askiada/go-docpipeline/pkg/records"
)

type runConfig struct {
	layout     string
	input      string
	output     string
	errors     string
	components string
	scratch    string
	checkpoint string
	graph      string
	logLevel   string
	workers    int
	resume     bool
}

func (c *runConfig) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.layout, "layout", "", "layout file (.yaml, .yml, .json or .jsonc)")
	flagSet.StringVar(&c.input, "input", "", "directory of documents or glob pattern of bundles")
	flagSet.StringVar(&c.output, "output", "", "directory receiving the documents that went through every step")
	flagSet.StringVar(&c.errors, "errors", "", "directory receiving the documents that failed")
	flagSet.StringVar(&c.components, "components", ".", "root directory of the step components")
	flagSet.StringVar(&c.scratch, "scratch", os.TempDir(), "directory under which steps get their scratch directories")
	flagSet.StringVar(&c.checkpoint, "checkpoint", "", "record finished documents in this file")
	flagSet.BoolVar(&c.resume, "resume", false, "skip the documents already recorded in the checkpoint")
	flagSet.StringVar(&c.graph, "graph", "", "write a DOT graph of the run to this file")
	flagSet.StringVar(&c.logLevel, "log-level", "info", "debug, info, warn or error")
	flagSet.IntVarP(&c.workers, "workers", "w", runtime.NumCPU(), "number of steps running at the same time")
}

func (c *runConfig) validate() error {
	for _, required := range []struct{ flag, value string }{
		{flag: "layout", value: c.layout},
		{flag: "input", value: c.input},
		{flag: "output", value: c.output},
		{flag: "errors", value: c.errors},
	} {
		if required.value == "" {
			return errors.Wrapf(errUsage, "--%s is required", required.flag)
		}
	}
	if c.resume && c.checkpoint == "" {
		return errors.Wrap(errUsage, "--resume needs --checkpoint")
	}
	if c.workers < 1 {
		return errors.Wrapf(errUsage, "--workers must be positive, got %d", c.workers)
	}

	return nil
}

func runCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cfg runConfig

	flagSet := pflag.NewFlagSet("docpipeline run", pflag.ContinueOnError)
	cfg.addFlags(flagSet)

	rest, err := parseFlags(flagSet, args, stderr)
	if errors.Is(err, errHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return errors.Wrapf(errUsage, "unexpected argument %q", rest[0])
	}

	err = cfg.validate()
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg.logLevel)
	if err != nil {
		return err
	}

	// every configuration error is reported before the first document
	lay, err := layout.ReadFile(cfg.layout)
	if err != nil {
		return err //nolint:wrapcheck
	}
	steps, err := layout.Build(nil, lay, cfg.components)
	if err != nil {
		return err //nolint:wrapcheck
	}

	logger.Info("layout loaded",
		slog.String("layout", lay.ID),
		slog.String("version", lay.Version),
		slog.Int("steps", len(steps)),
	)

	success, err := records.NewDirSink(cfg.output)
	if err != nil {
		return err //nolint:wrapcheck
	}
	failure, err := records.NewDirSink(cfg.errors)
	if err != nil {
		return err //nolint:wrapcheck
	}

	invocations := measure.NewInvocations()

	sch, err := executor.New(
		executor.WithWorkers(cfg.workers),
		executor.WithScratchRoot(cfg.scratch),
		executor.WithLogger(logger),
		executor.WithObserver(invocations),
	)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer func() {
		if closeErr := sch.Close(); closeErr != nil {
			logger.Error("unable to close scheduler", slog.Any("error", closeErr))
		}
	}()

	runner := batch.New(driver.New(sch, driver.WithLogger(logger)), steps,
		batch.WithWorkers(cfg.workers),
		batch.WithLogger(logger),
		batch.WithCheckpoint(cfg.checkpoint, cfg.resume),
		batch.WithPipelineOptions(pipelineOptions(cfg.graph, invocations)...),
	)

	summary, err := runner.Run(ctx, source(cfg.input), success, failure)
	if err != nil {
		return err //nolint:wrapcheck
	}

	fmt.Fprintf(stdout, "run %s: %d documents, %d succeeded, %d failed, %d resumed in %s\n",
		summary.RunID, summary.Total, summary.Succeeded, summary.Failed, summary.Resumed, summary.Elapsed)

	for _, step := range invocations.Snapshot() {
		logger.Debug("step stats",
			slog.String("step", step.Name),
			slog.Int64("runs", step.Runs()),
			slog.Float64("failure_ratio", step.FailureRatio()),
			slog.Duration("avg", step.AVGDuration()),
		)
	}

	return nil
}

func pipelineOptions(graphFile string, invocations *measure.Invocations) []model.PipelineOption {
	if graphFile == "" {
		return nil
	}

	msr := measure.NewDefaultMeasure()

	return []model.PipelineOption{
		measure.PipelineMeasure(msr),
		drawer.PipelineDrawer(drawer.NewDOTDrawer(graphFile), msr, drawer.WithChain(batch.ProcessStepName, invocations)),
	}
}

// source reads a directory, or the bundles matching a pattern.
func source(input string) records.Source {
	info, err := os.Stat(input)
	if err == nil && info.IsDir() {
		return records.DirSource{Dir: input}
	}

	return records.BundleSource{Pattern: input}
}
