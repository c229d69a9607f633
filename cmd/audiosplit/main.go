// Package main provides the audiosplit command, which splits one audio
// file into fixed-length segments next to the source.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/maauso/audiosplit/internal/audio"
	"github.com/maauso/audiosplit/internal/bootstrap"
	"github.com/maauso/audiosplit/internal/config"
	"github.com/maauso/audiosplit/internal/job"
	"github.com/maauso/audiosplit/internal/opener"
)

// errUsage signals that usage has already been printed.
var errUsage = errors.New("usage")

// options holds the parsed command line.
type options struct {
	source  string
	minutes int
	open    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}
	if opts.minutes <= 0 {
		return fmt.Errorf("%w: -minutes must be greater than 0, got %d", audio.ErrInvalidInput, opts.minutes)
	}
	if !audio.IsSupported(opts.source) {
		return fmt.Errorf("%w: unsupported file type %q (want one of %s)",
			audio.ErrInvalidInput, filepath.Ext(opts.source), strings.Join(audio.SupportedExtensions, ", "))
	}

	logger := cfg.NewLoggerTo(stderr)
	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	result, err := split(ctx, deps.SplitService, opts, stdout)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Splitting complete!")
	fmt.Fprintf(stdout, "%d segments written to %s\n", len(result.Segments), result.OutputDir)

	if opts.open {
		if err := opener.Open(ctx, result.OutputDir); err != nil {
			logger.Warn("failed to open output directory",
				slog.String("dir", result.OutputDir),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// parseFlags reads the command line. Defaults come from cfg.
func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("audiosplit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: audiosplit [-minutes N] [-open] <file>")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	minutes := fs.Int("minutes", cfg.MaxSegmentMinutes, "Maximum segment length in minutes")
	open := fs.Bool("open", cfg.OpenOnSuccess, "Open the output directory when done")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return options{}, errUsage
		}
		return options{}, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, errUsage
	}

	return options{source: fs.Arg(0), minutes: *minutes, open: *open}, nil
}

// split runs the job on a worker goroutine and renders its progress
// until the job finishes.
func split(ctx context.Context, svc *job.SplitService, opts options, stdout io.Writer) (*job.Job, error) {
	type outcome struct {
		job *job.Job
		err error
	}

	progress := make(chan job.Progress, 16)
	done := make(chan outcome, 1)

	go func() {
		defer close(progress)
		j, err := svc.Split(ctx, job.SplitInput{
			Source:        opts.source,
			MaxSegmentSec: opts.minutes * 60,
		}, func(p job.Progress) {
			progress <- p
		})
		done <- outcome{job: j, err: err}
	}()

	for p := range progress {
		fmt.Fprintf(stdout, "\r%s", renderProgress(p))
	}
	fmt.Fprintln(stdout)

	res := <-done
	return res.job, res.err
}

const barWidth = 30

// renderProgress formats one progress line.
func renderProgress(p job.Progress) string {
	pct := min(max(p.Percent, 0), 100)
	filled := int(pct / 100 * barWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)

	line := fmt.Sprintf("[%s] %3.0f%% %-11s", bar, pct, p.Status)
	if p.Total > 0 {
		line += fmt.Sprintf(" %d/%d", p.Done, p.Total)
	}
	return line
}
