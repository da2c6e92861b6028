// submodule cmd contains command definitions and job dispatch
package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/lastchart/internal/repositories"
	"github.com/desertthunder/lastchart/internal/shared"
	"github.com/desertthunder/lastchart/internal/tasks"
	"github.com/urfave/cli/v3"
)

// jobFunc is one registered batch operation.
type jobFunc func(ctx context.Context, r *Runner, cmd *cli.Command) error

// jobRegistry is the closed mapping from job names to operations.
// The scheduler invokes exactly one of these per tick via `run --job=<name>`.
var jobRegistry = map[string]jobFunc{
	"get_top_tracks":   runTopTracks,
	"get_new_releases": runNewReleases,
}

// jobNames returns the registered job names in stable order.
func jobNames() []string {
	names := make([]string, 0, len(jobRegistry))
	for name := range jobRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runCommand dispatches a single batch job by name.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a batch job by name",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "job",
				Aliases:  []string{"j"},
				Usage:    "Name of the job to run",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "Logical chart date as RFC3339 (default: now)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print the result",
			},
		},
		Action: r.RunJob,
	}
}

// RunJob resolves the --job flag against the registry and executes the job.
// An unknown name fails before any side effect.
func (r *Runner) RunJob(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("job")

	job, ok := jobRegistry[name]
	if !ok {
		return fmt.Errorf("%w: %q (registered: %s)", shared.ErrJobNotFound, name, strings.Join(jobNames(), ", "))
	}

	if path := cmd.String("config"); path != "" {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		config.ApplyEnv()
		r.config = config
	}

	logger := r.logger.With("job", name)
	logger.Info("starting job")

	if err := job(ctx, r, cmd); err != nil {
		logger.Error("job failed", "error", err)
		r.alert(ctx, fmt.Sprintf("lastchart job %s failed: %v", name, err))
		return err
	}

	logger.Info("job completed")
	return nil
}

// alert sends a best-effort operator notification for a failed job.
func (r *Runner) alert(ctx context.Context, message string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, message); err != nil {
		r.logger.Error("failed to send alert", "error", err)
	}
}

// runTopTracks performs one chart ingestion cycle.
func runTopTracks(ctx context.Context, r *Runner, cmd *cli.Command) error {
	if r.chart == nil {
		return fmt.Errorf("%w: LASTFM_API_KEY is not configured", shared.ErrMissingCredentials)
	}

	var asOf time.Time
	if raw := cmd.String("date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("%w: --date must be RFC3339: %v", shared.ErrInvalidArgument, err)
		}
		asOf = parsed
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := tasks.NewIngestEngine(r.chart, db, r.logger)

	result, err := engine.IngestTopTracks(ctx, asOf)
	if err != nil {
		return err
	}

	return r.writeJSON(result, cmd.Bool("pretty"))
}

// runNewReleases performs one new-releases probe cycle.
func runNewReleases(ctx context.Context, r *Runner, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: SPTFY_CLIENT_ID and SPTFY_CLIENT_SECRET are not configured", shared.ErrMissingCredentials)
	}

	probe := tasks.NewReleaseProbe(r.spotify, r.notifier, r.logger)

	result, err := probe.Run(ctx)
	if err != nil {
		return err
	}

	return r.writeJSON(result, cmd.Bool("pretty"))
}

// jobsCommand inspects registered jobs and past runs.
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Inspect registered jobs and run history",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered job names",
				Action: r.JobsList,
			},
			{
				Name:  "history",
				Usage: "Show recent job runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.JobsHistory,
			},
		},
	}
}

// JobsList prints the registered job names.
func (r *Runner) JobsList(ctx context.Context, cmd *cli.Command) error {
	for _, name := range jobNames() {
		if err := r.writePlain("%s\n", name); err != nil {
			return err
		}
	}
	return nil
}

// JobsHistory prints the most recent ingest runs.
func (r *Runner) JobsHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	return r.writeJSON(runs, cmd.Bool("pretty"))
}
