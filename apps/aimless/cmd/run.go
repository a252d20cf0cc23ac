package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quatton/aimless/pkg/api"
	"github.com/quatton/aimless/pkg/db/models"
	"github.com/quatton/aimless/pkg/metrics"
	"github.com/quatton/aimless/pkg/report"
	"github.com/quatton/aimless/pkg/sched"
	"github.com/quatton/aimless/pkg/shooter"
)

var (
	outFormats string
	listenAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run aimless shooting",
	Long: `Fills the input templates, seeds the shooting points, runs
main.numpaths paths one after another and writes the reports.

Examples:
  # Text report only, from ./aimless.yaml
  aimless run

  # Text, CSV and spreadsheet reports, with the status API
  aimless run -o tcx --listen :8080`,
	Args: cobra.NoArgs,
	RunE: runShooting,
}

func init() {
	runCmd.Flags().StringVarP(&outFormats, "out-formats", "o", "t", "report formats: t (text), c (csv), x (xlsx)")
	runCmd.Flags().StringVar(&listenAddr, "listen", "", "serve the status API on this address while running (overrides server.listen)")
	rootCmd.AddCommand(runCmd)
}

func runShooting(cmd *cobra.Command, args []string) error {
	app, err := GetApp(cmd)
	if err != nil {
		return err
	}
	cfg, log := app.Config, app.Log

	if err := cfg.Validate(); err != nil {
		return err
	}
	formats, err := report.Parse(outFormats)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.Server.Listen = listenAddr
	}
	scfg, err := cfg.ShooterConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating run id: %w", err)
	}

	pubs, err := newPublishers(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pubs.Close(context.WithoutCancel(ctx), log)

	if err := prepareTarget(ctx, cfg, pubs, runID); err != nil {
		return err
	}

	scheduler, closeScheduler, err := newScheduler(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeScheduler(); err != nil {
			log.Warn("Closing scheduler failed", "error", err)
		}
	}()

	waiter := sched.NewWaiter(scheduler,
		sched.WithInterval(cfg.WaitInterval()),
		sched.WithWaiterLogger(log.Named("waiter")),
		sched.WithPollHook(func([]sched.JobID) { metrics.IncreaseStatusPolls() }),
	)
	opts := []shooter.Option{
		shooter.WithLogger(log.Named("shooter")),
		shooter.WithRunID(runID),
		shooter.WithWaiter(waiter),
		shooter.WithSinks(pubs.sinks...),
	}
	if cfg.Main.Seed != 0 {
		opts = append(opts, shooter.WithRand(rand.New(rand.NewPCG(cfg.Main.Seed, cfg.Main.Seed))))
	}
	mirror, err := newMirror(ctx, cfg, log)
	if err != nil {
		return err
	}
	if mirror != nil {
		opts = append(opts, shooter.WithMirror(mirror))
	}
	s := shooter.New(scfg, scheduler, opts...)

	if pubs.store != nil {
		err := pubs.store.StartRun(ctx, &models.Run{
			ID:         runID,
			TgtDir:     cfg.Main.TgtDir,
			Backend:    cfg.Main.Backend,
			NumPaths:   cfg.Main.NumPaths,
			TotalSteps: cfg.Main.TotalSteps,
			StartedAt:  time.Now(),
		})
		if err != nil {
			return err
		}
	}

	if cfg.Server.Listen != "" {
		srv := api.NewApi(s, Version)
		go func() {
			if err := api.Serve(ctx, cfg.Server.Listen, srv.Router, log.Named("api")); err != nil {
				log.Error("Status API stopped", "error", err)
			}
		}()
	}

	results, runErr := s.Run(ctx, cfg.Main.NumPaths)
	if runErr != nil {
		log.Error("Run aborted", "run_id", runID, "error", runErr)
	}

	if pubs.store != nil {
		if err := pubs.store.FinishRun(context.WithoutCancel(ctx), runID, results.Summary(), time.Now(), runErr); err != nil {
			log.Warn("Could not record run outcome", "run_id", runID, "error", err)
		}
	}

	written, err := report.WriteFiles(formats, cfg.ReportPaths(), results.All())
	for _, name := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", name)
	}
	if runErr != nil {
		return runErr
	}
	return err
}
