package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lightbox/internal/engine"
	"lightbox/internal/scanner"
)

func newProcessCommand(configFlag *string) *cobra.Command {
	var opts scanner.Options

	cmd := &cobra.Command{
		Use:   "process <file> [file...]",
		Short: "Process an explicit list of media files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng, err := engine.New(cfg, logger, newIngestPipeline())
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.Start(ctx); err != nil {
				return err
			}

			result, err := eng.ProcessFiles(ctx, args, opts)
			if err != nil {
				return err
			}

			stats, err := eng.WaitForDrain(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, renderCounts("Process files", [][2]string{
				countRow("Files given", result.DiscoveredFiles),
				countRow("Files batched", result.ProcessedFiles),
				countRow("Batches created", result.BatchesCreated),
				countRow("Jobs completed", stats.CompletedJobs),
				countRow("Jobs failed", stats.FailedJobs),
			}))
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "Files per batch job (default from config)")
	cmd.Flags().IntVar(&opts.MaxConcurrentFiles, "max-concurrent", 0, "Advisory per-job concurrency hint (default from config)")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "Job priority: low, normal, high, urgent (default from config)")
	cmd.Flags().BoolVar(&opts.SkipExisting, "skip-existing", false, "Skip files already recorded in the catalog (default from config)")

	return cmd
}
