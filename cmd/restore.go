package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/bilibackup/internal/adapters/bili"
	outcomeadapter "github.com/bnema/bilibackup/internal/adapters/render/outcome"
	"github.com/bnema/bilibackup/internal/application"
	"github.com/bnema/bilibackup/internal/domain"
)

func newRestoreCmd(app *app) *cobra.Command {
	var (
		input           string
		batchSize       int
		continueOnError bool
		delayMinMS      int
		delayMaxMS      int
		clearExisting   bool
		createGroups    bool
		confirmed       bool
		asJSON          bool
	)

	cmd := &cobra.Command{
		Use:               "restore <domain>",
		Short:             "Apply a JSON snapshot to the logged-in account",
		Long:              "Re-create every entry of a snapshot on the logged-in account in batches. Without --continue-on-error the run stops at the first failed entry and reports what was done.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDomains(app, false),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			job, err := app.catalog.Job(name)
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, domainNames(app.catalog))
			}
			if !job.Capabilities().Restore {
				return fmt.Errorf("restore %s: %w", name, domain.ErrUnsupported)
			}

			opts := domain.DefaultRestoreOptions()
			opts.BatchSize = batchSize
			opts.ContinueOnError = continueOnError
			opts.ClearExisting = clearExisting
			opts.SkipGroupCreation = !createGroups
			if clearExisting && !confirmed {
				return domain.ParamError("--clear-existing deletes remote %s data first; pass --yes to confirm", name)
			}
			if cmd.Flags().Changed("delay-min") || cmd.Flags().Changed("delay-max") {
				opts.Delay = &domain.DelayRange{
					Min: time.Duration(delayMinMS) * time.Millisecond,
					Max: time.Duration(delayMaxMS) * time.Millisecond,
				}
			}
			if err := opts.Validate(0); err != nil {
				return err
			}

			if err := app.session(cmd.Context()); err != nil {
				return err
			}

			path := input
			if path == "" {
				path = application.SnapshotPath(".", name)
			}

			var result domain.BatchOutcome
			err = runWithSpinner(cmd.Context(), app.stderr, fmt.Sprintf("Restoring %s...", name), func(ctx context.Context, report func(domain.Progress)) error {
				opts.OnProgress = report
				var err error
				result, err = job.Restore(ctx, path, opts)
				return err
			})
			if err != nil {
				return err
			}

			return writeOutcome(cmd, app, outcomeadapter.Report{Operation: "restore", Domain: name, Outcome: result}, asJSON)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Snapshot file to restore (default ./<domain>.json)")
	cmd.Flags().IntVar(&batchSize, "batch-size", domain.DefaultBatchSize, "Entries applied per batch")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Keep going after a failed entry")
	cmd.Flags().BoolVar(&clearExisting, "clear-existing", false, "Remove the account's current entries before restoring")
	cmd.Flags().BoolVar(&createGroups, "create-groups", true, "Create groups missing on the account (--create-groups=false only reuses existing ones)")
	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm --clear-existing")
	cmd.Flags().IntVar(&delayMinMS, "delay-min", int(bili.DefaultDelayMin/time.Millisecond), "Minimum pause between entries in milliseconds")
	cmd.Flags().IntVar(&delayMaxMS, "delay-max", int(bili.DefaultDelayMax/time.Millisecond), "Maximum pause between entries in milliseconds")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeOutcome(cmd *cobra.Command, app *app, report outcomeadapter.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report.Outcome)
	}

	rendered, err := app.render(report)
	if err != nil {
		return fmt.Errorf("render %s summary: %w", report.Operation, err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
