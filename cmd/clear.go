package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	outcomeadapter "github.com/bnema/bilibackup/internal/adapters/render/outcome"
	"github.com/bnema/bilibackup/internal/domain"
)

func newClearCmd(app *app) *cobra.Command {
	var (
		confirmed bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:               "clear <domain>",
		Short:             "Remove every entry of a domain from the logged-in account",
		Long:              "Fetch the current remote state of a domain and delete every entry. This cannot be undone; back the domain up first.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDomains(app, false),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			job, err := app.catalog.Job(name)
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, domainNames(app.catalog))
			}
			if !job.Capabilities().Clear {
				return fmt.Errorf("clear %s: %w", name, domain.ErrUnsupported)
			}
			if !confirmed {
				return domain.ParamError("clear %s deletes remote data; pass --yes to confirm", name)
			}

			if err := app.session(cmd.Context()); err != nil {
				return err
			}

			var result domain.BatchOutcome
			err = runWithSpinner(cmd.Context(), app.stderr, fmt.Sprintf("Clearing %s...", name), func(ctx context.Context, _ func(domain.Progress)) error {
				var err error
				result, err = job.Clear(ctx)
				return err
			})
			if err != nil {
				return err
			}

			return writeOutcome(cmd, app, outcomeadapter.Report{Operation: "clear", Domain: name, Outcome: result}, asJSON)
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm the deletion")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
