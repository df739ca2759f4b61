package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	outcomeadapter "github.com/bnema/bilibackup/internal/adapters/render/outcome"
	"github.com/bnema/bilibackup/internal/application"
	"github.com/bnema/bilibackup/internal/domain"
)

const allDomains = "all"

func newBackupCmd(app *app) *cobra.Command {
	var (
		output string
		dir    string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:               "backup <domain|all>",
		Short:             "Save a domain (or every domain) to JSON",
		Long:              "Fetch the full remote state of a domain and write it as a JSON array. With \"all\" every domain is fetched concurrently into <dir>/<domain>.json.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDomains(app, true),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if name == allDomains && output != "" {
				return domain.ParamError("--output cannot be used with %q, use --dir", allDomains)
			}
			if err := app.session(cmd.Context()); err != nil {
				return err
			}

			entries, err := runBackup(cmd, app, name, output, dir)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			rendered, err := outcomeadapter.RenderBackups(entries)
			if err != nil {
				return fmt.Errorf("render backup summary: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Snapshot file for a single domain (default <dir>/<domain>.json)")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory for snapshot files")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runBackup(cmd *cobra.Command, app *app, name string, output string, dir string) ([]outcomeadapter.BackupEntry, error) {
	if name == allDomains {
		var counts map[string]int
		err := runWithSpinner(cmd.Context(), app.stderr, "Backing up every domain...", func(ctx context.Context, _ func(domain.Progress)) error {
			var err error
			counts, err = app.catalog.BackupAll(ctx, dir)
			return err
		})
		if err != nil {
			return nil, err
		}

		entries := make([]outcomeadapter.BackupEntry, 0, len(counts))
		for _, domainName := range slices.Sorted(maps.Keys(counts)) {
			entries = append(entries, outcomeadapter.BackupEntry{
				Domain: domainName,
				Count:  counts[domainName],
				Path:   application.SnapshotPath(dir, domainName),
			})
		}
		return entries, nil
	}

	job, err := app.catalog.Job(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %s, %s)", err, domainNames(app.catalog), allDomains)
	}
	path := output
	if path == "" {
		path = application.SnapshotPath(dir, name)
	}

	var count int
	err = runWithSpinner(cmd.Context(), app.stderr, fmt.Sprintf("Backing up %s...", name), func(ctx context.Context, _ func(domain.Progress)) error {
		var err error
		count, err = job.Backup(ctx, path)
		return err
	})
	if err != nil {
		return nil, err
	}

	return []outcomeadapter.BackupEntry{{Domain: name, Count: count, Path: path}}, nil
}
