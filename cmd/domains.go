package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	outcomeadapter "github.com/bnema/bilibackup/internal/adapters/render/outcome"
	"github.com/bnema/bilibackup/internal/application"
)

func newDomainsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List the account data domains and what each supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := domainEntries(app.catalog)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			rendered, err := outcomeadapter.RenderDomains(entries)
			if err != nil {
				return fmt.Errorf("render domains: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func domainEntries(catalog *application.Catalog) []outcomeadapter.DomainEntry {
	jobs := catalog.Jobs()
	entries := make([]outcomeadapter.DomainEntry, 0, len(jobs))
	for _, job := range jobs {
		caps := job.Capabilities()
		entries = append(entries, outcomeadapter.DomainEntry{
			Name:    job.Name(),
			Restore: caps.Restore,
			Clear:   caps.Clear,
		})
	}
	return entries
}

func domainNames(catalog *application.Catalog) string {
	jobs := catalog.Jobs()
	names := make([]string, 0, len(jobs))
	for _, job := range jobs {
		names = append(names, job.Name())
	}
	return strings.Join(names, ", ")
}

// completeDomains offers domain names for the first positional argument.
func completeDomains(app *app, withAll bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var names []string
		if withAll {
			names = append(names, allDomains)
		}
		for _, job := range app.catalog.Jobs() {
			names = append(names, job.Name())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}
