package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	outcomeadapter "github.com/bnema/bilibackup/internal/adapters/render/outcome"
	"github.com/bnema/bilibackup/internal/domain"
)

func newGroupsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List the follow groups of the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.session(cmd.Context()); err != nil {
				return err
			}

			groups, err := app.groups.Groups(cmd.Context())
			if err != nil {
				return fmt.Errorf("list groups: %w", err)
			}
			if groups == nil {
				groups = []domain.GroupTag{}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(groups)
			}
			rendered, err := outcomeadapter.RenderGroups(groups)
			if err != nil {
				return fmt.Errorf("render groups: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.AddCommand(newGroupsCreateCmd(app))

	return cmd
}

func newGroupsCreateCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a follow group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return domain.ParamError("group name is empty")
			}
			if err := app.session(cmd.Context()); err != nil {
				return err
			}

			group, err := app.groups.CreateGroup(cmd.Context(), name)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created group %s (%d)\n", group.Name, group.ID)
			return err
		},
	}
}
