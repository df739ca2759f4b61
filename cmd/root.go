package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "bbk",
		Short:         "bbk: back up and restore your bilibili account data",
		Long:          "bbk backs up follows, followers, blocklist, favorites, watch history, watch-later and followed shows of a bilibili account to JSON files, and restores or clears them through the web API.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and per-item progress to stderr")

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		app.configureLogging(cmd.ErrOrStderr(), verbose)
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newDomainsCmd(app),
		newGroupsCmd(app),
		newBackupCmd(app),
		newRestoreCmd(app),
		newClearCmd(app),
	)

	return rootCmd
}
