package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/bilibackup/internal/domain"
)

func newLoginCmd(app *app) *cobra.Command {
	var (
		cookie     string
		cookieFile string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a browser session cookie",
		Long:  "Verify a bilibili cookie (it must contain DedeUserID and bili_jct), store it and make it the active profile. Use --cookie-file - to read it from stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := readCookie(cmd, cookie, cookieFile)
			if err != nil {
				return err
			}

			account, err := app.service.Login(cmd.Context(), value)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", account.Name, account.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&cookie, "cookie", "", "Cookie header value copied from a logged-in browser")
	cmd.Flags().StringVar(&cookieFile, "cookie-file", "", "Read the cookie from a file, or - for stdin")
	cmd.MarkFlagsMutuallyExclusive("cookie", "cookie-file")
	cmd.MarkFlagsOneRequired("cookie", "cookie-file")

	return cmd
}

func readCookie(cmd *cobra.Command, cookie string, cookieFile string) (string, error) {
	if cookieFile == "" {
		return strings.TrimSpace(cookie), nil
	}

	var (
		data []byte
		err  error
	)
	if cookieFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(cookieFile)
	}
	if err != nil {
		return "", fmt.Errorf("%w: read cookie: %w", domain.ErrIO, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored cookie of the active profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.service.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return err
		},
	}
}

type whoamiOutput struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	LastLogin string `json:"last_login,omitempty"`
	ConfigDir string `json:"config_dir"`
}

func newWhoamiCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Verify the stored session and show the active account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := app.service.Resume(cmd.Context())
			if err != nil {
				if errors.Is(err, domain.ErrNotLoggedIn) {
					return fmt.Errorf("%w (run `bbk login`)", err)
				}
				return err
			}

			out := whoamiOutput{
				AccountID: string(account.ID),
				Name:      account.Name,
				ConfigDir: app.configDir,
			}
			if !account.LastLogin.IsZero() {
				out.LastLogin = account.LastLogin.Format("2006-01-02 15:04:05 MST")
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", out.Name, out.AccountID)
			if err != nil || out.LastLogin == "" {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "logged in: %s\n", out.LastLogin)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
