package main

import (
	"github.com/spf13/cobra"

	"github.com/use-agent/dailyclaim/notify"
)

func newRunCmd(c *cli) *cobra.Command {
	var (
		accountsFile string
		noNotify     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every account once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			site, err := c.site()
			if err != nil {
				return err
			}
			if accountsFile == "" {
				accountsFile = c.cfg.AccountsFile
			}

			j := &job{
				cfg:      c.cfg,
				site:     site,
				accounts: accountsFile,
				console:  cmd.OutOrStdout(),
			}
			if !noNotify {
				j.notifier = notify.New(c.cfg.Notify)
			}

			summary, err := j.execute(cmd.Context())
			if err != nil {
				j.abort(cmd.Context(), err)
				return err
			}
			j.publish(cmd.Context(), summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountsFile, "accounts", "", "credential file (default $DAILYCLAIM_ACCOUNTS_FILE)")
	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "skip Telegram and webhook delivery")
	return cmd
}
