package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/use-agent/dailyclaim/config"
)

// cli carries state shared by all subcommands once PersistentPreRunE ran.
type cli struct {
	cfg       *config.Config
	sites     config.Sites
	siteName  string
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "dailyclaim",
		Short:         "Log in to reward portals and claim the daily check-in for every account",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logCloser = initLogger(cfg.Log)

			sites, err := config.LoadSites(cfg.SitesFile)
			if err != nil {
				return err
			}
			c.sites = sites
			if c.siteName == "" {
				c.siteName = cfg.Site
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logCloser != nil {
				_ = c.logCloser.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.siteName, "site", "", "site profile to use (default $DAILYCLAIM_SITE)")

	root.AddCommand(newRunCmd(c), newServeCmd(c), newSitesCmd(c))
	return root
}

// site resolves the selected profile.
func (c *cli) site() (config.Site, error) {
	site, err := c.sites.Lookup(c.siteName)
	if err != nil {
		return config.Site{}, err
	}
	slog.Debug("site profile selected", "site", site.Name, "login_url", site.LoginURL)
	return site, nil
}
