package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/extract"
)

func newSitesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the available site profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printSites(cmd.OutOrStdout(), c.sites, c.siteName)
		},
	}
}

func printSites(w io.Writer, sites config.Sites, selected string) error {
	table := tablewriter.NewWriter(w)
	table.Header("", "Name", "Description", "Login URL", "Reward", "Extraction")

	for _, name := range sites.Names() {
		site := sites[name]
		mark := ""
		if strings.EqualFold(name, selected) {
			mark = "*"
		}
		reward := "-"
		if site.HasRewardVocabulary() {
			reward = "yes"
		}
		strategies := strings.Join(extract.ForSite(site).Strategies(), ", ")
		if strategies == "" {
			strategies = "-"
		}
		if err := table.Append([]string{mark, name, site.Description, site.LoginURL, reward, strategies}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	return table.Render()
}
