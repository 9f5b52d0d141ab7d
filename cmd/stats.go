package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/circularity-cli/internal/service"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		demo, _ := cmd.Flags().GetBool("demo")
		asJSON, _ := cmd.Flags().GetBool("json")

		svc, st, err := initService(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := svc.DashboardStats(ctx, service.StatsOptions{UseDemoData: demo})
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), stats)
		}
		formatStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the question catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sector, _ := cmd.Flags().GetString("sector")
		asJSON, _ := cmd.Flags().GetBool("json")
		out := cmd.OutOrStdout()

		cat, err := loadCatalog(cfg.Catalog)
		if err != nil {
			return eris.Wrap(err, "catalog")
		}

		if sector == "" {
			if asJSON {
				return printJSON(out, map[string]any{
					"version": cat.Version(),
					"general": cat.General(),
					"sectors": cat.Sectors(),
				})
			}
			formatCatalog(out, cat)
			return nil
		}

		q, err := cat.ForSector(sector)
		if err != nil {
			return eris.Wrap(err, "catalog")
		}
		if asJSON {
			return printJSON(out, q)
		}
		formatQuestionnaire(out, q)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("demo", false, "show the demonstration data set")
	statsCmd.Flags().Bool("json", false, "print JSON instead of text")

	catalogCmd.Flags().String("sector", "", "show the questionnaire for a sector")
	catalogCmd.Flags().Bool("json", false, "print JSON instead of text")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(catalogCmd)
}
