package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/circularity-cli/internal/model"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Manage sector benchmarks",
	Long:  "Commands for importing, listing and clearing the sector averages used by comparative scoring.",
}

// -- benchmark import --

var benchmarkImportCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import benchmarks from a spreadsheet",
	Long: `Import benchmarks from an xlsx workbook or a csv file. The header row
names the columns: secteur, tranche_employes, indicateur, valeur_moyenne
(required) and categorie, unite, source, annee (optional). Rows are
upserted on (secteur, tranche_employes, indicateur).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if sheet, _ := cmd.Flags().GetString("sheet"); sheet != "" {
			cfg.Benchmark.SheetName = sheet
		}

		svc, st, err := initService(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := svc.ImportBenchmarks(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "benchmark import")
		}

		zap.L().Info("benchmark import complete",
			zap.String("file", args[0]),
			zap.Int("imported", res.Imported),
			zap.Int("skipped", len(res.Errors)),
		)
		formatImport(cmd.OutOrStdout(), res)
		return nil
	},
}

// -- benchmark list --

var benchmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List benchmarks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sector, _ := cmd.Flags().GetString("sector")
		category, _ := cmd.Flags().GetString("category")

		rows, err := svc.ListBenchmarks(ctx, model.BenchmarkFilter{Sector: sector, Category: category})
		if err != nil {
			return eris.Wrap(err, "benchmark list")
		}
		if len(rows) == 0 {
			cmd.PrintErrln("No benchmarks found.")
			return nil
		}
		formatBenchmarks(cmd.OutOrStdout(), rows)
		return nil
	},
}

// -- benchmark delete --

var benchmarkDeleteCmd = &cobra.Command{
	Use:   "delete <benchmark-id>",
	Short: "Delete one benchmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := svc.DeleteBenchmark(ctx, args[0]); err != nil {
			return eris.Wrap(err, "benchmark delete")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted benchmark %s.\n", args[0])
		return nil
	},
}

// -- benchmark clear --

var benchmarkClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every benchmark",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return eris.New("benchmark clear: pass --yes to delete every benchmark")
		}

		svc, st, err := initService(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := svc.DeleteAllBenchmarks(ctx)
		if err != nil {
			return eris.Wrap(err, "benchmark clear")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d benchmarks.\n", n)
		return nil
	},
}

func init() {
	benchmarkImportCmd.Flags().String("sheet", "", "sheet name (default: first sheet, or benchmark.sheet_name)")

	benchmarkListCmd.Flags().String("sector", "", "filter by sector")
	benchmarkListCmd.Flags().String("category", "", "filter by category")

	benchmarkClearCmd.Flags().Bool("yes", false, "confirm deletion")

	benchmarkCmd.AddCommand(benchmarkImportCmd)
	benchmarkCmd.AddCommand(benchmarkListCmd)
	benchmarkCmd.AddCommand(benchmarkDeleteCmd)
	benchmarkCmd.AddCommand(benchmarkClearCmd)
	rootCmd.AddCommand(benchmarkCmd)
}
