package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/circularity-cli/internal/model"
	"github.com/sells-group/circularity-cli/internal/service"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Register and inspect companies",
}

// -- company add --

var companyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a company",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		f := cmd.Flags()
		in := service.CreateCompanyInput{}
		in.Name, _ = f.GetString("name")
		in.Sector, _ = f.GetString("sector")
		in.Email, _ = f.GetString("email")
		in.Phone, _ = f.GetString("phone")
		if f.Changed("employees") {
			n, _ := f.GetInt("employees")
			in.EmployeeCount = &n
		}
		if path, _ := f.GetString("indicators"); path != "" {
			if err := readJSONFile(path, &in.Indicators); err != nil {
				return err
			}
		}

		c, err := svc.CreateCompany(ctx, in)
		if err != nil {
			return eris.Wrap(err, "company add")
		}
		return printJSON(cmd.OutOrStdout(), c)
	},
}

// -- company list --

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sector, _ := cmd.Flags().GetString("sector")
		query, _ := cmd.Flags().GetString("query")
		limit, _ := cmd.Flags().GetInt("limit")

		companies, err := svc.ListCompanies(ctx, model.CompanyFilter{Sector: sector, Query: query, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "company list")
		}
		if len(companies) == 0 {
			cmd.PrintErrln("No companies found.")
			return nil
		}
		formatCompanies(cmd.OutOrStdout(), companies)
		return nil
	},
}

// -- company show --

var companyShowCmd = &cobra.Command{
	Use:   "show <company-id>",
	Short: "Show a company and its scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, st, err := initService(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		c, err := svc.GetCompany(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "company show")
		}
		scores, err := svc.CompanyScores(ctx, c.ID)
		if err != nil {
			return eris.Wrap(err, "company show")
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"company": c, "scores": scores})
	},
}

func init() {
	f := companyAddCmd.Flags()
	f.String("name", "", "company name (required)")
	f.String("sector", "", "sector, optionally \"Sector - Sub-sector\" (required)")
	f.String("email", "", "contact email (required)")
	f.String("phone", "", "contact phone")
	f.Int("employees", 0, "employee count")
	f.String("indicators", "", "path to a JSON file of company indicators")
	_ = companyAddCmd.MarkFlagRequired("name")
	_ = companyAddCmd.MarkFlagRequired("sector")
	_ = companyAddCmd.MarkFlagRequired("email")

	companyListCmd.Flags().String("sector", "", "filter by sector")
	companyListCmd.Flags().String("query", "", "match name or email")
	companyListCmd.Flags().Int("limit", 50, "max number of companies to display")

	companyCmd.AddCommand(companyAddCmd)
	companyCmd.AddCommand(companyListCmd)
	companyCmd.AddCommand(companyShowCmd)
	rootCmd.AddCommand(companyCmd)
}
