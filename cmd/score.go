package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/circularity-cli/internal/scorer"
	"github.com/sells-group/circularity-cli/internal/service"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a company's questionnaire answers",
	Long: `Score a company's questionnaire answers.

The responses file is JSON, either grouped by dimension:

  {"governance": [{"id": "gen_gov_1", "value": 5}], "economic": {...}}

or a flat map of question ids to raw answers:

  {"gen_gov_1": true, "gen_env_1": 75, "gen_eco_4": "oui"}

Flat answers are normalized through the question catalog.

Examples:
  # Preview a score without storing it
  score --company <id> --responses answers.json

  # Store the score and generate its action plan
  score --company <id> --responses answers.json --save --plan`,
	RunE: runScore,
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()
	companyID, _ := f.GetString("company")
	path, _ := f.GetString("responses")
	save, _ := f.GetBool("save")
	withPlan, _ := f.GetBool("plan")
	asJSON, _ := f.GetBool("json")

	if withPlan && !save {
		return eris.New("score: --plan requires --save")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "score: read responses")
	}

	svc, st, err := initService(ctx, "score")
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	calc := svc.EvaluateScore
	if save {
		calc = svc.CalculateScore
	}
	score, err := calc(ctx, companyID, json.RawMessage(raw))
	if err != nil {
		return eris.Wrap(err, "score")
	}

	if withPlan {
		p, err := svc.GenerateActionPlan(ctx, score.ID)
		if err != nil {
			return eris.Wrap(err, "score: action plan")
		}
		score.ActionPlan = p
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, score)
	}
	formatScore(out, score)
	if score.ActionPlan != nil {
		_, _ = out.Write([]byte("\n"))
		formatPlan(out, score.ActionPlan)
	}
	return nil
}

// -- compare --

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare indicator values with sector benchmarks",
	Long: `Compare a company's indicator values with the sector averages of its
size bracket. The input file is a JSON list:

  [{"id": "waste_tonnes", "value": 12, "coefficient": 2, "is_inverted": true}]`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		f := cmd.Flags()
		companyID, _ := f.GetString("company")
		path, _ := f.GetString("input")
		category, _ := f.GetString("category")
		asJSON, _ := f.GetBool("json")

		var responses []scorer.ComparativeResponse
		if err := readJSONFile(path, &responses); err != nil {
			return err
		}

		svc, st, err := initService(ctx, "score")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := svc.ComparativeScore(ctx, service.ComparativeRequest{
			CompanyID: companyID,
			Category:  category,
			Responses: responses,
		})
		if err != nil {
			return eris.Wrap(err, "compare")
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		formatComparative(cmd.OutOrStdout(), res)
		return nil
	},
}

// -- plan --

var planCmd = &cobra.Command{
	Use:   "plan <score-id>",
	Short: "Generate (or show) the action plan for a stored score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		asJSON, _ := cmd.Flags().GetBool("json")

		svc, st, err := initService(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p, err := svc.GenerateActionPlan(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "plan")
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), p)
		}
		formatPlan(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	f := scoreCmd.Flags()
	f.String("company", "", "company ID (required)")
	f.String("responses", "", "path to the JSON responses file (required)")
	f.Bool("save", false, "store the score")
	f.Bool("plan", false, "generate the action plan (requires --save)")
	f.Bool("json", false, "print JSON instead of a table")
	_ = scoreCmd.MarkFlagRequired("company")
	_ = scoreCmd.MarkFlagRequired("responses")

	cf := compareCmd.Flags()
	cf.String("company", "", "company ID (required)")
	cf.String("input", "", "path to the JSON indicator list (required)")
	cf.String("category", "", "dimension the indicators belong to")
	cf.Bool("json", false, "print JSON instead of a table")
	_ = compareCmd.MarkFlagRequired("company")
	_ = compareCmd.MarkFlagRequired("input")

	planCmd.Flags().Bool("json", false, "print JSON instead of text")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(planCmd)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "parse %s", path)
	}
	return nil
}
