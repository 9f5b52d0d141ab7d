package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/circularity-cli/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"serve", "migrate", "company", "score", "compare", "plan", "benchmark", "stats", "catalog"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "circularity", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestBenchmarkCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range benchmarkCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"import", "list", "delete", "clear"} {
		assert.True(t, names[name], "expected benchmark subcommand %q not found", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestScoreCommand_Flags(t *testing.T) {
	for _, name := range []string{"company", "responses", "save", "plan", "json"} {
		assert.NotNil(t, scoreCmd.Flags().Lookup(name), "score command should have --%s", name)
	}
	assert.NotNil(t, statsCmd.Flags().Lookup("demo"))
	assert.NotNil(t, catalogCmd.Flags().Lookup("sector"))
}

// resetFlags restores every flag to its default so that commands can be
// executed repeatedly within one test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	servePort = 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CIRCULARITY_STORE_DRIVER", "sqlite")
	t.Setenv("CIRCULARITY_STORE_DATABASE_URL", filepath.Join(dir, "cli.db"))
	t.Setenv("CIRCULARITY_LOG_LEVEL", "error")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCLI_ScoreWorkflow(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Migrations applied")

	out, err = execute(t, "company", "add",
		"--name", "Atlas Textile",
		"--sector", "Industrie manufacturière - Textile et habillement",
		"--email", "contact@atlas.ma",
		"--employees", "25",
	)
	require.NoError(t, err, out)
	var company model.Company
	require.NoError(t, json.Unmarshal([]byte(out), &company))
	require.NotEmpty(t, company.ID)

	responses := writeFile(t, dir, "answers.json", `{
		"gen_gov_1": true,
		"gen_env_1": 100,
		"gen_eco_4": "oui",
		"gen_social_4": true
	}`)

	out, err = execute(t, "score", "--company", company.ID, "--responses", responses)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Overall:")
	assert.Contains(t, out, "90.00 / 100")

	out, err = execute(t, "stats", "--json")
	require.NoError(t, err, out)
	var stats struct {
		TotalCompanies int `json:"total_companies"`
		TotalScores    int `json:"total_scores"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.TotalCompanies)
	assert.Equal(t, 0, stats.TotalScores, "preview must not store a score")

	out, err = execute(t, "score", "--company", company.ID, "--responses", responses, "--save", "--plan", "--json")
	require.NoError(t, err, out)
	var score model.Score
	require.NoError(t, json.Unmarshal([]byte(out), &score))
	assert.NotEmpty(t, score.ID)
	require.NotNil(t, score.ActionPlan)

	out, err = execute(t, "plan", score.ID)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Action plan "+shortID(score.ActionPlan.ID))

	out, err = execute(t, "company", "show", company.ID)
	require.NoError(t, err, out)
	assert.Contains(t, out, score.ID)

	_, err = execute(t, "score", "--company", company.ID, "--responses", responses, "--plan")
	assert.Error(t, err)

	_, err = execute(t, "score", "--company", "missing", "--responses", responses)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCLI_BenchmarkWorkflow(t *testing.T) {
	dir := setupEnv(t)

	csvPath := writeFile(t, dir, "bench.csv",
		"secteur;tranche_employes;indicateur;categorie;valeur_moyenne\n"+
			"Industrie manufacturière;11-50;waste;environmental;100\n"+
			"Industrie manufacturière;;broken;;1\n")

	out, err := execute(t, "benchmark", "import", csvPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "imported: 1")
	assert.Contains(t, out, "row 3")

	out, err = execute(t, "benchmark", "list", "--sector", "Industrie manufacturière")
	require.NoError(t, err, out)
	assert.Contains(t, out, "waste")

	out, err = execute(t, "company", "add",
		"--name", "Atlas", "--sector", "Industrie manufacturière", "--email", "a@atlas.ma", "--employees", "30")
	require.NoError(t, err, out)
	var company model.Company
	require.NoError(t, json.Unmarshal([]byte(out), &company))

	input := writeFile(t, dir, "indicators.json", `[{"id": "waste", "value": 50, "is_inverted": true}]`)
	out, err = execute(t, "compare", "--company", company.ID, "--input", input)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Comparative score: 50.00")

	_, err = execute(t, "benchmark", "clear")
	assert.Error(t, err)

	out, err = execute(t, "benchmark", "clear", "--yes")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Deleted 1 benchmarks.")
}

func TestCLI_Catalog(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "catalog")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Industrie manufacturière")

	out, err = execute(t, "catalog", "--sector", "Commerce et distribution - E-commerce")
	require.NoError(t, err, out)
	assert.Contains(t, out, "gen_gov_1")

	_, err = execute(t, "catalog", "--sector", "nowhere")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCLI_DemoStats(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "stats", "--demo")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(demo data)")
	assert.Contains(t, out, "EcoLeader Industries")
}

func TestCLI_UnknownDriver(t *testing.T) {
	setupEnv(t)
	t.Setenv("CIRCULARITY_STORE_DRIVER", "mysql")

	_, err := execute(t, "migrate")
	assert.Error(t, err)
}
