package cli

import (
	"fmt"

	"github.com/YuminosukeSato/churnlab/churn"
	"github.com/YuminosukeSato/churnlab/dataset"
	"github.com/spf13/cobra"
)

var analyzePlots bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Describe the dataset: summary statistics, class balance, correlations",
	RunE: func(cmd *cobra.Command, args []string) error {
		df, err := dataset.LoadCSV(cfg.DataPath)
		if err != nil {
			return err
		}

		exp := churn.NewExperiment(
			churn.WithDataPath(cfg.DataPath),
			churn.WithOutDir(cfg.OutDir),
			churn.WithRenderPlots(analyzePlots),
		)
		summary, rate, err := exp.Analyze(df)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, summary.String())
		fmt.Fprintf(w, "churn rate: %.4f\n", rate)
		if analyzePlots {
			fmt.Fprintf(w, "plots written to %s\n", cfg.OutDir)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzePlots, "plots", false, "render histogram, balance and correlation PNGs")
}
