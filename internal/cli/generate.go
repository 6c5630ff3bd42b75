package cli

import (
	"fmt"

	"github.com/YuminosukeSato/churnlab/dataset"
	"github.com/spf13/cobra"
)

var (
	genRows      int
	genSeed      int
	genChurnRate float64
	genOutput    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the synthetic customer dataset CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, seed, rate := cfg.Rows, cfg.Seed, cfg.ChurnRate
		if cmd.Flags().Changed("rows") {
			rows = genRows
		}
		if cmd.Flags().Changed("seed") {
			seed = genSeed
		}
		if cmd.Flags().Changed("churn-rate") {
			rate = genChurnRate
		}
		out := cfg.DataPath
		if cmd.Flags().Changed("output") {
			out = genOutput
		}

		gen := dataset.NewGenerator(
			dataset.WithNRows(rows),
			dataset.WithSeed(seed),
			dataset.WithChurnRate(rate),
			dataset.WithMissingTotalCharges(cfg.MissingTotalCharges),
			dataset.WithInflatedMonthlyCharges(cfg.InflatedMonthlyCharges),
		)
		df, err := gen.GenerateCSV(out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", df.Nrow(), out)
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVar(&genRows, "rows", 0, "number of customers (default from config)")
	generateCmd.Flags().IntVar(&genSeed, "seed", 0, "generation seed (default from config)")
	generateCmd.Flags().Float64Var(&genChurnRate, "churn-rate", 0, "churn prior in (0, 1) (default from config)")
	generateCmd.Flags().StringVar(&genOutput, "output", "", "CSV path (default from config)")
}
