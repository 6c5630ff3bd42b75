package cli

import (
	"github.com/spf13/cobra"
)

var runPlots bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Full pipeline: generate (if needed), analyze, train, report",
	RunE: func(cmd *cobra.Command, args []string) error {
		plots := cfg.RenderPlots
		if cmd.Flags().Changed("plots") {
			plots = runPlots
		}

		report, err := buildExperiment(cfg.SkipSMOTE, cfg.ModelPath, plots).Run(cmd.Context())
		if err != nil {
			return err
		}
		printReport(cmd, report)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runPlots, "plots", false, "render analysis PNGs into the output directory")
}
