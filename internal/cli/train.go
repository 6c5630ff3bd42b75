package cli

import (
	"github.com/spf13/cobra"
)

var (
	trainSkipSMOTE bool
	trainSaveModel string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Preprocess, train, tune and evaluate both churn models",
	RunE: func(cmd *cobra.Command, args []string) error {
		skip := cfg.SkipSMOTE
		if cmd.Flags().Changed("skip-smote") {
			skip = trainSkipSMOTE
		}
		save := cfg.ModelPath
		if cmd.Flags().Changed("save-model") {
			save = trainSaveModel
		}

		report, err := buildExperiment(skip, save, false).Run(cmd.Context())
		if err != nil {
			return err
		}
		printReport(cmd, report)
		return nil
	},
}

func init() {
	trainCmd.Flags().BoolVar(&trainSkipSMOTE, "skip-smote", false, "disable SMOTE rebalancing for the tuned naive Bayes")
	trainCmd.Flags().StringVar(&trainSaveModel, "save-model", "", "persist the tuned tree to this path")
}
