// Package cli implements the churnlab command surface. Commands build on
// the library packages; errors propagate up to a single exit point in
// Execute.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/churnlab/churn"
	"github.com/YuminosukeSato/churnlab/internal/config"
	"github.com/YuminosukeSato/churnlab/pkg/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	dataDir string

	// Loaded before every command run.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "churnlab",
	Short: "Synthetic customer churn laboratory",
	Long: `churnlab generates a seeded synthetic customer dataset, analyzes it,
and trains, tunes and evaluates churn classifiers (decision tree and
Gaussian naive Bayes) end to end.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		if verbose {
			cfg.LogLevel = "debug"
		}
		log.SetLoggerProvider(log.NewZerologProvider(log.ToLogLevel(cfg.LogLevel)))

		if dataDir != "" {
			cfg.DataPath = resolveUnder(dataDir, cfg.DataPath)
			cfg.OutDir = resolveUnder(dataDir, cfg.OutDir)
		}
		return nil
	},
}

// Execute runs the root command. This is the single exit point: any
// command error is printed to stderr and the process exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: churnlab.yaml in CWD, then ~/.churnlab/)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for dataset and output artifacts")

	rootCmd.AddCommand(generateCmd, analyzeCmd, trainCmd, runCmd, versionCmd)
}

func resolveUnder(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func buildExperiment(skipSMOTE bool, savePath string, plots bool) *churn.Experiment {
	return churn.NewExperiment(
		churn.WithDataPath(cfg.DataPath),
		churn.WithOutDir(cfg.OutDir),
		churn.WithSeed(cfg.Seed),
		churn.WithTestSize(cfg.TestSize),
		churn.WithNRows(cfg.Rows),
		churn.WithChurnRate(cfg.ChurnRate),
		churn.WithTreeCVFolds(cfg.TreeCVFolds),
		churn.WithNBCVFolds(cfg.NBCVFolds),
		churn.WithSkipSMOTE(skipSMOTE),
		churn.WithRenderPlots(plots),
		churn.WithSaveModelPath(savePath),
	)
}

func printReport(cmd *cobra.Command, report *churn.RunReport) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s (%d rows, churn rate %.4f)\n", report.ID, report.DatasetRows, report.ChurnRate)
	for _, m := range report.Models {
		fmt.Fprintf(w, "  %-14s baseline acc=%.4f f1=%.4f | tuned acc=%.4f f1=%.4f (cv=%.4f)\n",
			m.Name, m.Baseline.Accuracy, m.Baseline.F1, m.Tuned.Accuracy, m.Tuned.F1, m.BestCVScore)
	}
	fmt.Fprintf(w, "final model: %s\n", report.FinalModel)
}
