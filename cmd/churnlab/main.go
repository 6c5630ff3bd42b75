// Command churnlab is the synthetic customer churn laboratory: dataset
// generation, descriptive analysis, model training and tuning, evaluation
// reports.
package main

import "github.com/YuminosukeSato/churnlab/internal/cli"

func main() {
	cli.Execute()
}
