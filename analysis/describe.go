// Package analysis computes descriptive statistics, class balance and
// correlation views over the customer table, and renders distribution and
// correlation plots to PNG. Computations never depend on the renderers.
package analysis

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary holds the descriptive statistics of one numeric column.
// Statistics are computed over non-missing entries only.
type ColumnSummary struct {
	Name    string
	Count   int // non-missing entries
	Missing int
	Mean    float64
	Std     float64
	Min     float64
	Q25     float64
	Median  float64
	Q75     float64
	Max     float64
}

// Summary is the describe() view over all numeric columns of a frame.
type Summary struct {
	Columns []ColumnSummary
}

// Describe computes per-column statistics for every numeric column, in
// frame order. Missing values (NaN) are excluded from the statistics and
// reported in the Missing count.
func Describe(df dataframe.DataFrame) (*Summary, error) {
	if err := df.Error(); err != nil {
		return nil, errors.Wrap(err, "invalid frame")
	}

	names := df.Names()
	types := df.Types()

	summary := &Summary{}
	for i, name := range names {
		if types[i] != series.Float && types[i] != series.Int {
			continue
		}
		col, err := describeColumn(df, name)
		if err != nil {
			return nil, err
		}
		summary.Columns = append(summary.Columns, col)
	}
	if len(summary.Columns) == 0 {
		return nil, errors.NewModelError("analysis.Describe", "no numeric columns", errors.ErrEmptyData)
	}
	return summary, nil
}

func describeColumn(df dataframe.DataFrame, name string) (ColumnSummary, error) {
	values, missing, err := numericColumn(df, name)
	if err != nil {
		return ColumnSummary{}, err
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	col := ColumnSummary{
		Name:    name,
		Count:   len(values),
		Missing: missing,
		Mean:    stat.Mean(values, nil),
		Min:     sorted[0],
		Q25:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		Q75:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:     sorted[len(sorted)-1],
	}
	if len(values) > 1 {
		col.Std = stat.StdDev(values, nil)
	}
	return col, nil
}

// numericColumn extracts the non-missing values of a column and the count
// of missing entries.
func numericColumn(df dataframe.DataFrame, name string) ([]float64, int, error) {
	if !hasColumn(df, name) {
		return nil, 0, errors.NewValidationError("column", "not present in frame", name)
	}

	raw := df.Col(name).Float()
	values := make([]float64, 0, len(raw))
	missing := 0
	for _, v := range raw {
		if v != v { // NaN
			missing++
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, 0, errors.NewDataQualityError("describe", name, "column has no non-missing values")
	}
	return values, missing, nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// String renders the summary as an aligned table.
func (s *Summary) String() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "column\tcount\tmissing\tmean\tstd\tmin\t25%\t50%\t75%\tmax")
	for _, c := range s.Columns {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
			c.Name, c.Count, c.Missing, c.Mean, c.Std, c.Min, c.Q25, c.Median, c.Q75, c.Max)
	}
	w.Flush()
	return sb.String()
}

// ClassBalance counts the distinct values of a categorical column.
func ClassBalance(df dataframe.DataFrame, column string) (map[string]int, error) {
	return ValueCounts(df, column)
}

// ValueCounts counts occurrences of each distinct value in a column.
func ValueCounts(df dataframe.DataFrame, column string) (map[string]int, error) {
	if err := df.Error(); err != nil {
		return nil, errors.Wrap(err, "invalid frame")
	}
	if !hasColumn(df, column) {
		return nil, errors.NewValidationError("column", "not present in frame", column)
	}

	counts := make(map[string]int)
	for _, v := range df.Col(column).Records() {
		counts[v]++
	}
	return counts, nil
}

// PositiveRate returns the fraction of rows whose column equals the given
// positive value, e.g. the churn rate of the Churn column.
func PositiveRate(df dataframe.DataFrame, column, positive string) (float64, error) {
	counts, err := ValueCounts(df, column)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0, errors.NewModelError("analysis.PositiveRate", "empty column", errors.ErrEmptyData)
	}
	return float64(counts[positive]) / float64(total), nil
}
