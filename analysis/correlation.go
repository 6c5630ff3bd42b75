package analysis

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Correlation is a labeled Pearson correlation matrix.
type Correlation struct {
	Columns []string
	matrix  *mat.SymDense
}

// CorrelationMatrix computes the Pearson correlation matrix over the given
// numeric columns. Rows with a missing value in any requested column are
// dropped listwise before the computation. Zero-variance columns produce
// NaN entries, which are left as-is for the caller to see.
func CorrelationMatrix(df dataframe.DataFrame, columns []string) (*Correlation, error) {
	if err := df.Error(); err != nil {
		return nil, errors.Wrap(err, "invalid frame")
	}
	if len(columns) < 2 {
		return nil, errors.NewValidationError("columns", "need at least two columns", len(columns))
	}

	cols := make([][]float64, len(columns))
	for i, name := range columns {
		if !hasColumn(df, name) {
			return nil, errors.NewValidationError("column", "not present in frame", name)
		}
		cols[i] = df.Col(name).Float()
	}

	// Listwise deletion: keep only rows complete across every column.
	n := len(cols[0])
	complete := make([]int, 0, n)
	for row := 0; row < n; row++ {
		ok := true
		for _, col := range cols {
			if math.IsNaN(col[row]) {
				ok = false
				break
			}
		}
		if ok {
			complete = append(complete, row)
		}
	}
	if len(complete) == 0 {
		return nil, errors.NewModelError("analysis.CorrelationMatrix",
			"no complete rows", errors.ErrEmptyData)
	}

	data := mat.NewDense(len(complete), len(columns), nil)
	for i, row := range complete {
		for j, col := range cols {
			data.Set(i, j, col[row])
		}
	}

	corr := mat.NewSymDense(len(columns), nil)
	stat.CorrelationMatrix(corr, data, nil)

	labels := make([]string, len(columns))
	copy(labels, columns)
	return &Correlation{Columns: labels, matrix: corr}, nil
}

// At returns the correlation between columns i and j.
func (c *Correlation) At(i, j int) float64 {
	return c.matrix.At(i, j)
}

// Dim returns the number of columns in the matrix.
func (c *Correlation) Dim() int {
	return len(c.Columns)
}

// String renders the matrix as an aligned table.
func (c *Correlation) String() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "\t%s\n", strings.Join(c.Columns, "\t"))
	for i, name := range c.Columns {
		fmt.Fprintf(w, "%s", name)
		for j := range c.Columns {
			fmt.Fprintf(w, "\t%.3f", c.matrix.At(i, j))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	return sb.String()
}
