package dataset

import (
	"os"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// csvTypes forces the numeric columns to their proper series types when
// reading CSV, so missing TotalCharges round-trip as NaN.
func csvTypes() map[string]series.Type {
	return map[string]series.Type{
		ColCustomerID:            series.String,
		ColAge:                   series.Int,
		ColGender:                series.String,
		ColContractType:          series.String,
		ColMonthlyCharges:        series.Float,
		ColTotalCharges:          series.Float,
		ColTechSupport:           series.String,
		ColInternetService:       series.String,
		ColTenure:                series.Int,
		ColPaperlessBilling:      series.String,
		ColPaymentMethod:         series.String,
		ColChurn:                 series.String,
		ColAvgMonthlyCharge:      series.Float,
		ColCustomerLifetimeValue: series.Float,
	}
}

// Frame builds a gota frame from records in the canonical column order.
func Frame(records []Record) dataframe.DataFrame {
	n := len(records)
	ids := make([]string, n)
	ages := make([]int, n)
	gender := make([]string, n)
	contract := make([]string, n)
	monthly := make([]float64, n)
	total := make([]float64, n)
	techSupport := make([]string, n)
	internet := make([]string, n)
	tenure := make([]int, n)
	paperless := make([]string, n)
	payment := make([]string, n)
	churn := make([]string, n)
	avgMonthly := make([]float64, n)
	clv := make([]float64, n)

	for i, rec := range records {
		ids[i] = rec.CustomerID
		ages[i] = rec.Age
		gender[i] = rec.Gender
		contract[i] = rec.ContractType
		monthly[i] = rec.MonthlyCharges
		total[i] = rec.TotalCharges
		techSupport[i] = rec.TechSupport
		internet[i] = rec.InternetService
		tenure[i] = rec.Tenure
		paperless[i] = rec.PaperlessBilling
		payment[i] = rec.PaymentMethod
		churn[i] = rec.Churn
		avgMonthly[i] = rec.AvgMonthlyCharge
		clv[i] = rec.CustomerLifetimeValue
	}

	return dataframe.New(
		series.New(ids, series.String, ColCustomerID),
		series.New(ages, series.Int, ColAge),
		series.New(gender, series.String, ColGender),
		series.New(contract, series.String, ColContractType),
		series.New(monthly, series.Float, ColMonthlyCharges),
		series.New(total, series.Float, ColTotalCharges),
		series.New(techSupport, series.String, ColTechSupport),
		series.New(internet, series.String, ColInternetService),
		series.New(tenure, series.Int, ColTenure),
		series.New(paperless, series.String, ColPaperlessBilling),
		series.New(payment, series.String, ColPaymentMethod),
		series.New(churn, series.String, ColChurn),
		series.New(avgMonthly, series.Float, ColAvgMonthlyCharge),
		series.New(clv, series.Float, ColCustomerLifetimeValue),
	)
}

// ValidateColumns checks that the frame carries the full canonical column
// set.
func ValidateColumns(df dataframe.DataFrame) error {
	have := make(map[string]bool, len(df.Names()))
	for _, name := range df.Names() {
		have[name] = true
	}
	for _, name := range Columns() {
		if !have[name] {
			return errors.NewDataQualityError("column check", name, "column missing from frame")
		}
	}
	return nil
}

// Records converts a frame back to the record representation. The full
// column set must be present.
func Records(df dataframe.DataFrame) ([]Record, error) {
	if err := df.Error(); err != nil {
		return nil, errors.Wrap(err, "invalid frame")
	}
	if err := ValidateColumns(df); err != nil {
		return nil, err
	}

	n := df.Nrow()
	ids := df.Col(ColCustomerID).Records()
	ages := df.Col(ColAge).Float()
	gender := df.Col(ColGender).Records()
	contract := df.Col(ColContractType).Records()
	monthly := df.Col(ColMonthlyCharges).Float()
	total := df.Col(ColTotalCharges).Float()
	techSupport := df.Col(ColTechSupport).Records()
	internet := df.Col(ColInternetService).Records()
	tenure := df.Col(ColTenure).Float()
	paperless := df.Col(ColPaperlessBilling).Records()
	payment := df.Col(ColPaymentMethod).Records()
	churn := df.Col(ColChurn).Records()
	avgMonthly := df.Col(ColAvgMonthlyCharge).Float()
	clv := df.Col(ColCustomerLifetimeValue).Float()

	records := make([]Record, n)
	for i := 0; i < n; i++ {
		records[i] = Record{
			CustomerID:            ids[i],
			Age:                   int(ages[i]),
			Gender:                gender[i],
			ContractType:          contract[i],
			MonthlyCharges:        monthly[i],
			TotalCharges:          total[i],
			TechSupport:           techSupport[i],
			InternetService:       internet[i],
			Tenure:                int(tenure[i]),
			PaperlessBilling:      paperless[i],
			PaymentMethod:         payment[i],
			Churn:                 churn[i],
			AvgMonthlyCharge:      avgMonthly[i],
			CustomerLifetimeValue: clv[i],
		}
	}
	return records, nil
}

// SaveCSV writes the frame to path with a single header row.
func SaveCSV(df dataframe.DataFrame, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create CSV file")
	}
	defer f.Close()

	if err := df.WriteCSV(f); err != nil {
		return errors.Wrap(err, "failed to write CSV")
	}
	return nil
}

// LoadCSV reads a previously saved table and validates its column set.
func LoadCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "failed to open CSV file")
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.WithTypes(csvTypes()))
	if err := df.Error(); err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "failed to read CSV")
	}
	if err := ValidateColumns(df); err != nil {
		return dataframe.DataFrame{}, err
	}
	return df, nil
}

// GenerateCSV generates the table and persists it in one step. The written
// file is the hand-off artifact for every downstream stage.
func (g *Generator) GenerateCSV(path string) (dataframe.DataFrame, error) {
	records, err := g.Generate()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	df := Frame(records)
	if err := df.Error(); err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "failed to build frame")
	}
	if err := SaveCSV(df, path); err != nil {
		return dataframe.DataFrame{}, err
	}
	return df, nil
}
