// Package dataset synthesizes the customer table the churn pipeline runs
// on and persists it as CSV through gota frames. Generation is seeded and
// fully reproducible.
package dataset

// Column names shared by the generator, loader, analyzer and preprocessor.
const (
	ColCustomerID            = "CustomerID"
	ColAge                   = "Age"
	ColGender                = "Gender"
	ColContractType          = "ContractType"
	ColMonthlyCharges        = "MonthlyCharges"
	ColTotalCharges          = "TotalCharges"
	ColTechSupport           = "TechSupport"
	ColInternetService       = "InternetService"
	ColTenure                = "Tenure"
	ColPaperlessBilling      = "PaperlessBilling"
	ColPaymentMethod         = "PaymentMethod"
	ColChurn                 = "Churn"
	ColAvgMonthlyCharge      = "AvgMonthlyCharge"
	ColCustomerLifetimeValue = "CustomerLifetimeValue"
)

// Columns returns the canonical header order of the generated table.
func Columns() []string {
	return []string{
		ColCustomerID,
		ColAge,
		ColGender,
		ColContractType,
		ColMonthlyCharges,
		ColTotalCharges,
		ColTechSupport,
		ColInternetService,
		ColTenure,
		ColPaperlessBilling,
		ColPaymentMethod,
		ColChurn,
		ColAvgMonthlyCharge,
		ColCustomerLifetimeValue,
	}
}

// CategoricalColumns returns the columns the preprocessor label-encodes.
func CategoricalColumns() []string {
	return []string{
		ColGender,
		ColContractType,
		ColTechSupport,
		ColInternetService,
		ColPaperlessBilling,
		ColPaymentMethod,
		ColChurn,
	}
}

// NumericColumns returns the columns the preprocessor standardizes.
func NumericColumns() []string {
	return []string{
		ColAge,
		ColMonthlyCharges,
		ColTotalCharges,
		ColTenure,
		ColAvgMonthlyCharge,
		ColCustomerLifetimeValue,
	}
}

// Categorical level sets used by the generator.
var (
	genders          = []string{"Male", "Female"}
	contractTypes    = []string{"Month-to-month", "One year", "Two year"}
	yesNo            = []string{"Yes", "No"}
	internetServices = []string{"DSL", "Fiber optic", "No"}
	paymentMethods   = []string{"Electronic check", "Mailed check", "Bank transfer", "Credit card"}
)
