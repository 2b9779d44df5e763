package models

// RecurringTemplate describes a subscription that generates one expense
// per month (rent, streaming services, and so on).
type RecurringTemplate struct {
	// ID is the unique identifier for the template (UUID format).
	ID string

	// Description is copied onto each generated expense.
	Description string

	// Amount is the monthly charge.
	Amount float64

	// Payer is the member key charged each month.
	Payer string

	// Splits maps member key to monthly share, copied onto each
	// generated expense.
	Splits map[string]float64

	// Active templates generate expenses; inactive ones are kept for
	// history.
	Active bool

	// LastGeneratedMonth is the "2006-01" month most recently
	// materialized. Guards against generating twice for one month.
	LastGeneratedMonth string

	// CreatedAt is the Unix timestamp when the template was created.
	CreatedAt int64
}
