package models

// Payment types for an expense.
const (
	PaymentNormal       = "normal"
	PaymentInstallment  = "installment"
	PaymentSubscription = "subscription"
)

// Expense represents one recorded shared expense. Expenses are immutable
// once created; corrections are made by cancelling and re-recording.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Date is the calendar date of the expense in "2006-01-02" form.
	// The month prefix ("2006-01") scopes the expense to a period.
	Date string

	// Description is the human-readable name for the expense.
	// Installments carry an "(i/N)" suffix.
	Description string

	// Amount is the total paid for this expense.
	Amount float64

	// Payer is the member key of whoever paid the full amount.
	Payer string

	// Splits maps member key to the share that member owes.
	// Shares need not be equal but must sum to Amount.
	Splits map[string]float64

	// PaymentType is one of PaymentNormal, PaymentInstallment or
	// PaymentSubscription.
	PaymentType string

	// GroupID ties the installments of a single purchase together.
	// Empty for one-off expenses.
	GroupID string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Month returns the "2006-01" period this expense belongs to.
func (e *Expense) Month() string {
	if len(e.Date) < 7 {
		return ""
	}
	return e.Date[:7]
}
