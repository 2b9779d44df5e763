package models

// Transfer is the solver's output unit: a recommendation that From pays
// To the given amount to help zero out the month's balances. Transfers
// are recomputed on demand from expenses and are never persisted; a
// Settlement records the ones that actually happened.
type Transfer struct {
	// From is the member key of the debtor.
	From string

	// To is the member key of the creditor.
	To string

	// Amount is the recommended payment, always positive.
	Amount float64

	// Month is the "2006-01" period the transfer settles.
	Month string
}

// Balance is a member's net paid-minus-owed position for a period.
// Positive means the group owes the member money.
type Balance struct {
	Member string
	Paid   float64
	Owed   float64
	Net    float64
}
