package models

// Settlement statuses. A settlement transitions pending -> verified
// exactly once and never back.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
)

// Settlement represents a real-world payment applied against a Transfer.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// Month is the "2006-01" period whose balances this payment settles.
	Month string

	// From is the member key of the debtor who paid.
	From string

	// To is the member key of the creditor who was paid.
	To string

	// Amount is the payment amount.
	Amount float64

	// Status is StatusPending or StatusVerified.
	Status string

	// Slip is the verified payment evidence. Nil while pending.
	Slip *Slip

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last status change.
	UpdatedAt int64
}

// Slip holds the structured result of the payment-verification service
// for one bank-transfer slip.
type Slip struct {
	// TransRef is the unique transaction reference assigned by the
	// payment network. A TransRef may back at most one verified
	// settlement.
	TransRef string

	// TransDate is the transfer date in "20060102" form, as reported
	// by the verification service.
	TransDate string

	// TransTime is the transfer time ("15:04:05").
	TransTime string

	// Amount is the transferred amount read from the slip.
	Amount float64

	// SenderDisplay and SenderName are the payer name fields from the
	// slip (formal display form and plain form).
	SenderDisplay string
	SenderName    string

	// ReceiverDisplay and ReceiverName are the payee name fields.
	ReceiverDisplay string
	ReceiverName    string

	SendingBank   string
	ReceivingBank string

	// UploadedBy is the member key of whoever submitted the slip.
	UploadedBy string

	// MatchedField records which receiver name field satisfied the
	// identity check ("displayName" or "name"), and MatchConfidence
	// the fixed score assigned to that field.
	MatchedField    string
	MatchConfidence float64
}
