// Package session models the multi-step expense-entry conversation as
// an explicit finite-state record. The webhook handler advances one
// session per chat user; the store persists it between messages.
package session

import "time"

// Step identifies where in the entry flow a session is.
type Step string

// Entry flow: description -> amount -> payment type -> [installments]
// -> payer -> split participants -> saved.
const (
	StepAskDescription  Step = "ASK_DESC"
	StepAskAmount       Step = "ASK_AMOUNT"
	StepAskPaymentType  Step = "ASK_PAYMENT_TYPE"
	StepAskInstallments Step = "ASK_INSTALLMENTS"
	StepAskPayer        Step = "ASK_PAYER"
	StepAskSplit        Step = "ASK_SPLIT"
)

// Draft accumulates the answers collected so far.
type Draft struct {
	Description  string   `json:"description,omitempty"`
	Amount       float64  `json:"amount,omitempty"`
	PaymentType  string   `json:"payment_type,omitempty"`
	Installments int      `json:"installments,omitempty"`
	Payer        string   `json:"payer,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

// Session is one user's in-progress expense entry.
type Session struct {
	UserID    string
	Step      Step
	Draft     Draft
	UpdatedAt int64
}

// New starts a fresh session at the first step.
func New(userID string) *Session {
	return &Session{
		UserID:    userID,
		Step:      StepAskDescription,
		UpdatedAt: time.Now().Unix(),
	}
}

// Advance moves the session to the next step and refreshes UpdatedAt.
func (s *Session) Advance(next Step) {
	s.Step = next
	s.UpdatedAt = time.Now().Unix()
}

// ToggleParticipant adds the member to the draft's split list, or
// removes it if already selected.
func (s *Session) ToggleParticipant(key string) {
	for i, p := range s.Draft.Participants {
		if p == key {
			s.Draft.Participants = append(s.Draft.Participants[:i], s.Draft.Participants[i+1:]...)
			return
		}
	}
	s.Draft.Participants = append(s.Draft.Participants, key)
}
