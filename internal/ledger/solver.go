// Package ledger computes net balances from shared expenses and reduces
// them to a short list of settling transfers. It is pure: no I/O, no
// shared state, safe for concurrent use.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/nattw/harnkan/internal/models"
)

// Epsilon is the noise floor for greedy matching: a party whose
// remaining amount drops to or below it is considered fully settled.
const Epsilon = 0.01

// settledBand is the post-rounding magnitude treated as zero. Balances
// within ±1 currency unit produce no transfer.
const settledBand = 1.0

// ErrInvalidInput marks a malformed expense (bad amount, empty payer,
// splits that do not sum to the total).
var ErrInvalidInput = errors.New("invalid input")

// Result is the solver output for one month.
type Result struct {
	// Balances holds every known member's position, sorted by key.
	Balances []models.Balance

	// Transfers is the settling plan in deterministic emission order.
	Transfers []models.Transfer

	// Unknown lists keys that appeared in expense splits but are not
	// registered members. Their shares are not tracked; this is a
	// data-quality signal for the caller, not a solver error.
	Unknown []string
}

// ValidateExpense rejects expenses the solver should never see.
// The split-sum check is stricter than the historical behavior, which
// trusted caller-supplied splits unconditionally.
func ValidateExpense(e *models.Expense) error {
	if e.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %.2f", ErrInvalidInput, e.Amount)
	}
	if e.Payer == "" {
		return fmt.Errorf("%w: payer is required", ErrInvalidInput)
	}
	if len(e.Splits) == 0 {
		return fmt.Errorf("%w: at least one split is required", ErrInvalidInput)
	}
	var sum float64
	for member, share := range e.Splits {
		if share < 0 {
			return fmt.Errorf("%w: negative share %.2f for %s", ErrInvalidInput, share, member)
		}
		sum += share
	}
	if math.Abs(sum-e.Amount) > Epsilon {
		return fmt.Errorf("%w: splits sum to %.2f, expense total is %.2f", ErrInvalidInput, sum, e.Amount)
	}
	return nil
}

// Solve computes balances for the month and greedily pairs debtors with
// creditors into transfers. Members are processed in sorted key order,
// so identical input always yields the identical transfer list.
//
// The pairing is a minimum-transaction-count heuristic, not a provably
// optimal matching; the goal is few round-ish transfers.
func Solve(month string, expenses []*models.Expense, members []string) Result {
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = models.MemberKey(m)
	}
	sort.Strings(keys)

	paid := make(map[string]float64, len(keys))
	owed := make(map[string]float64, len(keys))
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}

	unknownSet := make(map[string]bool)
	for _, e := range expenses {
		payer := models.MemberKey(e.Payer)
		if known[payer] {
			paid[payer] += e.Amount
		} else if payer != "" {
			unknownSet[payer] = true
		}
		for member, share := range e.Splits {
			k := models.MemberKey(member)
			if known[k] {
				owed[k] += share
			} else if k != "" {
				unknownSet[k] = true
			}
		}
	}

	balances := make([]models.Balance, 0, len(keys))
	type party struct {
		member string
		amount float64
	}
	var debtors, creditors []party
	for _, k := range keys {
		net := paid[k] - owed[k]
		balances = append(balances, models.Balance{
			Member: k,
			Paid:   paid[k],
			Owed:   owed[k],
			Net:    net,
		})
		rounded := math.Round(net)
		switch {
		case rounded < -settledBand:
			debtors = append(debtors, party{member: k, amount: -rounded})
		case rounded > settledBand:
			creditors = append(creditors, party{member: k, amount: rounded})
		}
	}

	var transfers []models.Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d := &debtors[i]
		c := &creditors[j]
		pay := math.Min(d.amount, c.amount)

		if pay > Epsilon {
			transfers = append(transfers, models.Transfer{
				From:   d.member,
				To:     c.member,
				Amount: pay,
				Month:  month,
			})
		}

		d.amount -= pay
		c.amount -= pay
		if d.amount <= Epsilon {
			i++
		}
		if c.amount <= Epsilon {
			j++
		}
	}

	unknown := make([]string, 0, len(unknownSet))
	for k := range unknownSet {
		unknown = append(unknown, k)
	}
	sort.Strings(unknown)

	return Result{Balances: balances, Transfers: transfers, Unknown: unknown}
}
