package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionPurchase   TransactionType = "purchase"
	TransactionAdjustment TransactionType = "adjustment"
	TransactionTransfer   TransactionType = "transfer"
	TransactionRedemption TransactionType = "redemption"
	TransactionEvent      TransactionType = "event"
)

func ParseTransactionType(s string) (TransactionType, bool) {
	switch t := TransactionType(s); t {
	case TransactionPurchase, TransactionAdjustment, TransactionTransfer, TransactionRedemption, TransactionEvent:
		return t, true
	}
	return "", false
}

// Relation is the entity a transaction points at. Which one depends on the
// transaction type, so each type gets its own variant.
type Relation interface {
	RelatedID() int
	relation()
}

// AdjustedTransaction is the transaction an adjustment corrects.
type AdjustedTransaction struct{ TransactionID int }

// Counterparty is the other user of a transfer.
type Counterparty struct{ UserID int }

// ProcessedBy is the cashier who fulfilled a redemption.
type ProcessedBy struct{ CashierID int }

// AwardingEvent is the event an award was paid from.
type AwardingEvent struct{ EventID int }

func (r AdjustedTransaction) RelatedID() int { return r.TransactionID }
func (r Counterparty) RelatedID() int        { return r.UserID }
func (r ProcessedBy) RelatedID() int         { return r.CashierID }
func (r AwardingEvent) RelatedID() int       { return r.EventID }

func (AdjustedTransaction) relation() {}
func (Counterparty) relation()        {}
func (ProcessedBy) relation()         {}
func (AwardingEvent) relation()       {}

// NewRelation builds the variant matching t. Purchases have no relation.
func NewRelation(t TransactionType, id int) Relation {
	switch t {
	case TransactionAdjustment:
		return AdjustedTransaction{TransactionID: id}
	case TransactionTransfer:
		return Counterparty{UserID: id}
	case TransactionRedemption:
		return ProcessedBy{CashierID: id}
	case TransactionEvent:
		return AwardingEvent{EventID: id}
	}
	return nil
}

// RelatedIDOf flattens a relation back to the nullable wire/storage id.
func RelatedIDOf(r Relation) *int {
	if r == nil {
		return nil
	}
	id := r.RelatedID()
	return &id
}

type Transaction struct {
	ID           int                 `db:"id"`
	Type         TransactionType     `db:"type"`
	Utorid       string              `db:"utorid"`
	Amount       int                 `db:"amount"`
	Spent        decimal.NullDecimal `db:"spent"`
	Related      Relation            `db:"-"`
	PromotionIDs []int               `db:"promotion_ids"`
	Suspicious   bool                `db:"suspicious"`
	Remark       string              `db:"remark"`
	CreatedBy    string              `db:"created_by"`
	CreatedAt    time.Time           `db:"created_at"`
}

// Pending reports whether a redemption is still waiting for a cashier.
func (t *Transaction) Pending() bool {
	return t.Type == TransactionRedemption && t.Related == nil
}

// Delta is the change this transaction makes to its owner's balance while it
// is not flagged suspicious. Redemptions are stored as positive amounts and
// only debit once processed.
func (t *Transaction) Delta() int {
	if t.Type == TransactionRedemption {
		if t.Pending() {
			return 0
		}
		return -t.Amount
	}
	return t.Amount
}

// Redeemed is the number of points a redemption takes from its owner.
func (t *Transaction) Redeemed() int {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// Credited is the part of Delta currently reflected in the owner's points.
func (t *Transaction) Credited() int {
	if t.Suspicious {
		return 0
	}
	return t.Delta()
}

// LedgerBalance sums the live deltas of txs. For a user's full history it
// must equal the user's stored points.
func LedgerBalance(txs []Transaction) int {
	var sum int
	for i := range txs {
		sum += txs[i].Credited()
	}
	return sum
}
