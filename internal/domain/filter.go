package domain

import "time"

type AmountOperator string

const (
	AmountGTE AmountOperator = "gte"
	AmountLTE AmountOperator = "lte"
)

type SortField string

const (
	SortByID        SortField = "id"
	SortByAmount    SortField = "amount"
	SortByCreatedAt SortField = "createdAt"
	SortByType      SortField = "type"
)

func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(s); f {
	case SortByID, SortByAmount, SortByCreatedAt, SortByType:
		return f, true
	}
	return "", false
}

type SortOrder struct {
	Field SortField
	Desc  bool
}

// TransactionFilter selects a page of transactions. Zero values mean "no
// constraint" except Page and Limit, which callers validate.
type TransactionFilter struct {
	// Owner restricts the listing to one user's transactions.
	Owner       string
	Name        string
	CreatedBy   string
	Type        TransactionType
	PromotionID *int
	RelatedID   *int
	Suspicious  *bool
	Amount      *int
	Operator    AmountOperator
	// Symmetric makes the amount filter match transfer rows of either sign.
	Symmetric bool
	Sort      []SortOrder
	Page      int
	Limit     int
}

func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type Page[T any] struct {
	Count   int
	Results []T
}

// PromotionFilter selects a page of promotions. ActiveAt and UnusedBy narrow
// the listing to what a regular user may see.
type PromotionFilter struct {
	Name     string
	Type     PromotionType
	ActiveAt *time.Time
	UnusedBy *int
	Page     int
	Limit    int
}

func (f PromotionFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
