package transactions

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/GlebRadaev/loyalty/internal/domain"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

var errBadQuery = errors.New("invalid query parameter")

// parseFilter reads the listing query string. Semantic checks such as the
// amount/operator pairing are left to the service.
func parseFilter(q url.Values) (domain.TransactionFilter, error) {
	f := domain.TransactionFilter{
		Name:      q.Get("name"),
		CreatedBy: q.Get("createdBy"),
		Type:      domain.TransactionType(q.Get("type")),
		Operator:  domain.AmountOperator(q.Get("operator")),
		Page:      defaultPage,
		Limit:     defaultLimit,
	}
	if f.Type != "" {
		if _, ok := domain.ParseTransactionType(string(f.Type)); !ok {
			return f, errBadQuery
		}
	}

	var err error
	if f.PromotionID, err = optionalInt(q, "promotionId"); err != nil {
		return f, err
	}
	if f.RelatedID, err = optionalInt(q, "relatedId"); err != nil {
		return f, err
	}
	if f.Amount, err = optionalInt(q, "amount"); err != nil {
		return f, err
	}
	if v := q.Get("suspicious"); v != "" {
		suspicious, err := strconv.ParseBool(v)
		if err != nil {
			return f, errBadQuery
		}
		f.Suspicious = &suspicious
	}
	if page, err := optionalInt(q, "page"); err != nil {
		return f, err
	} else if page != nil {
		f.Page = *page
	}
	if limit, err := optionalInt(q, "limit"); err != nil {
		return f, err
	} else if limit != nil {
		f.Limit = *limit
	}

	// sort=amount:desc&sort=createdAt
	for _, pair := range q["sort"] {
		field, dir, _ := strings.Cut(pair, ":")
		parsed, ok := domain.ParseSortField(field)
		if !ok || (dir != "" && dir != "asc" && dir != "desc") {
			return f, errBadQuery
		}
		f.Sort = append(f.Sort, domain.SortOrder{Field: parsed, Desc: dir == "desc"})
	}
	return f, nil
}

func optionalInt(q url.Values, key string) (*int, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, errBadQuery
	}
	return &n, nil
}
