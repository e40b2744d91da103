package ledgerservice

import (
	"context"
	"fmt"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"
)

func (s *Service) GetTransaction(ctx context.Context, id int) (*domain.Transaction, error) {
	tx, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		zap.L().Error("failed to get transaction", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// ListTransactions is the manager-wide listing. Amount filters match
// transfer rows of either direction.
func (s *Service) ListTransactions(ctx context.Context, filter domain.TransactionFilter) (*domain.Page[domain.Transaction], error) {
	filter.Owner = ""
	filter.Symmetric = true
	if len(filter.Sort) == 0 {
		filter.Sort = []domain.SortOrder{{Field: domain.SortByID, Desc: true}}
	}
	return s.list(ctx, filter)
}

// ListUserTransactions lists one user's own transactions, newest first by default.
func (s *Service) ListUserTransactions(ctx context.Context, utorid string, filter domain.TransactionFilter) (*domain.Page[domain.Transaction], error) {
	filter.Owner = utorid
	filter.Symmetric = false
	if len(filter.Sort) == 0 {
		filter.Sort = []domain.SortOrder{{Field: domain.SortByCreatedAt, Desc: true}}
	}
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter domain.TransactionFilter) (*domain.Page[domain.Transaction], error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	page := &domain.Page[domain.Transaction]{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.transactions.Count(gctx, filter)
		page.Count = count
		return err
	})
	g.Go(func() error {
		results, err := s.transactions.List(gctx, filter)
		page.Results = results
		return err
	})
	if err := g.Wait(); err != nil {
		zap.L().Error("failed to list transactions", zap.Error(err))
		return nil, err
	}
	return page, nil
}

func validateFilter(f domain.TransactionFilter) error {
	if f.Page < 1 || f.Limit < 1 {
		return fmt.Errorf("%w: page and limit must be at least 1", ErrInvalidFilter)
	}
	if f.RelatedID != nil && f.Type == "" {
		return fmt.Errorf("%w: relatedId requires type", ErrInvalidFilter)
	}
	if (f.Amount == nil) != (f.Operator == "") {
		return fmt.Errorf("%w: amount and operator must be given together", ErrInvalidFilter)
	}
	if f.Operator != "" && f.Operator != domain.AmountGTE && f.Operator != domain.AmountLTE {
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, f.Operator)
	}
	for _, o := range f.Sort {
		if _, ok := domain.ParseSortField(string(o.Field)); !ok {
			return fmt.Errorf("%w: unknown sort field %q", ErrInvalidFilter, o.Field)
		}
	}
	return nil
}
