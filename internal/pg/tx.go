package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:generate mockgen -source=tx.go -destination=mock_tx.go -package=pg

type TransactionalFn func(ctx context.Context) error

type TXManager interface {
	Begin(ctx context.Context, fn TransactionalFn) error
}

type txKey struct{}

type txManager struct {
	pool *pgxpool.Pool
}

func NewTXManager(pool *pgxpool.Pool) TXManager {
	return &txManager{pool: pool}
}

// Begin runs fn inside one database transaction. A Begin issued while ctx
// already carries a transaction joins it instead of opening a new one.
func (m *txManager) Begin(ctx context.Context, fn TransactionalFn) (err error) {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				zap.L().Error("rollback failed", zap.Error(rbErr))
			}
			return
		}
		if cErr := tx.Commit(ctx); cErr != nil {
			err = fmt.Errorf("can't commit transaction: %w", cErr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}
