package ledgerservice

import (
	"context"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"go.uber.org/zap"
)

// SetSuspicious flags or clears a transaction. Flagging takes its delta back
// out of the owner's points and clearing puts it back; setting the current
// value again changes nothing.
func (s *Service) SetSuspicious(ctx context.Context, transactionID int, suspicious bool) (*domain.Transaction, error) {
	var tx *domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		tx, err = s.transactions.LockByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx == nil {
			return ErrTransactionNotFound
		}
		if tx.Suspicious == suspicious {
			return nil
		}

		owner, err := s.lockUser(ctx, tx.Utorid)
		if err != nil {
			return err
		}
		delta := tx.Delta()
		if suspicious {
			delta = -delta
		}
		if owner.Points+delta < 0 {
			return ErrInsufficientPoints
		}

		if err := s.transactions.SetSuspicious(ctx, tx.ID, suspicious); err != nil {
			return err
		}
		tx.Suspicious = suspicious
		return s.credit(ctx, owner, delta)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("transaction suspicious flag set", zap.Int("transaction_id", tx.ID), zap.Bool("suspicious", tx.Suspicious))
	return tx, nil
}
