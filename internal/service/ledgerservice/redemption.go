package ledgerservice

import (
	"context"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"go.uber.org/zap"
)

// CreateRedemption files a pending redemption. The owner's points are only
// checked here; the debit happens when a cashier processes it.
func (s *Service) CreateRedemption(ctx context.Context, utorid string, amount int, remark string) (*domain.Transaction, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	var created *domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		user, err := s.lockUser(ctx, utorid)
		if err != nil {
			return err
		}
		if !user.Verified {
			return ErrNotVerified
		}
		if user.Points < amount {
			return ErrInsufficientPoints
		}

		created, err = s.transactions.Create(ctx, &domain.Transaction{
			Type:      domain.TransactionRedemption,
			Utorid:    user.Utorid,
			Amount:    amount,
			Remark:    remark,
			CreatedBy: user.Utorid,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("redemption requested", zap.Int("transaction_id", created.ID), zap.Int("amount", amount))
	return created, nil
}

// ProcessRedemption moves a redemption from pending to processed exactly
// once and debits its owner.
func (s *Service) ProcessRedemption(ctx context.Context, transactionID int, cashierUtorid string) (*domain.Transaction, error) {
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
		if tx.Type != domain.TransactionRedemption {
			return ErrNotRedemption
		}
		if !tx.Pending() {
			return ErrAlreadyProcessed
		}

		cashier, err := s.users.FindByUtorid(ctx, cashierUtorid)
		if err != nil {
			return err
		}
		if cashier == nil {
			return ErrCashierNotFound
		}
		owner, err := s.lockUser(ctx, tx.Utorid)
		if err != nil {
			return err
		}

		tx.Related = domain.ProcessedBy{CashierID: cashier.ID}
		debit := tx.Credited()
		if owner.Points+debit < 0 {
			return ErrInsufficientPoints
		}

		marked, err := s.transactions.MarkProcessed(ctx, tx.ID, cashier.ID)
		if err != nil {
			return err
		}
		if !marked {
			return ErrAlreadyProcessed
		}
		return s.credit(ctx, owner, debit)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("redemption processed",
		zap.Int("transaction_id", tx.ID),
		zap.String("cashier", cashierUtorid),
		zap.Int("amount", tx.Redeemed()))
	return tx, nil
}
