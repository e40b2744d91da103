package ledgerservice

import (
	"context"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"go.uber.org/zap"
)

type TransferInput struct {
	Sender      string
	RecipientID int
	Amount      int
	Remark      string
}

// CreateTransfer moves points between two users as a pair of mirrored rows.
// It returns the sender's row.
func (s *Service) CreateTransfer(ctx context.Context, in TransferInput) (*domain.Transaction, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var sent *domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		sender, err := s.findUser(ctx, in.Sender)
		if err != nil {
			return err
		}
		if !sender.Verified {
			return ErrNotVerified
		}
		if sender.ID == in.RecipientID {
			return ErrSelfTransfer
		}

		locked, err := s.lockUsers(ctx, sender.ID, in.RecipientID)
		if err != nil {
			return err
		}
		sender, recipient := locked[sender.ID], locked[in.RecipientID]
		if sender.Points < in.Amount {
			return ErrInsufficientPoints
		}

		sent, err = s.transactions.Create(ctx, &domain.Transaction{
			Type:      domain.TransactionTransfer,
			Utorid:    sender.Utorid,
			Amount:    -in.Amount,
			Related:   domain.Counterparty{UserID: recipient.ID},
			Remark:    in.Remark,
			CreatedBy: sender.Utorid,
		})
		if err != nil {
			return err
		}
		_, err = s.transactions.Create(ctx, &domain.Transaction{
			Type:      domain.TransactionTransfer,
			Utorid:    recipient.Utorid,
			Amount:    in.Amount,
			Related:   domain.Counterparty{UserID: sender.ID},
			Remark:    in.Remark,
			CreatedBy: sender.Utorid,
		})
		if err != nil {
			return err
		}

		if err := s.credit(ctx, sender, -in.Amount); err != nil {
			return err
		}
		return s.credit(ctx, recipient, in.Amount)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("transfer recorded",
		zap.Int("transaction_id", sent.ID),
		zap.String("sender", in.Sender),
		zap.Int("recipient_id", in.RecipientID),
		zap.Int("amount", in.Amount))
	return sent, nil
}
