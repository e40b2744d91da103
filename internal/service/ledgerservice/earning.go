package ledgerservice

import (
	"context"
	"fmt"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/promo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// One point per 25 cents.
var pointsPerCent = decimal.RequireFromString("0.04")

// BasePoints is round(spent * 100 * 0.04), rounding halves up.
func BasePoints(spent decimal.Decimal) int {
	return int(spent.Shift(2).Mul(pointsPerCent).Round(0).IntPart())
}

type PurchaseInput struct {
	Utorid       string
	Spent        decimal.Decimal
	PromotionIDs []int
	Remark       string
	CreatedBy    string
}

// CreatePurchase records a purchase and credits the buyer with base points
// plus the bonus of every supplied promotion. A single ineligible promotion
// rejects the whole purchase. Purchases entered by a suspicious cashier are
// stored in full but credit nothing until cleared.
func (s *Service) CreatePurchase(ctx context.Context, in PurchaseInput) (*domain.Transaction, error) {
	if in.Spent.IsNegative() {
		return nil, ErrInvalidSpent
	}

	var created *domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		buyer, err := s.findUser(ctx, in.Utorid)
		if err != nil {
			return err
		}
		creator, err := s.findUser(ctx, in.CreatedBy)
		if err != nil {
			return err
		}
		promotions, err := s.loadPromotions(ctx, in.PromotionIDs)
		if err != nil {
			return err
		}

		earned := BasePoints(in.Spent)
		candidate := promo.Candidate{Spent: in.Spent, BuyerID: buyer.ID, Now: s.now()}
		for i := range promotions {
			result := promo.Evaluate(&promotions[i], candidate)
			if !result.Eligible {
				return fmt.Errorf("%w: promotion %d: %s", ErrPromotionIneligible, promotions[i].ID, result.Reason)
			}
			earned += result.BonusPoints
		}

		created, err = s.transactions.Create(ctx, &domain.Transaction{
			Type:         domain.TransactionPurchase,
			Utorid:       buyer.Utorid,
			Amount:       earned,
			Spent:        decimal.NewNullDecimal(in.Spent),
			PromotionIDs: promotionIDs(promotions),
			Suspicious:   creator.Suspicious,
			Remark:       in.Remark,
			CreatedBy:    creator.Utorid,
		})
		if err != nil {
			return err
		}

		for _, p := range promotions {
			if p.Type != domain.PromotionOneTime {
				continue
			}
			marked, err := s.promotions.MarkUsed(ctx, p.ID, buyer.ID)
			if err != nil {
				return err
			}
			if !marked {
				return fmt.Errorf("%w: promotion %d: %s", ErrPromotionIneligible, p.ID, promo.ReasonAlreadyUsed)
			}
		}

		return s.credit(ctx, buyer, created.Credited())
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("purchase recorded",
		zap.Int("transaction_id", created.ID),
		zap.String("utorid", created.Utorid),
		zap.Int("amount", created.Amount),
		zap.Bool("suspicious", created.Suspicious))
	return created, nil
}

type AdjustmentInput struct {
	Utorid       string
	Amount       int
	RelatedID    int
	PromotionIDs []int
	Remark       string
	CreatedBy    string
}

// CreateAdjustment applies a signed correction anchored to an earlier
// transaction. Promotions are recorded without an eligibility check.
func (s *Service) CreateAdjustment(ctx context.Context, in AdjustmentInput) (*domain.Transaction, error) {
	var created *domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		user, err := s.lockUser(ctx, in.Utorid)
		if err != nil {
			return err
		}
		related, err := s.transactions.FindByID(ctx, in.RelatedID)
		if err != nil {
			return err
		}
		if related == nil {
			return ErrTransactionNotFound
		}
		promotions, err := s.loadPromotions(ctx, in.PromotionIDs)
		if err != nil {
			return err
		}
		if user.Points+in.Amount < 0 {
			return ErrInsufficientPoints
		}

		created, err = s.transactions.Create(ctx, &domain.Transaction{
			Type:         domain.TransactionAdjustment,
			Utorid:       user.Utorid,
			Amount:       in.Amount,
			Related:      domain.AdjustedTransaction{TransactionID: related.ID},
			PromotionIDs: promotionIDs(promotions),
			Remark:       in.Remark,
			CreatedBy:    in.CreatedBy,
		})
		if err != nil {
			return err
		}
		return s.credit(ctx, user, created.Amount)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("adjustment recorded",
		zap.Int("transaction_id", created.ID),
		zap.Int("related_id", in.RelatedID),
		zap.Int("amount", created.Amount))
	return created, nil
}
