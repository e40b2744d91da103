package ledgerservice

import (
	"context"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"go.uber.org/zap"
)

type EventAwardInput struct {
	EventID int
	Amount  int
	// Utorid names a single guest. Empty awards every guest.
	Utorid string
	Remark string
	Actor  domain.Principal
}

// CreateEventAward pays points out of an event's allocation. The event row
// stays locked for the whole award, so concurrent awards cannot both spend
// the same remaining points, and an all-guest award commits as one batch.
func (s *Service) CreateEventAward(ctx context.Context, in EventAwardInput) ([]domain.Transaction, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var awarded []domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		event, err := s.events.LockByID(ctx, in.EventID)
		if err != nil {
			return err
		}
		if event == nil {
			return ErrEventNotFound
		}
		if !in.Actor.Role.AtLeast(domain.RoleManager) && !event.IsOrganizer(in.Actor.ID) {
			return ErrNotOrganizer
		}

		recipients, err := s.awardRecipients(ctx, event, in.Utorid)
		if err != nil {
			return err
		}
		// Dividing first keeps a huge amount from wrapping the product.
		if in.Amount > event.RemainingPoints()/len(recipients) {
			return ErrEventPointsExceeded
		}
		total := in.Amount * len(recipients)
		ok, err := s.events.AddAwarded(ctx, event.ID, total)
		if err != nil {
			return err
		}
		if !ok {
			return ErrEventPointsExceeded
		}

		awarded = make([]domain.Transaction, 0, len(recipients))
		for i := range recipients {
			created, err := s.transactions.Create(ctx, &domain.Transaction{
				Type:      domain.TransactionEvent,
				Utorid:    recipients[i].Utorid,
				Amount:    in.Amount,
				Related:   domain.AwardingEvent{EventID: event.ID},
				Remark:    in.Remark,
				CreatedBy: in.Actor.Utorid,
			})
			if err != nil {
				return err
			}
			if err := s.credit(ctx, &recipients[i], in.Amount); err != nil {
				return err
			}
			awarded = append(awarded, *created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("event points awarded",
		zap.Int("event_id", in.EventID),
		zap.Int("recipients", len(awarded)),
		zap.Int("amount", in.Amount))
	return awarded, nil
}

func (s *Service) awardRecipients(ctx context.Context, event *domain.Event, utorid string) ([]domain.User, error) {
	if utorid == "" {
		guests, err := s.events.Guests(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		if len(guests) == 0 {
			return nil, ErrNoGuests
		}
		return guests, nil
	}

	user, err := s.users.FindByUtorid(ctx, utorid)
	if err != nil {
		return nil, err
	}
	if user == nil || !event.IsGuest(user.ID) {
		return nil, ErrNotGuest
	}
	return []domain.User{*user}, nil
}
