package ledgerservice

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

var now = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// ledger is an in-memory store behind the repository mocks. Begin snapshots
// it and restores the snapshot when the unit of work fails, like a rollback.
type ledger struct {
	users      []*domain.User
	txs        []domain.Transaction
	promotions []*domain.Promotion
	events     []*domain.Event
}

type snapshot struct {
	points  []int
	txs     []domain.Transaction
	usedBy  [][]int
	awarded []int
}

func newLedger() *ledger {
	window := func(p *domain.Promotion) *domain.Promotion {
		p.StartTime, p.EndTime = now.Add(-time.Hour), now.Add(time.Hour)
		return p
	}
	return &ledger{
		users: []*domain.User{
			{ID: 1, Utorid: "buyer001", Role: domain.RoleRegular, Verified: true},
			{ID: 2, Utorid: "friend01", Role: domain.RoleRegular, Verified: true},
			{ID: 3, Utorid: "unverif1", Role: domain.RoleRegular},
			{ID: 4, Utorid: "cashier1", Role: domain.RoleCashier, Verified: true},
			{ID: 5, Utorid: "shady001", Role: domain.RoleCashier, Verified: true, Suspicious: true},
			{ID: 6, Utorid: "manager1", Role: domain.RoleManager, Verified: true},
		},
		promotions: []*domain.Promotion{
			window(&domain.Promotion{
				ID: 1, Type: domain.PromotionAutomatic, Rate: ptr(0.10), Points: ptr(5),
				MinSpending: decimal.NewNullDecimal(decimal.NewFromInt(20)),
			}),
			window(&domain.Promotion{ID: 2, Type: domain.PromotionOneTime, Points: ptr(100)}),
			window(&domain.Promotion{
				ID: 3, Type: domain.PromotionAutomatic, Points: ptr(50),
				MinSpending: decimal.NewNullDecimal(decimal.NewFromInt(200)),
			}),
			{ID: 4, Type: domain.PromotionAutomatic, Points: ptr(10), StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour)},
		},
		events: []*domain.Event{
			{ID: 1, PointsAllocated: 100, PointsAwarded: 90, Organizers: []int{2}, Guests: []int{1}},
			{ID: 2, PointsAllocated: 100, PointsAwarded: 70, Organizers: []int{2}, Guests: []int{1, 3, 4}},
			{ID: 3, PointsAllocated: 100, Organizers: []int{}, Guests: []int{}},
		},
	}
}

func (l *ledger) snapshot() snapshot {
	var s snapshot
	for _, u := range l.users {
		s.points = append(s.points, u.Points)
	}
	s.txs = slices.Clone(l.txs)
	for _, p := range l.promotions {
		s.usedBy = append(s.usedBy, slices.Clone(p.UsedBy))
	}
	for _, e := range l.events {
		s.awarded = append(s.awarded, e.PointsAwarded)
	}
	return s
}

func (l *ledger) restore(s snapshot) {
	for i, u := range l.users {
		u.Points = s.points[i]
	}
	l.txs = s.txs
	for i, p := range l.promotions {
		p.UsedBy = s.usedBy[i]
	}
	for i, e := range l.events {
		e.PointsAwarded = s.awarded[i]
	}
}

func (l *ledger) user(utorid string) *domain.User {
	for _, u := range l.users {
		if u.Utorid == utorid {
			return u
		}
	}
	return nil
}

func (l *ledger) userByID(id int) *domain.User {
	for _, u := range l.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (l *ledger) tx(id int) *domain.Transaction {
	for i := range l.txs {
		if l.txs[i].ID == id {
			return &l.txs[i]
		}
	}
	return nil
}

func (l *ledger) event(id int) *domain.Event {
	for _, e := range l.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (l *ledger) points(utorid string) int {
	return l.user(utorid).Points
}

func (l *ledger) totalPoints() int {
	var total int
	for _, u := range l.users {
		total += u.Points
	}
	return total
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func newLedgerService(t *testing.T, l *ledger) *Service {
	ctrl := gomock.NewController(t)
	txManager := pg.NewMockTXManager(ctrl)
	users := NewMockUserRepo(ctrl)
	transactions := NewMockTransactionRepo(ctrl)
	promotions := NewMockPromotionRepo(ctrl)
	events := NewMockEventRepo(ctrl)

	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		saved := l.snapshot()
		if err := fn(ctx); err != nil {
			l.restore(saved)
			return err
		}
		return nil
	}).AnyTimes()

	findUser := func(_ context.Context, utorid string) (*domain.User, error) {
		return copyUser(l.user(utorid)), nil
	}
	users.EXPECT().FindByUtorid(gomock.Any(), gomock.Any()).DoAndReturn(findUser).AnyTimes()
	users.EXPECT().LockByUtorid(gomock.Any(), gomock.Any()).DoAndReturn(findUser).AnyTimes()
	users.EXPECT().LockByID(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id int) (*domain.User, error) {
		return copyUser(l.userByID(id)), nil
	}).AnyTimes()
	users.EXPECT().AddPoints(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id, delta int) (int, error) {
		u := l.userByID(id)
		if u.Points+delta < 0 {
			return 0, errors.New("points check constraint violated")
		}
		u.Points += delta
		return u.Points, nil
	}).AnyTimes()

	findTx := func(_ context.Context, id int) (*domain.Transaction, error) {
		if tx := l.tx(id); tx != nil {
			c := *tx
			return &c, nil
		}
		return nil, nil
	}
	transactions.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
		tx.ID = len(l.txs) + 1
		tx.CreatedAt = now
		l.txs = append(l.txs, *tx)
		return tx, nil
	}).AnyTimes()
	transactions.EXPECT().FindByID(gomock.Any(), gomock.Any()).DoAndReturn(findTx).AnyTimes()
	transactions.EXPECT().LockByID(gomock.Any(), gomock.Any()).DoAndReturn(findTx).AnyTimes()
	transactions.EXPECT().SetSuspicious(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id int, suspicious bool) error {
		l.tx(id).Suspicious = suspicious
		return nil
	}).AnyTimes()
	transactions.EXPECT().MarkProcessed(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id, cashierID int) (bool, error) {
		tx := l.tx(id)
		if tx.Type != domain.TransactionRedemption || tx.Related != nil {
			return false, nil
		}
		tx.Related = domain.ProcessedBy{CashierID: cashierID}
		return true, nil
	}).AnyTimes()

	promotions.EXPECT().FindByIDs(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ids []int) ([]domain.Promotion, error) {
		var found []domain.Promotion
		for _, p := range l.promotions {
			if slices.Contains(ids, p.ID) {
				c := *p
				c.UsedBy = slices.Clone(p.UsedBy)
				found = append(found, c)
			}
		}
		return found, nil
	}).AnyTimes()
	promotions.EXPECT().MarkUsed(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, promotionID, userID int) (bool, error) {
		for _, p := range l.promotions {
			if p.ID != promotionID {
				continue
			}
			if slices.Contains(p.UsedBy, userID) {
				return false, nil
			}
			p.UsedBy = append(p.UsedBy, userID)
			return true, nil
		}
		return false, errors.New("foreign key violation")
	}).AnyTimes()

	events.EXPECT().LockByID(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id int) (*domain.Event, error) {
		e := l.event(id)
		if e == nil {
			return nil, nil
		}
		c := *e
		c.Guests, c.Organizers = slices.Clone(e.Guests), slices.Clone(e.Organizers)
		return &c, nil
	}).AnyTimes()
	events.EXPECT().Guests(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id int) ([]domain.User, error) {
		var guests []domain.User
		for _, gid := range l.event(id).Guests {
			u := l.userByID(gid)
			guests = append(guests, domain.User{ID: u.ID, Utorid: u.Utorid})
		}
		return guests, nil
	}).AnyTimes()
	events.EXPECT().AddAwarded(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id, amount int) (bool, error) {
		e := l.event(id)
		if e.PointsAwarded+amount > e.PointsAllocated {
			return false, nil
		}
		e.PointsAwarded += amount
		return true, nil
	}).AnyTimes()

	service := New(txManager, users, transactions, promotions, events)
	service.now = func() time.Time { return now }
	return service
}

// assertLedgerConsistent checks every user's stored points against the sum
// of their live transaction deltas.
func assertLedgerConsistent(t *testing.T, l *ledger) {
	t.Helper()
	for _, u := range l.users {
		var owned []domain.Transaction
		for _, tx := range l.txs {
			if tx.Utorid == u.Utorid {
				owned = append(owned, tx)
			}
		}
		assert.Equal(t, domain.LedgerBalance(owned), u.Points, "ledger of %s", u.Utorid)
	}
}

// seed gives utorid points through an ordinary purchase and returns the
// purchase's transaction id.
func seed(t *testing.T, s *Service, utorid, spent string) int {
	t.Helper()
	tx, err := s.CreatePurchase(context.Background(), PurchaseInput{
		Utorid: utorid, Spent: decimal.RequireFromString(spent), CreatedBy: "cashier1",
	})
	if err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
	return tx.ID
}
