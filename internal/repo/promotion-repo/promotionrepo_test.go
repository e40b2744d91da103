package promotionrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var (
	start = time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	end   = start.Add(30 * 24 * time.Hour)
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

func promotionRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "description", "type", "start_time", "end_time",
		"min_spending", "rate", "points", "used_by"})
}

func ptr[T any](v T) *T { return &v }

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)
	minSpending := decimal.NewNullDecimal(decimal.NewFromInt(20))

	tests := []struct {
		name      string
		id        int
		mockSetup func()
		expectErr bool
		result    *domain.Promotion
	}{
		{
			name: "Promotion found",
			id:   1,
			mockSetup: func() {
				rows := promotionRows().AddRow(1, "Fall", "", "one-time", start, end, minSpending, ptr(0.1), ptr(5), []int{3})
				mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).WithArgs(1).WillReturnRows(rows)
			},
			result: &domain.Promotion{
				ID: 1, Name: "Fall", Type: domain.PromotionOneTime, StartTime: start, EndTime: end,
				MinSpending: minSpending, Rate: ptr(0.1), Points: ptr(5), UsedBy: []int{3},
			},
		},
		{
			name: "Promotion not found",
			id:   2,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).WithArgs(2).WillReturnError(pgx.ErrNoRows)
			},
			result: nil,
		},
		{
			name: "Database error",
			id:   3,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).WithArgs(3).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindByID(context.Background(), tt.id)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FindByIDs(t *testing.T) {
	repo, mock := NewMock(t)

	rows := promotionRows().
		AddRow(1, "A", "", "automatic", start, end, decimal.NullDecimal{}, nil, ptr(10), []int{}).
		AddRow(2, "B", "", "automatic", start, end, decimal.NullDecimal{}, ptr(0.05), nil, []int{})
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = ANY($1) ORDER BY p.id")).
		WithArgs([]int{1, 2, 5}).
		WillReturnRows(rows)

	promotions, err := repo.FindByIDs(context.Background(), []int{1, 2, 5})
	assert.NoError(t, err)
	assert.Len(t, promotions, 2)
	assert.Nil(t, promotions[0].Rate)
	assert.Nil(t, promotions[1].Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("INSERT INTO promotions (name, description, type, start_time, end_time, min_spending, rate, points)")
	promotion := &domain.Promotion{Name: "Fall", Type: domain.PromotionAutomatic, StartTime: start, EndTime: end, Points: ptr(5)}

	mock.ExpectQuery(query).
		WithArgs("Fall", "", "automatic", start, end, pgxmock.AnyArg(), (*float64)(nil), ptr(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(4))

	result, err := repo.Create(context.Background(), promotion)
	assert.NoError(t, err)
	assert.Equal(t, 4, result.ID)
	assert.Equal(t, []int{}, result.UsedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkUsed(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("INSERT INTO promotion_usage (promotion_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING")

	mock.ExpectExec(query).WithArgs(1, 3).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(query).WithArgs(1, 3).WillReturnResult(pgxmock.NewResult("INSERT", 0))

	used, err := repo.MarkUsed(context.Background(), 1, 3)
	assert.NoError(t, err)
	assert.True(t, used)

	used, err = repo.MarkUsed(context.Background(), 1, 3)
	assert.NoError(t, err)
	assert.False(t, used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListAndCount(t *testing.T) {
	repo, mock := NewMock(t)
	now := start.Add(time.Hour)
	filter := domain.PromotionFilter{ActiveAt: &now, UnusedBy: ptr(3), Page: 1, Limit: 10}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.start_time <= $1 AND p.end_time > $1 AND NOT (p.type = 'one-time'")).
		WithArgs(now, 3, 10, 0).
		WillReturnRows(promotionRows().AddRow(1, "A", "", "automatic", start, end, decimal.NullDecimal{}, nil, ptr(10), []int{}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM promotions p WHERE")).
		WithArgs(now, 3).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	list, err := repo.List(context.Background(), filter)
	assert.NoError(t, err)
	assert.Len(t, list, 1)

	count, err := repo.Count(context.Background(), filter)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM promotions WHERE id = $1")).
		WithArgs(1).
		WillReturnError(errors.New("database error"))

	assert.Error(t, repo.Delete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(domain.PromotionFilter{Name: "fall", Type: domain.PromotionOneTime})
	assert.Equal(t, " WHERE p.name ILIKE $1 AND p.type = $2", where)
	assert.Equal(t, []any{"%fall%", "one-time"}, args)

	where, args = buildWhere(domain.PromotionFilter{})
	assert.Empty(t, where)
	assert.Nil(t, args)
}
