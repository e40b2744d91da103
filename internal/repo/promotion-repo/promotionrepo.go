package promotionrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const selectPromotions = `
	SELECT p.id, p.name, p.description, p.type, p.start_time, p.end_time, p.min_spending, p.rate, p.points,
		COALESCE((SELECT array_agg(pu.user_id ORDER BY pu.user_id)
			FROM promotion_usage pu WHERE pu.promotion_id = p.id), '{}')
	FROM promotions p
`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanPromotion(row pgx.Row) (*domain.Promotion, error) {
	var (
		p     domain.Promotion
		pType string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &pType, &p.StartTime, &p.EndTime, &p.MinSpending, &p.Rate, &p.Points, &p.UsedBy)
	if err != nil {
		return nil, err
	}
	p.Type = domain.PromotionType(pType)
	return &p, nil
}

func (r *Repository) Create(ctx context.Context, p *domain.Promotion) (*domain.Promotion, error) {
	query := `
		INSERT INTO promotions (name, description, type, start_time, end_time, min_spending, rate, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, p.Name, p.Description, string(p.Type), p.StartTime, p.EndTime, p.MinSpending, p.Rate, p.Points).
		Scan(&p.ID)
	if err != nil {
		zap.L().Error("can't save promotion", zap.Error(err))
		return nil, err
	}
	if p.UsedBy == nil {
		p.UsedBy = []int{}
	}
	return p, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Promotion, error) {
	p, err := scanPromotion(r.db.QueryRow(ctx, selectPromotions+"WHERE p.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find promotion", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// FindByIDs returns the promotions that exist among ids, ordered by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []int) ([]domain.Promotion, error) {
	return r.query(ctx, selectPromotions+"WHERE p.id = ANY($1) ORDER BY p.id", ids)
}

func (r *Repository) List(ctx context.Context, filter domain.PromotionFilter) ([]domain.Promotion, error) {
	where, args := buildWhere(filter)
	query := selectPromotions + where + fmt.Sprintf(" ORDER BY p.id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	return r.query(ctx, query, append(args, filter.Limit, filter.Offset())...)
}

func (r *Repository) Count(ctx context.Context, filter domain.PromotionFilter) (int, error) {
	where, args := buildWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM promotions p"+where, args...).Scan(&count); err != nil {
		zap.L().Error("failed to count promotions", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]domain.Promotion, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("can't get promotions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	promotions := []domain.Promotion{}
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			zap.L().Error("can't scan promotion row", zap.Error(err))
			return nil, err
		}
		promotions = append(promotions, *p)
	}
	return promotions, rows.Err()
}

// MarkUsed records that userID consumed the promotion. It reports false when
// the usage already existed.
func (r *Repository) MarkUsed(ctx context.Context, promotionID, userID int) (bool, error) {
	query := `
		INSERT INTO promotion_usage (promotion_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, promotionID, userID)
	if err != nil {
		zap.L().Error("can't mark promotion used", zap.Int("promotion_id", promotionID), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) Delete(ctx context.Context, id int) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM promotions WHERE id = $1", id); err != nil {
		zap.L().Error("can't delete promotion", zap.Int("id", id), zap.Error(err))
		return err
	}
	return nil
}

func buildWhere(f domain.PromotionFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Name != "" {
		clauses = append(clauses, "p.name ILIKE "+arg("%"+f.Name+"%"))
	}
	if f.Type != "" {
		clauses = append(clauses, "p.type = "+arg(string(f.Type)))
	}
	if f.ActiveAt != nil {
		p := arg(*f.ActiveAt)
		clauses = append(clauses, "p.start_time <= "+p+" AND p.end_time > "+p)
	}
	if f.UnusedBy != nil {
		clauses = append(clauses, "NOT (p.type = 'one-time' AND EXISTS (SELECT 1 FROM promotion_usage pu WHERE pu.promotion_id = p.id AND pu.user_id = "+
			arg(*f.UnusedBy)+"))")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
