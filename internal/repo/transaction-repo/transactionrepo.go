package transactionrepo

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

const selectTransactions = `
	SELECT t.id, t.type, t.utorid, t.amount, t.spent, t.related_id,
		COALESCE((SELECT array_agg(tp.promotion_id ORDER BY tp.promotion_id)
			FROM transaction_promotions tp WHERE tp.transaction_id = t.id), '{}'),
		t.suspicious, t.remark, t.created_by, t.created_at
	FROM transactions t
`

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx        domain.Transaction
		txType    string
		relatedID *int
	)
	err := row.Scan(&tx.ID, &txType, &tx.Utorid, &tx.Amount, &tx.Spent, &relatedID, &tx.PromotionIDs,
		&tx.Suspicious, &tx.Remark, &tx.CreatedBy, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	var ok bool
	if tx.Type, ok = domain.ParseTransactionType(txType); !ok {
		return nil, fmt.Errorf("unknown transaction type %q", txType)
	}
	if relatedID != nil {
		tx.Related = domain.NewRelation(tx.Type, *relatedID)
	}
	return &tx, nil
}

func (r *Repository) findOne(ctx context.Context, query string, id int) (*domain.Transaction, error) {
	tx, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find transaction", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return tx, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Transaction, error) {
	return r.findOne(ctx, selectTransactions+"WHERE t.id = $1", id)
}

// LockByID reads the transaction and holds its row lock until the
// surrounding transaction ends.
func (r *Repository) LockByID(ctx context.Context, id int) (*domain.Transaction, error) {
	return r.findOne(ctx, selectTransactions+"WHERE t.id = $1 FOR UPDATE OF t", id)
}

// Create stores tx and its promotion links. It joins the caller's database
// transaction when there is one.
func (r *Repository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	query := `
		INSERT INTO transactions (type, utorid, amount, spent, related_id, suspicious, remark, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		err := r.db.QueryRow(ctx, query, string(tx.Type), tx.Utorid, tx.Amount, tx.Spent, domain.RelatedIDOf(tx.Related),
			tx.Suspicious, tx.Remark, tx.CreatedBy).Scan(&tx.ID, &tx.CreatedAt)
		if err != nil {
			zap.L().Error("can't save transaction", zap.Error(err))
			return err
		}
		if len(tx.PromotionIDs) == 0 {
			return nil
		}

		_, err = r.db.Exec(ctx, `
			INSERT INTO transaction_promotions (transaction_id, promotion_id)
			SELECT $1, unnest($2::int[])
		`, tx.ID, tx.PromotionIDs)
		if err != nil {
			zap.L().Error("can't save transaction promotions", zap.Int("transaction_id", tx.ID), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *Repository) SetSuspicious(ctx context.Context, id int, suspicious bool) error {
	if _, err := r.db.Exec(ctx, "UPDATE transactions SET suspicious = $1 WHERE id = $2", suspicious, id); err != nil {
		zap.L().Error("can't update suspicious flag", zap.Int("id", id), zap.Error(err))
		return err
	}
	return nil
}

// MarkProcessed records the cashier on a pending redemption. It reports
// false when the row was not a pending redemption.
func (r *Repository) MarkProcessed(ctx context.Context, id int, cashierID int) (bool, error) {
	query := `
		UPDATE transactions
		SET related_id = $1
		WHERE id = $2 AND type = 'redemption' AND related_id IS NULL
	`
	tag, err := r.db.Exec(ctx, query, cashierID, id)
	if err != nil {
		zap.L().Error("can't mark redemption processed", zap.Int("id", id), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	where, args := buildWhere(filter)
	query := selectTransactions + "JOIN users u ON u.utorid = t.utorid" + where + orderBy(filter.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			zap.L().Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("failed to iterate transactions", zap.Error(err))
		return nil, err
	}
	return transactions, nil
}

func (r *Repository) Count(ctx context.Context, filter domain.TransactionFilter) (int, error) {
	where, args := buildWhere(filter)
	query := "SELECT COUNT(*) FROM transactions t JOIN users u ON u.utorid = t.utorid" + where

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		zap.L().Error("failed to count transactions", zap.Error(err))
		return 0, err
	}
	return count, nil
}

type conditions struct {
	clauses []string
	args    []any
}

// arg binds v and returns its placeholder.
func (c *conditions) arg(v any) string {
	c.args = append(c.args, v)
	return "$" + strconv.Itoa(len(c.args))
}

func (c *conditions) add(clause string) {
	c.clauses = append(c.clauses, clause)
}

func buildWhere(f domain.TransactionFilter) (string, []any) {
	var c conditions

	if f.Owner != "" {
		c.add("t.utorid = " + c.arg(f.Owner))
	}
	if f.Name != "" {
		p := c.arg("%" + f.Name + "%")
		c.add("(t.utorid ILIKE " + p + " OR u.name ILIKE " + p + ")")
	}
	if f.CreatedBy != "" {
		c.add("t.created_by ILIKE " + c.arg("%"+f.CreatedBy+"%"))
	}
	if f.Type != "" {
		c.add("t.type = " + c.arg(string(f.Type)))
	}
	if f.PromotionID != nil {
		c.add("EXISTS (SELECT 1 FROM transaction_promotions tp WHERE tp.transaction_id = t.id AND tp.promotion_id = " +
			c.arg(*f.PromotionID) + ")")
	}
	if f.RelatedID != nil {
		c.add("t.related_id = " + c.arg(*f.RelatedID))
	}
	if f.Suspicious != nil {
		c.add("t.suspicious = " + c.arg(*f.Suspicious))
	}
	if f.Amount != nil {
		p := c.arg(*f.Amount)
		switch {
		case f.Operator == domain.AmountGTE && f.Symmetric:
			c.add("(t.amount >= " + p + " OR t.amount <= -" + p + "::int)")
		case f.Operator == domain.AmountLTE && f.Symmetric:
			c.add("(t.amount <= " + p + " AND t.amount >= -" + p + "::int)")
		case f.Operator == domain.AmountGTE:
			c.add("t.amount >= " + p)
		case f.Operator == domain.AmountLTE:
			c.add("t.amount <= " + p)
		}
	}

	if len(c.clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(c.clauses, " AND "), c.args
}

var sortColumns = map[domain.SortField]string{
	domain.SortByID:        "t.id",
	domain.SortByAmount:    "t.amount",
	domain.SortByCreatedAt: "t.created_at",
	domain.SortByType:      "t.type",
}

// orderBy renders the sort pairs; t.id always ends the list so pages are stable.
func orderBy(sort []domain.SortOrder) string {
	parts := make([]string, 0, len(sort)+1)
	byID := false
	for _, s := range sort {
		col, ok := sortColumns[s.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
		byID = byID || s.Field == domain.SortByID
	}
	if !byID {
		parts = append(parts, "t.id DESC")
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
