package userrepo

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const userColumns = `id, utorid, name, email, password_hash, role, points, verified, suspicious,
	COALESCE(reset_token, ''), reset_expires_at, created_at, last_login`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	err := row.Scan(&user.ID, &user.Utorid, &user.Name, &user.Email, &user.PasswordHash, &role, &user.Points,
		&user.Verified, &user.Suspicious, &user.ResetToken, &user.ResetExpiresAt, &user.CreatedAt, &user.LastLogin)
	if err != nil {
		return nil, err
	}
	if user.Role, err = domain.ParseRole(role); err != nil {
		return nil, err
	}
	return &user, nil
}

func (repo *Repository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(repo.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (repo *Repository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	return repo.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (repo *Repository) FindByUtorid(ctx context.Context, utorid string) (*domain.User, error) {
	return repo.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE utorid = $1", utorid)
}

func (repo *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return repo.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (repo *Repository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return repo.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE reset_token = $1", token)
}

// LockByID reads the user and holds its row lock until the surrounding
// transaction ends.
func (repo *Repository) LockByID(ctx context.Context, id int) (*domain.User, error) {
	return repo.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1 FOR UPDATE", id)
}

func (repo *Repository) LockByUtorid(ctx context.Context, utorid string) (*domain.User, error) {
	return repo.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE utorid = $1 FOR UPDATE", utorid)
}

// AddPoints applies delta to the stored balance and returns the new balance.
func (repo *Repository) AddPoints(ctx context.Context, userID int, delta int) (int, error) {
	query := `
		UPDATE users
		SET points = points + $1
		WHERE id = $2
		RETURNING points
	`
	var points int
	err := repo.db.QueryRow(ctx, query, delta, userID).Scan(&points)
	if err != nil {
		zap.L().Error("can't update user points", zap.Int("user_id", userID), zap.Error(err))
		return 0, err
	}
	return points, nil
}

func (repo *Repository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (utorid, name, email, role, reset_token, reset_expires_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id, created_at
	`
	err := repo.db.QueryRow(ctx, query, user.Utorid, user.Name, user.Email, user.Role.String(), user.ResetToken, user.ResetExpiresAt).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		zap.L().Error("can't save user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// Update writes the manager-editable fields of user.
func (repo *Repository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		UPDATE users
		SET name = $1, email = $2, role = $3, verified = $4, suspicious = $5
		WHERE id = $6
	`
	_, err := repo.db.Exec(ctx, query, user.Name, user.Email, user.Role.String(), user.Verified, user.Suspicious, user.ID)
	if err != nil {
		zap.L().Error("can't update user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (repo *Repository) SetResetToken(ctx context.Context, userID int, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $1, reset_expires_at = $2
		WHERE id = $3
	`
	if _, err := repo.db.Exec(ctx, query, token, expiresAt, userID); err != nil {
		zap.L().Error("can't store reset token", zap.Error(err))
		return err
	}
	return nil
}

// SetPassword stores a new hash and consumes any outstanding reset token.
func (repo *Repository) SetPassword(ctx context.Context, userID int, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, reset_token = NULL, reset_expires_at = NULL
		WHERE id = $2
	`
	if _, err := repo.db.Exec(ctx, query, passwordHash, userID); err != nil {
		zap.L().Error("can't update password", zap.Error(err))
		return err
	}
	return nil
}

func (repo *Repository) TouchLogin(ctx context.Context, userID int, at time.Time) error {
	if _, err := repo.db.Exec(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", at, userID); err != nil {
		zap.L().Error("can't update last login", zap.Error(err))
		return err
	}
	return nil
}
