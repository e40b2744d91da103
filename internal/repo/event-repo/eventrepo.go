package eventrepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const selectEvents = `
	SELECT e.id, e.name, e.description, e.location, e.start_time, e.end_time, e.capacity,
		e.points_allocated, e.points_awarded, e.published,
		COALESCE((SELECT array_agg(o.user_id ORDER BY o.user_id) FROM event_organizers o WHERE o.event_id = e.id), '{}'),
		COALESCE((SELECT array_agg(g.user_id ORDER BY g.user_id) FROM event_guests g WHERE g.event_id = e.id), '{}')
	FROM events e
`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) findOne(ctx context.Context, query string, id int) (*domain.Event, error) {
	var e domain.Event
	err := r.db.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.Description, &e.Location, &e.StartTime, &e.EndTime,
		&e.Capacity, &e.PointsAllocated, &e.PointsAwarded, &e.Published, &e.Organizers, &e.Guests)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find event", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return &e, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Event, error) {
	return r.findOne(ctx, selectEvents+"WHERE e.id = $1", id)
}

// LockByID reads the event and holds its row lock until the surrounding
// transaction ends. Award and guest changes serialize on this lock.
func (r *Repository) LockByID(ctx context.Context, id int) (*domain.Event, error) {
	return r.findOne(ctx, selectEvents+"WHERE e.id = $1 FOR UPDATE OF e", id)
}

func (r *Repository) Create(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	query := `
		INSERT INTO events (name, description, location, start_time, end_time, capacity, points_allocated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, e.Name, e.Description, e.Location, e.StartTime, e.EndTime, e.Capacity, e.PointsAllocated).
		Scan(&e.ID)
	if err != nil {
		zap.L().Error("can't save event", zap.Error(err))
		return nil, err
	}
	e.Organizers, e.Guests = []int{}, []int{}
	return e, nil
}

func (r *Repository) Publish(ctx context.Context, id int) error {
	if _, err := r.db.Exec(ctx, "UPDATE events SET published = TRUE WHERE id = $1", id); err != nil {
		zap.L().Error("can't publish event", zap.Int("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) AddOrganizer(ctx context.Context, eventID, userID int) error {
	query := "INSERT INTO event_organizers (event_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING"
	if _, err := r.db.Exec(ctx, query, eventID, userID); err != nil {
		zap.L().Error("can't add organizer", zap.Int("event_id", eventID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) AddGuest(ctx context.Context, eventID, userID int) error {
	query := "INSERT INTO event_guests (event_id, user_id) VALUES ($1, $2)"
	if _, err := r.db.Exec(ctx, query, eventID, userID); err != nil {
		zap.L().Error("can't add guest", zap.Int("event_id", eventID), zap.Error(err))
		return err
	}
	return nil
}

// RemoveGuest reports false when userID was not on the guest list.
func (r *Repository) RemoveGuest(ctx context.Context, eventID, userID int) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM event_guests WHERE event_id = $1 AND user_id = $2", eventID, userID)
	if err != nil {
		zap.L().Error("can't remove guest", zap.Int("event_id", eventID), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Guests returns the id and utorid of every guest, ordered by id.
func (r *Repository) Guests(ctx context.Context, eventID int) ([]domain.User, error) {
	query := `
		SELECT u.id, u.utorid
		FROM event_guests g
		JOIN users u ON u.id = g.user_id
		WHERE g.event_id = $1
		ORDER BY u.id
	`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		zap.L().Error("failed to fetch guests", zap.Int("event_id", eventID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var guests []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Utorid); err != nil {
			zap.L().Error("failed to scan guest row", zap.Error(err))
			return nil, err
		}
		guests = append(guests, u)
	}
	return guests, rows.Err()
}

// AddAwarded raises points_awarded by amount unless that would exceed the
// allocation, in which case it reports false and changes nothing.
func (r *Repository) AddAwarded(ctx context.Context, eventID, amount int) (bool, error) {
	query := `
		UPDATE events
		SET points_awarded = points_awarded + $1
		WHERE id = $2 AND points_awarded + $1 <= points_allocated
	`
	tag, err := r.db.Exec(ctx, query, amount, eventID)
	if err != nil {
		zap.L().Error("can't update awarded points", zap.Int("event_id", eventID), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
