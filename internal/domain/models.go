package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID             int        `db:"id"`
	Utorid         string     `db:"utorid"`
	Name           string     `db:"name"`
	Email          string     `db:"email"`
	PasswordHash   string     `db:"password_hash"`
	Role           Role       `db:"role"`
	Points         int        `db:"points"`
	Verified       bool       `db:"verified"`
	Suspicious     bool       `db:"suspicious"`
	ResetToken     string     `db:"reset_token"`
	ResetExpiresAt *time.Time `db:"reset_expires_at"`
	CreatedAt      time.Time  `db:"created_at"`
	LastLogin      *time.Time `db:"last_login"`
}

type PromotionType string

const (
	PromotionAutomatic PromotionType = "automatic"
	PromotionOneTime   PromotionType = "one-time"
)

type Promotion struct {
	ID          int                 `db:"id"`
	Name        string              `db:"name"`
	Description string              `db:"description"`
	Type        PromotionType       `db:"type"`
	StartTime   time.Time           `db:"start_time"`
	EndTime     time.Time           `db:"end_time"`
	MinSpending decimal.NullDecimal `db:"min_spending"`
	Rate        *float64            `db:"rate"`
	Points      *int                `db:"points"`
	// UsedBy holds the ids of users who consumed a one-time promotion.
	UsedBy []int `db:"used_by"`
}

// Active reports whether now falls in [StartTime, EndTime).
func (p *Promotion) Active(now time.Time) bool {
	return !now.Before(p.StartTime) && now.Before(p.EndTime)
}

func (p *Promotion) UsedByUser(userID int) bool {
	return slices.Contains(p.UsedBy, userID)
}

type Event struct {
	ID              int       `db:"id"`
	Name            string    `db:"name"`
	Description     string    `db:"description"`
	Location        string    `db:"location"`
	StartTime       time.Time `db:"start_time"`
	EndTime         time.Time `db:"end_time"`
	Capacity        *int      `db:"capacity"`
	PointsAllocated int       `db:"points_allocated"`
	PointsAwarded   int       `db:"points_awarded"`
	Published       bool      `db:"published"`
	Organizers      []int     `db:"organizers"`
	Guests          []int     `db:"guests"`
}

// RemainingPoints is what can still be awarded from the event's allocation.
func (e *Event) RemainingPoints() int {
	return e.PointsAllocated - e.PointsAwarded
}

func (e *Event) Ended(now time.Time) bool {
	return !now.Before(e.EndTime)
}

func (e *Event) Full() bool {
	return e.Capacity != nil && len(e.Guests) >= *e.Capacity
}

func (e *Event) IsOrganizer(userID int) bool {
	return slices.Contains(e.Organizers, userID)
}

func (e *Event) IsGuest(userID int) bool {
	return slices.Contains(e.Guests, userID)
}
