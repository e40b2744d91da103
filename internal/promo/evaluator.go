// Package promo decides whether a promotion applies to a purchase and how
// many bonus points it is worth. It does no I/O.
package promo

import (
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/shopspring/decimal"
)

type Reason string

const (
	ReasonEligible    Reason = ""
	ReasonNotStarted  Reason = "promotion has not started"
	ReasonEnded       Reason = "promotion has ended"
	ReasonAlreadyUsed Reason = "promotion already used"
	ReasonMinSpending Reason = "minimum spending not met"
)

var hundred = decimal.NewFromInt(100)

// Candidate is the purchase a promotion is checked against.
type Candidate struct {
	Spent   decimal.Decimal
	BuyerID int
	Now     time.Time
}

type Result struct {
	Eligible    bool
	Reason      Reason
	BonusPoints int
}

// Evaluate checks the active window, one-time usage and minimum spending in
// that order and reports the first failure.
func Evaluate(p *domain.Promotion, c Candidate) Result {
	if c.Now.Before(p.StartTime) {
		return Result{Reason: ReasonNotStarted}
	}
	if !c.Now.Before(p.EndTime) {
		return Result{Reason: ReasonEnded}
	}
	if p.Type == domain.PromotionOneTime && p.UsedByUser(c.BuyerID) {
		return Result{Reason: ReasonAlreadyUsed}
	}
	if p.MinSpending.Valid && c.Spent.LessThan(p.MinSpending.Decimal) {
		return Result{Reason: ReasonMinSpending}
	}
	return Result{Eligible: true, BonusPoints: Bonus(p, c.Spent)}
}

// Bonus is round(spent * rate * 100) plus the flat points bonus.
func Bonus(p *domain.Promotion, spent decimal.Decimal) int {
	var bonus int
	if p.Rate != nil {
		bonus += int(spent.Mul(decimal.NewFromFloat(*p.Rate)).Mul(hundred).Round(0).IntPart())
	}
	if p.Points != nil {
		bonus += *p.Points
	}
	return bonus
}

// Visible reports whether a regular user may see p at all. Inactive and
// already consumed one-time promotions are hidden rather than flagged.
func Visible(p *domain.Promotion, userID int, now time.Time) bool {
	if !p.Active(now) {
		return false
	}
	return p.Type != domain.PromotionOneTime || !p.UsedByUser(userID)
}
