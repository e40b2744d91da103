package dto

import (
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
)

type CreateEventRequestDTO struct {
	Name        string    `json:"name" example:"Tech Talk"`
	Description string    `json:"description"`
	Location    string    `json:"location" example:"BA 2250"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Capacity    *int      `json:"capacity,omitempty" example:"200"`
	Points      int       `json:"points" example:"500"`
}

type EventUserRequestDTO struct {
	Utorid string `json:"utorid" example:"smithj12"`
}

type PublishEventRequestDTO struct {
	Published bool `json:"published" example:"true"`
}

// EventResponseDTO leaves out pointsAwarded and the guest list for callers
// who do not manage the event.
type EventResponseDTO struct {
	ID            int       `json:"id" example:"1"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Capacity      *int      `json:"capacity"`
	PointsRemain  int       `json:"pointsRemain" example:"400"`
	PointsAwarded *int      `json:"pointsAwarded,omitempty" example:"100"`
	Published     bool      `json:"published"`
	Organizers    []int     `json:"organizers"`
	Guests        []int     `json:"guests,omitempty"`
	NumGuests     int       `json:"numGuests"`
}

func NewEventResponse(e *domain.Event, full bool) EventResponseDTO {
	resp := EventResponseDTO{
		ID:           e.ID,
		Name:         e.Name,
		Description:  e.Description,
		Location:     e.Location,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		Capacity:     e.Capacity,
		PointsRemain: e.RemainingPoints(),
		Published:    e.Published,
		Organizers:   e.Organizers,
		NumGuests:    len(e.Guests),
	}
	if resp.Organizers == nil {
		resp.Organizers = []int{}
	}
	if full {
		awarded := e.PointsAwarded
		resp.PointsAwarded = &awarded
		resp.Guests = e.Guests
		if resp.Guests == nil {
			resp.Guests = []int{}
		}
	}
	return resp
}
