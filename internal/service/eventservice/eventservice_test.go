package eventservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/pg"
	"github.com/GlebRadaev/loyalty/internal/service/ledgerservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

var now = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

type mocks struct {
	repo   *MockRepo
	users  *MockUserRepo
	ledger *MockLedger
}

func NewMock(t *testing.T) (*Service, mocks) {
	ctrl := gomock.NewController(t)
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	}).AnyTimes()

	m := mocks{repo: NewMockRepo(ctrl), users: NewMockUserRepo(ctrl), ledger: NewMockLedger(ctrl)}
	service := New(txManager, m.repo, m.users, m.ledger)
	service.now = func() time.Time { return now }
	return service, m
}

func capacity(n int) *int { return &n }

func TestCreate(t *testing.T) {
	valid := CreateInput{Name: "Hackathon", Location: "BA 1160", StartTime: now.Add(time.Hour), EndTime: now.Add(3 * time.Hour), Points: 500}

	tests := []struct {
		name          string
		change        func(in *CreateInput)
		expectedError error
	}{
		{name: "Valid event", change: func(*CreateInput) {}},
		{name: "Missing name", change: func(in *CreateInput) { in.Name = "" }, expectedError: ErrInvalidName},
		{name: "Ends before it starts", change: func(in *CreateInput) { in.EndTime = now }, expectedError: ErrInvalidWindow},
		{name: "Starts in the past", change: func(in *CreateInput) { in.StartTime = now.Add(-time.Hour) }, expectedError: ErrStartInPast},
		{name: "Zero capacity", change: func(in *CreateInput) { in.Capacity = capacity(0) }, expectedError: ErrInvalidCapacity},
		{name: "No points", change: func(in *CreateInput) { in.Points = 0 }, expectedError: ErrInvalidPoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			in := valid
			tt.change(&in)
			if tt.expectedError == nil {
				m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *domain.Event) (*domain.Event, error) {
					e.ID = 1
					return e, nil
				})
			}

			e, err := service.Create(context.Background(), in)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 500, e.PointsAllocated)
			assert.False(t, e.Published)
		})
	}
}

func TestGet(t *testing.T) {
	draft := &domain.Event{ID: 1, Organizers: []int{2}}
	published := &domain.Event{ID: 1, Published: true}

	tests := []struct {
		name          string
		event         *domain.Event
		principal     domain.Principal
		expectedError error
	}{
		{name: "Published event for regular user", event: published, principal: domain.Principal{ID: 1}},
		{name: "Draft is hidden from regular user", event: draft, principal: domain.Principal{ID: 1}, expectedError: ErrEventNotFound},
		{name: "Draft is visible to organizer", event: draft, principal: domain.Principal{ID: 2}},
		{name: "Draft is visible to manager", event: draft, principal: domain.Principal{ID: 9, Role: domain.RoleManager}},
		{name: "Missing event", event: nil, principal: domain.Principal{ID: 9, Role: domain.RoleManager}, expectedError: ErrEventNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(tt.event, nil)

			e, err := service.Get(context.Background(), 1, tt.principal)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.event, e)
		})
	}
}

func TestPublish(t *testing.T) {
	t.Run("Draft becomes published", func(t *testing.T) {
		service, m := NewMock(t)
		m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(&domain.Event{ID: 1}, nil)
		m.repo.EXPECT().Publish(gomock.Any(), 1).Return(nil)

		e, err := service.Publish(context.Background(), 1)
		assert.NoError(t, err)
		assert.True(t, e.Published)
	})

	t.Run("Publishing twice is a no-op", func(t *testing.T) {
		service, m := NewMock(t)
		m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(&domain.Event{ID: 1, Published: true}, nil)

		_, err := service.Publish(context.Background(), 1)
		assert.NoError(t, err)
	})

	t.Run("Missing event", func(t *testing.T) {
		service, m := NewMock(t)
		m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(nil, nil)

		_, err := service.Publish(context.Background(), 1)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestAddOrganizer(t *testing.T) {
	tests := []struct {
		name          string
		event         *domain.Event
		expectedError error
		expectAdd     bool
	}{
		{name: "New organizer", event: &domain.Event{ID: 1, EndTime: now.Add(time.Hour)}, expectAdd: true},
		{
			name:          "Guest cannot organize",
			event:         &domain.Event{ID: 1, EndTime: now.Add(time.Hour), Guests: []int{5}},
			expectedError: ErrGuestCannotOrganize,
		},
		{name: "Ended event", event: &domain.Event{ID: 1, EndTime: now}, expectedError: ErrEventEnded},
		{name: "Already an organizer", event: &domain.Event{ID: 1, EndTime: now.Add(time.Hour), Organizers: []int{5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			m.repo.EXPECT().LockByID(gomock.Any(), 1).Return(tt.event, nil)
			m.users.EXPECT().FindByUtorid(gomock.Any(), "org00001").Return(&domain.User{ID: 5, Utorid: "org00001"}, nil)
			if tt.expectAdd {
				m.repo.EXPECT().AddOrganizer(gomock.Any(), 1, 5).Return(nil)
			}

			e, err := service.AddOrganizer(context.Background(), 1, "org00001")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.True(t, e.IsOrganizer(5))
		})
	}
}

func TestAddGuest(t *testing.T) {
	manager := domain.Principal{ID: 9, Utorid: "manager1", Role: domain.RoleManager}
	self := domain.Principal{ID: 5, Utorid: "guest001", Role: domain.RoleRegular}
	open := func() *domain.Event {
		return &domain.Event{ID: 1, Published: true, EndTime: now.Add(time.Hour), Organizers: []int{2}, Guests: []int{3}}
	}

	tests := []struct {
		name          string
		event         *domain.Event
		utorid        string
		actor         domain.Principal
		lookupUser    bool
		expectAdd     bool
		expectedError error
	}{
		{name: "User adds themselves", event: open(), utorid: "guest001", actor: self, lookupUser: true, expectAdd: true},
		{name: "Manager adds a user", event: open(), utorid: "guest001", actor: manager, lookupUser: true, expectAdd: true},
		{
			name:          "Regular user adds someone else",
			event:         open(),
			utorid:        "other001",
			actor:         self,
			expectedError: ErrSelfOnly,
		},
		{
			name: "Regular user and unpublished event",
			event: func() *domain.Event {
				e := open()
				e.Published = false
				return e
			}(),
			utorid:        "guest001",
			actor:         self,
			expectedError: ErrEventNotFound,
		},
		{
			name: "Ended event",
			event: func() *domain.Event {
				e := open()
				e.EndTime = now
				return e
			}(),
			utorid:        "guest001",
			actor:         self,
			lookupUser:    true,
			expectedError: ErrEventEnded,
		},
		{
			name: "Full event",
			event: func() *domain.Event {
				e := open()
				e.Capacity = capacity(1)
				return e
			}(),
			utorid:        "guest001",
			actor:         self,
			lookupUser:    true,
			expectedError: ErrEventFull,
		},
		{
			name: "Already a guest",
			event: func() *domain.Event {
				e := open()
				e.Guests = append(e.Guests, 5)
				return e
			}(),
			utorid:        "guest001",
			actor:         manager,
			lookupUser:    true,
			expectedError: ErrAlreadyGuest,
		},
		{
			name: "Organizer cannot be a guest",
			event: func() *domain.Event {
				e := open()
				e.Organizers = append(e.Organizers, 5)
				return e
			}(),
			utorid:        "guest001",
			actor:         manager,
			lookupUser:    true,
			expectedError: ErrOrganizerCannotGuest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			m.repo.EXPECT().LockByID(gomock.Any(), 1).Return(tt.event, nil)
			if tt.lookupUser {
				m.users.EXPECT().FindByUtorid(gomock.Any(), tt.utorid).Return(&domain.User{ID: 5, Utorid: tt.utorid}, nil)
			}
			if tt.expectAdd {
				m.repo.EXPECT().AddGuest(gomock.Any(), 1, 5).Return(nil)
			}

			e, err := service.AddGuest(context.Background(), 1, tt.utorid, tt.actor)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, e)
				return
			}
			require.NoError(t, err)
			assert.True(t, e.IsGuest(5))
		})
	}
}

func TestAddGuest_ErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrEventEnded, domain.ErrGone)
	assert.ErrorIs(t, ErrEventFull, domain.ErrGone)
	assert.ErrorIs(t, ErrAlreadyGuest, domain.ErrConflict)
	assert.ErrorIs(t, ErrOrganizerCannotGuest, domain.ErrInvalidInput)
	assert.ErrorIs(t, ErrSelfOnly, domain.ErrForbidden)
}

func TestRemoveGuest(t *testing.T) {
	t.Run("Guest removed", func(t *testing.T) {
		service, m := NewMock(t)
		m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(&domain.Event{ID: 1}, nil)
		m.repo.EXPECT().RemoveGuest(gomock.Any(), 1, 5).Return(true, nil)

		assert.NoError(t, service.RemoveGuest(context.Background(), 1, 5))
	})

	t.Run("Not a guest", func(t *testing.T) {
		service, m := NewMock(t)
		m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(&domain.Event{ID: 1}, nil)
		m.repo.EXPECT().RemoveGuest(gomock.Any(), 1, 5).Return(false, nil)

		assert.ErrorIs(t, service.RemoveGuest(context.Background(), 1, 5), ErrGuestNotFound)
	})

	t.Run("Store failure", func(t *testing.T) {
		service, m := NewMock(t)
		m.repo.EXPECT().FindByID(gomock.Any(), 1).Return(nil, errors.New("db error"))

		assert.EqualError(t, service.RemoveGuest(context.Background(), 1, 5), "db error")
	})
}

func TestAward(t *testing.T) {
	service, m := NewMock(t)
	in := ledgerservice.EventAwardInput{EventID: 1, Amount: 10, Actor: domain.Principal{ID: 9, Role: domain.RoleManager}}
	m.ledger.EXPECT().CreateEventAward(gomock.Any(), in).Return([]domain.Transaction{{ID: 3}}, nil)

	awarded, err := service.Award(context.Background(), in)
	assert.NoError(t, err)
	assert.Len(t, awarded, 1)
}
