package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

var (
	adminID      = uuid.MustParse("00000000-0000-4000-8000-00000000000a")
	instructorID = uuid.MustParse("00000000-0000-4000-8000-00000000000b")
	clientID     = uuid.MustParse("00000000-0000-4000-8000-00000000000c")
	pendingID    = uuid.MustParse("00000000-0000-4000-8000-00000000000d")
	leadID       = uuid.MustParse("00000000-0000-4000-8000-00000000000e")
)

func zonePtr(z string) *models.Zone {
	v := models.Zone(z)
	return &v
}

// fakeProfiles is an in-memory ProfileStore
type fakeProfiles struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*models.Profile
	searched string
	filter   models.ProfileFilter
	// script, when set, answers GetByID calls in order
	script []func() (*models.Profile, error)
	calls  int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: map[uuid.UUID]*models.Profile{
		adminID:      {ID: adminID, FullName: "Ada Admin", Email: "ada@example.com", Role: models.RoleAdmin, Zone: zonePtr("north"), Status: models.StatusApproved},
		instructorID: {ID: instructorID, FullName: "Ivan Instructor", Email: "ivan@example.com", Role: models.RoleInstructor, Zone: zonePtr("north"), Status: models.StatusApproved},
		clientID:     {ID: clientID, FullName: "Cleo Client", Email: "cleo@example.com", Role: models.RoleClient, Zone: zonePtr("south"), Status: models.StatusApproved},
		pendingID:    {ID: pendingID, FullName: "Pat Pending", Email: "pat@example.com", Role: models.RoleClient, Status: models.StatusPending},
		leadID:       {ID: leadID, FullName: "Lea Lead", Email: "lea@example.com", Role: models.RoleTeamLeader, Zone: zonePtr("north"), Status: models.StatusApproved},
	}}
}

func (f *fakeProfiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.script) > 0 {
		next := f.script[0]
		if len(f.script) > 1 {
			f.script = f.script[1:]
		}
		return next()
	}
	p, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) Update(_ context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Phone != nil {
		p.Phone = u.Phone
	}
	if u.AvatarURL != nil {
		p.AvatarURL = u.AvatarURL
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) SetStatus(_ context.Context, id uuid.UUID, status models.Status) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	p.Status = status
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) List(_ context.Context, filter models.ProfileFilter) ([]*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	out := []*models.Profile{}
	for _, id := range []uuid.UUID{adminID, instructorID, clientID, pendingID} {
		p := f.rows[id]
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Zone != "" && (p.Zone == nil || *p.Zone != filter.Zone) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfiles) Search(_ context.Context, q string, _ uint64) ([]*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = q
	return []*models.Profile{f.rows[clientID]}, nil
}

// fakeClock is an in-memory ClockEventStore
type fakeClock struct {
	events []*models.ClockEvent
	since  time.Time
	userID *uuid.UUID
	err    error
}

func (f *fakeClock) Insert(_ context.Context, userID uuid.UUID, t models.ClockEventType, meta map[string]interface{}) (*models.ClockEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	e := &models.ClockEvent{ID: int64(len(f.events) + 1), UserID: userID, Type: t, TS: time.Now(), Meta: meta}
	f.events = append(f.events, e)
	return e, nil
}

func (f *fakeClock) Since(_ context.Context, since time.Time, userID *uuid.UUID, _ uint64) ([]*models.ClockEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.since = since
	f.userID = userID
	out := []*models.ClockEvent{}
	for i := len(f.events) - 1; i >= 0; i-- {
		e := f.events[i]
		if userID == nil || e.UserID == *userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeLocations is an in-memory LocationStore
type fakeLocations struct {
	rows map[uuid.UUID]*models.LiveLocation
}

func newFakeLocations() *fakeLocations {
	return &fakeLocations{rows: map[uuid.UUID]*models.LiveLocation{}}
}

func (f *fakeLocations) Upsert(_ context.Context, loc *models.LiveLocation) (*models.LiveLocation, error) {
	cp := *loc
	cp.UpdatedAt = time.Now()
	f.rows[loc.UserID] = &cp
	return &cp, nil
}

func (f *fakeLocations) Visible(_ context.Context) ([]*models.LiveLocation, error) {
	out := []*models.LiveLocation{}
	for _, l := range f.rows {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLocations) ForUser(_ context.Context, userID uuid.UUID) (*models.LiveLocation, error) {
	l, ok := f.rows[userID]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("location not found")
	}
	return l, nil
}

// fakeSchedules is an in-memory ScheduleStore applying transitions like the guarded update
type fakeSchedules struct {
	rows   map[uuid.UUID]*models.Schedule
	filter models.ScheduleFilter
}

func newFakeSchedules() *fakeSchedules {
	return &fakeSchedules{rows: map[uuid.UUID]*models.Schedule{}}
}

func (f *fakeSchedules) Create(_ context.Context, s *models.Schedule) (*models.Schedule, error) {
	cp := *s
	cp.ID = uuid.New()
	cp.Status = models.ScheduleAvailable
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeSchedules) GetByID(_ context.Context, id uuid.UUID) (*models.Schedule, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrScheduleNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSchedules) List(_ context.Context, filter models.ScheduleFilter) ([]*models.Schedule, error) {
	f.filter = filter
	out := []*models.Schedule{}
	for _, s := range f.rows {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeSchedules) Transition(_ context.Context, id uuid.UUID, t models.ScheduleTransition) (*models.Schedule, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrScheduleNotFound
	}
	if !t.Allows(s.Status) {
		return nil, apperrors.NewConflictError("cannot " + t.Name + ": schedule is " + string(s.Status))
	}
	s.Status = t.To
	switch {
	case t.ClearClient:
		s.ClientID = nil
	case t.ClientID != nil:
		c := *t.ClientID
		s.ClientID = &c
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSchedules) SetRoute(_ context.Context, id uuid.UUID, routeID *uuid.UUID) (*models.Schedule, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrScheduleNotFound
	}
	s.RouteID = routeID
	cp := *s
	return &cp, nil
}

func (f *fakeSchedules) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.rows[id]; !ok {
		return apperrors.ErrScheduleNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeAssignments records the last call of each kind
type fakeAssignments struct {
	filter       models.AssignmentFilter
	teamLeaderID *uuid.UUID
	zone         *models.Zone
	removed      []uuid.UUID
}

func (f *fakeAssignments) List(_ context.Context, filter models.AssignmentFilter) ([]*models.Assignment, error) {
	f.filter = filter
	return []*models.Assignment{}, nil
}

func (f *fakeAssignments) AssignInstructor(_ context.Context, instructorID uuid.UUID, teamLeaderID *uuid.UUID, zone *models.Zone) (*models.Assignment, error) {
	f.teamLeaderID, f.zone = teamLeaderID, zone
	return &models.Assignment{ID: uuid.New(), InstructorID: instructorID, TeamLeaderID: teamLeaderID, Zone: zone}, nil
}

func (f *fakeAssignments) AssignClient(_ context.Context, clientID, instructorID uuid.UUID, zone *models.Zone) (*models.Assignment, error) {
	f.zone = zone
	return &models.Assignment{ID: uuid.New(), InstructorID: instructorID, ClientID: &clientID, Zone: zone}, nil
}

func (f *fakeAssignments) UnassignClient(_ context.Context, clientID uuid.UUID) error {
	f.removed = append(f.removed, clientID)
	return nil
}

func (f *fakeAssignments) UnassignInstructor(_ context.Context, instructorID uuid.UUID) error {
	f.removed = append(f.removed, instructorID)
	return nil
}

// fakeRoutes is an in-memory DrivingRouteStore
type fakeRoutes struct {
	rows map[uuid.UUID]*models.DrivingRoute
}

func newFakeRoutes() *fakeRoutes {
	return &fakeRoutes{rows: map[uuid.UUID]*models.DrivingRoute{}}
}

func (f *fakeRoutes) List(_ context.Context, filter models.DrivingRouteFilter) ([]*models.DrivingRoute, error) {
	out := []*models.DrivingRoute{}
	for _, r := range f.rows {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRoutes) GetByID(_ context.Context, id uuid.UUID) (*models.DrivingRoute, error) {
	r, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrRouteNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoutes) Save(_ context.Context, route *models.DrivingRoute) (*models.DrivingRoute, error) {
	cp := *route
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRoutes) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.rows[id]; !ok {
		return apperrors.ErrRouteNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeMaterials is an in-memory MaterialStore
type fakeMaterials struct {
	rows   map[uuid.UUID]*models.Material
	filter models.MaterialFilter
}

func newFakeMaterials() *fakeMaterials {
	return &fakeMaterials{rows: map[uuid.UUID]*models.Material{}}
}

func (f *fakeMaterials) List(_ context.Context, filter models.MaterialFilter) ([]*models.Material, error) {
	f.filter = filter
	out := []*models.Material{}
	for _, m := range f.rows {
		if filter.Reviewed != nil && m.Reviewed != *filter.Reviewed {
			continue
		}
		if filter.Role != "" && !m.VisibleTo(filter.Role) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMaterials) GetByID(_ context.Context, id uuid.UUID) (*models.Material, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrMaterialNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMaterials) Create(_ context.Context, m *models.Material) (*models.Material, error) {
	cp := *m
	cp.ID = uuid.New()
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeMaterials) Update(_ context.Context, id uuid.UUID, u models.MaterialUpdate) (*models.Material, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrMaterialNotFound
	}
	if u.Title != nil {
		m.Title = *u.Title
	}
	if u.RoleScope != nil {
		m.RoleScope = u.RoleScope
	}
	switch {
	case u.ClearZone:
		m.Zone = nil
	case u.Zone != nil:
		m.Zone = u.Zone
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMaterials) SetReviewed(_ context.Context, id uuid.UUID, reviewed bool) (*models.Material, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrMaterialNotFound
	}
	m.Reviewed = reviewed
	cp := *m
	return &cp, nil
}

func (f *fakeMaterials) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.rows[id]; !ok {
		return apperrors.ErrMaterialNotFound
	}
	delete(f.rows, id)
	return nil
}
