// Package messagingtest provides an in-memory message store for tests.
package messagingtest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// MemStore is an in-memory message store that records writes and can be told to fail.
// Each insert advances its clock by one second.
type MemStore struct {
	mu       sync.Mutex
	rows     []*models.Message
	clock    time.Time
	inserts  int
	adds     int
	failAdd  map[uuid.UUID]error
	failRead map[uuid.UUID]error
}

// NewMemStore creates an empty MemStore
func NewMemStore() *MemStore {
	return &MemStore{
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		failAdd:  map[uuid.UUID]error{},
		failRead: map[uuid.UUID]error{},
	}
}

// FailAdd makes AddReader return err for message id
func (s *MemStore) FailAdd(id uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAdd[id] = err
}

// FailRead makes ReadBy return err for message id
func (s *MemStore) FailRead(id uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRead[id] = err
}

// Inserts is the number of Insert calls
func (s *MemStore) Inserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// Adds is the number of successful AddReader writes
func (s *MemStore) Adds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adds
}

// Stored returns a copy of the stored row, or nil
func (s *MemStore) Stored(id uuid.UUID) *models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.find(id)
	if r == nil {
		return nil
	}
	cp := *r
	cp.ReadBy = append([]uuid.UUID(nil), r.ReadBy...)
	return &cp
}

func (s *MemStore) Insert(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	s.clock = s.clock.Add(time.Second)
	m.ID = uuid.New()
	m.CreatedAt = s.clock
	if m.ReadBy == nil {
		m.ReadBy = []uuid.UUID{}
	}
	cp := *m
	cp.ReadBy = append([]uuid.UUID(nil), m.ReadBy...)
	s.rows = append(s.rows, &cp)
	return nil
}

func (s *MemStore) find(id uuid.UUID) *models.Message {
	for _, r := range s.rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *MemStore) GetByID(_ context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.find(id); r != nil {
		cp := *r
		cp.ReadBy = append([]uuid.UUID(nil), r.ReadBy...)
		return &cp, nil
	}
	return nil, apperrors.ErrMessageNotFound
}

func (s *MemStore) filter(keep func(*models.Message) bool) []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Message{}
	for _, r := range s.rows {
		if keep(r) {
			cp := *r
			cp.ReadBy = append([]uuid.UUID(nil), r.ReadBy...)
			out = append(out, &cp)
		}
	}
	return out
}

func (s *MemStore) UserThread(_ context.Context, key string) ([]*models.Message, error) {
	return s.filter(func(m *models.Message) bool {
		return m.Scope == models.ScopeUser && m.ThreadID != nil && *m.ThreadID == key
	}), nil
}

func (s *MemStore) RoleThread(_ context.Context, role models.Role, zone models.Zone) ([]*models.Message, error) {
	return s.filter(func(m *models.Message) bool {
		return m.Scope == models.ScopeRole && *m.ToRole == role && *m.ToZone == zone
	}), nil
}

func (s *MemStore) ZoneThread(_ context.Context, zone models.Zone) ([]*models.Message, error) {
	return s.filter(func(m *models.Message) bool {
		return m.Scope == models.ScopeZone && *m.ToZone == zone
	}), nil
}

func (s *MemStore) AllThread(_ context.Context) ([]*models.Message, error) {
	return s.filter(func(m *models.Message) bool { return m.Scope == models.ScopeAll }), nil
}

func (s *MemStore) ReadBy(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failRead[id]; err != nil {
		return nil, err
	}
	r := s.find(id)
	if r == nil {
		return nil, apperrors.ErrMessageNotFound
	}
	return append([]uuid.UUID(nil), r.ReadBy...), nil
}

func (s *MemStore) AddReader(_ context.Context, id, viewer uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failAdd[id]; err != nil {
		return err
	}
	r := s.find(id)
	if r == nil {
		return apperrors.ErrMessageNotFound
	}
	s.adds++
	if !r.IsReadBy(viewer) {
		r.ReadBy = append(r.ReadBy, viewer)
	}
	return nil
}
