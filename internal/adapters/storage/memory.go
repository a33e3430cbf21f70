package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/ports"
)

// memoryStorage is a map-backed ports.Storage. Values are copied in and
// out so callers never share pointers with the store.
type memoryStorage struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	emails       map[string]string
	sessions     map[string]domain.Session
	tasks        map[string]domain.Task
	distractions map[string]domain.Distraction
}

var _ ports.Storage = (*memoryStorage)(nil)

// NewInMemory creates an empty map-backed storage.
func NewInMemory() ports.Storage {
	return &memoryStorage{
		users:        make(map[string]domain.User),
		emails:       make(map[string]string),
		sessions:     make(map[string]domain.Session),
		tasks:        make(map[string]domain.Task),
		distractions: make(map[string]domain.Distraction),
	}
}

func (m *memoryStorage) Users() ports.UserRepository               { return memUsers{m} }
func (m *memoryStorage) Sessions() ports.SessionRepository         { return memSessions{m} }
func (m *memoryStorage) Tasks() ports.TaskRepository               { return memTasks{m} }
func (m *memoryStorage) Distractions() ports.DistractionRepository { return memDistractions{m} }
func (m *memoryStorage) Close() error                              { return nil }
func (m *memoryStorage) Migrate() error                            { return nil }

type memUsers struct{ m *memoryStorage }

func (r memUsers) Save(_ context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, ok := r.m.emails[email]; ok {
		return domain.ErrUserExists
	}
	if _, ok := r.m.users[user.ID]; ok {
		return domain.ErrUserExists
	}
	r.m.users[user.ID] = *user
	r.m.emails[email] = user.ID
	return nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "user", ID: id}
	}
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	id, ok := r.m.emails[domain.NormalizeEmail(email)]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "user", ID: email}
	}
	u := r.m.users[id]
	return &u, nil
}

func (r memUsers) UpdateSettings(_ context.Context, id string, settings domain.TimerSettings) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	u, ok := r.m.users[id]
	if !ok {
		return &domain.NotFoundError{Entity: "user", ID: id}
	}
	u.Settings = settings
	r.m.users[id] = u
	return nil
}

type memSessions struct{ m *memoryStorage }

func (r memSessions) Save(_ context.Context, s *domain.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already exists: %w", s.ID, domain.ErrConflict)
	}
	if _, ok := r.m.users[s.UserID]; !ok {
		return &domain.ValidationError{Field: "session", Reason: "unknown user or task"}
	}
	if s.TaskID != nil {
		if _, ok := r.m.tasks[*s.TaskID]; !ok {
			return &domain.ValidationError{Field: "session", Reason: "unknown user or task"}
		}
	}
	r.m.sessions[s.ID] = copySession(*s)
	return nil
}

func (r memSessions) FindByID(_ context.Context, id string) (*domain.Session, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	s, ok := r.m.sessions[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "session", ID: id}
	}
	out := copySession(s)
	return &out, nil
}

func (r memSessions) FindActive(_ context.Context, userID string) (*domain.Session, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var active *domain.Session
	for _, s := range r.m.sessions {
		if s.UserID != userID || !s.IsActive() {
			continue
		}
		if active == nil || s.StartTime.After(active.StartTime) {
			c := copySession(s)
			active = &c
		}
	}
	return active, nil
}

func (r memSessions) FindByUser(_ context.Context, userID string, filter domain.SessionFilter) ([]*domain.Session, error) {
	return r.collect(func(s domain.Session) bool {
		return s.UserID == userID && filter.Contains(s.StartTime)
	}), nil
}

func (r memSessions) FindByTask(_ context.Context, taskID string) ([]*domain.Session, error) {
	return r.collect(func(s domain.Session) bool {
		return s.TaskID != nil && *s.TaskID == taskID
	}), nil
}

func (r memSessions) collect(match func(domain.Session) bool) []*domain.Session {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []*domain.Session
	for _, s := range r.m.sessions {
		if match(s) {
			c := copySession(s)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out
}

func (r memSessions) Update(_ context.Context, s *domain.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.sessions[s.ID]; !ok {
		return &domain.NotFoundError{Entity: "session", ID: s.ID}
	}
	r.m.sessions[s.ID] = copySession(*s)
	return nil
}

func (r memSessions) IncrementDistractions(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s, ok := r.m.sessions[id]
	if !ok {
		return &domain.NotFoundError{Entity: "session", ID: id}
	}
	s.Distractions++
	r.m.sessions[id] = s
	return nil
}

type memTasks struct{ m *memoryStorage }

func (r memTasks) Save(_ context.Context, t *domain.Task) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.tasks[t.ID]; ok {
		return fmt.Errorf("task %s already exists: %w", t.ID, domain.ErrConflict)
	}
	if _, ok := r.m.users[t.UserID]; !ok {
		return &domain.ValidationError{Field: "userId", Reason: "unknown user"}
	}
	r.m.tasks[t.ID] = *t
	return nil
}

func (r memTasks) FindByID(_ context.Context, id string) (*domain.Task, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	t, ok := r.m.tasks[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "task", ID: id}
	}
	return &t, nil
}

func (r memTasks) FindByUser(_ context.Context, userID string, status *domain.TaskStatus) ([]*domain.Task, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []*domain.Task
	for _, t := range r.m.tasks {
		if t.UserID != userID || (status != nil && t.Status != *status) {
			continue
		}
		c := t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memTasks) Search(ctx context.Context, userID, query string) ([]*domain.Task, error) {
	tasks, err := r.FindByUser(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	return fuzzyTasks(query, tasks), nil
}

func (r memTasks) Update(_ context.Context, t *domain.Task) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.tasks[t.ID]; !ok {
		return &domain.NotFoundError{Entity: "task", ID: t.ID}
	}
	r.m.tasks[t.ID] = *t
	return nil
}

func (r memTasks) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.tasks[id]; !ok {
		return &domain.NotFoundError{Entity: "task", ID: id}
	}
	delete(r.m.tasks, id)

	// Sessions keep their history but lose the link.
	for sid, s := range r.m.sessions {
		if s.TaskID != nil && *s.TaskID == id {
			s.TaskID = nil
			r.m.sessions[sid] = s
		}
	}
	return nil
}

type memDistractions struct{ m *memoryStorage }

func (r memDistractions) Save(_ context.Context, d *domain.Distraction) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.sessions[d.SessionID]; !ok {
		return &domain.NotFoundError{Entity: "session", ID: d.SessionID}
	}
	r.m.distractions[d.ID] = *d
	return nil
}

func (r memDistractions) FindBySession(_ context.Context, sessionID string) ([]*domain.Distraction, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []*domain.Distraction
	for _, d := range r.m.distractions {
		if d.SessionID == sessionID {
			c := d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func copySession(s domain.Session) domain.Session {
	if s.EndTime != nil {
		t := *s.EndTime
		s.EndTime = &t
	}
	if s.TaskID != nil {
		id := *s.TaskID
		s.TaskID = &id
	}
	if s.PausedAt != nil {
		t := *s.PausedAt
		s.PausedAt = &t
	}
	return s
}
