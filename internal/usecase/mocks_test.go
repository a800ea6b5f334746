package usecase

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
	"lms-personalization/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &l
}

// memJobRepo is a small in-memory implementation used by unit tests.
type memJobRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Job
	saveErr error // used by tests to simulate save failures
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.Job)}
}

func (m *memJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.Job) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) ClaimPending(ctx context.Context) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *model.Job
	for _, j := range m.store {
		if j.Status != model.JobStatusPending {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	oldest.Status = model.JobStatusInProgress
	cp := *oldest
	return &cp, nil
}

func (m *memJobRepo) ClaimByID(ctx context.Context, id string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok || j.Status != model.JobStatusPending {
		return nil, domain.ErrNotFound
	}
	j.Status = model.JobStatusInProgress
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) FindActiveByPair(ctx context.Context, tx repository.Tx, courseID, employeeID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, j := range m.store {
		if j.CourseID == courseID && j.EmployeeID == employeeID && !j.Terminal() {
			cp := *j
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memCourseRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Course
}

func newMemCourseRepo() *memCourseRepo {
	return &memCourseRepo{store: make(map[string]*model.Course)}
}

func (m *memCourseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCourseRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Course, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

type memEmployeeRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Employee
}

func newMemEmployeeRepo() *memEmployeeRepo {
	return &memEmployeeRepo{store: make(map[string]*model.Employee)}
}

func (m *memEmployeeRepo) Save(ctx context.Context, tx repository.Tx, e *model.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.store[e.ID] = &cp
	return nil
}

func (m *memEmployeeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memEmployeeRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.store {
		if e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memMappingRepo struct {
	mu    sync.RWMutex
	store map[string]*model.EmployeeUserMapping
}

func newMemMappingRepo() *memMappingRepo {
	return &memMappingRepo{store: make(map[string]*model.EmployeeUserMapping)}
}

func (m *memMappingRepo) Save(ctx context.Context, tx repository.Tx, mp *model.EmployeeUserMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mp
	m.store[mp.UserID] = &cp
	return nil
}

func (m *memMappingRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.EmployeeUserMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mp, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mp
	return &cp, nil
}

type memEnrollmentRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.Enrollment
	updateErr error
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{store: make(map[string]*model.Enrollment)}
}

func (m *memEnrollmentRepo) Save(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.store[e.ID] = &cp
	return nil
}

func (m *memEnrollmentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memEnrollmentRepo) FindByPair(ctx context.Context, tx repository.Tx, courseID, employeeID string) (*model.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.store {
		if e.CourseID == courseID && e.EmployeeID == employeeID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memEnrollmentRepo) UpdatePersonalization(ctx context.Context, tx repository.Tx, enrollmentID, contentID, jobID, status string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[enrollmentID]
	if !ok {
		return domain.ErrNotFound
	}
	if contentID != "" {
		e.PersonalizedContentID = contentID
	}
	e.PersonalizationJobID = jobID
	e.PersonalizationStatus = status
	e.UpdatedAt = time.Now()
	return nil
}

type memArtifactRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.GeneratedCourse
	insertErr error
}

func newMemArtifactRepo() *memArtifactRepo {
	return &memArtifactRepo{store: make(map[string]*model.GeneratedCourse)}
}

func (m *memArtifactRepo) Insert(ctx context.Context, tx repository.Tx, a *model.GeneratedCourse) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *memArtifactRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GeneratedCourse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memArtifactRepo) FindLatestByPair(ctx context.Context, tx repository.Tx, courseID, employeeID string) (*model.GeneratedCourse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.GeneratedCourse
	for _, a := range m.store {
		if a.CourseID != courseID || a.EmployeeID != employeeID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

// recordingQueue captures submitted tasks instead of running them, so tests
// can assert "a task was enqueued" and drive execution explicitly.
type recordingQueue struct {
	mu        sync.Mutex
	tasks     []func(ctx context.Context) error
	submitErr error
}

func (q *recordingQueue) Submit(task func(ctx context.Context) error) error {
	if q.submitErr != nil {
		return q.submitErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) runAll(ctx context.Context) error {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	for _, t := range tasks {
		if err := t(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (q *recordingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// memLocker mimics the Redis advisory lock: one holder per key.
type memLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]string)}
}

func (l *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrConflict
	}
	token := key + "-token"
	l.held[key] = token
	return token, nil
}

func (l *memLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}
