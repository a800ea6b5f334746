package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
	"lms-personalization/internal/domain/ports/adapter"
	"lms-personalization/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &l
}

// fakeVerifier accepts exactly one token.
type fakeVerifier struct{ token string }

func (v *fakeVerifier) Verify(ctx context.Context, token string) (adapter.Identity, error) {
	if token != v.token {
		return adapter.Identity{}, domain.ErrUnauthorized
	}
	return adapter.Identity{UserID: "user-1", Name: "Avery", Email: "avery@example.com"}, nil
}

// fakeOrchestrator records calls and serves canned jobs.
type fakeOrchestrator struct {
	mu        sync.Mutex
	jobs      map[string]*model.Job
	createErr error
	created   []*model.Job
}

func newFakeOrchestrator() *fakeOrchestrator {
	return &fakeOrchestrator{jobs: make(map[string]*model.Job)}
}

func (f *fakeOrchestrator) CreateJob(ctx context.Context, courseID, employeeID, enrollmentID string, opts model.PersonalizationOptions) (*model.Job, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	job, err := model.NewJob("job-1", courseID, employeeID, enrollmentID, opts)
	if err != nil {
		return nil, err
	}
	f.jobs[job.ID] = job
	f.created = append(f.created, job)
	return job, nil
}

func (f *fakeOrchestrator) Advance(ctx context.Context, jobID string, step int, description string, percent int) error {
	return nil
}

func (f *fakeOrchestrator) Complete(ctx context.Context, jobID, artifactID string) error { return nil }

func (f *fakeOrchestrator) Fail(ctx context.Context, jobID, errMsg string) {}

func (f *fakeOrchestrator) GetStatus(ctx context.Context, jobID string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (f *fakeOrchestrator) Process(ctx context.Context, job *model.Job) {}

// fakeResolver returns a fixed employee for any identity.
type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, identity adapter.Identity) (*model.EmployeeProfile, error) {
	return &model.EmployeeProfile{EmployeeID: "emp-1", UserID: identity.UserID, Name: identity.Name, Department: "General", Position: "Learner", Source: "identity"}, nil
}

func (fakeResolver) ResolveEmployee(ctx context.Context, employeeID string) (*model.EmployeeProfile, error) {
	return &model.EmployeeProfile{EmployeeID: employeeID, Department: "General", Position: "Learner"}, nil
}

type fakeEnrollments struct {
	byID map[string]*model.Enrollment
}

func (f *fakeEnrollments) Save(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEnrollments) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Enrollment, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeEnrollments) FindByPair(ctx context.Context, tx repository.Tx, courseID, employeeID string) (*model.Enrollment, error) {
	for _, e := range f.byID {
		if e.CourseID == courseID && e.EmployeeID == employeeID {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEnrollments) UpdatePersonalization(ctx context.Context, tx repository.Tx, enrollmentID, contentID, jobID, status string) error {
	return nil
}

func newTestServer() (*Server, *fakeOrchestrator) {
	orch := newFakeOrchestrator()
	enrollments := &fakeEnrollments{byID: map[string]*model.Enrollment{
		"enr-1": {ID: "enr-1", CourseID: "course-1", EmployeeID: "emp-1", Status: "enrolled"},
	}}
	s := NewServer(orch, fakeResolver{}, enrollments, &fakeVerifier{token: "good-token"}, 5*time.Second, testLogger())
	return s, orch
}

func do(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (body=%q)", err, rec.Body.String())
	}
	return out
}

func TestPersonalizeContent(t *testing.T) {
	t.Run("creates a job for a valid enrollment", func(t *testing.T) {
		s, orch := newTestServer()
		rec := do(t, s.Router(), http.MethodPost, "/api/v1/personalize-content", "good-token", map[string]any{
			"courseId": "course-1", "employeeId": "emp-1", "enrollmentId": "enr-1",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}
		body := decode(t, rec)
		if body["success"] != true || body["job_id"] != "job-1" || body["status"] != "in_progress" {
			t.Errorf("unexpected body: %v", body)
		}
		if len(orch.created) != 1 || orch.created[0].EnrollmentID != "enr-1" {
			t.Errorf("orchestrator not called correctly: %+v", orch.created)
		}
	})

	t.Run("resolves the enrollment by pair when no id is sent", func(t *testing.T) {
		s, orch := newTestServer()
		rec := do(t, s.Router(), http.MethodPost, "/api/v1/personalize-content", "good-token", map[string]any{
			"courseId": "course-1", "employeeId": "emp-1",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if orch.created[0].EnrollmentID != "enr-1" {
			t.Errorf("pair lookup missed: %q", orch.created[0].EnrollmentID)
		}
	})

	t.Run("404 for an unknown or mismatched enrollment", func(t *testing.T) {
		s, _ := newTestServer()

		rec := do(t, s.Router(), http.MethodPost, "/api/v1/personalize-content", "good-token", map[string]any{
			"courseId": "course-1", "employeeId": "emp-1", "enrollmentId": "ghost",
		})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
		if decode(t, rec)["error"] != "Enrollment not found or invalid enrollment details" {
			t.Errorf("wrong error body: %s", rec.Body.String())
		}

		// Enrollment exists but belongs to another course.
		rec = do(t, s.Router(), http.MethodPost, "/api/v1/personalize-content", "good-token", map[string]any{
			"courseId": "course-9", "employeeId": "emp-1", "enrollmentId": "enr-1",
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("mismatched enrollment accepted: %d", rec.Code)
		}
	})

	t.Run("400 for missing identifiers", func(t *testing.T) {
		s, _ := newTestServer()
		rec := do(t, s.Router(), http.MethodPost, "/api/v1/personalize-content", "good-token", map[string]any{
			"employeeId": "emp-1",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("409 when a job is already running", func(t *testing.T) {
		s, orch := newTestServer()
		orch.createErr = domain.ErrConflict
		rec := do(t, s.Router(), http.MethodPost, "/api/v1/personalize-content", "good-token", map[string]any{
			"courseId": "course-1", "employeeId": "emp-1", "enrollmentId": "enr-1",
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestAuthChannels(t *testing.T) {
	t.Run("401 without any credential", func(t *testing.T) {
		s, _ := newTestServer()
		rec := do(t, s.Router(), http.MethodPost, "/api/v1/personalize-content", "", map[string]any{
			"courseId": "course-1", "employeeId": "emp-1",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if decode(t, rec)["error"] == "" {
			t.Error("expected a JSON error envelope")
		}
	})

	t.Run("401 for a bad bearer token", func(t *testing.T) {
		s, _ := newTestServer()
		rec := do(t, s.Router(), http.MethodPost, "/api/v1/personalize-content", "wrong", map[string]any{
			"courseId": "course-1", "employeeId": "emp-1",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("token via query parameter", func(t *testing.T) {
		s, _ := newTestServer()
		rec := do(t, s.Router(), http.MethodGet, "/api/v1/regenerate-course?courseId=course-1&token=good-token", "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d body=%s", rec.Code, rec.Body.String())
		}
	})

	t.Run("token via body field", func(t *testing.T) {
		s, _ := newTestServer()
		rec := do(t, s.Router(), http.MethodPost, "/api/v1/regenerate-content-fallback", "", map[string]any{
			"courseId": "course-1", "token": "good-token",
		})
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d body=%s", rec.Code, rec.Body.String())
		}
	})

	t.Run("bearer header outranks a bad query token", func(t *testing.T) {
		s, _ := newTestServer()
		rec := do(t, s.Router(), http.MethodGet, "/api/v1/regenerate-course?courseId=course-1&token=bogus", "good-token", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestJobStatus(t *testing.T) {
	t.Run("returns progress fields", func(t *testing.T) {
		s, orch := newTestServer()
		job, _ := orch.CreateJob(context.Background(), "course-1", "emp-1", "enr-1", model.DefaultOptions())
		_ = job.Advance(3, "Generating module 2 of 4: Pipelines", 45)

		rec := do(t, s.Router(), http.MethodGet, "/api/v1/jobs/job-1", "good-token", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decode(t, rec)
		if body["id"] != "job-1" || body["status"] != "in_progress" {
			t.Errorf("unexpected body: %v", body)
		}
		if body["currentStep"] != float64(3) || body["progressPercent"] != float64(45) {
			t.Errorf("progress fields wrong: %v", body)
		}
	})

	t.Run("404 with the documented message", func(t *testing.T) {
		s, _ := newTestServer()
		rec := do(t, s.Router(), http.MethodGet, "/api/v1/jobs/ghost", "good-token", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
		if decode(t, rec)["error"] != "Job not found" {
			t.Errorf("wrong error body: %s", rec.Body.String())
		}
	})
}

func TestRegenerateFacades(t *testing.T) {
	targets := []struct {
		name   string
		method string
		url    string
		body   any
	}{
		{"path variant", http.MethodPost, "/api/v1/courses/course-1/regenerate", nil},
		{"query variant", http.MethodGet, "/api/v1/regenerate-course?courseId=course-1", nil},
		{"body variant", http.MethodPost, "/api/v1/regenerate-content-fallback", map[string]any{"courseId": "course-1"}},
	}

	for _, tc := range targets {
		t.Run(tc.name, func(t *testing.T) {
			s, orch := newTestServer()
			rec := do(t, s.Router(), tc.method, tc.url, "good-token", tc.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			body := decode(t, rec)
			if body["success"] != true || body["employee_id"] != "emp-1" || body["job_id"] == "" {
				t.Errorf("unexpected body: %v", body)
			}
			if len(orch.created) != 1 || orch.created[0].CourseID != "course-1" {
				t.Errorf("orchestrator call wrong: %+v", orch.created)
			}
			// All façades pick up the enrollment for pointer updates.
			if orch.created[0].EnrollmentID != "enr-1" {
				t.Errorf("enrollment not resolved: %q", orch.created[0].EnrollmentID)
			}
		})
	}

	t.Run("400 when courseId is absent", func(t *testing.T) {
		s, _ := newTestServer()
		rec := do(t, s.Router(), http.MethodGet, "/api/v1/regenerate-course?token=good-token", "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestCORS(t *testing.T) {
	t.Run("OPTIONS preflight gets an empty 204", func(t *testing.T) {
		s, _ := newTestServer()
		rec := do(t, s.Router(), http.MethodOptions, "/api/v1/personalize-content", "", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("missing CORS origin header")
		}
	})

	t.Run("CORS headers present on real responses", func(t *testing.T) {
		s, _ := newTestServer()
		rec := do(t, s.Router(), http.MethodGet, "/api/v1/jobs/ghost", "good-token", nil)
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("missing CORS origin header")
		}
	})
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer()
	rec := do(t, s.Router(), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
