package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
	"lms-personalization/internal/domain/ports/adapter"
	"lms-personalization/internal/infra/logging"
)

// personalizeRequest is the body of the primary endpoint. EnrollmentID is
// optional; when present it pins the enrollment the pointer updates target.
type personalizeRequest struct {
	CourseID     string                        `json:"courseId"`
	EmployeeID   string                        `json:"employeeId"`
	EnrollmentID string                        `json:"enrollmentId"`
	Options      *model.PersonalizationOptions `json:"options"`
	Token        string                        `json:"token"`
}

type regenerateRequest struct {
	CourseID string `json:"courseId"`
	Token    string `json:"token"`
}

type jobStatusResponse struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	CurrentStep     int    `json:"currentStep"`
	TotalSteps      int    `json:"totalSteps"`
	ProgressPercent int    `json:"progressPercent"`
	StepDescription string `json:"stepDescription"`
	Error           string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg, details string) {
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, code, body)
}

// writeDomainError maps sentinel errors to status codes. Anything unmatched
// is a 500 with a generic message; the real cause is in the logs.
func writeDomainError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "Missing or invalid required fields", "")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg, "")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "A personalization job is already running for this course and employee", "")
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", "")
	}
}

// extractToken pulls the credential from the request, in fixed priority
// order: Authorization bearer header, `token` query parameter, `token` body
// field. The body is restored so handlers can decode it again.
func extractToken(r *http.Request) string {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return strings.TrimSpace(hdr[7:])
		}
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	if r.Body != nil && r.Method == http.MethodPost {
		raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err == nil {
			var probe struct {
				Token string `json:"token"`
			}
			if json.Unmarshal(raw, &probe) == nil {
				return probe.Token
			}
		}
	}
	return ""
}

func (s *Server) authenticate(r *http.Request) (adapter.Identity, error) {
	return s.verifier.Verify(r.Context(), extractToken(r))
}

// handlePersonalize is the primary entry point: validate the enrollment,
// create the job, return immediately while the pipeline runs.
func (s *Server) handlePersonalize(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeDomainError(w, err, "")
		return
	}

	var req personalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	if req.CourseID == "" || req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "courseId and employeeId are required", "")
		return
	}

	enrollmentID := req.EnrollmentID
	if enrollmentID != "" {
		e, err := s.enrollments.FindByID(r.Context(), nil, enrollmentID)
		if err != nil || e == nil || e.CourseID != req.CourseID || e.EmployeeID != req.EmployeeID {
			writeError(w, http.StatusNotFound, "Enrollment not found or invalid enrollment details", "")
			return
		}
	} else {
		e, err := s.enrollments.FindByPair(r.Context(), nil, req.CourseID, req.EmployeeID)
		if err != nil || e == nil {
			writeError(w, http.StatusNotFound, "Enrollment not found or invalid enrollment details", "")
			return
		}
		enrollmentID = e.ID
	}

	opts := model.DefaultOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	job, err := s.orchestrator.CreateJob(r.Context(), req.CourseID, req.EmployeeID, enrollmentID, opts)
	if err != nil {
		writeDomainError(w, err, "Course not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job_id":  job.ID,
		"status":  string(model.JobStatusInProgress),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeDomainError(w, err, "")
		return
	}

	jobID := chi.URLParam(r, "jobId")
	job, err := s.orchestrator.GetStatus(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, err, "Job not found")
		return
	}

	writeJSON(w, http.StatusOK, jobStatusResponse{
		ID:              job.ID,
		Status:          string(job.Status),
		CurrentStep:     job.CurrentStep,
		TotalSteps:      job.TotalSteps,
		ProgressPercent: job.ProgressPercent,
		StepDescription: job.StepDescription,
		Error:           job.Error,
	})
}

// handleRegenerate backs all three regeneration façades. They differ only in
// where courseId arrives (path, query, or body); the identity comes from the
// credential and is resolved to an employee through the profile resolver.
func (s *Server) handleRegenerate(courseIDFrom func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.authenticate(r)
		if err != nil {
			writeDomainError(w, err, "")
			return
		}

		courseID := courseIDFrom(r)
		if courseID == "" {
			writeError(w, http.StatusBadRequest, "courseId is required", "")
			return
		}

		profile, err := s.profiles.Resolve(r.Context(), identity)
		if err != nil {
			writeDomainError(w, err, "Employee not found")
			return
		}

		enrollmentID := ""
		if e, err := s.enrollments.FindByPair(r.Context(), nil, courseID, profile.EmployeeID); err == nil && e != nil {
			enrollmentID = e.ID
		}

		job, err := s.orchestrator.CreateJob(r.Context(), courseID, profile.EmployeeID, enrollmentID, model.DefaultOptions())
		if err != nil {
			writeDomainError(w, err, "Course not found")
			return
		}

		l := logging.With(r.Context(), s.log)
		l.Info().Str("job_id", job.ID).Str("course_id", courseID).Str("employee_id", profile.EmployeeID).Msg("regeneration job created")

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"job_id":      job.ID,
			"employee_id": profile.EmployeeID,
		})
	}
}

func courseIDFromPath(r *http.Request) string {
	return chi.URLParam(r, "courseID")
}

func courseIDFromQuery(r *http.Request) string {
	return r.URL.Query().Get("courseId")
}

func courseIDFromBody(r *http.Request) string {
	var req regenerateRequest
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	if json.Unmarshal(raw, &req) != nil {
		return ""
	}
	return req.CourseID
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
