package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eduforge/eduforge/internal/ai"
	"github.com/eduforge/eduforge/internal/course"
	"github.com/eduforge/eduforge/internal/generator"
	"github.com/eduforge/eduforge/internal/platform/cache"
	"github.com/eduforge/eduforge/internal/platform/database"
	"github.com/eduforge/eduforge/internal/progress"
	"github.com/eduforge/eduforge/internal/tutor"
)

// app holds the wired application services behind the HTTP surface.
type app struct {
	db      *database.DB
	cache   *cache.Cache
	catalog *course.Loader

	courses        course.Store
	progress       progress.Store
	events         progress.EventLogger
	pipeline       *generator.Pipeline
	tutor          *tutor.Tutor
	requestTimeout time.Duration
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
}

// newMux creates the HTTP router.
func newMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)

	mux.HandleFunc("GET /api/courses", a.handleListCourses)
	mux.HandleFunc("GET /api/courses/{id}", a.handleGetCourse)
	mux.HandleFunc("POST /api/courses", a.handleSaveCourse)
	mux.HandleFunc("DELETE /api/courses/{id}", a.handleDeleteCourse)
	mux.HandleFunc("POST /api/generate", a.handleGenerate)

	mux.HandleFunc("GET /api/users/{userID}/progress", a.handleGetProgress)
	mux.HandleFunc("GET /api/users/{userID}/progress/watch", a.handleWatchProgress)
	mux.HandleFunc("POST /api/users/{userID}/progress", a.handleUpdateProgress)
	mux.HandleFunc("DELETE /api/users/{userID}/progress", a.handleDeleteProgress)

	mux.HandleFunc("POST /api/tutor/ask", a.handleTutorAsk)
	return mux
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		if err := a.db.HealthCheck(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if a.cache != nil {
		if err := a.cache.HealthCheck(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "cache unreachable")
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// allCourses merges the built-in catalog with admin-saved courses.
func (a *app) allCourses(ctx context.Context) ([]course.Course, error) {
	var out []course.Course
	if a.catalog != nil {
		out = append(out, a.catalog.AllCourses()...)
	}
	saved, err := a.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	return append(out, saved...), nil
}

func (a *app) findCourse(ctx context.Context, id string) (*course.Course, error) {
	if a.catalog != nil {
		if c, ok := a.catalog.GetCourse(id); ok {
			return &c, nil
		}
	}
	return a.courses.Get(ctx, id)
}

func (a *app) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := a.allCourses(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (a *app) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	c, err := a.findCourse(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *app) handleSaveCourse(w http.ResponseWriter, r *http.Request) {
	var c course.Course
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid course payload")
		return
	}
	if c.Title == "" || len(c.Modules) == 0 {
		writeError(w, http.StatusBadRequest, "course needs a title and at least one module")
		return
	}
	id, err := a.courses.Add(r.Context(), c)
	if err != nil {
		writeFailure(w, err)
		return
	}

	author := r.Header.Get("X-User-ID")
	if author == "" {
		author = "admin"
	}
	if err := a.events.LogEvent(progress.Event{
		UserID:    author,
		CourseID:  id,
		EventType: progress.EventCourseGenerated,
		Data: map[string]any{
			"title":   c.Title,
			"modules": len(c.Modules),
		},
	}); err != nil {
		slog.Error("event logging failed", "error", err)
	}

	slog.Info("course saved", "course_id", id, "title", c.Title, "modules", len(c.Modules))
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *app) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := a.courses.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerate runs the pipeline synchronously and returns the assembled
// course for review. Saving it is a separate POST /api/courses.
func (a *app) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var params generator.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid generation parameters")
		return
	}

	timeout := a.requestTimeout
	if params.ModuleCount > 1 {
		timeout *= time.Duration(params.ModuleCount)
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	modules, err := a.pipeline.GenerateCourse(ctx, params)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generator.BuildCourse(params, modules))
}

func (a *app) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	snap, err := a.progress.Get(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleWatchProgress streams the user's progress document as server-sent
// events: the current snapshot first, then every subsequent write, until
// the client disconnects. This is the live-update surface the in-memory
// store serves directly and the postgres store serves via redis pub/sub.
func (a *app) handleWatchProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch, err := a.progress.Subscribe(r.Context(), userID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	snap, err := a.progress.Get(r.Context(), userID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	writeProgressEvent(w, snap)
	flusher.Flush()
	slog.Debug("progress watch opened", "user_id", userID)

	for {
		select {
		case <-r.Context().Done():
			return
		case s, open := <-ch:
			if !open {
				return
			}
			writeProgressEvent(w, &s)
			flusher.Flush()
		}
	}
}

func writeProgressEvent(w http.ResponseWriter, snap *progress.Snapshot) {
	doc, err := json.Marshal(snap)
	if err != nil {
		slog.Error("snapshot encode failed", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", doc)
}

// progressUpdate is one learner event: an explicit module completion or a
// finished quiz attempt.
type progressUpdate struct {
	CourseID   string             `json:"courseId"`
	ModuleID   string             `json:"moduleId"`
	Completed  bool               `json:"completed,omitempty"`
	QuizResult *course.QuizResult `json:"quizResult,omitempty"`
}

func (a *app) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var upd progressUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid progress payload")
		return
	}
	if upd.CourseID == "" || upd.ModuleID == "" {
		writeError(w, http.StatusBadRequest, "courseId and moduleId are required")
		return
	}
	if !upd.Completed && upd.QuizResult == nil {
		writeError(w, http.StatusBadRequest, "nothing to record")
		return
	}

	courses, err := a.allCourses(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}

	mgr := progress.NewManager(progress.ManagerConfig{
		UserID: userID,
		Store:  a.progress,
		Events: a.events,
	})
	if err := mgr.Load(r.Context(), courses); err != nil {
		writeFailure(w, err)
		return
	}

	if upd.QuizResult != nil {
		err = mgr.RecordQuizResult(r.Context(), upd.CourseID, upd.ModuleID, *upd.QuizResult)
	} else {
		err = mgr.CompleteModule(r.Context(), upd.CourseID, upd.ModuleID)
	}
	if err != nil {
		writeFailure(w, err)
		return
	}

	c, err := mgr.Course(upd.CourseID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *app) handleDeleteProgress(w http.ResponseWriter, r *http.Request) {
	if err := a.progress.Delete(r.Context(), r.PathValue("userID")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tutorAsk is one question about a module. An empty sessionId opens a new
// transcript and returns its id alongside the answer.
type tutorAsk struct {
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId"`
	CourseID  string `json:"courseId"`
	ModuleID  string `json:"moduleId"`
	Question  string `json:"question"`
}

func (a *app) handleTutorAsk(w http.ResponseWriter, r *http.Request) {
	var req tutorAsk
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid tutor payload")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	c, err := a.findCourse(r.Context(), req.CourseID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	mod := c.ModuleByID(req.ModuleID)
	if mod == nil {
		writeError(w, http.StatusNotFound, "module not found")
		return
	}

	tc := tutor.Context{
		CourseTitle:   c.Title,
		ModuleTitle:   mod.Title,
		ModuleContent: mod.Content,
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sess, err := a.tutor.StartSession(req.UserID, tc)
		if err != nil {
			writeFailure(w, err)
			return
		}
		sessionID = sess.ID
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.requestTimeout)
	defer cancel()

	answer, err := a.tutor.Ask(ctx, sessionID, tc, req.Question)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"sessionId": sessionID,
		"answer":    answer,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps service errors onto HTTP statuses.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, course.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, generator.ErrInvalidParams):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ai.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "bot API is not configured")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "upstream request timed out")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
