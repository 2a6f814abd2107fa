// Package api exposes the learning engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/engine"
	"github.com/abhisek/lingua/internal/gamification"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/store"
)

// Service is the subset of the engine the handlers call.
type Service interface {
	CreateLearner(ctx context.Context, name, language string) (*engine.Learner, error)
	Learner(ctx context.Context, id string) (*engine.Learner, error)
	Profile(ctx context.Context, learnerID string) (*engine.Profile, error)
	CheckIn(ctx context.Context, learnerID string) (gamification.State, gamification.Award, error)

	PlacementTests(ctx context.Context, language string) ([]store.PlacementTest, error)
	PlacementTest(ctx context.Context, id string) (*store.PlacementTest, error)
	SubmitPlacement(ctx context.Context, learnerID, testID string, answers []placement.Answer) (*engine.PlacementOutcome, error)

	ResolveCurriculum(ctx context.Context, learnerID string) (*curriculum.Plan, error)
	ActivePlan(ctx context.Context, learnerID string) (*curriculum.Plan, error)
	PlanHistory(ctx context.Context, learnerID string) ([]*curriculum.Plan, error)
	ModuleProgress(ctx context.Context, learnerID, moduleID string) (*engine.ModuleProgress, error)

	SubmitAttempt(ctx context.Context, learnerID, taskID, answer string) (*engine.AttemptOutcome, error)
	Attempts(ctx context.Context, learnerID, taskID string) ([]store.TaskAttempt, error)

	Catalog() *curriculum.Catalog
}

const maxBodyBytes = 1 << 20

// Handler serves the HTTP API.
type Handler struct {
	svc       Service
	evaluator *grading.Evaluator
	validate  *validator.Validate
	log       *logger.Logger
}

func NewHandler(svc Service, evaluator *grading.Evaluator, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if evaluator == nil {
		evaluator = grading.NewEvaluator(grading.DefaultTranslationThreshold)
	}
	return &Handler{
		svc:       svc,
		evaluator: evaluator,
		validate:  validator.New(),
		log:       log.With("service", "API"),
	}
}

// Router returns the chi router with middleware and all routes mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.catalog)
		r.Post("/grade", h.grade)

		r.Get("/placement-tests", h.listPlacementTests)
		r.Get("/placement-tests/{testID}", h.getPlacementTest)

		r.Post("/learners", h.createLearner)
		r.Route("/learners/{learnerID}", func(r chi.Router) {
			r.Get("/", h.getLearner)
			r.Get("/profile", h.profile)
			r.Post("/checkin", h.checkIn)
			r.Post("/placement", h.submitPlacement)

			r.Post("/curriculum", h.resolveCurriculum)
			r.Get("/curriculum", h.activePlan)
			r.Get("/curriculum/history", h.planHistory)
			r.Get("/modules/{moduleID}", h.moduleProgress)

			r.Post("/tasks/{taskID}/attempts", h.submitAttempt)
			r.Get("/tasks/{taskID}/attempts", h.listAttempts)
		})
	})
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	reqID := middleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", r.URL.Path, "request_id", reqID, "error", err)
	} else {
		h.log.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	h.respondJSON(w, status, ErrorResponse{
		Error:     safeMessage(status, err),
		Kind:      kindFor(err),
		RequestID: reqID,
	})
}

// decode reads a JSON body into v and runs its validate tags.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", apperr.ErrValidation, err)
	}
	if err := h.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}
