package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/placement"
)

func (h *Handler) catalog(w http.ResponseWriter, _ *http.Request) {
	c := h.svc.Catalog()
	resp := CatalogResponse{Version: c.Version(), Languages: map[string][]placement.Level{}}
	for _, lang := range c.Languages() {
		resp.Languages[lang] = c.Levels(lang)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// grade evaluates an answer against ad-hoc accepted answers. Nothing is
// recorded.
func (h *Handler) grade(w http.ResponseWriter, r *http.Request) {
	var req GradeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	task := grading.Task{Type: req.Type, Accepted: req.Accepted, Choices: req.Choices}
	res, err := h.evaluator.Evaluate(task, grading.ResolveChoice(task, req.Answer))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) listPlacementTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.svc.PlacementTests(r.Context(), r.URL.Query().Get("language"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]PlacementTestResponse, 0, len(tests))
	for i := range tests {
		out = append(out, placementTestToResponse(&tests[i], false))
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getPlacementTest(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.PlacementTest(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, placementTestToResponse(t, true))
}

func (h *Handler) createLearner(w http.ResponseWriter, r *http.Request) {
	var req CreateLearnerRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	l, err := h.svc.CreateLearner(r.Context(), req.Name, req.Language)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, l)
}

func (h *Handler) getLearner(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Learner(r.Context(), chi.URLParam(r, "learnerID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, l)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context(), chi.URLParam(r, "learnerID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, ProfileResponse{
		Learner:       p.Learner,
		Gamification:  p.Gamification,
		NextMilestone: p.NextMilestone,
		Plan:          planToResponse(p.Plan),
		Modules:       p.Modules,
	})
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	state, award, err := h.svc.CheckIn(r.Context(), chi.URLParam(r, "learnerID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, CheckInResponse{Gamification: state, Award: award})
}

func (h *Handler) submitPlacement(w http.ResponseWriter, r *http.Request) {
	var req PlacementRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	out, err := h.svc.SubmitPlacement(r.Context(), chi.URLParam(r, "learnerID"), req.TestID, req.Answers)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, out)
}

func (h *Handler) resolveCurriculum(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.ResolveCurriculum(r.Context(), chi.URLParam(r, "learnerID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, planToResponse(plan))
}

func (h *Handler) activePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.ActivePlan(r.Context(), chi.URLParam(r, "learnerID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, planToResponse(plan))
}

func (h *Handler) planHistory(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.PlanHistory(r.Context(), chi.URLParam(r, "learnerID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]*PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planToResponse(p))
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) moduleProgress(w http.ResponseWriter, r *http.Request) {
	mp, err := h.svc.ModuleProgress(r.Context(), chi.URLParam(r, "learnerID"), chi.URLParam(r, "moduleID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mp)
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req AttemptRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	out, err := h.svc.SubmitAttempt(r.Context(), chi.URLParam(r, "learnerID"), chi.URLParam(r, "taskID"), req.Answer)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.svc.Attempts(r.Context(), chi.URLParam(r, "learnerID"), chi.URLParam(r, "taskID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]AttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptToResponse(a))
	}
	h.respondJSON(w, http.StatusOK, out)
}
