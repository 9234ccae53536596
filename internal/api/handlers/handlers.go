// Package handlers exposes the coaching engine over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/api/middleware"
	"github.com/dvloznov/finance-coach/internal/coach"
	"github.com/dvloznov/finance-coach/internal/domain"
	"github.com/dvloznov/finance-coach/internal/jobs"
)

// CoachHandler handles the coaching endpoints.
type CoachHandler struct {
	engine   *coach.Engine
	jobStore jobs.JobStore
	log      zerolog.Logger
}

// NewCoachHandler creates a new coach handler. jobStore may be nil, in which
// case the jobs listing endpoint reports an empty list.
func NewCoachHandler(engine *coach.Engine, jobStore jobs.JobStore, log zerolog.Logger) *CoachHandler {
	return &CoachHandler{
		engine:   engine,
		jobStore: jobStore,
		log:      log,
	}
}

// Routes registers the API routes on the given router.
func (h *CoachHandler) Routes(r chi.Router) {
	r.Post("/api/onboard", h.Onboard)
	r.Post("/api/set-goal", h.SetGoal)
	r.Get("/api/analysis", h.Analysis)
	r.Post("/api/add-transaction", h.AddTransaction)
	r.Post("/api/remove-transaction", h.RemoveTransaction)
	r.Get("/api/stocks-trending", h.TrendingStocks)
	r.Post("/api/stocks/save", h.SaveStocks)
	r.Get("/api/stocks/saved", h.SavedStocks)
	r.Get("/api/credit-cards", h.CreditCards)
	r.Get("/api/investment-idea", h.InvestmentIdea)
	r.Get("/api/jobs", h.ListJobs)
	r.Get("/health", h.Health)
}

// Onboard handles POST /api/onboard
func (h *CoachHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Onboard(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Onboarding failed")
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// SetGoal handles POST /api/set-goal
func (h *CoachHandler) SetGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Goal   float64 `json:"goal"`
		Budget float64 `json:"budget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.engine.SetGoal(r.Context(), req.Goal, req.Budget)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// Analysis handles GET /api/analysis
func (h *CoachHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.RunAnalysis(r.Context())
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// AddTransaction handles POST /api/add-transaction
func (h *CoachHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.engine.AddTransaction(r.Context(), req.Description, req.Amount)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"transaction": tx,
	})
}

// RemoveTransaction handles POST /api/remove-transaction
func (h *CoachHandler) RemoveTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID          string  `json:"id"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.engine.RemoveTransaction(r.Context(), req.ID, req.Description, req.Amount); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// TrendingStocks handles GET /api/stocks-trending
//
// Query parameters: avoid (comma-separated symbols), seed (int), temperature
// (float), reset (bool).
func (h *CoachHandler) TrendingStocks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var avoid []string
	if raw := query.Get("avoid"); raw != "" {
		for _, sym := range strings.Split(raw, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				avoid = append(avoid, sym)
			}
		}
	}

	seed, _ := strconv.ParseInt(query.Get("seed"), 10, 64)
	temperature, _ := strconv.ParseFloat(query.Get("temperature"), 64)
	reset, _ := strconv.ParseBool(query.Get("reset"))

	set, err := h.engine.TrendingIdeas(r.Context(), avoid, seed, temperature, reset)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, set)
}

// SaveStocks handles POST /api/stocks/save
func (h *CoachHandler) SaveStocks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stocks []domain.SavedStock `json:"stocks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.engine.SaveStocks(r.Context(), req.Stocks); err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// SavedStocks handles GET /api/stocks/saved
func (h *CoachHandler) SavedStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.engine.SavedStocks(r.Context())
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	if stocks == nil {
		stocks = []domain.SavedStock{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stocks": stocks,
		"count":  len(stocks),
	})
}

// CreditCards handles GET /api/credit-cards
func (h *CoachHandler) CreditCards(w http.ResponseWriter, r *http.Request) {
	set, err := h.engine.CreditCards(r.Context())
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, set)
}

// InvestmentIdea handles GET /api/investment-idea
func (h *CoachHandler) InvestmentIdea(w http.ResponseWriter, r *http.Request) {
	concept, err := h.engine.InvestmentIdea(r.Context())
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, concept)
}

// ListJobs handles GET /api/jobs
func (h *CoachHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.jobStore == nil {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"jobs":  []*jobs.ReportJob{},
			"count": 0,
		})
		return
	}

	filter := jobs.JobFilter{
		AccountKey: r.URL.Query().Get("account"),
		Status:     jobs.JobStatus(r.URL.Query().Get("status")),
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = limit
	}

	list, err := h.jobStore.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	if list == nil {
		list = []*jobs.ReportJob{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// Health handles GET /health
func (h *CoachHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "finance-coach-api",
	})
}
