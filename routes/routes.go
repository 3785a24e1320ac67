package routes

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"oddsAggregator/config"
	"oddsAggregator/models"
	"oddsAggregator/services/aggregatorService"
	"oddsAggregator/services/cacheService"
	"oddsAggregator/services/facadeService"
	"oddsAggregator/services/healthService"
)

// Handler holds the route dependencies: the facade is the only data entry
// point; health and cache are exposed for operations.
type Handler struct {
	facade *facadeService.Facade
	health *healthService.Monitor
	cache  *cacheService.TieredCache
	cfg    *config.Config
	logger *logrus.Logger
}

func NewHandler(facade *facadeService.Facade, health *healthService.Monitor, cache *cacheService.TieredCache, cfg *config.Config, logger *logrus.Logger) *Handler {
	return &Handler{facade: facade, health: health, cache: cache, cfg: cfg, logger: logger}
}

// Router builds the chi router with the full route surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/sports", h.getAvailableSports)
	r.Get("/api/odds/live/{sport}", h.getLiveOdds)
	r.Get("/api/odds/compare/{sport}", h.getOddsComparison)
	r.Get("/api/games", h.getAllGames)
	r.Post("/api/parlay", h.combineParlay)

	r.Get("/health/providers", h.getProviderHealth)
	r.Get("/health/trends", h.getHealthTrends)
	r.Post("/health/reset/{provider}", h.resetProviderHealth)

	r.Get("/cache/stats", h.getCacheStats)
	r.Post("/cache/invalidate", h.invalidateCache)

	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func (h *Handler) getLiveOdds(w http.ResponseWriter, r *http.Request) {
	sport := models.Sport(chi.URLParam(r, "sport"))
	limit := queryInt(r, "limit", 10)
	respondJSON(w, http.StatusOK, h.facade.GetLiveOdds(r.Context(), sport, limit))
}

func (h *Handler) getAllGames(w http.ResponseWriter, r *http.Request) {
	limitPerSport := queryInt(r, "limit_per_sport", 5)
	showUpcoming := r.URL.Query().Get("show_upcoming") != "false"
	respondJSON(w, http.StatusOK, h.facade.GetAllGames(r.Context(), limitPerSport, showUpcoming))
}

func (h *Handler) getOddsComparison(w http.ResponseWriter, r *http.Request) {
	sport := models.Sport(chi.URLParam(r, "sport"))
	limit := queryInt(r, "limit", 10)
	respondJSON(w, http.StatusOK, h.facade.GetOddsComparison(r.Context(), sport, limit))
}

func (h *Handler) getAvailableSports(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.facade.GetAvailableSports(r.Context()))
}

type parlayRequest struct {
	Legs  []int   `json:"legs"`
	Stake float64 `json:"stake"`
}

func (h *Handler) combineParlay(w http.ResponseWriter, r *http.Request) {
	var req parlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Stake == 0 {
		// Omitted stake quotes against the configured reference stake.
		req.Stake = h.cfg.Parlay.ReferenceStake
	}

	result, err := aggregatorService.CombineParlay(req.Legs, req.Stake)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "parlay": result})
}

func (h *Handler) getProviderHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "providers": h.health.Metrics()})
}

func (h *Handler) getHealthTrends(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24)
	trends := h.health.Trends(time.Duration(hours) * time.Hour)
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "trends": trends})
}

func (h *Handler) resetProviderHealth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	h.health.Reset(provider)
	h.logger.WithField("provider", provider).Info("provider health reset by operator")
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) getCacheStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "stats": h.facade.CacheStats()})
}

type invalidateRequest struct {
	Class string `json:"class,omitempty"`
	Sport string `json:"sport,omitempty"`
	Key   string `json:"key,omitempty"`
}

// invalidateCache backdates expiry: a key when sport+key are given, a whole
// class when only class is given, everything otherwise.
func (h *Handler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch {
	case req.Class != "" && req.Key != "":
		err = h.cache.Invalidate(models.CacheClass(req.Class), models.Sport(req.Sport), req.Key)
	case req.Class != "":
		err = h.cache.InvalidateClass(models.CacheClass(req.Class))
	default:
		err = h.cache.InvalidateAll()
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
