// Package webapi implements the HTTP surface of the collector service.
//
// Routes:
//
//	GET /health           → liveness probe
//	GET /areas            → area reference tree (flat)
//	GET /professions      → tracked professions
//	GET /grades           → grade labels
//	GET /experiences      → experience brackets
//	GET /statistic        → salary summary for a filter (Redis-cached)
//	GET /vacancies        → paginated vacancy listing for a filter
//	GET /available_dates  → publication range covered by the store
package webapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"eachjob/collector-service/internal/model"
	"eachjob/collector-service/internal/stats"
	"eachjob/collector-service/internal/store"
)

// statisticCacheTTL bounds staleness of cached summaries. Vacancies are
// append-only, so a slightly stale summary is acceptable.
const statisticCacheTTL = 10 * time.Minute

// Handler holds shared dependencies.
type Handler struct {
	catalog   *store.CatalogRepo
	vacancies *store.VacancyRepo
	engine    *stats.Engine
	rdb       *redis.Client
}

// NewHandler returns a configured Handler.
func NewHandler(catalog *store.CatalogRepo, vacancies *store.VacancyRepo, engine *stats.Engine, rdb *redis.Client) *Handler {
	return &Handler{catalog: catalog, vacancies: vacancies, engine: engine, rdb: rdb}
}

// RegisterRoutes mounts all routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /areas", h.handleAreas)
	mux.HandleFunc("GET /professions", h.handleProfessions)
	mux.HandleFunc("GET /grades", h.handleGrades)
	mux.HandleFunc("GET /experiences", h.handleExperiences)
	mux.HandleFunc("GET /statistic", h.handleStatistic)
	mux.HandleFunc("GET /vacancies", h.handleVacancies)
	mux.HandleFunc("GET /available_dates", h.handleAvailableDates)
}

// ─── Response types ──────────────────────────────────────────────────────────

type areaResponse struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	ParentID   string   `json:"parentId,omitempty"`
	ParentPath []string `json:"parentPath"`
}

type professionResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Synonyms        []string   `json:"synonyms"`
	LastCheckedDate *time.Time `json:"lastCheckedDate"`
}

type gradeResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MatchKeyword string `json:"matchKeyword"`
}

type experienceResponse struct {
	ID    string `json:"id"`
	HHID  string `json:"hhId"`
	Title string `json:"title"`
}

type vacancyResponse struct {
	ID                    string    `json:"id"`
	HHID                  string    `json:"hhId"`
	AreaID                string    `json:"areaId,omitempty"`
	ProfessionID          string    `json:"professionId,omitempty"`
	ExperienceID          string    `json:"experienceId,omitempty"`
	GradeIDs              []string  `json:"gradeIds"`
	PublishedAt           time.Time `json:"publishedAt"`
	Name                  string    `json:"name"`
	SnippetRequirement    string    `json:"snippetRequirement,omitempty"`
	SnippetResponsibility string    `json:"snippetResponsibility,omitempty"`
	EmployerName          string    `json:"employerName,omitempty"`
	SalaryFrom            *float64  `json:"salaryFrom"`
	SalaryTo              *float64  `json:"salaryTo"`
	SalaryCurrency        string    `json:"salaryCurrency,omitempty"`
	SalaryGross           bool      `json:"salaryGross"`
	SalaryMode            string    `json:"salaryMode"`
	MatchedByName         bool      `json:"matchedByName"`
	MatchedByRequirement  bool      `json:"matchedByRequirement"`
}

type availableDatesResponse struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (h *Handler) handleAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.catalog.ListAreas(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		log.Printf("[webapi] areas: %v", err)
		return
	}

	out := make([]areaResponse, 0, len(areas))
	for _, a := range areas {
		path := a.ParentPath
		if path == nil {
			path = []string{}
		}
		out = append(out, areaResponse{ID: a.ID, Title: a.Title, ParentID: a.ParentID, ParentPath: path})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleProfessions(w http.ResponseWriter, r *http.Request) {
	professions, err := h.catalog.ListProfessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		log.Printf("[webapi] professions: %v", err)
		return
	}

	out := make([]professionResponse, 0, len(professions))
	for _, p := range professions {
		out = append(out, professionResponse{
			ID: p.ID, Title: p.Title, Synonyms: p.Synonyms, LastCheckedDate: p.LastCheckedDate,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGrades(w http.ResponseWriter, r *http.Request) {
	grades, err := h.catalog.ListGrades(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		log.Printf("[webapi] grades: %v", err)
		return
	}

	out := make([]gradeResponse, 0, len(grades))
	for _, g := range grades {
		out = append(out, gradeResponse{ID: g.ID, Title: g.Title, MatchKeyword: g.MatchKeyword})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleExperiences(w http.ResponseWriter, r *http.Request) {
	experiences, err := h.catalog.ListExperiences(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		log.Printf("[webapi] experiences: %v", err)
		return
	}

	out := make([]experienceResponse, 0, len(experiences))
	for _, e := range experiences {
		out = append(out, experienceResponse{ID: e.ID, HHID: e.HHID, Title: e.Title})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleStatistic(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := "statistic:" + r.URL.Query().Encode()
	if cached := h.cacheGet(r.Context(), cacheKey); cached != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	summary, err := h.engine.Aggregate(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		log.Printf("[webapi] statistic: %v", err)
		return
	}

	body, err := json.Marshal(summary)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	h.cacheSet(r.Context(), cacheKey, body)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *Handler) handleVacancies(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, size, err := parsePagination(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Limit = size
	filter.Offset = page * size

	vacancies, err := h.vacancies.QueryFiltered(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		log.Printf("[webapi] vacancies: %v", err)
		return
	}

	out := make([]vacancyResponse, 0, len(vacancies))
	for _, v := range vacancies {
		out = append(out, toVacancyResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAvailableDates(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.vacancies.AvailableDates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		log.Printf("[webapi] available_dates: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, availableDatesResponse{From: from, To: to})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func toVacancyResponse(v model.Vacancy) vacancyResponse {
	gradeIDs := v.GradeIDs
	if gradeIDs == nil {
		gradeIDs = []string{}
	}
	return vacancyResponse{
		ID:                    v.ID,
		HHID:                  v.HHID,
		AreaID:                v.AreaID,
		ProfessionID:          v.ProfessionID,
		ExperienceID:          v.ExperienceID,
		GradeIDs:              gradeIDs,
		PublishedAt:           v.PublishedAt,
		Name:                  v.Name,
		SnippetRequirement:    v.SnippetRequirement,
		SnippetResponsibility: v.SnippetResponsibility,
		EmployerName:          v.EmployerName,
		SalaryFrom:            v.SalaryFrom,
		SalaryTo:              v.SalaryTo,
		SalaryCurrency:        v.SalaryCurrency,
		SalaryGross:           v.SalaryGross,
		SalaryMode:            string(v.SalaryMode),
		MatchedByName:         v.MatchedByName,
		MatchedByRequirement:  v.MatchedByRequirement,
	}
}

// cacheGet returns the cached body for key, or nil on miss or any Redis
// error (the cache is best-effort).
func (h *Handler) cacheGet(ctx context.Context, key string) []byte {
	if h.rdb == nil {
		return nil
	}
	body, err := h.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[webapi] cache get: %v", err)
		}
		return nil
	}
	return body
}

func (h *Handler) cacheSet(ctx context.Context, key string, body []byte) {
	if h.rdb == nil {
		return
	}
	if err := h.rdb.Set(ctx, key, body, statisticCacheTTL).Err(); err != nil {
		log.Printf("[webapi] cache set: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[webapi] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
