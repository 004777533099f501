package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/daybook-app/daybook/internal/cloud"
	"github.com/daybook-app/daybook/internal/dateutil"
	"github.com/daybook-app/daybook/internal/model"
	"github.com/daybook-app/daybook/internal/store"
)

// DayStore is the slice of the record store the API needs.
// It allows unit-testing handlers without a file-backed store.
type DayStore interface {
	Keys() []string
	Day(key string) (model.DayRecord, bool)
	Range(from, to time.Time) []model.DayRecord
	Add(date time.Time, content string) (model.RecordItem, error)
	Update(key, itemID, content string) (bool, error)
	DeleteItem(key, itemID string) (bool, error)
	DeleteDay(key string) (bool, error)
	Subscribe() (<-chan store.Event, func())
}

// Syncer triggers cloud synchronization on demand.
type Syncer interface {
	SyncNow(ctx context.Context) (cloud.Result, error)
	Status() cloud.Status
}

// Server exposes the record store over a local HTTP API.
type Server struct {
	store    DayStore
	syncer   Syncer
	origins  []string
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

// NewServer wires the handlers. syncer may be nil when cloud sync is not
// configured; the sync endpoints then answer 503.
func NewServer(st DayStore, sy Syncer, origins []string, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		store:   st,
		syncer:  sy,
		origins: origins,
		logger:  logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}
	return s
}

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/days", s.listDays)

		r.Route("/days/{date}", func(r chi.Router) {
			r.Get("/", s.getDay)
			r.Delete("/", s.deleteDay)
			r.Post("/records", s.createRecord)
			r.Put("/records/{id}", s.updateRecord)
			r.Delete("/records/{id}", s.deleteRecord)
		})

		r.Get("/months/{year}/{month}", s.monthSummary)

		r.Post("/sync", s.syncNow)
		r.Get("/sync/status", s.syncStatus)
		r.Get("/events", s.events)
	})

	return r
}

// dayParam parses the {date} URL parameter and returns the normalized day key.
func dayParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date, err := dateutil.ParseDayKey(chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date (want YYYY-MM-DD)"})
		return "", false
	}
	return dateutil.DayKey(date), true
}

func (s *Server) listDays(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	var days []model.DayRecord
	switch {
	case fromStr == "" && toStr == "":
		for _, k := range s.store.Keys() {
			if d, ok := s.store.Day(k); ok {
				days = append(days, d)
			}
		}
	case fromStr == "" || toStr == "":
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from and to must be used together"})
		return
	default:
		from, err := dateutil.ParseDayKey(fromStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from date (want YYYY-MM-DD)"})
			return
		}
		to, err := dateutil.ParseDayKey(toStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to date (want YYYY-MM-DD)"})
			return
		}
		days = s.store.Range(from, dateutil.EndOfDay(to))
	}

	if days == nil {
		days = []model.DayRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "count": len(days)})
}

func (s *Server) getDay(w http.ResponseWriter, r *http.Request) {
	key, ok := dayParam(w, r)
	if !ok {
		return
	}
	day, ok := s.store.Day(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no records for " + key})
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) deleteDay(w http.ResponseWriter, r *http.Request) {
	key, ok := dayParam(w, r)
	if !ok {
		return
	}
	removed, err := s.store.DeleteDay(key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no records for " + key})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordRequest struct {
	Content string `json:"content"`
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	key, ok := dayParam(w, r)
	if !ok {
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content required"})
		return
	}

	date, _ := dateutil.ParseDayKey(key)
	item, err := s.store.Add(date, req.Content)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	key, ok := dayParam(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "id")

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content required"})
		return
	}

	updated, err := s.store.Update(key, itemID, req.Content)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !updated {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
		return
	}

	day, _ := s.store.Day(key)
	if i := day.FindRecord(itemID); i >= 0 {
		writeJSON(w, http.StatusOK, day.Records[i])
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	key, ok := dayParam(w, r)
	if !ok {
		return
	}
	removed, err := s.store.DeleteItem(key, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type monthDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func (s *Server) monthSummary(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month (want 1-12)"})
		return
	}

	from, to := dateutil.MonthRange(year, time.Month(month), time.Local)
	days := s.store.Range(from, to)

	summary := make([]monthDay, 0, len(days))
	total := 0
	for _, d := range days {
		summary = append(summary, monthDay{Date: dateutil.DayKey(d.Date), Count: len(d.Records)})
		total += len(d.Records)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month": dateutil.DayKey(from)[:7],
		"label": dateutil.MonthLabel(from),
		"days":  summary,
		"total": total,
	})
}

func (s *Server) syncNow(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cloud sync is not configured"})
		return
	}
	res, err := s.syncer.SyncNow(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) syncStatus(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cloud sync is not configured"})
		return
	}
	writeJSON(w, http.StatusOK, s.syncer.Status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
