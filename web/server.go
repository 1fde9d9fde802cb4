// Package web serves a localhost-only single-user JSON API; it intentionally
// has no auth/CSRF protection in this mode.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shiftclock/compliance"
	"shiftclock/duration"
	"shiftclock/importer"
	"shiftclock/internal/timeutil"
	"shiftclock/session"
	"shiftclock/storage"
	"shiftclock/timeentry"
)

type Server struct {
	store      *storage.SQLStore
	controller *session.Controller
	profile    compliance.Profile

	now func() time.Time
	loc *time.Location
	log zerolog.Logger

	mux *http.ServeMux
}

type Option func(*Server)

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		s.loc = loc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

type entryMutationRequest struct {
	Date  string `json:"date"`
	Kind  string `json:"kind"`
	Start string `json:"start"`
	End   string `json:"end"`
	Note  string `json:"note"`
}

type commandResponse struct {
	Op      session.Op    `json:"op"`
	Applied bool          `json:"applied"`
	Before  session.State `json:"before"`
	After   session.State `json:"after"`
	Session SessionView   `json:"session"`
}

type importResponse struct {
	FilesProcessed int      `json:"filesProcessed"`
	RowsRead       int      `json:"rowsRead"`
	RowsMapped     int      `json:"rowsMapped"`
	RowsSkipped    int      `json:"rowsSkipped"`
	RowsInvalid    int      `json:"rowsInvalid"`
	RowsDuplicate  int      `json:"rowsDuplicate"`
	RowsOverlap    int      `json:"rowsOverlap"`
	RowsPersisted  int      `json:"rowsPersisted"`
	Errors         []string `json:"errors,omitempty"`
}

func NewServer(store *storage.SQLStore, controller *session.Controller, profile compliance.Profile, opts ...Option) http.Handler {
	server := &Server{
		store:      store,
		controller: controller,
		profile:    profile,
		now:        time.Now,
		loc:        time.Local,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/session", server.handleAPISession)
	mux.HandleFunc("POST /api/session/{action}", server.handleAPISessionCommand)
	mux.HandleFunc("GET /api/day/{date}", server.handleAPIDay)
	mux.HandleFunc("GET /api/month/{month}", server.handleAPIMonth)
	mux.HandleFunc("POST /api/entry", server.handleAPIEntryCreate)
	mux.HandleFunc("PATCH /api/entry/{id}", server.handleAPIEntryPatch)
	mux.HandleFunc("DELETE /api/entry/{id}", server.handleAPIEntryDelete)
	mux.HandleFunc("POST /api/import", server.handleAPIImport)
	server.mux = mux

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleAPISession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BuildSessionView(s.controller, s.profile, s.now().In(s.loc)))
}

func (s *Server) handleAPISessionCommand(w http.ResponseWriter, r *http.Request) {
	var (
		result session.Result
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(r.PathValue("action"))) {
	case "start":
		result, err = s.controller.StartWork(r.Context())
	case "stop":
		result, err = s.controller.StopWork(r.Context())
	case "break":
		result, err = s.controller.ToggleBreak(r.Context())
	default:
		http.Error(w, "unknown session action (expected start, stop or break)", http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeError(w, string(result.Op), err)
		return
	}

	writeJSON(w, http.StatusOK, commandResponse{
		Op:      result.Op,
		Applied: result.Applied,
		Before:  result.Before,
		After:   result.After,
		Session: BuildSessionView(s.controller, s.profile, s.now().In(s.loc)),
	})
}

func (s *Server) handleAPIDay(w http.ResponseWriter, r *http.Request) {
	day, err := timeutil.ParseDay(r.PathValue("date"), s.loc)
	if err != nil {
		http.Error(w, "invalid date format (expected YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	key := timeutil.DayKey(day)

	entries, err := s.store.ListDay(r.Context(), s.controller.UserID(), key)
	if err != nil {
		s.writeError(w, "list day", err)
		return
	}

	writeJSON(w, http.StatusOK, BuildDayView(key, entries, s.profile, s.now().In(s.loc)))
}

func (s *Server) handleAPIMonth(w http.ResponseWriter, r *http.Request) {
	monthStart, err := timeutil.ParseMonth(r.PathValue("month"), s.loc)
	if err != nil {
		http.Error(w, "invalid month format (expected YYYY-MM)", http.StatusBadRequest)
		return
	}
	from, to := timeutil.MonthDays(monthStart)

	entries, err := s.store.ListRange(r.Context(), s.controller.UserID(), from, to)
	if err != nil {
		s.writeError(w, "list month", err)
		return
	}

	days := duration.ComputeDays(entries, s.profile, s.now().In(s.loc))
	summary := duration.BuildMonthlySummary(monthStart.Format(timeutil.MonthLayout), days)
	writeJSON(w, http.StatusOK, BuildMonthView(monthStart, summary))
}

func (s *Server) handleAPIEntryCreate(w http.ResponseWriter, r *http.Request) {
	var body entryMutationRequest
	if err := decodeJSON(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	manual, err := s.buildManualEntry(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.store.CreateManual(r.Context(), manual)
	if err != nil {
		s.writeError(w, "create entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": string(id)})
}

func (s *Server) handleAPIEntryPatch(w http.ResponseWriter, r *http.Request) {
	id := timeentry.ID(strings.TrimSpace(r.PathValue("id")))

	var body entryMutationRequest
	if err := decodeJSON(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	manual, err := s.buildManualEntry(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.UpdateManual(r.Context(), id, manual); err != nil {
		s.writeError(w, "update entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIEntryDelete(w http.ResponseWriter, r *http.Request) {
	id := timeentry.ID(strings.TrimSpace(r.PathValue("id")))

	existing, found, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, "get entry", err)
		return
	}
	if !found || existing.UserID != s.controller.UserID() {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}
	if existing.Open() {
		http.Error(w, "entry is the running session; stop it first", http.StatusConflict)
		return
	}

	deleted, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, "delete entry", err)
		return
	}
	if !deleted {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", tempUploadPattern(header.Filename))
	if err != nil {
		http.Error(w, fmt.Sprintf("create temp upload: %v", err), http.StatusInternalServerError)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		http.Error(w, fmt.Sprintf("save upload: %v", err), http.StatusInternalServerError)
		return
	}
	if err := tmp.Close(); err != nil {
		http.Error(w, fmt.Sprintf("close upload temp file: %v", err), http.StatusInternalServerError)
		return
	}

	result, err := importer.Run(r.Context(), []string{tmpPath}, s.store, importer.RunOptions{
		UserID:   s.controller.UserID(),
		Format:   strings.TrimSpace(r.FormValue("format")),
		Location: s.loc,
		DryRun:   strings.TrimSpace(r.FormValue("dryRun")) == "1",
		Logger:   s.log,
	})
	if err != nil {
		if timeentry.IsPersistence(err) {
			s.writeError(w, "import", err)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := importResponse{
		FilesProcessed: result.FilesProcessed,
		RowsRead:       result.RowsRead,
		RowsMapped:     result.RowsMapped,
		RowsSkipped:    result.RowsSkipped,
		RowsInvalid:    result.RowsInvalid,
		RowsDuplicate:  result.RowsDuplicate,
		RowsOverlap:    result.RowsOverlap,
		RowsPersisted:  result.RowsStored,
	}
	for _, rowErr := range result.Errors {
		resp.Errors = append(resp.Errors, fmt.Sprintf("row %d: %v", rowErr.RowNumber, rowErr.Err))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) buildManualEntry(body entryMutationRequest) (timeentry.ManualEntry, error) {
	day, err := timeutil.ParseDay(body.Date, s.loc)
	if err != nil {
		return timeentry.ManualEntry{}, fmt.Errorf("invalid date format (expected YYYY-MM-DD)")
	}

	kind := timeentry.KindWork
	if strings.TrimSpace(body.Kind) != "" {
		kind, err = timeentry.ParseKind(body.Kind)
		if err != nil {
			return timeentry.ManualEntry{}, err
		}
	}

	start, err := timeutil.ClockOnDay(day, body.Start)
	if err != nil {
		return timeentry.ManualEntry{}, fmt.Errorf("invalid start time (expected HH:MM)")
	}
	end, err := timeutil.ClockOnDay(day, body.End)
	if err != nil {
		return timeentry.ManualEntry{}, fmt.Errorf("invalid end time (expected HH:MM)")
	}

	return timeentry.ManualEntry{
		UserID: s.controller.UserID(),
		Date:   timeutil.DayKey(day),
		Kind:   kind,
		Start:  start,
		End:    end,
		Note:   body.Note,
	}, nil
}

// writeError maps domain errors to status codes. Only unexpected failures
// are logged.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("op", op).Msg("request failed")
	}
	http.Error(w, err.Error(), status)
}

func statusForError(err error) int {
	switch {
	case timeentry.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, timeentry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, timeentry.ErrOpenEntryExists),
		errors.Is(err, timeentry.ErrInvalidTransition),
		errors.Is(err, timeentry.ErrEntryClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func tempUploadPattern(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "" || base == "." {
		return "upload-*"
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem = "upload"
	}
	if ext == "" {
		return stem + "-*"
	}
	return stem + "-*" + ext
}
