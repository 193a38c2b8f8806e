package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/shared"
	"github.com/desertthunder/lrcx/internal/tasks"
)

const maxRequestBody = 64 << 10

// LyricsStore reads stored payloads. Implemented by repositories.LyricsRepository.
type LyricsStore interface {
	Get(id string) (*models.PersistedLyrics, error)
	FindBySong(song models.Song) ([]*models.PersistedLyrics, error)
}

// HistoryStore reads resolution history. Implemented by repositories.ResolutionRepository.
type HistoryStore interface {
	List(criteria map[string]any) ([]*models.Resolution, error)
}

// Resolver runs resolutions. Implemented by [tasks.LyricsEngine].
type Resolver interface {
	Provider() string
	Resolve(ctx context.Context, song models.Song, opts tasks.ResolveOpts, progress chan<- tasks.ProgressUpdate) (*tasks.ResolveResult, error)
}

// LyricsHandlerOpts wires a [LyricsHandler].
type LyricsHandlerOpts struct {
	Lyrics   LyricsStore
	History  HistoryStore
	Resolver Resolver
	Timeout  time.Duration // Upper bound for POST /resolve (default: 30s)
	Logger   *log.Logger
}

// LyricsHandler serves stored lyrics, history and on-demand resolution as JSON.
type LyricsHandler struct {
	lyrics   LyricsStore
	history  HistoryStore
	resolver Resolver
	timeout  time.Duration
	logger   *log.Logger
}

// NewLyricsHandler creates a new [LyricsHandler].
func NewLyricsHandler(opts LyricsHandlerOpts) *LyricsHandler {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &LyricsHandler{
		lyrics:   opts.Lyrics,
		history:  opts.History,
		resolver: opts.Resolver,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *LyricsHandler) Routes() []string {
	return []string{
		"GET /health",
		"GET /lyrics",
		"GET /lyrics/{id}",
		"GET /history",
		"POST /resolve",
	}
}

// ServeHTTP dispatches on the matched route pattern.
func (h *LyricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "GET /health":
		h.health(w)
	case "GET /lyrics":
		h.findLyrics(w, r)
	case "GET /lyrics/{id}":
		h.getLyrics(w, r)
	case "GET /history":
		h.listHistory(w, r)
	case "POST /resolve":
		h.resolve(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider,omitempty"`
}

// LyricsResponse is the JSON form of a stored payload
type LyricsResponse struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Source    string    `json:"source"`
	Artist    string    `json:"artist"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ResolutionResponse is the JSON form of a history row
type ResolutionResponse struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	Artist    string  `json:"artist"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	Rounds    int     `json:"rounds"`
	Accepted  int     `json:"accepted"`
	Error     string  `json:"error,omitempty"`
	Seconds   float64 `json:"seconds"`
}

type resolveRequest struct {
	Artist  string `json:"artist"`
	Title   string `json:"title"`
	NoCache bool   `json:"no_cache"`
}

// ResolveResponse is returned by POST /resolve
type ResolveResponse struct {
	Session  string          `json:"session"`
	Status   string          `json:"status"`
	Rounds   int             `json:"rounds"`
	Accepted int             `json:"accepted"`
	Cached   bool            `json:"cached"`
	Error    string          `json:"error,omitempty"`
	Lyrics   []models.Lyrics `json:"lyrics"`
}

func (h *LyricsHandler) health(w http.ResponseWriter) {
	resp := healthResponse{Status: "ok"}
	if h.resolver != nil {
		resp.Provider = h.resolver.Provider()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LyricsHandler) findLyrics(w http.ResponseWriter, r *http.Request) {
	if h.lyrics == nil {
		writeError(w, http.StatusServiceUnavailable, "lyrics store unavailable")
		return
	}

	q := r.URL.Query()
	song := models.Song{Artist: q.Get("artist"), Title: q.Get("title")}
	if err := song.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	found, err := h.lyrics.FindBySong(song)
	if err != nil {
		h.logger.Error("lyrics lookup failed", "song", song.String(), "err", err)
		writeError(w, http.StatusInternalServerError, "lyrics lookup failed")
		return
	}
	if len(found) == 0 {
		writeError(w, http.StatusNotFound, shared.ErrLyricsNotFound.Error())
		return
	}

	out := make([]LyricsResponse, 0, len(found))
	for _, l := range found {
		out = append(out, NewLyricsResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LyricsHandler) getLyrics(w http.ResponseWriter, r *http.Request) {
	if h.lyrics == nil {
		writeError(w, http.StatusServiceUnavailable, "lyrics store unavailable")
		return
	}

	l, err := h.lyrics.Get(r.PathValue("id"))
	switch {
	case errors.Is(err, shared.ErrLyricsNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		h.logger.Error("lyrics lookup failed", "id", r.PathValue("id"), "err", err)
		writeError(w, http.StatusInternalServerError, "lyrics lookup failed")
	default:
		writeJSON(w, http.StatusOK, NewLyricsResponse(l))
	}
}

func (h *LyricsHandler) listHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}

	q := r.URL.Query()
	criteria := map[string]any{"limit": 50}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		criteria["limit"] = n
	}
	for _, key := range []string{"status", "artist", "title"} {
		if v := q.Get(key); v != "" {
			criteria[key] = v
		}
	}

	rows, err := h.history.List(criteria)
	if err != nil {
		h.logger.Error("history lookup failed", "err", err)
		writeError(w, http.StatusInternalServerError, "history lookup failed")
		return
	}

	out := make([]ResolutionResponse, 0, len(rows))
	for _, res := range rows {
		out = append(out, NewResolutionResponse(res))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LyricsHandler) resolve(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "resolver unavailable")
		return
	}

	var req resolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	song := models.Song{Artist: req.Artist, Title: req.Title}
	if err := song.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.resolver.Resolve(ctx, song, tasks.ResolveOpts{NoCache: req.NoCache}, nil)
	if result == nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, statusFor(err), NewResolveResponse(result, err))
}

// statusFor maps resolution errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrLyricsNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// NewLyricsResponse converts a stored payload
func NewLyricsResponse(l *models.PersistedLyrics) LyricsResponse {
	return LyricsResponse{
		ID:        l.ID(),
		Sequence:  l.Sequence(),
		Source:    l.Source(),
		Artist:    l.Artist(),
		Title:     l.Title(),
		Checksum:  l.Checksum(),
		Content:   l.Content(),
		CreatedAt: l.CreatedAt(),
	}
}

// NewResolutionResponse converts a history row
func NewResolutionResponse(res *models.Resolution) ResolutionResponse {
	song := res.Song()
	return ResolutionResponse{
		ID:        res.ID(),
		SessionID: res.SessionID(),
		Artist:    song.Artist,
		Title:     song.Title,
		Status:    string(res.Status()),
		Rounds:    res.Rounds(),
		Accepted:  res.Accepted(),
		Error:     res.ErrorMessage(),
		Seconds:   res.Duration().Seconds(),
	}
}

// NewResolveResponse converts the outcome of a resolution. err is the error returned
// alongside result, if any.
func NewResolveResponse(result *tasks.ResolveResult, err error) ResolveResponse {
	resp := ResolveResponse{
		Session:  result.Session.ID.String(),
		Status:   string(result.Session.Status),
		Rounds:   result.Session.Rounds,
		Accepted: result.Session.Accepted,
		Cached:   result.Cached,
		Lyrics:   result.Lyrics,
	}
	if resp.Lyrics == nil {
		resp.Lyrics = []models.Lyrics{}
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
