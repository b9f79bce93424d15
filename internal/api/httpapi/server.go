// Package httpapi exposes the session over HTTP: JSON commands, a status
// and library view, a websocket event stream and Prometheus metrics.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/localbox/internal/app/notification"
	"github.com/osa030/localbox/internal/app/session"
	"github.com/osa030/localbox/internal/domain/library"
	"github.com/osa030/localbox/internal/infra/config"
)

const maxBodyBytes = 64 << 10

// Session is the part of the session facade served over HTTP.
type Session interface {
	PlayTrack(locator string) error
	TogglePlayPause() error
	SeekTo(positionMs int64) error
	SkipNext() error
	SkipPrevious() error
	Rewind() error
	FastForward() error
	SetSortOrder(key library.SortKey) error
	AddFolder(path string) error
	RemoveFolder(path string) error
	Rescan() error

	GetStatus() *session.Status
	LibraryView() []library.Entry
	Hub() *notification.Hub
}

var _ Session = (*session.Manager)(nil)

// Handlers serves the HTTP API.
type Handlers struct {
	session Session
}

// NewRouter builds the router. Mutating routes require the admin token
// when one is configured.
func NewRouter(sess Session, cfg config.ServerConfig) *mux.Router {
	h := &Handlers{session: sess}

	r := mux.NewRouter()
	r.Use(Metrics)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", h.GetStatus).Methods(http.MethodGet)
	api.HandleFunc("/library", h.GetLibrary).Methods(http.MethodGet)
	api.HandleFunc("/folders", h.GetFolders).Methods(http.MethodGet)
	api.HandleFunc("/events", h.Events).Methods(http.MethodGet)

	admin := AdminToken(cfg.AdminToken)
	command := func(path string, fn http.HandlerFunc, method string) {
		api.Handle(path, admin(fn)).Methods(method)
	}
	command("/transport/seek", h.Seek, http.MethodPost)
	command("/transport/{action:toggle|next|previous|rewind|forward}", h.Transport, http.MethodPost)
	command("/play", h.Play, http.MethodPost)
	command("/sort", h.SetSort, http.MethodPut)
	command("/folders", h.AddFolder, http.MethodPost)
	command("/folders", h.RemoveFolder, http.MethodDelete)
	command("/library/rescan", h.Rescan, http.MethodPost)

	return r
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, http.StatusOK, "ok")
}

// GetStatus returns transport and library status.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStatus(h.session.GetStatus()))
}

// GetLibrary returns the grouped library view.
func (h *Handlers) GetLibrary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toEntries(h.session.LibraryView()))
}

// GetFolders returns the music folders.
func (h *Handlers) GetFolders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Hub().MusicFolders.Get())
}

// Transport runs a parameterless transport command.
func (h *Handlers) Transport(w http.ResponseWriter, r *http.Request) {
	var run func() error
	switch action := mux.Vars(r)["action"]; action {
	case "toggle":
		run = h.session.TogglePlayPause
	case "next":
		run = h.session.SkipNext
	case "previous":
		run = h.session.SkipPrevious
	case "rewind":
		run = h.session.Rewind
	case "forward":
		run = h.session.FastForward
	default:
		writeError(w, errors.Newf("unknown action: %s", action))
		return
	}

	if err := run(); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, "accepted")
}

// Seek moves the playback position.
func (h *Handlers) Seek(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PositionMs == nil {
		writeJSONError(w, http.StatusBadRequest, "position_ms is required")
		return
	}
	if err := h.session.SeekTo(*req.PositionMs); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, "accepted")
}

// Play plays a library track and queues the rest of its album.
func (h *Handlers) Play(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Locator == "" {
		writeJSONError(w, http.StatusBadRequest, "locator is required")
		return
	}
	if err := h.session.PlayTrack(req.Locator); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, "accepted")
}

// SetSort changes the library sort order.
func (h *Handlers) SetSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key, err := library.ParseSortKey(req.Key)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.session.SetSortOrder(key); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, "ok")
}

// AddFolder adds a music folder.
func (h *Handlers) AddFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.session.AddFolder(req.Path); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, "ok")
}

// RemoveFolder removes a music folder.
func (h *Handlers) RemoveFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.session.RemoveFolder(req.Path); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, "ok")
}

// Rescan starts a library scan.
func (h *Handlers) Rescan(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Rescan(); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, "accepted")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps session errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownTrack), errors.Is(err, session.ErrUnknownFolder):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidFolder),
		errors.Is(err, session.ErrInvalidPosition),
		errors.Is(err, library.ErrUnknownSortKey):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		zlog.Error().Msgf("httpapi: request failed: %v", err)
	}
	writeJSONError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Msgf("httpapi: failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

func writeJSONStatus(w http.ResponseWriter, code int, status string) {
	writeJSON(w, code, map[string]string{"status": status})
}
