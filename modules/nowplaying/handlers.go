package nowplaying

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/zachfi/onair/pkg/artwork"
	"github.com/zachfi/onair/pkg/mpc"
)

// LibrarySource answers the non-snapshot queries of the API.
type LibrarySource interface {
	Stats(ctx context.Context) (map[string]string, error)
	History(ctx context.Context) ([]mpc.HistoryEntry, error)
	CurrentFile(ctx context.Context) (string, error)
}

type ArtworkSource interface {
	Fetch(ctx context.Context, file string) (*artwork.Blob, error)
}

// API serves the HTTP endpoints.
type API struct {
	snapshots SnapshotSource
	library   LibrarySource
	listeners ListenerSource
	artwork   ArtworkSource
	sockets   http.Handler
	service   string
	logger    *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type historyResponse struct {
	Tracks []mpc.HistoryEntry `json:"tracks"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// RegisterRoutes adds the API and websocket routes to r.
func (a *API) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/now-playing", a.nowPlaying).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/stats", a.stats).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/history", a.history).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/listeners", a.listenerStats).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/album-art", a.albumArt).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/health", a.health).Methods(http.MethodGet, http.MethodOptions)

	r.Handle("/ws", a.sockets)
	r.Handle("/", a.sockets).MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
		return websocket.IsWebSocketUpgrade(req)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) nowPlaying(w http.ResponseWriter, r *http.Request) {
	snap, err := a.snapshots.Snapshot(r.Context())
	if err != nil {
		a.logger.Error("failed to build now playing", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap.NowPlaying())
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.library.Stats(r.Context())
	if err != nil {
		a.logger.Error("failed to read stats", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	tracks, err := a.library.History(r.Context())
	if err != nil {
		a.logger.Warn("failed to read history", "err", err)
	}
	if tracks == nil {
		tracks = []mpc.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Tracks: tracks})
}

func (a *API) listenerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.listeners.Fetch(r.Context()))
}

func (a *API) albumArt(w http.ResponseWriter, r *http.Request) {
	file, err := a.library.CurrentFile(r.Context())
	if err != nil {
		a.logger.Error("failed to read current file", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if file == "" {
		writeError(w, http.StatusNotFound, "No track currently playing")
		return
	}

	blob, err := a.artwork.Fetch(r.Context(), file)
	if err != nil {
		if !errors.Is(err, artwork.ErrNotFound) {
			a.logger.Error("failed to fetch album art", "file", file, "err", err)
		}
		writeError(w, http.StatusNotFound, "Album art not found for track")
		return
	}

	h := w.Header()
	h.Set("Content-Type", blob.MIMEType)
	h.Set("Content-Length", strconv.Itoa(len(blob.Data)))
	h.Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Service: a.service})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
