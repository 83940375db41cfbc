// Package api serves the stored playlists and their structure over HTTP.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/anlaneg/hlsedit/playlist"
	"github.com/anlaneg/hlsedit/tool"
)

// MaxPlaylistBytes bounds the body of a PUT.
const MaxPlaylistBytes = 16 << 20

type Handlers struct {
	db     *tool.PlaylistDB
	parser *playlist.Parser
	log    zerolog.Logger

	// serializes read-update-store of a playlist
	mu sync.Mutex
}

func New(db *tool.PlaylistDB, parser *playlist.Parser, log zerolog.Logger) *Handlers {
	return &Handlers{db: db, parser: parser, log: log}
}

// NewRouter registers the playlist routes. Playlist ids are URLs and may
// contain slashes, so paths are not cleaned.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter().SkipClean(true)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/playlists", h.ListPlaylists).Methods("GET")
	r.HandleFunc("/playlists/{id:.+}/structure", h.GetStructure).Methods("GET")
	r.HandleFunc("/playlists/{id:.+}", h.GetPlaylist).Methods("GET")
	r.HandleFunc("/playlists/{id:.+}", h.PutPlaylist).Methods("PUT")
	r.HandleFunc("/playlists/{id:.+}", h.DeletePlaylist).Methods("DELETE")
	return r
}

func (h *Handlers) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	urls, err := h.db.List()
	if err != nil {
		h.log.Error().Err(err).Msg("list playlists")
		http.Error(w, "Failed to list playlists", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, map[string][]string{"playlists": urls})
}

func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.record(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	if _, err := w.Write(rec.Data); err != nil {
		h.log.Debug().Err(err).Msg("write playlist")
	}
}

func (h *Handlers) GetStructure(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.record(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	res, err := h.parser.Restore(rec.URL, rec.Data, rec.BuiltAt)
	if err != nil {
		h.log.Error().Err(err).Str("url", rec.URL).Msg("parse stored playlist")
		http.Error(w, "Failed to parse playlist", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, newStructure(res))
}

// PutPlaylist stores a new version of a playlist. A stored event playlist
// is updated incrementally when the new body only appends segments.
func (h *Handlers) PutPlaylist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPlaylistBytes))
	if err != nil {
		http.Error(w, "Failed to read playlist", http.StatusRequestEntityTooLarge)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var prev *playlist.Media
	rec, ok, err := h.db.Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("url", id).Msg("get playlist")
		http.Error(w, "Failed to get playlist", http.StatusInternalServerError)
		return
	}
	if ok {
		if old, err := h.parser.Restore(id, rec.Data, rec.BuiltAt); err == nil {
			prev = old.Media
		}
	}

	res, err := h.parser.Refresh(r.Context(), prev, id, data)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Cause(err) == playlist.ErrParseTimeout {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	out := newStructure(res)
	if err := h.db.Put(tool.PlaylistRecord{URL: id, Data: data, BuiltAt: out.BuiltAt}); err != nil {
		h.log.Error().Err(err).Str("url", id).Msg("put playlist")
		http.Error(w, "Failed to store playlist", http.StatusInternalServerError)
		return
	}
	h.log.Info().Str("url", id).Str("kind", out.Kind).Int("rebuilds", out.Stats.Rebuilds).
		Int("patches", out.Stats.Patches).Msg("playlist stored")

	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, out)
}

func (h *Handlers) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.record(w, id); !ok {
		return
	}
	if err := h.db.Delete(id); err != nil {
		h.log.Error().Err(err).Str("url", id).Msg("delete playlist")
		http.Error(w, "Failed to delete playlist", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// record loads id or writes the error response.
func (h *Handlers) record(w http.ResponseWriter, id string) (tool.PlaylistRecord, bool) {
	rec, ok, err := h.db.Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("url", id).Msg("get playlist")
		http.Error(w, "Failed to get playlist", http.StatusInternalServerError)
		return rec, false
	}
	if !ok {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return rec, false
	}
	return rec, true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}
