package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"igfeed/internal/hooks"
	"igfeed/pkg/media"
	"igfeed/pkg/models"
	"igfeed/pkg/options"
)

// optionsFormPrefix is the form field prefix of the settings page
const optionsFormPrefix = options.Name + "["

type feedResponse struct {
	Timestamp int64         `json:"timestamp"`
	Data      []models.Post `json:"data"`
}

// --- Read Handlers ---

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts, err := s.app.Options.Get(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load options")
		http.Error(w, "Failed to load options", http.StatusInternalServerError)
		return
	}

	count := opts.PostCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		count = options.Intval(raw)
	}
	count = min(max(count, options.MinPostCount), options.MaxPostCount)

	entry, err := s.app.Refresher.GetData(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to read feed cache")
		http.Error(w, "Failed to read feed", http.StatusInternalServerError)
		return
	}

	resp := feedResponse{Data: []models.Post{}}
	if entry != nil {
		resp.Timestamp = entry.Timestamp
		if entry.Data != nil {
			resp.Data = entry.Data[:min(count, len(entry.Data))]
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid media ID", http.StatusBadRequest)
		return
	}

	att, err := s.app.Media.Get(r.Context(), id)
	if errors.Is(err, media.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("media_id", id).Error("Failed to load attachment")
		http.Error(w, "Failed to load media", http.StatusInternalServerError)
		return
	}

	if att.MimeType != "" {
		w.Header().Set("Content-Type", att.MimeType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, s.app.Media.Path(att))
}

// --- Admin Handlers ---

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken != "" {
			got := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.adminToken)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Hooks.Fire(r.Context(), hooks.RefreshFeed); err != nil {
		s.logger.WithError(err).Warn("Manual refresh failed")
		writeJSON(w, http.StatusOK, map[string]string{"refresh": "error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"refresh": "success"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	opts, err := s.app.Settings.Get(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to load options")
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	in, err := readSettingsInput(r)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	opts, err := s.app.Settings.Save(r.Context(), in)
	if err != nil {
		s.logger.WithError(err).Error("Failed to save settings")
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	next, scheduled := s.nextRun()
	st, err := s.app.Status(r.Context(), next, scheduled)
	if err != nil {
		s.logger.WithError(err).Error("Failed to collect status")
		http.Error(w, "Failed to collect status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// readSettingsInput accepts a JSON object or a form. Form fields may be bare
// (feed_url) or nested under the option name (instagram_scraper_options[feed_url]).
func readSettingsInput(r *http.Request) (options.Input, error) {
	in := options.Input{}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, err
		}
		for k, v := range body {
			switch val := v.(type) {
			case string:
				in[k] = val
			case float64:
				in[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				in[k] = strconv.FormatBool(val)
			}
		}
		return in, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k, vs := range r.PostForm {
		if len(vs) == 0 {
			continue
		}
		if strings.HasPrefix(k, optionsFormPrefix) && strings.HasSuffix(k, "]") {
			k = strings.TrimSuffix(strings.TrimPrefix(k, optionsFormPrefix), "]")
		}
		in[k] = vs[0]
	}
	return in, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
