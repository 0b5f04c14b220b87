package http

import (
	"log/slog"
	"net/http"
)

const (
	themeLight = "light"
	themeDark  = "dark"
)

type themePayload struct {
	Theme string `json:"theme"`
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	value, ok, err := s.settings.Get(r.Context(), s.opts.ThemeKey)
	if err != nil {
		slog.ErrorContext(r.Context(), "Theme read failed", "error", err, "key", s.opts.ThemeKey)
		respondError(w, http.StatusInternalServerError, "internal", "could not read theme")
		return
	}

	theme := themeLight
	if ok {
		switch string(value) {
		case themeLight, themeDark:
			theme = string(value)
		default:
			// A corrupt stored value falls back to the default.
			slog.WarnContext(r.Context(), "Unknown stored theme, using default",
				"key", s.opts.ThemeKey, "value", string(value))
		}
	}

	respondJSON(w, http.StatusOK, themePayload{Theme: theme})
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	var in themePayload
	if err := decodeBody(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "bad-request", "malformed JSON body")
		return
	}

	if in.Theme != themeLight && in.Theme != themeDark {
		respondError(w, http.StatusUnprocessableEntity, "validation", "theme must be light or dark")
		return
	}

	if err := s.settings.Set(r.Context(), s.opts.ThemeKey, []byte(in.Theme)); err != nil {
		slog.ErrorContext(r.Context(), "Theme write failed", "error", err, "key", s.opts.ThemeKey)
		respondError(w, http.StatusInternalServerError, "internal", "could not save theme")
		return
	}

	respondJSON(w, http.StatusOK, themePayload{Theme: in.Theme})
}
