package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// handleHome handles GET /api/v1/home.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	home, err := s.deps.Home(r.Context())
	if err != nil {
		s.fail(w, r, "api.home", err)
		return
	}
	writeJSON(w, http.StatusOK, home)
}

// handleLeaderboard handles GET /api/v1/leaderboard?sort=&dir=.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lb, err := s.deps.Leaderboard(r.Context(), q.Get("sort"), q.Get("dir"))
	if err != nil {
		s.fail(w, r, "api.leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// handleAchievements handles GET /api/v1/achievements?category=.
func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Achievements(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.fail(w, r, "api.achievements", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleMember handles GET /api/v1/members/{characterName}.
func (s *Server) handleMember(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "characterName")
	// chi matches on RawPath when the path carries escapes that Path cannot
	// represent, so the parameter may still be encoded.
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}
	}
	profile, err := s.deps.Profile(r.Context(), name)
	if err != nil {
		s.fail(w, r, "api.member", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
