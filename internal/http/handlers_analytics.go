package http

import "net/http"

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	data, err := s.analyticsService.Snapshot(r.Context(), claims.UserID, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
