package api

import "net/http"

func (s *Server) handleListFormats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.formats.List())
}
