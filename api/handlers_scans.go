package api

import (
	"net/http"
)

func (s *Server) handleGetLatestScan(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Latest(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load scan history", err)
		return
	}
	if run == nil {
		respondWithError(w, http.StatusNotFound, "no scans recorded yet", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunScan(w http.ResponseWriter, r *http.Request) {
	if s.scanRunner == nil {
		respondWithError(w, http.StatusServiceUnavailable, "scanning disabled", nil)
		return
	}

	runID, err := s.scanRunner.TriggerScan()
	if err != nil {
		respondWithError(w, http.StatusConflict, err.Error(), nil)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"run_id": runID,
		"status": "started",
	})
}
