// File path: internal/api/export_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/export"
)

type exportRequest struct {
	ResultID string `json:"result_id"`
}

// handleExport streams the rows of a previous /query response as a CSV
// attachment. Results are request-scoped: the caller must present the
// result_id it was handed, and ids expire after a short TTL.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: export decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ResultID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("result_id required"))
		return
	}
	rows, ok := s.results.Get(req.ResultID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("result %s not found or expired", req.ResultID))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="query_results.csv"`)
	if err := export.WriteCSV(w, rows); err != nil {
		logger.Error("api: export write failed", "error", err)
	}
}
