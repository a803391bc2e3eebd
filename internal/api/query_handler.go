// File path: internal/api/query_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/observability"
	"github.com/mattlimsiaco/trackwise-search/internal/oracle"
)

type queryRequest struct {
	UserQuery string `json:"sql_query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: query decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserQuery == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("sql_query required"))
		return
	}
	logger.Info("api: query received", "query_length", len(req.UserQuery))

	result, err := s.currentPipeline().Generate(ctx, req.UserQuery)
	if err != nil {
		writeError(w, statusForPipelineError(err), err)
		return
	}

	if s.db == nil {
		// No database configured: report the generated SQL on its own.
		writeJSON(w, http.StatusOK, map[string]interface{}{"result": result.SQL})
		return
	}
	rows, err := s.db.Execute(ctx, result.SQL)
	if err != nil {
		var execErr *oracle.ExecutionError
		if errors.As(err, &execErr) {
			// Execution failures travel as data so the caller can show the
			// attempted SQL next to the database message.
			observability.RecordExecutionError()
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"error":  execErr.Message,
				"result": result.SQL,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resultID := s.results.Put(rows)
	logger.Info("api: query answered", "rows", len(rows), "result_id", resultID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":    result.SQL,
		"data":      rows,
		"result_id": resultID,
	})
}
