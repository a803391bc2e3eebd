// File path: internal/api/verify_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/observability"
	"github.com/mattlimsiaco/trackwise-search/internal/verified"
)

type verifyRequest struct {
	UserQuery string `json:"userQuery"`
	SQLQuery  string `json:"sqlQuery"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: verify decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserQuery == "" || req.SQLQuery == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("userQuery and sqlQuery required"))
		return
	}
	outcome, err := s.recorder.Verify(r.Context(), req.UserQuery, req.SQLQuery)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	observability.RecordVerification(string(outcome))
	message := "Query stored successfully"
	if outcome == verified.OutcomeDuplicate {
		message = "Duplicate entry found. No new data added."
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": message,
		"outcome": string(outcome),
	})
}
