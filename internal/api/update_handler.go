// File path: internal/api/update_handler.go
package api

import (
	"fmt"
	"net/http"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/schema"
)

// handleUpdateData rebuilds the schema index from the live database: every
// (table, column) row is re-read and re-embedded, the snapshot CSV is
// rewritten, and the fresh index is swapped in for subsequent requests. The
// operation is synchronous and explicit; in-flight requests keep using the
// index they started with.
func (s *Server) handleUpdateData(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("no database configured"))
		return
	}
	logger.Info("api: schema rebuild requested")
	columns, err := s.db.SchemaColumns(ctx)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	index, err := schema.Build(ctx, columns, s.provider)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if err := schema.WriteSnapshot(s.cfg.SnapshotPath, index); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.rebuildPipeline(index); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("api: schema rebuild complete", "columns", len(columns), "tables", len(index.Tables()))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Data updated successfully"})
}
