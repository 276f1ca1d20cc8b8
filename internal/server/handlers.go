package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/toshokan/internal/models"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("text", req.Text), zap.Int("top_k", req.TopK))
	results, err := s.service.Query(r.Context(), req.Text, req.TopK)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.QueryResponse{Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.holder.Active()
	resp := map[string]interface{}{
		"indexed_chunks": snap.Size(),
		"index_built_at": snap.BuiltAt(),
		"pipeline_state": s.pipeline.State().String(),
		"last_cycle":     s.pipeline.LastCycle(),
	}
	resp["config"] = map[string]interface{}{
		"repositories":          s.config.Repos.URLs,
		"update_interval_hours": s.config.Repos.UpdateIntervalHours,
		"chunk_size":            s.config.Chunking.Size,
		"chunk_overlap":         s.config.Chunking.Overlap,
		"embedding_type":        s.config.Embedding.Type,
		"vector_index_type":     s.config.Vector.IndexType,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
