package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
	"github.com/joseph-ayodele/discharge-summarizer/internal/export"
	"github.com/joseph-ayodele/discharge-summarizer/internal/ingest"
	"github.com/joseph-ayodele/discharge-summarizer/internal/pipeline"
)

const (
	msgProcessingFailed = "Error processing file."
	msgTooLarge         = "Upload too large."
	msgBadUpload        = "Invalid upload."
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// handleExtract runs the uploaded batch and answers with the selected summary.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
		return
	}

	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	files, err := ingest.FromRequest(r, s.cfg.UploadField)
	if err != nil {
		if errors.Is(err, ingest.ErrTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Message: msgTooLarge, Error: err.Error()})
			return
		}
		s.logger.Warn("http.extract.bad_upload", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: msgBadUpload, Error: err.Error()})
		return
	}

	res, err := s.proc.ProcessBatch(r.Context(), files)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: msgProcessingFailed, Error: common.ErrorDetail(err)})
		return
	}
	if res.Empty {
		writeJSON(w, http.StatusOK, messageResponse{Message: pipeline.NoTextMessage})
		return
	}

	out, err := s.renderer.Render(format, string(res.Selected))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: msgProcessingFailed, Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	if out.Filename != "" {
		w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(out.Filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
