package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/oneiriclabs/reverie/internal/domain"
	"github.com/oneiriclabs/reverie/internal/history"
)

// maxUploadBytes bounds the multipart form held in memory.
const maxUploadBytes = 64 << 20

// Synthesizer runs the pipeline for one submission.
type Synthesizer interface {
	Synthesize(ctx context.Context, audioPath, language string) *domain.SynthesisResult
}

// Handler serves the dream API.
type Handler struct {
	pipeline Synthesizer
	store    history.Store
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(pipeline Synthesizer, store history.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{pipeline: pipeline, store: store, logger: logger}
}

// Register mounts the routes.
func (h *Handler) Register(s *Server) {
	s.Router.Post("/v1/dreams", h.HandleSubmitDream)
	s.Router.Get("/v1/dreams", h.HandleListDreams)
	s.Router.Get("/healthz", h.HandleHealth)
}

// submitResponse is the wire shape of one submission outcome. Saved is only
// present after a successful pipeline run; a false value means the result
// was produced but could not be persisted.
type submitResponse struct {
	*domain.SynthesisResult
	ImageBase64 string `json:"image_base64,omitempty"`
	Saved       *bool  `json:"saved,omitempty"`
}

// HandleSubmitDream accepts a multipart audio upload, runs the pipeline,
// and appends the record to history on success. A pipeline failure is a
// domain outcome, not a transport error: the response is 200 with
// success=false and whatever partial fields were produced.
func (h *Handler) HandleSubmitDream(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	audio, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file field")
		return
	}
	defer audio.Close()

	// The pipeline consumes a file path; spill the upload to a temp file
	// keeping the original extension so container validation still applies.
	tmp, err := os.CreateTemp("", "dream-*"+filepath.Ext(header.Filename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to buffer upload")
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, audio); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, "failed to buffer upload")
		return
	}
	tmp.Close()

	result := h.pipeline.Synthesize(r.Context(), tmp.Name(), r.FormValue("language"))

	resp := submitResponse{SynthesisResult: result}
	if len(result.ImageData) > 0 {
		resp.ImageBase64 = base64.StdEncoding.EncodeToString(result.ImageData)
	}

	if result.Success {
		saved := true
		if err := h.store.Append(r.Context(), result.Record()); err != nil {
			// The user still gets their result even when the save failed.
			h.logger.Error("failed to persist dream record",
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("error", err.Error()))
			saved = false
		}
		resp.Saved = &saved
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleListDreams returns the full history, newest first.
func (h *Handler) HandleListDreams(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read history: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
