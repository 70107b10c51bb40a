package http

import (
	stderrors "errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/models"
	"github.com/windfall/spellcheck_service/internal/service"
	"github.com/windfall/spellcheck_service/pkg/response"
)

// AssessHandler serves the assessment API.
type AssessHandler struct {
	log            zerolog.Logger
	assessor       service.Assessor
	store          *service.AudioStore
	maxUploadBytes int64
}

// NewAssessHandler creates a new AssessHandler.
func NewAssessHandler(log zerolog.Logger, assessor service.Assessor, store *service.AudioStore, maxUploadBytes int64) *AssessHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &AssessHandler{
		log:            log,
		assessor:       assessor,
		store:          store,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes mounts the assessment API on r.
func (h *AssessHandler) Routes(r chi.Router) {
	r.Post("/assess", h.Assess)
	r.Post("/assess/{fileID}", h.AssessStored)
	r.Get("/audio/{fileID}", h.GetAudio)
	r.Delete("/audio/{fileID}", h.DeleteAudio)
	r.Get("/attempts", h.ListAttempts)
}

// Assess handles POST /assess
//
// Request: multipart/form-data with "spell" and "audio" fields
// Response: AssessmentResult JSON
func (h *AssessHandler) Assess(w http.ResponseWriter, r *http.Request) {
	req, file, err := readAssessUpload(w, r, h.maxUploadBytes)
	if err != nil {
		writeDetailError(h.log, w, err)
		return
	}
	defer file.Close()

	result, err := h.assessor.Assess(r.Context(), req)
	if err != nil {
		writeDetailError(h.log, w, err)
		return
	}

	response.Raw(w, http.StatusOK, result)
}

// AssessStored handles POST /assess/{fileID} with form field "spell".
func (h *AssessHandler) AssessStored(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		writeDetailError(h.log, w, err)
		return
	}

	spell := r.FormValue("spell")
	if spell == "" {
		writeDetailError(h.log, w, errors.Unprocessable("spell is required"))
		return
	}

	result, err := h.assessor.AssessStored(r.Context(), id, spell)
	if err != nil {
		writeDetailError(h.log, w, err)
		return
	}

	response.Raw(w, http.StatusOK, result)
}

// GetAudio handles GET /audio/{fileID}
func (h *AssessHandler) GetAudio(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		writeDetailError(h.log, w, err)
		return
	}

	data, file, err := h.store.Load(r.Context(), id)
	if err != nil {
		writeDetailError(h.log, w, err)
		return
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DeleteAudio handles DELETE /audio/{fileID}
func (h *AssessHandler) DeleteAudio(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		writeDetailError(h.log, w, err)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		writeDetailError(h.log, w, err)
		return
	}

	response.NoContent(w)
}

// ListAttempts handles GET /attempts?spell=X
func (h *AssessHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	spell := r.URL.Query().Get("spell")
	if spell == "" {
		writeDetailError(h.log, w, errors.Unprocessable("spell is required"))
		return
	}

	attempts, err := h.store.ListAttempts(r.Context(), spell)
	if err != nil {
		writeDetailError(h.log, w, err)
		return
	}

	response.Raw(w, http.StatusOK, attempts)
}

// readAssessUpload parses the "spell" and "audio" multipart fields. The caller closes the file.
func readAssessUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (models.AssessRequest, multipart.File, error) {
	tooLarge := errors.TooLarge(fmt.Sprintf("upload exceeds the %d byte limit", maxBytes))
	if r.ContentLength > maxBytes {
		return models.AssessRequest{}, nil, tooLarge
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return models.AssessRequest{}, nil, tooLarge
		}
		return models.AssessRequest{}, nil, errors.Unprocessable("spell and audio form fields are required")
	}

	spell := r.FormValue("spell")
	if spell == "" {
		return models.AssessRequest{}, nil, errors.Unprocessable("spell is required")
	}

	file, hdr, err := r.FormFile("audio")
	if err != nil {
		return models.AssessRequest{}, nil, errors.Unprocessable("audio is required")
	}

	return models.AssessRequest{
		Spell:       spell,
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Audio:       file,
	}, file, nil
}

func fileIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		return uuid.Nil, errors.NotFound("audio file")
	}
	return id, nil
}

// writeDetailError writes err as {"detail": ...}. Server errors carry the full error text.
func writeDetailError(log zerolog.Logger, w http.ResponseWriter, err error) {
	status := errors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		response.Detail(w, status, err.Error())
		return
	}

	message := err.Error()
	if appErr, ok := errors.As(err); ok {
		message = appErr.Message
	}
	response.Detail(w, status, message)
}
