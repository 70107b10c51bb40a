package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/models"
	"github.com/windfall/spellcheck_service/internal/service"
	"github.com/windfall/spellcheck_service/pkg/response"
)

// AudioHandler relays browser recordings to the assessment tier.
type AudioHandler struct {
	log            zerolog.Logger
	assessor       service.Assessor
	spells         *service.SpellService
	maxUploadBytes int64
}

// NewAudioHandler creates a new AudioHandler.
func NewAudioHandler(log zerolog.Logger, assessor service.Assessor, spells *service.SpellService, maxUploadBytes int64) *AudioHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &AudioHandler{
		log:            log,
		assessor:       assessor,
		spells:         spells,
		maxUploadBytes: maxUploadBytes,
	}
}

// relayedResult is an assessment result annotated with the spell it was scored against.
type relayedResult struct {
	*models.AssessmentResult
	Spell string `json:"spell"`
}

// Upload handles POST /api/audio
//
// Request: multipart/form-data with "spell" and "audio" fields
// Response: AssessmentResult JSON plus "spell"
func (h *AudioHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	response.Raw(w, http.StatusOK, relayedResult{AssessmentResult: result, Spell: req.Spell})
}

type pronunciationRequest struct {
	FileID string `json:"file_id"`
	Spell  string `json:"spell"`
}

// Pronunciation handles POST /api/pronunciation
//
// Request: {"file_id": "...", "spell": "..."}
// Response: AssessmentResult JSON plus "spell"
func (h *AudioHandler) Pronunciation(w http.ResponseWriter, r *http.Request) {
	var req pronunciationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FileID == "" || req.Spell == "" {
		response.Detail(w, http.StatusBadRequest, "file_id and spell are required")
		return
	}
	id, err := uuid.Parse(req.FileID)
	if err != nil {
		response.Detail(w, http.StatusBadRequest, "file_id is not a valid id")
		return
	}

	spell, err := h.spells.Get(r.Context(), req.Spell)
	if err != nil {
		if errors.IsNotFound(err) {
			response.Detail(w, http.StatusNotFound, "Spell not found")
			return
		}
		writeDetailError(h.log, w, err)
		return
	}

	result, err := h.assessor.AssessStored(r.Context(), id, spell.Name)
	if err != nil {
		writeDetailError(h.log, w, err)
		return
	}

	response.Raw(w, http.StatusOK, relayedResult{AssessmentResult: result, Spell: spell.Name})
}
