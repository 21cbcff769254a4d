package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/service"
)

const maxMultipartMemory = 10 << 20

type MediaAnalyzer interface {
	Analyze(ctx context.Context, mediaURL, platform string) *entity.MediaAnalysis
}

type TextExtractor interface {
	Extract(ctx context.Context, mediaURL string) (*entity.TextExtraction, error)
}

// HealthInfo is the static part of the /api/health payload.
type HealthInfo struct {
	Service               string
	Version               string
	CredentialsConfigured bool
	ModelKeyConfigured    bool
	Store                 string
	Queue                 string
}

type Handler struct {
	analyses *service.AnalysisService
	media    MediaAnalyzer
	ocr      TextExtractor
	health   HealthInfo
}

// NewHandler wires the API. media and ocr may be nil when no inference
// service is configured; their endpoints then answer 503.
func NewHandler(analyses *service.AnalysisService, media MediaAnalyzer, ocr TextExtractor, health HealthInfo) *Handler {
	return &Handler{analyses: analyses, media: media, ocr: ocr, health: health}
}

type analyzeDTO struct {
	Claim      string `json:"claim"`
	MediaURL   string `json:"mediaUrl"`
	Platform   string `json:"platform"`
	AnalysisID string `json:"analysisId,omitempty"`
}

type analyzeResp struct {
	AnalysisID string           `json:"analysisId"`
	Status     entity.JobStatus `json:"status"`
}

type statusResp struct {
	Status   entity.JobStatus `json:"status"`
	Progress int              `json:"progress"`
	Error    *string          `json:"error,omitempty"`
}

type pendingResp struct {
	Status   entity.JobStatus `json:"status"`
	Progress int              `json:"progress"`
	Message  string           `json:"message"`
}

type mediaDTO struct {
	MediaURL string `json:"mediaUrl"`
	Platform string `json:"platform"`
}

type healthResp struct {
	Status                string   `json:"status"`
	Service               string   `json:"service"`
	Version               string   `json:"version"`
	Capabilities          []string `json:"capabilities"`
	CredentialsConfigured bool     `json:"credentialsConfigured"`
	ModelKeyConfigured    bool     `json:"modelKeyConfigured"`
	Store                 string   `json:"store"`
	Queue                 string   `json:"queue"`
}

// Analyze godoc
// @Summary Submit a claim and/or media URL for fact-checking
// @Description Accepts JSON or multipart/form-data. The analysis runs in the background; poll /api/status/{id}.
// @Tags analysis
// @Accept json,mpfd
// @Produce json
// @Param request body analyzeDTO true "claim and/or mediaUrl; analysisId is optional"
// @Success 202 {object} analyzeResp
// @Failure 400 {object} apiError
// @Failure 409 {object} apiError
// @Failure 500 {object} apiError
// @Router /api/analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var dto analyzeDTO
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid form")
			return
		}
		dto = analyzeDTO{
			Claim:      r.FormValue("claim"),
			MediaURL:   r.FormValue("mediaUrl"),
			Platform:   r.FormValue("platform"),
			AnalysisID: r.FormValue("analysisId"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	job, err := h.analyses.Submit(r.Context(), service.SubmitRequest{
		ID:       dto.AnalysisID,
		Claim:    dto.Claim,
		MediaURL: dto.MediaURL,
		Platform: dto.Platform,
	})
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, analyzeResp{AnalysisID: job.ID, Status: job.Status})
}

// Status godoc
// @Summary Get analysis progress
// @Tags analysis
// @Produce json
// @Param id path string true "analysis id"
// @Success 200 {object} statusResp
// @Failure 404 {object} apiError
// @Router /api/status/{id} [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	job, err := h.analyses.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResp{Status: job.Status, Progress: job.Progress, Error: job.Error})
}

// Result godoc
// @Summary Get the verdict of a finished analysis
// @Description 200 with the verdict once complete; 202 with status, progress and message otherwise.
// @Tags analysis
// @Produce json
// @Param id path string true "analysis id"
// @Success 200 {object} entity.VerdictResult
// @Success 202 {object} pendingResp
// @Failure 404 {object} apiError
// @Router /api/result/{id} [get]
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	job, err := h.analyses.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}

	if job.Status == entity.StatusComplete && job.Result != nil {
		writeJSON(w, http.StatusOK, job.Result)
		return
	}

	msg := "analysis in progress"
	if job.Status == entity.StatusError && job.Error != nil {
		msg = *job.Error
	}
	writeJSON(w, http.StatusAccepted, pendingResp{Status: job.Status, Progress: job.Progress, Message: msg})
}

// AnalyzeMedia godoc
// @Summary Run media authenticity analysis synchronously
// @Tags media
// @Accept json
// @Produce json
// @Param request body mediaDTO true "media URL and optional platform"
// @Success 200 {object} entity.MediaAnalysis
// @Failure 400 {object} apiError
// @Failure 503 {object} apiError
// @Router /api/media [post]
func (h *Handler) AnalyzeMedia(w http.ResponseWriter, r *http.Request) {
	dto, ok := decodeMedia(w, r)
	if !ok {
		return
	}
	if h.media == nil {
		writeErr(w, http.StatusServiceUnavailable, "media analysis not configured")
		return
	}
	writeJSON(w, http.StatusOK, h.media.Analyze(r.Context(), dto.MediaURL, dto.Platform))
}

// ExtractText godoc
// @Summary Run OCR on an image URL synchronously
// @Tags media
// @Accept json
// @Produce json
// @Param request body mediaDTO true "media URL"
// @Success 200 {object} entity.TextExtraction
// @Failure 400 {object} apiError
// @Failure 502 {object} apiError
// @Failure 503 {object} apiError
// @Router /api/ocr [post]
func (h *Handler) ExtractText(w http.ResponseWriter, r *http.Request) {
	dto, ok := decodeMedia(w, r)
	if !ok {
		return
	}
	if h.ocr == nil {
		writeErr(w, http.StatusServiceUnavailable, "ocr not configured")
		return
	}

	te, err := h.ocr.Extract(r.Context(), dto.MediaURL)
	if err != nil {
		zap.L().Warn("ocr request failed", zap.String("media_url", dto.MediaURL), zap.Error(err))
		writeErr(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, te)
}

// Health godoc
// @Summary Service health and configured capabilities
// @Tags health
// @Produce json
// @Success 200 {object} healthResp
// @Router /api/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	caps := []string{"source-tiers"}
	if h.health.CredentialsConfigured {
		caps = append(caps, "claim-verification")
	}
	if h.media != nil {
		caps = append(caps, "media-authenticity")
	}
	if h.ocr != nil {
		caps = append(caps, "ocr")
	}

	writeJSON(w, http.StatusOK, healthResp{
		Status:                "ok",
		Service:               h.health.Service,
		Version:               h.health.Version,
		Capabilities:          caps,
		CredentialsConfigured: h.health.CredentialsConfigured,
		ModelKeyConfigured:    h.health.ModelKeyConfigured,
		Store:                 h.health.Store,
		Queue:                 h.health.Queue,
	})
}

func decodeMedia(w http.ResponseWriter, r *http.Request) (mediaDTO, bool) {
	var dto mediaDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return dto, false
	}
	dto.MediaURL = strings.TrimSpace(dto.MediaURL)
	if dto.MediaURL == "" {
		writeErr(w, http.StatusBadRequest, "mediaUrl is required")
		return dto, false
	}
	return dto, true
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
