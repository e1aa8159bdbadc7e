package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/audiotag/internal/jobs"
	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/providers"
	"github.com/desertthunder/audiotag/internal/shared"
)

// EngineHandler exposes directory processing over HTTP: starting jobs,
// polling their status, and inspecting the setup.
type EngineHandler struct {
	manager *jobs.Manager
	config  *shared.Config
	logger  *log.Logger
}

// NewEngineHandler creates the processing handler.
func NewEngineHandler(manager *jobs.Manager, config *shared.Config, logger *log.Logger) *EngineHandler {
	return &EngineHandler{manager: manager, config: config, logger: logger}
}

// Routes returns the path patterns this handler serves.
func (h *EngineHandler) Routes() []string {
	return []string{"/process_directory", "/status/", "/jobs", "/validate_setup", "/config"}
}

func (h *EngineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/process_directory" && r.Method == http.MethodPost:
		h.processDirectory(w, r)
	case strings.HasPrefix(r.URL.Path, "/status/") && r.Method == http.MethodGet:
		h.status(w, r)
	case strings.HasPrefix(r.URL.Path, "/status/") && r.Method == http.MethodDelete:
		h.cancel(w, r)
	case r.URL.Path == "/jobs" && r.Method == http.MethodGet:
		h.list(w)
	case r.URL.Path == "/validate_setup" && r.Method == http.MethodGet:
		h.validateSetup(w, r)
	case r.URL.Path == "/config" && r.Method == http.MethodGet:
		h.showConfig(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// processRequest is the body of POST /process_directory. Omitted
// fields fall back to the configured defaults.
type processRequest struct {
	InputPath     string   `json:"input_path"`
	OutputPath    string   `json:"output_path"`
	ForceUpdate   bool     `json:"force_update"`
	OutputPattern string   `json:"output_pattern"`
	LyricsSource  string   `json:"lyrics_source"`
	TagFallback   *bool    `json:"tag_fallback"`
	Steps         []string `json:"steps"`
	Workers       int      `json:"workers"`
	APIKey        string   `json:"api_key"`
}

func (h *EngineHandler) processDirectory(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if req.InputPath == "" || req.OutputPath == "" {
		h.writeError(w, http.StatusBadRequest,
			fmt.Errorf("%w: input_path and output_path are required", shared.ErrMissingArgument))
		return
	}

	opts := jobs.ProcessOpts{
		InputDir:     req.InputPath,
		OutputDir:    req.OutputPath,
		Pattern:      req.OutputPattern,
		Force:        req.ForceUpdate,
		Steps:        req.Steps,
		Workers:      req.Workers,
		LyricsSource: req.LyricsSource,
		APIKey:       req.APIKey,
		TagFallback:  h.config.Processing.TagFallback,
		Extensions:   h.config.Processing.Extensions,
	}
	if opts.Pattern == "" {
		opts.Pattern = h.config.Processing.OutputPattern
	}
	if opts.LyricsSource == "" {
		opts.LyricsSource = h.config.Processing.LyricsSource
	}
	if opts.Workers <= 0 {
		opts.Workers = h.config.Processing.Workers
	}
	if req.TagFallback != nil {
		opts.TagFallback = *req.TagFallback
	}

	job := h.manager.Create(opts)
	if err := h.manager.Start(r.Context(), job.ID); err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"status": models.JobProcessing,
	})
}

// jobResponse is the wire shape of a job snapshot.
type jobResponse struct {
	JobID     string              `json:"job_id"`
	Status    models.JobStatus    `json:"status"`
	Progress  float64             `json:"progress"`
	Processed int                 `json:"processed"`
	Total     int                 `json:"total"`
	Result    []models.FileResult `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
}

func toJobResponse(job models.Job) jobResponse {
	return jobResponse{
		JobID:     job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		Processed: job.Processed,
		Total:     job.Total,
		Result:    job.Files,
		Error:     job.Error,
	}
}

func (h *EngineHandler) status(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/status/")

	job, err := h.manager.Status(jobID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (h *EngineHandler) cancel(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/status/")

	if err := h.manager.Cancel(jobID); err != nil {
		status := http.StatusConflict
		if errors.Is(err, shared.ErrJobNotFound) {
			status = http.StatusNotFound
		}
		h.writeError(w, status, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID, "status": "cancelling"})
}

func (h *EngineHandler) list(w http.ResponseWriter) {
	all := h.manager.List()

	out := make([]jobResponse, len(all))
	for i, job := range all {
		job.Files = nil // listings stay light; fetch /status/{id} for detail
		out[i] = toJobResponse(job)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
}

// validateSetup runs the dependency checks. An api_key query parameter
// stands in for the configured AcoustID key when present.
func (h *EngineHandler) validateSetup(w http.ResponseWriter, r *http.Request) {
	config := *h.config
	if key := r.URL.Query().Get("api_key"); key != "" {
		config.Providers.AcoustIDAPIKey = key
	}

	checks := providers.ValidateSetup(&config)

	validations := make(map[string]bool, len(checks))
	for _, check := range checks {
		validations[check.Name] = check.Status == providers.CheckOK
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"valid":       providers.Healthy(checks),
		"validations": validations,
		"checks":      checks,
	})
}

// showConfig reports the version and effective processing defaults.
// API keys are reported as present or absent, never echoed.
func (h *EngineHandler) showConfig(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"version": shared.Version,
		"defaults": map[string]any{
			"output_pattern":   h.config.Processing.OutputPattern,
			"lyrics_source":    h.config.Processing.LyricsSource,
			"tag_fallback":     h.config.Processing.TagFallback,
			"min_score":        h.config.Processing.MinScore,
			"workers":          h.config.Processing.Workers,
			"extensions":       h.config.Processing.Extensions,
			"acoustid_api_key": h.config.Providers.AcoustIDAPIKey != "",
			"genius_api_key":   h.config.Providers.GeniusAPIKey != "",
			"fpcalc_path":      h.config.Providers.FpcalcPath,
		},
	})
}

func (h *EngineHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *EngineHandler) writeError(w http.ResponseWriter, status int, err error) {
	h.logger.Warn("request failed", "status", status, "error", err)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
