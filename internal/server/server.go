package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/renovation-forecast/internal/config"
	"github.com/iwvelando/renovation-forecast/internal/simulation"
	"github.com/iwvelando/renovation-forecast/pkg/constants"
	"github.com/iwvelando/renovation-forecast/pkg/datetime"
	"github.com/iwvelando/renovation-forecast/pkg/output"
	"github.com/iwvelando/renovation-forecast/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestIDHeader carries the correlation id of an API call.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

type handler struct {
	logger        *zap.Logger
	engine        *simulation.Engine
	maxUploadSize int64
	version       string
	concurrency   int
	metrics       *metrics
	now           func() time.Time
}

// NewHandler constructs the HTTP handler that serves the simulation API. A
// nil cfg uses the defaults.
func NewHandler(logger *zap.Logger, engine *simulation.Engine, cfg *Config, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	maxUploadSize := cfg.UploadSizeBytes()
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = constants.DefaultBatchConcurrency
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		engine:        engine,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		concurrency:   concurrency,
		metrics:       newMetrics(),
		now:           time.Now,
	}

	mux := http.NewServeMux()

	// Simulation of one project or a JSON batch
	mux.HandleFunc("/api/simulate", h.handleSimulate)

	// Simulation of a YAML configuration file (file upload)
	mux.HandleFunc("/api/simulate/upload", h.handleUpload)

	// Active regulation vintage
	mux.HandleFunc("/api/regulation", h.handleRegulation)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	mux.Handle("/metrics", h.metrics.handler())

	return h.withRequestID(mux)
}

// withRequestID propagates the caller's X-Request-ID, or mints one.
func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

type batchRequest struct {
	ReferenceDate string                `json:"referenceDate"`
	Projects      []validation.RawInput `json:"projects"`
}

type batchResponse struct {
	Vintage       string                 `json:"vintage"`
	ReferenceDate string                 `json:"referenceDate"`
	Outcomes      []output.Outcome       `json:"outcomes"`
	Warnings      []string               `json:"warnings,omitempty"`
	CSV           string                 `json:"csv,omitempty"`
	Duration      string                 `json:"duration"`
	Config        map[string]interface{} `json:"config,omitempty"`
}

type validationResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields"`
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.fail(w, r, start, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.fail(w, r, start, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.fail(w, r, start, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	if _, ok := envelope["projects"]; ok {
		var req batchRequest
		if err := json.Unmarshal(body, &req); err != nil {
			h.fail(w, r, start, http.StatusBadRequest, fmt.Sprintf("failed to decode projects: %v", err), op)
			return
		}
		h.simulateBatch(w, r, start, req)
		return
	}

	var raw validation.RawInput
	if err := json.Unmarshal(body, &raw); err != nil {
		h.fail(w, r, start, http.StatusBadRequest, fmt.Sprintf("failed to decode project: %v", err), op)
		return
	}

	reference, err := h.reference(r.URL.Query().Get("referenceDate"))
	if err != nil {
		h.fail(w, r, start, http.StatusBadRequest, err.Error(), op)
		return
	}

	result, err := h.engine.Run(raw, reference)
	if err != nil {
		h.metrics.observeOutcomes(simulation.Outcome{Name: raw.Name, Err: err})
		h.failValidation(w, r, start, err, op)
		return
	}
	h.metrics.observeOutcomes(simulation.Outcome{Name: raw.Name, Result: &result})

	h.logger.Info("project simulated",
		zap.String("op", op),
		zap.String("requestId", requestID(r)),
		zap.String("project", raw.Name),
		zap.Int("alerts", len(result.Alerts)),
	)
	h.metrics.observeRequest("simulate", resultSuccess, time.Since(start))
	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) simulateBatch(w http.ResponseWriter, r *http.Request, start time.Time, req batchRequest) {
	const op = "server.simulateBatch"

	date := req.ReferenceDate
	if date == "" {
		date = r.URL.Query().Get("referenceDate")
	}
	reference, err := h.reference(date)
	if err != nil {
		h.fail(w, r, start, http.StatusBadRequest, err.Error(), op)
		return
	}

	outcomes, err := h.engine.RunBatch(r.Context(), req.Projects, reference, h.concurrency)
	if err != nil {
		h.fail(w, r, start, http.StatusServiceUnavailable, fmt.Sprintf("batch interrupted: %v", err), op)
		return
	}
	h.metrics.observeOutcomes(outcomes...)

	response := batchResponse{
		Vintage:       h.engine.Regulation().Vintage,
		ReferenceDate: reference.Format(datetime.DateLayout),
		Outcomes:      toOutcomes(outcomes),
		Duration:      time.Since(start).String(),
	}
	h.logger.Info("batch simulated",
		zap.String("op", op),
		zap.String("requestId", requestID(r)),
		zap.Int("projects", len(outcomes)),
	)
	h.metrics.observeRequest("simulate", resultSuccess, time.Since(start))
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.fail(w, r, start, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.fail(w, r, start, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, start, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.fail(w, r, start, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configMap, err := decodeYAMLToMap(buf.Bytes())
	if err != nil {
		h.fail(w, r, start, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.fail(w, r, start, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := cfg.ValidateConfiguration()

	engine, err := simulation.NewEngine(h.logger, cfg.Regulation)
	if err != nil {
		h.fail(w, r, start, http.StatusBadRequest, err.Error(), op)
		return
	}
	reference, err := cfg.Reference(h.now())
	if err != nil {
		h.fail(w, r, start, http.StatusBadRequest, err.Error(), op)
		return
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 || concurrency > h.concurrency {
		concurrency = h.concurrency
	}
	outcomes, err := engine.RunBatch(r.Context(), cfg.ActiveProjects(), reference, concurrency)
	if err != nil {
		h.fail(w, r, start, http.StatusServiceUnavailable, fmt.Sprintf("batch interrupted: %v", err), op)
		return
	}
	h.metrics.observeOutcomes(outcomes...)

	var csvBuf bytes.Buffer
	if err := output.CsvFormat(&csvBuf, outcomes); err != nil {
		h.logger.Warn("failed to render CSV",
			zap.String("op", op),
			zap.Error(err),
		)
	}

	elapsed := time.Since(start)
	response := batchResponse{
		Vintage:       cfg.Regulation.Vintage,
		ReferenceDate: reference.Format(datetime.DateLayout),
		Outcomes:      toOutcomes(outcomes),
		Warnings:      warnings,
		CSV:           csvBuf.String(),
		Duration:      elapsed.String(),
		Config:        configMap,
	}

	h.logger.Info("configuration simulated",
		zap.String("op", op),
		zap.String("requestId", requestID(r)),
		zap.Int("projects", len(outcomes)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)
	h.metrics.observeRequest("upload", resultSuccess, elapsed)
	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleRegulation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.Regulation())
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
		"vintage": h.engine.Regulation().Vintage,
	})
}

// reference parses an optional YYYY-MM-DD date, defaulting to today.
func (h *handler) reference(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return datetime.Truncate(h.now()), nil
	}
	t, err := datetime.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid referenceDate: %w", err)
	}
	return t, nil
}

func toOutcomes(outcomes []simulation.Outcome) []output.Outcome {
	out := make([]output.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, output.NewOutcome(o))
	}
	return out
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

// failValidation answers 422 with the field list for a validation failure.
func (h *handler) failValidation(w http.ResponseWriter, r *http.Request, start time.Time, err error, op string) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		h.fail(w, r, start, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.logger.Info("project rejected",
		zap.String("op", op),
		zap.String("requestId", requestID(r)),
		zap.Int("fields", len(verr.Fields)),
	)
	h.metrics.observeRequest(endpointOf(op), resultRejected, time.Since(start))
	h.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Error: verr.Error(), Fields: verr.Fields})
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, start time.Time, status int, msg string, op string) {
	h.metrics.observeRequest(endpointOf(op), resultError, time.Since(start))
	h.respondErrorWithOp(w, r, status, msg, op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.logger.Error("simulation request failed",
		zap.String("op", op),
		zap.String("requestId", requestID(r)),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func endpointOf(op string) string {
	if op == "server.handleUpload" {
		return "upload"
	}
	return "simulate"
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
