// Package projection exposes the projection engine over HTTP.
package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"finmodel/pkg/core/calc"
	"finmodel/pkg/core/pipeline"
	coreproj "finmodel/pkg/core/projection"
	"finmodel/pkg/core/utils"
	"finmodel/pkg/models"
)

const maxBodyBytes = 64 << 10

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Runner executes a full run (narrative + workbook).
// *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, raw models.RawInputs) (*pipeline.Outcome, error)
}

// Response is the JSON body of POST /api/projection.
type Response struct {
	RunID   string                    `json:"run_id"`
	Years   []coreproj.YearRecord     `json:"years"` // rounded for display
	Summary coreproj.SummaryMetrics   `json:"summary"`
	Params  calc.NormalizedParameters `json:"params"`
}

// ErrorResponse describes a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// Handler serves the projection endpoints. MaxHorizon caps the horizon
// of /api/projection; the report route relies on the Runner's own cap.
type Handler struct {
	Runner     Runner
	MaxHorizon int
}

func NewHandler(runner Runner) *Handler {
	return &Handler{Runner: runner, MaxHorizon: pipeline.DefaultMaxHorizon}
}

// Register mounts the projection routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/projection", h.HandleProjection)
	mux.HandleFunc("/api/projection/report", h.HandleReport)
}

// HandleProjection runs the engine and returns the table and metrics.
// The body may be strict JSON or lenient (Hjson / repairable) JSON.
func (h *Handler) HandleProjection(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	raw, ok := decodeInputs(w, r)
	if !ok {
		return
	}

	params, err := calc.Normalize(raw)
	if err == nil {
		err = pipeline.CheckHorizon(params, raw, h.MaxHorizon)
	}
	if err != nil {
		writeParseError(w, err)
		return
	}
	res := coreproj.Project(params)

	resp := Response{
		RunID:   uuid.NewString(),
		Years:   make([]coreproj.YearRecord, len(res.Years)),
		Summary: res.Summary,
		Params:  params,
	}
	for i, y := range res.Years {
		resp.Years[i] = y.Rounded()
	}

	slog.Info("projection served", "component", "api", "run_id", resp.RunID, "horizon", params.Horizon)
	writeJSON(w, http.StatusOK, resp)
}

// HandleReport runs the full pipeline and streams the workbook.
// X-Narrative-Available tells whether commentary was generated alongside.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	raw, ok := decodeInputs(w, r)
	if !ok {
		return
	}

	out, err := h.Runner.Run(r.Context(), raw)
	if err != nil {
		if errors.Is(err, calc.ErrParse) {
			writeParseError(w, err)
			return
		}
		slog.Error("report run failed", "component", "api", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to build report"})
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Workbook)))
	w.Header().Set("X-Run-ID", out.RunID)
	w.Header().Set("X-Narrative-Available", strconv.FormatBool(out.Narrative != ""))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Workbook)
}

func allowPost(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return false
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return false
	}
	return true
}

func decodeInputs(w http.ResponseWriter, r *http.Request) (models.RawInputs, bool) {
	var raw models.RawInputs
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "cannot read body"})
		return raw, false
	}
	if _, err := utils.SmartParse(string(body), &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "body is not a JSON object of form fields"})
		return raw, false
	}
	return raw, true
}

func writeParseError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var pe *calc.ParseError
	if errors.As(err, &pe) {
		resp.Field = pe.Field
		resp.Value = pe.Value
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

// writeJSON encodes v before committing the status, so an unencodable
// value becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response", "component", "api", "error", err)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
