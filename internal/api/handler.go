package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eugenenazirov/rollcut/internal/cutting"
	"github.com/eugenenazirov/rollcut/internal/export"
	"github.com/eugenenazirov/rollcut/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxRequestBytes = 1 << 20

// Handler wires planner and storage dependencies into HTTP handlers.
type Handler struct {
	planner cutting.Planner
	storage storage.Storage

	clock func() time.Time

	mu                   sync.RWMutex
	stockLengthUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(planner cutting.Planner, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		planner: planner,
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.stockLengthUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetStockLength(w http.ResponseWriter, _ *http.Request) {
	length, err := h.storage.GetStockLength()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := stockLengthResponse{
		StockLength: length,
		UpdatedAt:   h.currentStockLengthUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutStockLength(w http.ResponseWriter, r *http.Request) {
	var req stockLengthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if err := h.storage.SetStockLength(req.StockLength); err != nil {
		if errors.Is(err, storage.ErrInvalidStockLength) {
			writeError(w, http.StatusBadRequest, "Invalid stock length", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markStockLengthUpdated()

	length, err := h.storage.GetStockLength()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := stockLengthResponse{
		StockLength: length,
		UpdatedAt:   h.currentStockLengthUpdatedAt(),
		Message:     "Stock length updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCut(w http.ResponseWriter, r *http.Request) {
	var req cutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Demands) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "demands must contain at least one entry")
		return
	}

	stockLength := req.StockLength
	if stockLength == 0 {
		stored, err := h.storage.GetStockLength()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		stockLength = stored
	}
	if stockLength < 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "stockLength must be a positive integer")
		return
	}

	demands := cutting.SplitOverlength(req.Demands, stockLength)
	result, err := h.planner.CutRolls(demands, stockLength)
	if err != nil {
		switch {
		case errors.Is(err, cutting.ErrInvalidDemand):
			writeError(w, http.StatusBadRequest, "Invalid demand", err.Error())
		case errors.Is(err, cutting.ErrProblemTooLarge):
			writeError(w, http.StatusUnprocessableEntity, "Order too large to plan", err.Error(),
				"Split the order into smaller requests")
		case errors.Is(err, cutting.ErrAllVariantsExhausted):
			writeError(w, http.StatusUnprocessableEntity, "No cutting plan found", err.Error(),
				"Raise the solver time limit or split the order into smaller requests")
		default:
			writeInternalError(w, err)
		}
		return
	}

	plan, err := h.storage.SavePlan(storage.Plan{
		StockLength: stockLength,
		Demands:     demands,
		Result:      result,
	})
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newPlanResponse(plan))
}

func (h *Handler) handleListPlans(w http.ResponseWriter, _ *http.Request) {
	plans, err := h.storage.ListPlans()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := planListResponse{Plans: make([]planSummary, 0, len(plans))}
	for _, p := range plans {
		resp.Plans = append(resp.Plans, planSummary{
			ID:           p.ID,
			CreatedAt:    p.CreatedAt,
			Status:       p.Result.Status.String(),
			StockLength:  p.StockLength,
			NumRollsUsed: p.Result.NumRollsUsed,
			TotalWaste:   p.Result.Plan.TotalWaste(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.lookupPlan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(plan))
}

func (h *Handler) handleExportPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.lookupPlan(w, r)
	if !ok {
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "pdf"
	}

	doc := export.Document{
		ID:          plan.ID,
		CreatedAt:   plan.CreatedAt,
		StockLength: plan.StockLength,
		Demands:     plan.Demands,
		Result:      plan.Result,
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "pdf":
		contentType = "application/pdf"
		err = export.WritePDF(&buf, doc)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, doc)
	default:
		writeError(w, http.StatusBadRequest, "Invalid format", fmt.Sprintf("unsupported export format %q", format), "Use format=pdf or format=xlsx")
		return
	}
	if err != nil {
		if errors.Is(err, export.ErrEmptyPlan) {
			writeError(w, http.StatusUnprocessableEntity, "Nothing to export", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="plan-%s.%s"`, plan.ID, format))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) lookupPlan(w http.ResponseWriter, r *http.Request) (storage.Plan, bool) {
	plan, err := h.storage.GetPlan(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			writeError(w, http.StatusNotFound, "Plan not found", err.Error())
			return storage.Plan{}, false
		}
		writeInternalError(w, err)
		return storage.Plan{}, false
	}
	return plan, true
}

func (h *Handler) currentStockLengthUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stockLengthUpdatedAt
}

func (h *Handler) markStockLengthUpdated() {
	h.mu.Lock()
	h.stockLengthUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(dst)
}

func newPlanResponse(p storage.Plan) planResponse {
	rolls := p.Result.Plan.Rolls
	if rolls == nil {
		rolls = []cutting.Roll{}
	}
	return planResponse{
		ID:                p.ID,
		CreatedAt:         p.CreatedAt,
		Status:            p.Result.Status.String(),
		Variant:           p.Result.Variant.String(),
		Attempts:          p.Result.Attempts,
		StockLength:       p.StockLength,
		Demands:           p.Demands,
		NumRollsUsed:      p.Result.NumRollsUsed,
		MinRolls:          p.Result.Bounds.MinRolls,
		MaxRolls:          p.Result.Bounds.MaxRolls,
		Rolls:             rolls,
		TotalWaste:        p.Result.Plan.TotalWaste(),
		CalculationTimeMs: p.Result.WallTime.Milliseconds(),
	}
}

type stockLengthRequest struct {
	StockLength int `json:"stockLength"`
}

type stockLengthResponse struct {
	StockLength int       `json:"stockLength"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Message     string    `json:"message,omitempty"`
}

type cutRequest struct {
	Demands     []cutting.Demand `json:"demands"`
	StockLength int              `json:"stockLength,omitempty"`
}

type planResponse struct {
	ID                string           `json:"id"`
	CreatedAt         time.Time        `json:"createdAt"`
	Status            string           `json:"status"`
	Variant           string           `json:"variant"`
	Attempts          int              `json:"attempts"`
	StockLength       int              `json:"stockLength"`
	Demands           []cutting.Demand `json:"demands"`
	NumRollsUsed      int              `json:"numRollsUsed"`
	MinRolls          int              `json:"minRolls"`
	MaxRolls          int              `json:"maxRolls"`
	Rolls             []cutting.Roll   `json:"rolls"`
	TotalWaste        int              `json:"totalWaste"`
	CalculationTimeMs int64            `json:"calculationTimeMs"`
}

type planSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Status       string    `json:"status"`
	StockLength  int       `json:"stockLength"`
	NumRollsUsed int       `json:"numRollsUsed"`
	TotalWaste   int       `json:"totalWaste"`
}

type planListResponse struct {
	Plans []planSummary `json:"plans"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
