package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/engine"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/ports"
)

type OptimizeHandler struct {
	Engine *engine.Optimizer
	Repo   ports.PlanRepository
	AppM   *metrics.Metrics
}

// Optimize runs one full optimization: decode, validate, solve per
// warehouse group, persist the plan, respond.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.OptimizeRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	engReq, err := req.ToEngine()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Engine.Optimize(r.Context(), engReq)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidRequest) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("optimize failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	planID := uuid.NewString()
	if h.Repo != nil {
		plan := ports.StoredPlan{
			PlanID:    planID,
			CreatedAt: time.Now(),
			DepotID:   engReq.Depot.DepotID,
			Metric:    string(engReq.Metric),
			Result:    *result,
		}
		if err := h.Repo.SavePlan(r.Context(), plan); err != nil {
			// The plan is still useful to the caller; persistence is
			// best-effort.
			log.Printf("save plan %s failed: %v", planID, err)
		} else if h.AppM != nil {
			h.AppM.PlansStored.Inc()
		}
	}

	writeJSON(w, r, http.StatusOK, dto.FromResult(planID, *result))
}
