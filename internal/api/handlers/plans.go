package handlers

import (
	"log"
	"net/http"
	"strconv"

	"route-optimizer-service/internal/api/dto"
	"route-optimizer-service/internal/ports"
)

type PlanHandler struct {
	Repo ports.PlanRepository
}

// List returns recently stored plans, newest first. An optional
// ?limit=N caps the page size.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	plans, err := h.Repo.ListPlans(r.Context(), limit)
	if err != nil {
		log.Printf("list plans failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListPlansResponse{Plans: make([]dto.StoredPlanResponse, 0, len(plans))}
	for _, p := range plans {
		res.Plans = append(res.Plans, dto.StoredPlanResponse{
			PlanID:    p.PlanID,
			CreatedAt: p.CreatedAt,
			DepotID:   p.DepotID,
			Metric:    p.Metric,
			Result:    dto.FromResult(p.PlanID, p.Result),
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
