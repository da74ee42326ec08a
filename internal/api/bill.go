package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/kdarko/ecgbill/internal/billing"
	"github.com/kdarko/ecgbill/internal/metrics"
	"github.com/kdarko/ecgbill/internal/tariff"
)

// BillRequestDTO is the /bill request body: the engine request plus the
// tariff policy revision to price against.
type BillRequestDTO struct {
	Policy string `json:"policy,omitempty"`
	billing.Request
}

// handleBill returns a handler that serves POST /bill using the live
// schedule from the session.
func handleBill(session *scheduleSession) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if r.Method != http.MethodPost {
			metrics.RequestErrorsTotal.WithLabelValues("/bill", "405").Inc()
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req BillRequestDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metrics.RequestErrorsTotal.WithLabelValues("/bill", "400").Inc()
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Policy == "" {
			req.Policy = tariff.DefaultPolicyKey
		}
		if req.Class == "" {
			req.Class = tariff.ClassResidential
		}
		if req.Mode == "" {
			req.Mode = billing.ModeQuick
		}

		p, ok := tariff.GetPolicy(req.Policy)
		if !ok {
			metrics.RequestErrorsTotal.WithLabelValues("/bill", "404").Inc()
			http.Error(w, "unknown tariff policy", http.StatusNotFound)
			return
		}
		sched, ok := session.Get(req.Policy)
		if !ok {
			metrics.RequestErrorsTotal.WithLabelValues("/bill", "404").Inc()
			http.Error(w, "unknown tariff policy", http.StatusNotFound)
			return
		}

		result := billing.Compute(p, sched, req.Request)

		metrics.BillsComputedTotal.WithLabelValues(string(req.Class), string(req.Mode)).Inc()
		metrics.BillRequestDurationSeconds.WithLabelValues(string(req.Class)).Observe(time.Since(start).Seconds())

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			log.Printf("encode bill response failed: %v", err)
			metrics.RequestErrorsTotal.WithLabelValues("/bill", "500").Inc()
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
