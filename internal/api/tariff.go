package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/kdarko/ecgbill/internal/auth"
	"github.com/kdarko/ecgbill/internal/metrics"
	"github.com/kdarko/ecgbill/internal/notification"
	"github.com/kdarko/ecgbill/internal/storage"
	"github.com/kdarko/ecgbill/internal/tariff"
)

// PolicyDTO describes a tariff policy revision in the API.
type PolicyDTO struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ScheduleResponse is the wire form of a live schedule.
type ScheduleResponse struct {
	Policy   string                         `json:"policy"`
	Schedule map[tariff.Class][]tariff.Band `json:"schedule"`
}

// RegisterTariffHandlers wires the schedule read and edit endpoints.
// Edits are editor-gated when auth is enabled.
func RegisterTariffHandlers(mux *http.ServeMux, session *scheduleSession, authSvc *auth.Service, notifier *notification.Service) {
	mux.HandleFunc("/policies", func(w http.ResponseWriter, r *http.Request) {
		var out []PolicyDTO
		for _, p := range tariff.Policies() {
			out = append(out, PolicyDTO{Key: p.Key, Name: p.Name})
		}
		writeJSON(w, out)
	})

	var editHandler http.Handler = http.HandlerFunc(handleScheduleEdit(session, notifier))
	if authSvc != nil {
		editHandler = authSvc.Middleware(authSvc.RequirePermission("tariffs", "write", editHandler))
	}

	mux.HandleFunc("/tariff/", func(w http.ResponseWriter, r *http.Request) {
		// Expected paths: /tariff/{policy} or /tariff/{policy}/edit
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
		switch {
		case len(parts) == 2 && r.Method == http.MethodGet:
			handleScheduleGet(session, w, r, parts[1])
		case len(parts) == 3 && parts[2] == "edit" && r.Method == http.MethodPost:
			editHandler.ServeHTTP(w, r)
		default:
			metrics.RequestErrorsTotal.WithLabelValues("/tariff", "404").Inc()
			http.NotFound(w, r)
		}
	})
}

func handleScheduleGet(session *scheduleSession, w http.ResponseWriter, r *http.Request, policyKey string) {
	sched, ok := session.Get(policyKey)
	if !ok {
		metrics.RequestErrorsTotal.WithLabelValues("/tariff", "404").Inc()
		http.Error(w, "unknown tariff policy", http.StatusNotFound)
		return
	}
	writeJSON(w, ScheduleResponse{Policy: policyKey, Schedule: sched})
}

func handleScheduleEdit(session *scheduleSession, notifier *notification.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
		if len(parts) != 3 {
			http.NotFound(w, r)
			return
		}
		policyKey := parts[1]

		var edit tariff.Edit
		if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
			metrics.RequestErrorsTotal.WithLabelValues("/tariff", "400").Inc()
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		editor := ""
		if token, ok := r.Context().Value(auth.TokenContextKey).(*storage.Token); ok {
			editor = token.UserID
		}

		next, ok := session.Apply(r.Context(), policyKey, edit, editor)
		if !ok {
			metrics.RequestErrorsTotal.WithLabelValues("/tariff", "404").Inc()
			http.Error(w, "unknown tariff policy", http.StatusNotFound)
			return
		}

		metrics.ScheduleEditsTotal.WithLabelValues(string(edit.Kind), string(edit.Class)).Inc()

		if notifier != nil && notifier.Enabled() {
			summary := fmt.Sprintf("op=%s class=%s index=%d", edit.Kind, edit.Class, edit.Index)
			go func() {
				if err := notifier.NotifyScheduleChange(r.Context(), policyKey, summary); err != nil {
					log.Printf("tariff change notification failed: %v", err)
				}
			}()
		}

		writeJSON(w, ScheduleResponse{Policy: policyKey, Schedule: next})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response failed: %v", err)
	}
}
