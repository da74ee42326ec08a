package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kdarko/ecgbill/internal/auth"
	"github.com/kdarko/ecgbill/internal/metrics"
	"github.com/kdarko/ecgbill/internal/storage"
)

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	TokenName string `json:"token_name,omitempty"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

type loginResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// RegisterAuthHandlers wires login and user registration. Registration is
// open only for the very first user (who becomes admin); after that it
// requires an admin token.
func RegisterAuthHandlers(mux *http.ServeMux, st storage.Storage, authSvc *auth.Service) {
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metrics.RequestErrorsTotal.WithLabelValues("/auth/login", "400").Inc()
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		u, err := authSvc.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			metrics.RequestErrorsTotal.WithLabelValues("/auth/login", "401").Inc()
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		expiresAt, err := auth.ParseExpirationDuration(req.ExpiresIn)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		name := req.TokenName
		if name == "" {
			name = "login"
		}

		_, raw, err := authSvc.CreateToken(r.Context(), u.ID, name, u.Role, expiresAt)
		if err != nil {
			log.Printf("create token for %s failed: %v", req.Username, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := loginResponse{Token: raw, Role: u.Role}
		if expiresAt != nil {
			resp.ExpiresAt = expiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		writeJSON(w, resp)
	})

	registerHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password required", http.StatusBadRequest)
			return
		}

		users, err := st.ListUsers(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		role := req.Role
		if len(users) == 0 {
			// Bootstrap: the first registered user is the admin.
			role = "admin"
		} else {
			token, ok := r.Context().Value(auth.TokenContextKey).(*storage.Token)
			if !ok {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			allowed, err := authSvc.Enforce(token.Role, "*", "*")
			if err != nil || !allowed {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if role == "" {
				role = "viewer"
			}
		}

		u, err := authSvc.Register(r.Context(), req.Username, req.Password, role)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		writeJSON(w, map[string]string{"id": u.ID, "username": u.Username, "role": u.Role})
	}
	mux.Handle("/auth/register", authSvc.Middleware(http.HandlerFunc(registerHandler)))
}
