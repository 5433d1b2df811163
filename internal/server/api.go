package server

import "net/http"

// buildHandler wires up the REST surface. Session endpoints are the only
// unauthenticated routes; everything else requires a bearer access token.
func buildHandler(s *Server) http.Handler {
	mux := http.NewServeMux()

	// Liveness.
	mux.HandleFunc("GET /health", s.handleHealth)

	// Session.
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("GET /auth/me", s.requireAuth(s.handleGetMe))
	mux.HandleFunc("PATCH /auth/me", s.requireAuth(s.handleUpdateMe))

	// Reports.
	mux.HandleFunc("GET /reports", s.requireAuth(s.handleListReports))
	mux.HandleFunc("POST /reports", s.requireAuth(s.handleCreateReport))
	mux.HandleFunc("GET /reports/{id}", s.requireAuth(s.handleGetReport))
	mux.HandleFunc("PATCH /reports/{id}", s.requireAuth(s.handleUpdateReport))
	mux.HandleFunc("DELETE /reports/{id}", s.requireAuth(s.handleDeleteReport))
	mux.HandleFunc("GET /reports/{id}/document", s.requireAuth(s.handleExportDocument))

	// Findings.
	mux.HandleFunc("GET /reports/{id}/findings", s.requireAuth(s.handleListFindings))
	mux.HandleFunc("POST /reports/{id}/findings", s.requireAuth(s.handleCreateFinding))
	mux.HandleFunc("GET /reports/{id}/findings/{fid}", s.requireAuth(s.handleGetFinding))
	mux.HandleFunc("PATCH /reports/{id}/findings/{fid}", s.requireAuth(s.handleUpdateFinding))
	mux.HandleFunc("DELETE /reports/{id}/findings/{fid}", s.requireAuth(s.handleDeleteFinding))
	mux.HandleFunc("PATCH /findings/{fid}", s.requireAuth(s.handleSetRemediation))

	// Catalog.
	mux.HandleFunc("GET /vulnerabilities", s.requireAuth(s.handleListDefinitions))
	mux.HandleFunc("POST /vulnerabilities", s.requireAuth(s.handleCreateDefinition))
	mux.HandleFunc("GET /vulnerabilities/{id}", s.requireAuth(s.handleGetDefinition))
	mux.HandleFunc("PATCH /vulnerabilities/{id}", s.requireAuth(s.handleUpdateDefinition))
	mux.HandleFunc("DELETE /vulnerabilities/{id}", s.requireAuth(s.handleDeleteDefinition))
	mux.HandleFunc("GET /categories", s.requireAuth(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.requireAuth(s.handleCreateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.requireAuth(s.handleDeleteCategory))

	// Evidence.
	mux.HandleFunc("GET /findings/{fid}/evidence", s.requireAuth(s.handleListEvidence))
	mux.HandleFunc("POST /findings/{fid}/evidence", s.requireAuth(s.handleUploadEvidence))
	mux.HandleFunc("DELETE /evidence/{id}", s.requireAuth(s.handleDeleteEvidence))

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
