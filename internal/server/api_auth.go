package server

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vantagesec/reportkit/internal/session"
)

// --- Row/request types ---

type userRow struct {
	ID           int64     `db:"id"            json:"id"`
	Email        string    `db:"email"         json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name"     json:"full_name"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	User         userRow `json:"user"`
}

const userColumns = `id, email, password_hash, full_name, created_at`

// --- Handlers ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	ctx := r.Context()
	var existing countRow
	if err := s.db.Get(ctx, &existing, `SELECT COUNT(*) AS n FROM users WHERE email = ?`, req.Email); err == nil && existing.N > 0 {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hashing password")
		return
	}

	u := userRow{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.db.Insert(ctx, "users", &u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "creating user")
		return
	}
	u.ID = id
	s.issueSession(w, r, u, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var u userRow
	err := s.db.Get(r.Context(), &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, req.Email)
	if err != nil {
		// Indistinguishable from a wrong password on purpose.
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	s.issueSession(w, r, u, http.StatusOK)
}

// handleRefresh rotates the refresh token: the presented token is consumed
// whether or not a new pair is issued, so a leaked token cannot be replayed.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	ctx := r.Context()
	hash := session.HashRefresh(req.RefreshToken)

	type tokenRow struct {
		ID        int64     `db:"id"`
		UserID    int64     `db:"user_id"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	var tok tokenRow
	err := s.db.Get(ctx, &tok, `SELECT id, user_id, expires_at FROM refresh_tokens WHERE token_hash = ?`, hash)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown refresh token")
		return
	}

	// Single use: consume before deciding the outcome.
	if err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = ?`, tok.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "rotating refresh token")
		return
	}
	if time.Now().After(tok.ExpiresAt) {
		writeError(w, http.StatusUnauthorized, "refresh token expired")
		return
	}

	var u userRow
	if err := s.db.Get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, tok.UserID); err != nil {
		writeError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	s.issueSession(w, r, u, http.StatusOK)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	var u userRow
	err := s.db.Get(r.Context(), &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"full_name"`
		Password *string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	var u userRow
	if err := s.db.Get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID(ctx)); err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "hashing password")
			return
		}
		u.PasswordHash = string(hash)
	}

	if err := s.db.Update(ctx, "users", &u, "id = ?", u.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "updating user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// issueSession mints a fresh access/refresh pair for u and writes the token
// response.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, u userRow, status int) {
	access, err := s.sessions.MintAccess(u.ID, u.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "minting access token")
		return
	}
	plain, hash := s.sessions.NewRefreshToken()
	row := struct {
		UserID    int64     `db:"user_id"`
		TokenHash string    `db:"token_hash"`
		ExpiresAt time.Time `db:"expires_at"`
		CreatedAt time.Time `db:"created_at"`
	}{
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(s.sessions.RefreshTTL()),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.Insert(r.Context(), "refresh_tokens", &row); err != nil {
		writeError(w, http.StatusInternalServerError, "persisting refresh token")
		return
	}

	writeJSON(w, status, tokenResponse{AccessToken: access, RefreshToken: plain, User: u})
}
