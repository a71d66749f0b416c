package handler

import (
	"net/http"
	"time"

	"storefront/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifiedRequest struct {
	Profile session.Profile `json:"profile"`
	Token   string          `json:"token"`
}

type sessionResponse struct {
	User           *session.Profile `json:"user"`
	IsGuest        bool             `json:"isGuest"`
	Authenticated  bool             `json:"authenticated"`
	TokenExpiresAt *time.Time       `json:"tokenExpiresAt,omitempty"`
}

// handleGetSession describes who is shopping.
// GET /api/session
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var resp sessionResponse
	if p, ok := h.Session.Current(); ok {
		resp.User = &p
	}
	resp.IsGuest = h.Session.IsGuest()
	resp.Authenticated = h.Session.IsAuthenticated(ctx)
	if exp, ok := h.Session.TokenExpiry(ctx); ok {
		resp.TokenExpiresAt = &exp
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleLogin signs in with email and password.
// POST /api/session/login
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, h.Session.Login(r.Context(), req.Email, req.Password))
}

// handleLogout signs out. It always succeeds locally.
// POST /api/session/logout
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Session.Logout(r.Context()))
}

// handleGuest switches to guest mode.
// POST /api/session/guest
func (h *Handler) handleGuest(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Session.ContinueAsGuest(r.Context()))
}

// handleSignup registers an account pending OTP verification.
// POST /api/session/signup
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var form session.Signup
	if err := decodeJSON(r, &form); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, h.Session.Register(r.Context(), form))
}

// handleVerified completes signup once the OTP has been verified.
// POST /api/session/verified
func (h *Handler) handleVerified(w http.ResponseWriter, r *http.Request) {
	var req verifiedRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, h.Session.CompleteSignup(r.Context(), req.Profile, req.Token))
}
