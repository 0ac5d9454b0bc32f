package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	domainauth "github.com/Nsralla/HRNexus-AI-assistant/internal/domain/auth"
)

// AuthHandler handles the public register and login endpoints.
type AuthHandler struct {
	auth *domainauth.Service
}

// NewAuthHandler creates an AuthHandler backed by the auth service.
func NewAuthHandler(auth *domainauth.Service) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRequest is the request body for POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after a successful register or login.
type AuthResponse struct {
	Token       string `json:"token"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Register handles POST /auth/register.
//
// Response codes:
//   - 201 Created: registration successful
//   - 400 Bad Request: invalid JSON or missing required fields
//   - 409 Conflict: email already registered
//   - 500 Internal Server Error: unexpected failure
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, domainauth.ErrEmailAlreadyExists) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Token:       token,
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
}

// Login handles POST /auth/login.
//
// Response codes:
//   - 200 OK: login successful
//   - 400 Bad Request: invalid JSON or missing required fields
//   - 401 Unauthorized: invalid credentials (generic — does not reveal
//     whether the email exists)
//   - 500 Internal Server Error: unexpected failure
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domainauth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Token:       token,
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
}
