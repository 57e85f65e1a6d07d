package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/shortlink-backend/internal/http/middleware"
	"github.com/sandeepkv93/shortlink-backend/internal/http/response"
	"github.com/sandeepkv93/shortlink-backend/internal/observability"
	"github.com/sandeepkv93/shortlink-backend/internal/service"
)

const forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent"

type AuthHandler struct {
	auth service.AuthServiceInterface
}

func NewAuthHandler(auth service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	user, err := h.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		observability.AuditResult(r, "auth.signup", service.ErrorCode(err))
		writeError(w, r, "signup", err)
		return
	}
	observability.AuditResult(r, "auth.signup", "", "user_id", user.ID)
	response.JSON(w, r, http.StatusCreated, map[string]any{
		"user":    user,
		"message": "Please check your email to verify your account",
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		observability.AuditResult(r, "auth.verify_email", service.ErrorCode(err))
		writeError(w, r, "verify_email", err)
		return
	}
	observability.AuditResult(r, "auth.verify_email", "")
	response.Message(w, r, http.StatusOK, "Email verified successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		observability.AuditResult(r, "auth.login", service.ErrorCode(err))
		writeError(w, r, "login", err)
		return
	}
	observability.AuditResult(r, "auth.login", "", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusOK, result)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		observability.AuditResult(r, "auth.forgot_password", service.ErrorCode(err))
		writeError(w, r, "forgot_password", err)
		return
	}
	observability.Audit(r, "auth.forgot_password", "outcome", "accepted")
	response.Message(w, r, http.StatusOK, forgotPasswordMessage)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		observability.AuditResult(r, "auth.reset_password", service.ErrorCode(err))
		writeError(w, r, "reset_password", err)
		return
	}
	observability.AuditResult(r, "auth.reset_password", "")
	response.Message(w, r, http.StatusOK, "Password reset successfully")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.SessionTokenFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), token); err != nil {
		writeError(w, r, "logout", err)
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	observability.AuditResult(r, "auth.logout", "", "user_id", userID)
	response.Message(w, r, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, service.CodeUnauthorized, "unauthorized", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"authenticated": true, "userId": userID})
}
