package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formcraft-backend/internal/http/response"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
	"github.com/yungbote/formcraft-backend/internal/services"
)

type AuthHandler struct {
	log      *logger.Logger
	auth     services.AuthService
	sessions services.SessionStore
}

func NewAuthHandler(log *logger.Logger, auth services.AuthService, sessions services.SessionStore) *AuthHandler {
	return &AuthHandler{
		log:      log.With("handler", "AuthHandler"),
		auth:     auth,
		sessions: sessions,
	}
}

// POST /api/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := h.auth.SignUp(c.Request.Context(), services.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondServiceError(c, h.log, "Sign up", err)
		return
	}
	response.RespondCreated(c, session)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := h.sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.log, "Sign in", err)
		return
	}
	response.RespondOK(c, session)
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, h.log, "Refresh", err)
		return
	}
	response.RespondOK(c, session)
}

// POST /api/auth/oauth/nonce
func (h *AuthHandler) OAuthNonce(c *gin.Context) {
	nonce, expiresAt, err := h.auth.CreateOAuthNonce(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, "OAuth nonce", err)
		return
	}
	response.RespondOK(c, gin.H{
		"nonce":      nonce,
		"expires_in": int(time.Until(expiresAt).Seconds()),
	})
}

// POST /api/auth/oauth/google
func (h *AuthHandler) OAuthGoogle(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token"`
		Nonce   string `json:"nonce"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := h.auth.SignInWithGoogle(c.Request.Context(), req.IDToken, req.Nonce)
	if err != nil {
		respondServiceError(c, h.log, "Google sign in", err)
		return
	}
	response.RespondOK(c, session)
}

// POST /api/auth/password/forgot
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, h.log, "Password reset request", err)
		return
	}
	// Same answer whether or not the account exists.
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/auth/password/reset
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondServiceError(c, h.log, "Password reset", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.SignOut(c.Request.Context()); err != nil {
		respondServiceError(c, h.log, "Sign out", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.sessions.CurrentUser(ctx)
	if err != nil {
		respondServiceError(c, h.log, "Current user", err)
		return
	}
	status, err := h.sessions.Status(ctx)
	if err != nil {
		respondServiceError(c, h.log, "Session status", err)
		return
	}
	response.RespondOK(c, gin.H{"user": user, "session": status})
}
