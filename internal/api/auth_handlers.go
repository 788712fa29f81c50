package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/viepratiqueservice-arch/Visela/internal/api/middleware"
	"github.com/viepratiqueservice-arch/Visela/internal/auth"
	"github.com/viepratiqueservice-arch/Visela/internal/command"
	"github.com/viepratiqueservice-arch/Visela/internal/domain/user"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
	"github.com/viepratiqueservice-arch/Visela/internal/logger"
	"github.com/viepratiqueservice-arch/Visela/internal/readmodel"
	"go.uber.org/zap"
)

const (
	refreshCookie = "refresh_token"
	sessionCookie = "session_id"
	refreshPath   = "/api/auth/refresh"
)

// hashToken creates a SHA-256 hash of the token for secure storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// AuthHandlers handles sign-up, PIN sign-in and the cookie session.
type AuthHandlers struct {
	cmd           *command.Handler
	jwtService    *auth.JWTService
	readStore     store.ReadStoreInterface
	secureCookies bool
	gateTTL       time.Duration
	now           func() time.Time
}

func NewAuthHandlers(cmd *command.Handler, jwtService *auth.JWTService, readStore store.ReadStoreInterface, secureCookies bool, gateTTL time.Duration) *AuthHandlers {
	return &AuthHandlers{
		cmd:           cmd,
		jwtService:    jwtService,
		readStore:     readStore,
		secureCookies: secureCookies,
		gateTTL:       gateTTL,
		now:           time.Now,
	}
}

// Register handles customer registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	u, err := h.cmd.Register(r.Context(), command.Register{
		ClientID:         req.ClientID,
		Name:             req.Name,
		PIN:              req.PIN,
		ReferrerClientID: req.ReferrerClientID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.startSession(w, r, u); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, AuthResponse{User: sessionUser(u), Message: "Registration successful"})
}

// Login checks the client id and PIN.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	u, err := h.cmd.Login(r.Context(), command.Login{
		ClientID:  req.ClientID,
		PIN:       req.PIN,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.startSession(w, r, u); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{User: sessionUser(u), Message: "Login successful"})
}

// Logout drops the current session and clears the cookies.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if err := h.readStore.Delete(readmodel.Sessions, cookie.Value); err != nil {
			logger.FromContext(r.Context()).Warn("failed to delete session", zap.Error(err))
		}
	}

	h.clearAuthCookies(w)

	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Refresh rotates the session: the presented refresh token must match the
// stored hash, and both are replaced.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refresh, err := r.Cookie(refreshCookie)
	if err != nil {
		respondJSONError(w, "No refresh token", http.StatusUnauthorized)
		return
	}
	sessionID, err := r.Cookie(sessionCookie)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "No session", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(refresh.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	data, exists, err := h.readStore.Get(readmodel.Sessions, sessionID.Value)
	if err != nil {
		respondError(w, r, err)
		return
	}
	session, ok := data.(*readmodel.SessionReadModel)
	if !exists || !ok || session.UserID != userID {
		h.clearAuthCookies(w)
		respondJSONError(w, "Session not found", http.StatusUnauthorized)
		return
	}

	if h.now().After(session.ExpiresAt) {
		if err := h.readStore.Delete(readmodel.Sessions, session.ID); err != nil {
			logger.FromContext(r.Context()).Warn("failed to delete expired session", zap.Error(err))
		}
		h.clearAuthCookies(w)
		respondJSONError(w, "Session expired", http.StatusUnauthorized)
		return
	}

	if hashToken(refresh.Value) != session.RefreshTokenHash {
		h.clearAuthCookies(w)
		respondJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	data, exists, err = h.readStore.Get(readmodel.Users, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	profile, ok := data.(*readmodel.UserReadModel)
	if !exists || !ok {
		h.clearAuthCookies(w)
		respondJSONError(w, "User not found", http.StatusUnauthorized)
		return
	}

	// The old session must be gone before a new one is issued.
	if err := h.readStore.Delete(readmodel.Sessions, session.ID); err != nil {
		respondError(w, r, err)
		return
	}
	u := &user.User{ID: profile.ID, ClientID: profile.ClientID, Name: profile.Name, Role: profile.Role}
	if err := h.startSession(w, r, u); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
}

// AdminGate trades the time-derived PIN for a short-lived admin token. It is
// only routed when the debug gate is enabled.
func (h *AuthHandlers) AdminGate(w http.ResponseWriter, r *http.Request) {
	var req GateRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if !auth.CheckGatePIN(req.PIN, h.now()) {
		logger.FromContext(r.Context()).Warn("admin gate refused", zap.String("remote", r.RemoteAddr))
		respondJSONError(w, "invalid code", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateDebugToken(h.gateTTL)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Warn("admin gate opened", zap.String("remote", r.RemoteAddr))

	h.setCookie(w, middleware.AccessCookie, token, "/", expiresAt)
	respondJSON(w, http.StatusOK, map[string]any{"role": auth.RoleAdmin, "expires_at": expiresAt})
}

// Helper methods

func sessionUser(u *user.User) SessionUser {
	return SessionUser{ID: u.ID, ClientID: u.ClientID, Name: u.Name, Role: u.Role}
}

// startSession issues both tokens, stores the session with the refresh token
// hashed, and sets the three cookies.
func (h *AuthHandlers) startSession(w http.ResponseWriter, r *http.Request, u *user.User) error {
	accessToken, accessExpiry, err := h.jwtService.GenerateAccessToken(u.ID, u.ClientID, u.Role)
	if err != nil {
		return err
	}
	refreshToken, refreshExpiry, err := h.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return err
	}

	sessionID := uuid.New().String()
	err = h.readStore.Set(readmodel.Sessions, sessionID, &readmodel.SessionReadModel{
		ID:               sessionID,
		UserID:           u.ID,
		RefreshTokenHash: hashToken(refreshToken),
		ExpiresAt:        refreshExpiry,
		CreatedAt:        h.now(),
		IPAddress:        r.RemoteAddr,
		UserAgent:        r.UserAgent(),
	})
	if err != nil {
		return err
	}

	h.setCookie(w, middleware.AccessCookie, accessToken, "/", accessExpiry)
	h.setCookie(w, refreshCookie, refreshToken, refreshPath, refreshExpiry)
	h.setCookie(w, sessionCookie, sessionID, "/", refreshExpiry)
	return nil
}

func (h *AuthHandlers) setCookie(w http.ResponseWriter, name, value, path string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	for _, c := range []struct{ name, path string }{
		{middleware.AccessCookie, "/"},
		{refreshCookie, refreshPath},
		{sessionCookie, "/"},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookies,
		})
	}
}
