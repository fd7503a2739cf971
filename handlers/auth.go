package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/taskfuchs/server/database"
	"github.com/taskfuchs/server/services"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
	dataService *database.DataService
	adminEmail  string
}

func NewAuthHandler(authService *services.AuthService, dataService *database.DataService, adminEmail string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		dataService: dataService,
		adminEmail:  adminEmail,
	}
}

// Login handles the login request (sending a magic link)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate email
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	// Get base URL from request or use default
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, r.Host)

	magicLink, err := h.authService.GenerateMagicLink(req.Email, baseURL)
	if err != nil {
		log.Printf("Error generating magic link: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to generate login link")
		return
	}

	// Return success response with magic link for development
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "success",
		"message":   "Magic link has been sent",
		"magicLink": magicLink, // For development only
	})
}

// HandleMagicLink processes a magic link token, provisions the account on
// first login, and redirects to the frontend with a JWT.
func (h *AuthHandler) HandleMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "Missing token")
		return
	}

	email, err := h.authService.VerifyMagicLinkToken(token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	user, err := h.dataService.FindOrCreateUser(email, h.adminEmail)
	if err != nil {
		log.Printf("Error provisioning user: %v", err)
		respondError(w, http.StatusInternalServerError, "Authentication error")
		return
	}

	jwtToken, err := h.authService.CreateJWT(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		log.Printf("Error creating JWT: %v", err)
		respondError(w, http.StatusInternalServerError, "Authentication error")
		return
	}

	// Redirect to frontend with token
	redirectURL := fmt.Sprintf("/?token=%s&email=%s", jwtToken, user.Email)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// Me returns the authenticated user's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout acknowledges a logout. Tokens are stateless; the client drops its
// copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
