package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/auth"
)

type signinRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signinResponse struct {
	Token       string    `json:"token"`
	Type        string    `json:"type"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Authorities []string  `json:"authorities"`
	Office      string    `json:"office"`
}

// Signin authenticates a user and returns a bearer token.
func (h *Handler) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.issuer.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	id := session.Identity
	c.JSON(http.StatusOK, signinResponse{
		Token:       session.Token,
		Type:        "Bearer",
		ExpiresAt:   session.ExpiresAt,
		ID:          id.UserID,
		Username:    id.Username,
		Name:        id.Name,
		Role:        strings.ToLower(string(id.Role)),
		Authorities: []string{id.Role.Authority()},
		Office:      id.Office,
	})
}

type signupRequest struct {
	Username   string `json:"username" binding:"required,min=3,max=50"`
	Name       string `json:"name" binding:"required,min=3,max=100"`
	Password   string `json:"password" binding:"required,min=6,max=120"`
	OfficeName string `json:"officeName" binding:"required,max=100"`
}

// Signup registers a technician for the requested office.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if strings.TrimSpace(req.OfficeName) == "" {
		badRequest(c, "officeName is required")
		return
	}

	_, err := h.issuer.Signup(c.Request.Context(), auth.SignupRequest{
		Username: strings.TrimSpace(req.Username),
		Name:     strings.TrimSpace(req.Name),
		Password: req.Password,
		Office:   strings.TrimSpace(req.OfficeName),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

// Signout acknowledges a sign-out. Tokens are stateless, so the client
// discards its token and it stays valid until it expires.
func (h *Handler) Signout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}
