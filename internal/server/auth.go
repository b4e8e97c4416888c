package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Anton0729/ToDo-List-Project/internal/auth"
	"github.com/Anton0729/ToDo-List-Project/internal/storage/sqlite"
)

type signupRequest struct {
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" binding:"required,min=6"`
}

// The login form mirrors the OAuth2 password flow: credentials arrive
// form-encoded, not as JSON.
type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// handleSignup registers a new user account.
func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := s.auth.Register(c.Request.Context(), req.Username, req.FirstName, req.LastName, req.Password)
	if errors.Is(err, sqlite.ErrUsernameTaken) {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("Username already registered"))
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// handleLogin exchanges valid credentials for a bearer access token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	token, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.Header("WWW-Authenticate", "Bearer")
		s.respondError(c, http.StatusUnauthorized, fmt.Errorf("Incorrect username or password"))
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}
