package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagevault/library/internal/auth"
	"github.com/pagevault/library/internal/db"
)

type registerBody struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
	Role        string `json:"role"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type roleBody struct {
	Role string `json:"role"`
}

func (s *Server) register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}

	account, err := s.auth.Register(c.Request.Context(), auth.RegisterInput{
		FullName:    body.FullName,
		Email:       body.Email,
		Password:    body.Password,
		PhoneNumber: body.PhoneNumber,
		Location:    body.Location,
		Role:        db.Role(body.Role),
	}, auth.PrincipalFrom(c))
	if err != nil {
		s.respondError(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    account,
	})
}

func (s *Server) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}

	result, err := s.auth.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		s.respondError(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"token":     result.Token,
		"role":      result.Role,
		"id":        result.AccountID,
		"expiresAt": result.ExpiresAt,
	})
}

func (s *Server) logout(c *gin.Context) {
	if err := s.auth.Logout(c.Request.Context(), auth.PrincipalFrom(c)); err != nil {
		s.respondError(c, "logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) listUsers(c *gin.Context) {
	accounts, err := s.auth.ListAccounts(c.Request.Context())
	if err != nil {
		s.respondError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (s *Server) grantRole(c *gin.Context) {
	var body roleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}

	account, err := s.auth.GrantRole(c.Request.Context(), auth.PrincipalFrom(c), c.Param("id"), db.Role(body.Role))
	if err != nil {
		s.respondError(c, "grant role", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Role updated",
		"user":    account,
	})
}
