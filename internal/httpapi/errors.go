package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagevault/library/internal/auth"
	"github.com/pagevault/library/internal/repo"
	"github.com/pagevault/library/internal/uploads"
	"go.uber.org/zap"
)

const msgInternal = "Internal server error."

// statusFor maps domain errors to HTTP status codes; ok is false for
// errors that must stay opaque.
func statusFor(err error) (status int, ok bool) {
	switch {
	case errors.Is(err, repo.ErrMissingField),
		errors.Is(err, repo.ErrMissingPhoto),
		errors.Is(err, repo.ErrInvalidAction),
		errors.Is(err, repo.ErrInvalidRole),
		errors.Is(err, uploads.ErrUnsupportedPhoto):
		return http.StatusBadRequest, true
	case errors.Is(err, repo.ErrBadCredential):
		return http.StatusUnauthorized, true
	case errors.Is(err, auth.ErrForbiddenRole):
		return http.StatusForbidden, true
	case errors.Is(err, repo.ErrBookNotFound),
		errors.Is(err, repo.ErrAccountNotFound),
		errors.Is(err, repo.ErrRentRequestNotFound),
		errors.Is(err, repo.ErrNoRentRequests):
		return http.StatusNotFound, true
	case errors.Is(err, repo.ErrISBNAlreadyExists),
		errors.Is(err, repo.ErrEmailAlreadyExists),
		errors.Is(err, repo.ErrInvalidTransition):
		return http.StatusConflict, true
	}
	return http.StatusInternalServerError, false
}

// respondError writes {message} for err. Unclassified errors are logged and
// reported as an opaque internal error.
func (s *Server) respondError(c *gin.Context, op string, err error) {
	status, ok := statusFor(err)
	if !ok {
		s.log.Error("Request failed", zap.String("op", op), zap.Error(err))
		_ = c.Error(err)
		c.JSON(status, gin.H{"message": msgInternal})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}
