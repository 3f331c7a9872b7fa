package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagevault/library/internal/auth"
	"github.com/pagevault/library/internal/events"
)

type rentRequestBody struct {
	UserID string `json:"userId"`
	BookID string `json:"bookId"`
}

type reviewBody struct {
	Action string `json:"action"`
}

func (s *Server) requestRent(c *gin.Context) {
	var body rentRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}

	rent, err := s.ledger.CreateRentalRequest(c.Request.Context(), body.UserID, body.BookID)
	if err != nil {
		s.respondError(c, "request rent", err)
		return
	}

	s.publish(c, events.EventTypeRentRequested, events.RentPayload(rent))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Rent request submitted successfully!",
		"rent":    rent,
	})
}

func (s *Server) listRentRequests(c *gin.Context) {
	joined, err := s.ledger.ListRentalRequestsJoined(c.Request.Context())
	if err != nil {
		s.respondError(c, "list rent requests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rentDetails": joined})
}

func (s *Server) reviewRentRequest(c *gin.Context) {
	var body reviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}

	reviewer := auth.PrincipalFrom(c)
	rent, err := s.ledger.ReviewRentalRequest(c.Request.Context(), c.Param("id"), body.Action, reviewer.AccountID)
	if err != nil {
		s.respondError(c, "review rent request", err)
		return
	}

	s.publish(c, events.EventTypeRentReviewed, events.RentPayload(rent))

	c.JSON(http.StatusOK, gin.H{
		"message": "Rent request " + string(rent.Status) + ".",
		"rent":    rent,
	})
}
