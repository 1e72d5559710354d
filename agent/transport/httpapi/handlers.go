package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Reply      string                     `json:"reply"`
	ExchangeID string                     `json:"exchange_id"`
	Results    []contractx.DispatchResult `json:"results"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"state":  s.assistant.State().String(),
		"apps":   s.catalog.Len(),
	})
}

func (s *Server) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	if !s.turn.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a turn is already in progress"})
		return
	}
	defer s.turn.Unlock()

	out, err := s.assistant.Turn(c.Request.Context(), req.Text)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	results := out.Results
	if results == nil {
		results = []contractx.DispatchResult{}
	}
	c.JSON(http.StatusOK, messageResponse{
		Reply:      out.Reply,
		ExchangeID: out.Exchange.ID,
		Results:    results,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, contractx.ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, contractx.ErrModelInvoke):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) getHistory(c *gin.Context) {
	session := s.assistant.Session()
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"exchanges":  session.History.Exchanges(),
		"rendered":   session.History.Render(),
	})
}

func (s *Server) deleteHistory(c *gin.Context) {
	if !s.turn.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a turn is already in progress"})
		return
	}
	defer s.turn.Unlock()

	if err := s.assistant.Session().Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listApps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count": s.catalog.Len(),
		"apps":  s.catalog.Entries(),
	})
}
