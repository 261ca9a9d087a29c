package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jlowen/riskgate/internal/decision"
	"github.com/jlowen/riskgate/internal/guardrail"
	"github.com/jlowen/riskgate/internal/logging"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
}

func (s *Server) healthHandler(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if !s.healthy.Load() {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	storeKind := "memory"
	if s.db != nil {
		storeKind = "postgres"
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Store:     storeKind,
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// scoreHandler runs the decision pipeline for one transaction.
func (s *Server) scoreHandler(c *gin.Context) {
	var txn decision.TransactionContext
	if err := c.ShouldBindJSON(&txn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "body must be a valid transaction context: " + err.Error(),
		})
		return
	}

	if txn.TransactionID == "" || txn.SenderID == "" || txn.RecipientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "transaction_id, sender_id, and recipient_id are required",
		})
		return
	}

	pkg, err := s.engine.Score(c.Request.Context(), &txn)
	if err != nil {
		s.writeScoreError(c, &txn, err)
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// writeScoreError maps pipeline failures to HTTP statuses. Guardrail
// rejections are the caller's problem (422); capability failures are ours
// or a provider's (502).
func (s *Server) writeScoreError(c *gin.Context, txn *decision.TransactionContext, err error) {
	log := logging.L(c.Request.Context()).With("transaction_id", txn.TransactionID)

	var rej *guardrail.RejectionError
	if errors.As(err, &rej) {
		log.Warn("transaction rejected by guardrail", "check", rej.Check)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "validation_failure",
			"check":          rej.Check,
			"message":        rej.Message,
			"transaction_id": txn.TransactionID,
		})
		return
	}

	var ce *decision.CapabilityError
	if errors.As(err, &ce) {
		log.Error("capability failure", "capability", ce.Capability, "error", ce.Err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":          "capability_failure",
			"capability":     ce.Capability,
			"transaction_id": txn.TransactionID,
		})
		return
	}

	log.Error("decision pipeline failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":          "internal_error",
		"transaction_id": txn.TransactionID,
	})
}

// listDecisionsHandler returns stored decisions for a transaction,
// most recent first.
func (s *Server) listDecisionsHandler(c *gin.Context) {
	transactionID := c.Param("transaction_id")

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "limit must be an integer in [1,100]",
			})
			return
		}
		limit = parsed
	}

	decisions, err := s.store.ListByTransaction(c.Request.Context(), transactionID, limit)
	if err != nil {
		logging.L(c.Request.Context()).Error("list decisions failed",
			"transaction_id", transactionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_id": transactionID,
		"count":          len(decisions),
		"decisions":      decisions,
	})
}
