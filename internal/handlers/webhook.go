package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"secando/internal/services"
	"secando/pkg/constants"
	perrors "secando/pkg/errors"
	"secando/pkg/payment"
	"secando/pkg/signature"

	"github.com/gin-gonic/gin"
)

type Provisioner interface {
	Process(ctx context.Context, event *payment.Event) (*services.Result, error)
}

type WebhookHandler struct {
	provisioner Provisioner
	secret      string
}

func NewWebhookHandler(provisioner Provisioner, secret string) *WebhookHandler {
	if secret == "" {
		log.Printf("Warning: WEBHOOK_SECRET is not set, signature verification is disabled")
	}
	return &WebhookHandler{
		provisioner: provisioner,
		secret:      secret,
	}
}

// HandlePaymentWebhook receives provider callbacks. The body is read raw
// before any JSON parsing so the signature covers the exact bytes sent.
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		log.Printf("Webhook error: failed to read body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": constants.MsgInvalidPayload})
		return
	}

	if h.secret != "" {
		header := c.GetHeader(constants.HeaderSignature)
		if header == "" {
			header = c.GetHeader(constants.HeaderSignatureHub)
		}
		if !signature.Verify(body, header, h.secret) {
			log.Printf("Webhook error: invalid signature from %s", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": constants.MsgInvalidSignature})
			return
		}
	}

	event, err := payment.ParseEvent(body)
	if err != nil {
		log.Printf("Webhook error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": constants.MsgInvalidPayload})
		return
	}

	log.Printf("Webhook received: event=%s email=%s status=%s", event.EventType, event.CustomerEmail, event.PaymentStatus)

	if !event.IsApproved() {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": constants.MsgEventNotProcessed})
		return
	}

	result, err := h.provisioner.Process(c.Request.Context(), event)
	if err != nil {
		var provErr *perrors.ProvisioningError
		if errors.As(err, &provErr) {
			log.Printf("Webhook error: %v", provErr)
		} else {
			log.Printf("Webhook error: unexpected failure: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": constants.MsgInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": constants.MsgUserProvisioned,
		"user_id": result.UserID,
	})
}

type testWebhookRequest struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Amount float64 `json:"amount"`
}

// HandleTestWebhook builds a provider-shaped pix payload and runs it through
// the same pipeline. Registered only when ENABLE_TEST_WEBHOOK is set.
func (h *WebhookHandler) HandleTestWebhook(c *gin.Context) {
	var req testWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Test webhook: failed to bind JSON, using defaults: %v", err)
	}

	if req.Name == "" {
		req.Name = "Usuário Teste"
	}
	if req.Email == "" {
		req.Email = "teste@exemplo.com"
	}
	if req.Amount == 0 {
		req.Amount = 97
	}

	testPayload := gin.H{
		"event": constants.EventPixPaid,
		"createdAt": gin.H{
			"_seconds":     time.Now().Unix(),
			"_nanoseconds": 0,
		},
		"customer": gin.H{
			"name":  req.Name,
			"email": req.Email,
		},
		"payment": gin.H{
			"id":     fmt.Sprintf("test_%d", time.Now().UnixMilli()),
			"method": constants.EventPixPaid,
			"status": constants.PaymentStatusPaid,
			"amount": req.Amount,
		},
		"product": gin.H{
			"id":   "NfXimOHdgvd8GDqZ636a",
			"type": "main",
		},
	}

	body, err := json.Marshal(testPayload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": constants.MsgInternalServer})
		return
	}

	event, err := payment.ParseEvent(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	result, err := h.provisioner.Process(c.Request.Context(), event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": constants.MsgUserProvisioned,
		"user_id": result.UserID,
	})
}

func (h *WebhookHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
