package payment

import (
	"encoding/json"
	"strings"
	"time"

	"secando/pkg/constants"
	perrors "secando/pkg/errors"
)

// Event is the canonical representation of a provider payment notification,
// regardless of which wire shape delivered it.
type Event struct {
	EventType     string
	CustomerEmail string
	CustomerName  string
	ProductID     string
	Amount        float64
	Currency      string
	PaymentStatus string
	TransactionID string
	CreatedAt     time.Time
}

// checkoutPayload is the provider's native shape: nested customer, payment and
// product objects with the creation time as an epoch-seconds structure.
type checkoutPayload struct {
	Event     string `json:"event"`
	CreatedAt *struct {
		Seconds     int64 `json:"_seconds"`
		Nanoseconds int64 `json:"_nanoseconds"`
	} `json:"createdAt"`
	Customer *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customer"`
	Payment *struct {
		ID     string  `json:"id"`
		Method string  `json:"method"`
		Status string  `json:"status"`
		Amount float64 `json:"amount"`
	} `json:"payment"`
	Product *struct {
		ID string `json:"id"`
	} `json:"product"`
}

// flatPayload is the legacy shape: event_type plus a flat data object.
type flatPayload struct {
	EventType string `json:"event_type"`
	Data      *struct {
		CustomerEmail string  `json:"customer_email"`
		CustomerName  string  `json:"customer_name"`
		ProductID     string  `json:"product_id"`
		Amount        float64 `json:"amount"`
		Currency      string  `json:"currency"`
		PaymentStatus string  `json:"payment_status"`
		TransactionID string  `json:"transaction_id"`
		CreatedAt     string  `json:"created_at"`
	} `json:"data"`
}

// ParseEvent detects which of the two known wire shapes the body carries and
// maps it to a canonical Event. A body matching neither shape, or one missing
// the customer email, yields a MalformedPayloadError.
func ParseEvent(body []byte) (*Event, error) {
	var checkout checkoutPayload
	if err := json.Unmarshal(body, &checkout); err == nil &&
		checkout.Event != "" && checkout.Customer != nil && checkout.Payment != nil {
		return fromCheckout(&checkout)
	}

	var flat flatPayload
	if err := json.Unmarshal(body, &flat); err == nil &&
		flat.EventType != "" && flat.Data != nil {
		return fromFlat(&flat)
	}

	return nil, perrors.NewMalformedPayloadError("body matches no known provider shape")
}

func fromCheckout(p *checkoutPayload) (*Event, error) {
	if p.Customer.Email == "" {
		return nil, perrors.NewMalformedPayloadError("missing customer email")
	}

	createdAt := time.Now()
	if p.CreatedAt != nil && p.CreatedAt.Seconds > 0 {
		createdAt = time.Unix(p.CreatedAt.Seconds, p.CreatedAt.Nanoseconds)
	}

	event := &Event{
		EventType:     p.Event,
		CustomerEmail: p.Customer.Email,
		CustomerName:  p.Customer.Name,
		Amount:        p.Payment.Amount,
		Currency:      constants.CurrencyBRL,
		PaymentStatus: p.Payment.Status,
		TransactionID: p.Payment.ID,
		CreatedAt:     createdAt,
	}
	if p.Product != nil {
		event.ProductID = p.Product.ID
	}
	event.applyDefaults()

	return event, nil
}

func fromFlat(p *flatPayload) (*Event, error) {
	if p.Data.CustomerEmail == "" {
		return nil, perrors.NewMalformedPayloadError("missing customer_email")
	}

	createdAt := time.Now()
	if p.Data.CreatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, p.Data.CreatedAt); err == nil {
			createdAt = parsed
		}
	}

	event := &Event{
		EventType:     p.EventType,
		CustomerEmail: p.Data.CustomerEmail,
		CustomerName:  p.Data.CustomerName,
		ProductID:     p.Data.ProductID,
		Amount:        p.Data.Amount,
		Currency:      p.Data.Currency,
		PaymentStatus: p.Data.PaymentStatus,
		TransactionID: p.Data.TransactionID,
		CreatedAt:     createdAt,
	}
	event.applyDefaults()

	return event, nil
}

func (e *Event) applyDefaults() {
	if e.Currency == "" {
		e.Currency = constants.CurrencyBRL
	}
	if e.CustomerName == "" {
		e.CustomerName = localPart(e.CustomerEmail)
	}
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// IsApproved reports whether the event should trigger account provisioning.
// Anything outside this allow-list is acknowledged but produces no side effects.
func (e *Event) IsApproved() bool {
	switch e.EventType {
	case constants.EventPixPaid, constants.EventCardPaid,
		constants.EventPaymentApproved, constants.EventCheckoutCompleted:
		return true
	}
	switch e.PaymentStatus {
	case constants.PaymentStatusPaid, constants.PaymentStatusApproved:
		return true
	}
	return false
}

// Method derives the stored payment method from the event type.
func (e *Event) Method() string {
	switch {
	case strings.Contains(e.EventType, "pix"):
		return constants.PaymentMethodPix
	case strings.Contains(e.EventType, "card"):
		return constants.PaymentMethodCard
	default:
		return constants.PaymentMethodCheckout
	}
}

// LedgerStatus maps the provider status to the value stored on the payments
// ledger: "paid" settles as "completed", everything else is kept verbatim.
func (e *Event) LedgerStatus() string {
	if e.PaymentStatus == constants.PaymentStatusPaid {
		return constants.PaymentStatusCompleted
	}
	return e.PaymentStatus
}
