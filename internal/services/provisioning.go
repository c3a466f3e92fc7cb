package services

import (
	"context"
	"errors"
	"log"
	"time"

	"secando/internal/models"
	"secando/pkg/constants"
	perrors "secando/pkg/errors"
	"secando/pkg/payment"
	"secando/pkg/supabase"

	"github.com/google/uuid"
)

// AuthClient is the identity service consumed by provisioning. CreateUser must
// surface supabase.ErrAlreadyRegistered for duplicate emails so the caller can
// fall back to lookup instead of failing the delivery.
type AuthClient interface {
	CreateUser(ctx context.Context, email, password string, metadata map[string]any) (*supabase.User, error)
	FindUserByEmail(ctx context.Context, email string) (*supabase.User, error)
}

type PaymentStore interface {
	RecordPayment(ctx context.Context, payment *models.Payment) (bool, error)
	EnsureProfile(ctx context.Context, profile *models.UserProfile) (bool, error)
}

type WelcomeMailer interface {
	SendWelcomeEmail(to, name string) error
}

type SaleNotifier interface {
	SendSaleNotification(name, email string, amount float64, currency, method string, paymentTime time.Time) error
}

// ReplayTracker remembers transaction ids whose deliveries completed, so
// provider retries can be short-circuited. Best-effort: errors fall through to
// the storage constraints.
type ReplayTracker interface {
	Seen(ctx context.Context, transactionID string) (bool, error)
	Mark(ctx context.Context, transactionID string) error
}

// Result reports the outcome of a processed delivery.
type Result struct {
	UserID string
	Replay bool
}

// ProvisioningService turns an approved payment event into an account, a
// ledger row and a starter profile. Every step tolerates re-delivery of the
// same event. Cache, mailer and notifier are optional.
type ProvisioningService struct {
	auth     AuthClient
	store    PaymentStore
	cache    ReplayTracker
	mailer   WelcomeMailer
	notifier SaleNotifier
}

func NewProvisioningService(auth AuthClient, store PaymentStore, cache ReplayTracker, mailer WelcomeMailer, notifier SaleNotifier) *ProvisioningService {
	return &ProvisioningService{
		auth:     auth,
		store:    store,
		cache:    cache,
		mailer:   mailer,
		notifier: notifier,
	}
}

// Process runs the provisioning sequence for an already-verified, approved
// event. Only a failure to create or resolve the account is fatal; everything
// past that point is logged and absorbed, because the account already exists
// for the provider's next retry to find.
func (s *ProvisioningService) Process(ctx context.Context, event *payment.Event) (*Result, error) {
	user, err := s.resolveUser(ctx, event)
	if err != nil {
		return nil, perrors.NewProvisioningError(event.CustomerEmail, err)
	}

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, perrors.NewProvisioningError(event.CustomerEmail, err)
	}

	if s.cache != nil {
		seen, err := s.cache.Seen(ctx, event.TransactionID)
		if err != nil {
			log.Printf("Provisioning warning: replay cache lookup failed: %v", err)
		} else if seen {
			log.Printf("Provisioning: transaction %s already processed, skipping", event.TransactionID)
			return &Result{UserID: user.ID, Replay: true}, nil
		}
	}

	now := time.Now()

	record := &models.Payment{
		UserID:        userID,
		Email:         event.CustomerEmail,
		TransactionID: event.TransactionID,
		Amount:        event.Amount,
		Currency:      event.Currency,
		Status:        event.LedgerStatus(),
		ProductID:     event.ProductID,
		PaymentMethod: event.Method(),
		CreatedAt:     event.CreatedAt,
	}
	if event.PaymentStatus == constants.PaymentStatusPaid || event.PaymentStatus == constants.PaymentStatusApproved {
		record.CompletedAt = &now
	}

	ledgerOK := true
	created, err := s.store.RecordPayment(ctx, record)
	if err != nil {
		ledgerOK = false
		log.Printf("Provisioning warning: failed to record payment %s: %v", event.TransactionID, err)
	} else if !created {
		log.Printf("Provisioning: payment %s already recorded (replay)", event.TransactionID)
	}

	profile := &models.UserProfile{
		ID:          userID,
		Name:        event.CustomerName,
		Email:       event.CustomerEmail,
		CurrentDay:  constants.ProfileStartDay,
		StartDate:   now,
		TotalPoints: 0,
		Streak:      0,
	}
	profileOK := true
	if _, err := s.store.EnsureProfile(ctx, profile); err != nil {
		profileOK = false
		log.Printf("Provisioning warning: failed to ensure profile for %s: %v", event.CustomerEmail, err)
	}

	s.notify(event)

	// Mark only fully persisted deliveries: a cached transaction whose ledger
	// or profile write failed would make the next retry a no-op and lose the
	// row for good.
	if s.cache != nil && ledgerOK && profileOK {
		if err := s.cache.Mark(ctx, event.TransactionID); err != nil {
			log.Printf("Provisioning warning: replay cache mark failed: %v", err)
		}
	}

	log.Printf("Provisioning: processed %s for %s (user %s)", event.TransactionID, event.CustomerEmail, user.ID)
	return &Result{UserID: user.ID}, nil
}

// resolveUser creates the auth user, falling back to lookup when the email is
// already registered. Running it twice for the same email always converges on
// the same account; the identity service's uniqueness constraint arbitrates
// concurrent creates.
func (s *ProvisioningService) resolveUser(ctx context.Context, event *payment.Event) (*supabase.User, error) {
	user, err := s.auth.CreateUser(ctx, event.CustomerEmail, constants.DefaultUserPassword, map[string]any{
		"name":              event.CustomerName,
		"created_via":       "checkout_webhook",
		"product_purchased": event.ProductID,
		"default_password":  true,
	})
	if err == nil {
		log.Printf("Provisioning: created user %s for %s", user.ID, event.CustomerEmail)
		return user, nil
	}

	if errors.Is(err, supabase.ErrAlreadyRegistered) {
		user, err = s.auth.FindUserByEmail(ctx, event.CustomerEmail)
		if err != nil {
			return nil, err
		}
		log.Printf("Provisioning: found existing user %s for %s", user.ID, event.CustomerEmail)
		return user, nil
	}

	return nil, err
}

func (s *ProvisioningService) notify(event *payment.Event) {
	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(event.CustomerEmail, event.CustomerName); err != nil {
			log.Printf("Provisioning warning: failed to send welcome email to %s: %v", event.CustomerEmail, err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.SendSaleNotification(event.CustomerName, event.CustomerEmail, event.Amount, event.Currency, event.Method(), time.Now()); err != nil {
			log.Printf("Provisioning warning: failed to send sale notification: %v", err)
		}
	}
}
