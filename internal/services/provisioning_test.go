package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"secando/internal/models"
	perrors "secando/pkg/errors"
	"secando/pkg/payment"
	"secando/pkg/supabase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	users       map[string]*supabase.User
	createCalls int
	findCalls   int
	createErr   error
	findErr     error
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: make(map[string]*supabase.User)}
}

func (f *fakeAuth) CreateUser(ctx context.Context, email, password string, metadata map[string]any) (*supabase.User, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.users[email]; ok {
		return nil, supabase.ErrAlreadyRegistered
	}
	user := &supabase.User{ID: uuid.New().String(), Email: email, UserMetadata: metadata}
	f.users[email] = user
	return user, nil
}

func (f *fakeAuth) FindUserByEmail(ctx context.Context, email string) (*supabase.User, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	if user, ok := f.users[email]; ok {
		return user, nil
	}
	return nil, supabase.ErrUserNotFound
}

type fakeStore struct {
	payments    map[string]*models.Payment
	profiles    map[uuid.UUID]*models.UserProfile
	paymentErr  error
	profileErr  error
	recordCalls int
	ensureCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		payments: make(map[string]*models.Payment),
		profiles: make(map[uuid.UUID]*models.UserProfile),
	}
}

func (f *fakeStore) RecordPayment(ctx context.Context, p *models.Payment) (bool, error) {
	f.recordCalls++
	if f.paymentErr != nil {
		return false, f.paymentErr
	}
	if _, ok := f.payments[p.TransactionID]; ok {
		return false, nil
	}
	f.payments[p.TransactionID] = p
	return true, nil
}

func (f *fakeStore) EnsureProfile(ctx context.Context, profile *models.UserProfile) (bool, error) {
	f.ensureCalls++
	if f.profileErr != nil {
		return false, f.profileErr
	}
	if _, ok := f.profiles[profile.ID]; ok {
		return false, nil
	}
	f.profiles[profile.ID] = profile
	return true, nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) SendWelcomeEmail(to, name string) error {
	f.sent = append(f.sent, to)
	return f.err
}

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) SendSaleNotification(name, email string, amount float64, currency, method string, paymentTime time.Time) error {
	f.calls++
	return f.err
}

type fakeCache struct {
	seen      map[string]bool
	markCalls int
	seenErr   error
	markErr   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{seen: make(map[string]bool)}
}

func (f *fakeCache) Seen(ctx context.Context, transactionID string) (bool, error) {
	if f.seenErr != nil {
		return false, f.seenErr
	}
	return f.seen[transactionID], nil
}

func (f *fakeCache) Mark(ctx context.Context, transactionID string) error {
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	f.seen[transactionID] = true
	return nil
}

func approvedEvent() *payment.Event {
	return &payment.Event{
		EventType:     "payment.approved",
		CustomerEmail: "a@x.com",
		CustomerName:  "Ana",
		ProductID:     "prod_1",
		Amount:        97.00,
		Currency:      "BRL",
		PaymentStatus: "approved",
		TransactionID: "tx1",
		CreatedAt:     time.Now(),
	}
}

func TestProcessProvisionsNewAccount(t *testing.T) {
	auth := newFakeAuth()
	store := newFakeStore()
	mailer := &fakeMailer{}
	notifier := &fakeNotifier{}
	svc := NewProvisioningService(auth, store, nil, mailer, notifier)

	result, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)
	require.NotEmpty(t, result.UserID)
	assert.False(t, result.Replay)

	require.Len(t, store.payments, 1)
	record := store.payments["tx1"]
	assert.Equal(t, "a@x.com", record.Email)
	assert.Equal(t, 97.00, record.Amount)
	assert.Equal(t, "BRL", record.Currency)
	assert.Equal(t, "approved", record.Status)
	assert.Equal(t, "checkout", record.PaymentMethod)
	require.NotNil(t, record.CompletedAt)

	userID := uuid.MustParse(result.UserID)
	profile, ok := store.profiles[userID]
	require.True(t, ok)
	assert.Equal(t, "Ana", profile.Name)
	assert.Equal(t, 1, profile.CurrentDay)
	assert.Equal(t, 0, profile.TotalPoints)
	assert.Equal(t, 0, profile.Streak)
	assert.False(t, profile.HasCompletedOnboarding)

	assert.Equal(t, []string{"a@x.com"}, mailer.sent)
	assert.Equal(t, 1, notifier.calls)
}

func TestProcessIsIdempotent(t *testing.T) {
	auth := newFakeAuth()
	store := newFakeStore()
	svc := NewProvisioningService(auth, store, nil, nil, nil)

	first, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)

	// progress made between deliveries must survive a replay
	userID := uuid.MustParse(first.UserID)
	store.profiles[userID].CurrentDay = 7
	store.profiles[userID].TotalPoints = 140

	second, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)

	assert.Len(t, auth.users, 1)
	assert.Len(t, store.payments, 1)
	assert.Equal(t, 7, store.profiles[userID].CurrentDay)
	assert.Equal(t, 140, store.profiles[userID].TotalPoints)
}

func TestProcessFallsBackToLookupWhenRegistered(t *testing.T) {
	auth := newFakeAuth()
	existing := &supabase.User{ID: uuid.New().String(), Email: "a@x.com"}
	auth.users["a@x.com"] = existing
	store := newFakeStore()
	svc := NewProvisioningService(auth, store, nil, nil, nil)

	result, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)

	assert.Equal(t, existing.ID, result.UserID)
	assert.Equal(t, 1, auth.createCalls)
	assert.Equal(t, 1, auth.findCalls)
	assert.Len(t, auth.users, 1)
}

func TestProcessFatalWhenCreateFails(t *testing.T) {
	auth := newFakeAuth()
	auth.createErr = errors.New("identity service unavailable")
	store := newFakeStore()
	svc := NewProvisioningService(auth, store, nil, nil, nil)

	_, err := svc.Process(context.Background(), approvedEvent())
	require.Error(t, err)

	var provErr *perrors.ProvisioningError
	assert.ErrorAs(t, err, &provErr)
	assert.Equal(t, "a@x.com", provErr.Email)

	// no side effects past step 1
	assert.Equal(t, 0, store.recordCalls)
	assert.Equal(t, 0, store.ensureCalls)
}

func TestProcessFatalWhenLookupFails(t *testing.T) {
	auth := newFakeAuth()
	auth.users["a@x.com"] = &supabase.User{ID: uuid.New().String(), Email: "a@x.com"}
	auth.findErr = errors.New("listing failed")
	svc := NewProvisioningService(auth, newFakeStore(), nil, nil, nil)

	_, err := svc.Process(context.Background(), approvedEvent())
	var provErr *perrors.ProvisioningError
	assert.ErrorAs(t, err, &provErr)
}

func TestProcessAbsorbsLedgerAndProfileErrors(t *testing.T) {
	auth := newFakeAuth()
	store := newFakeStore()
	store.paymentErr = errors.New("insert failed")
	store.profileErr = errors.New("insert failed")
	svc := NewProvisioningService(auth, store, nil, nil, nil)

	result, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)
	assert.NotEmpty(t, result.UserID)
}

func TestProcessAbsorbsNotificationFailures(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	svc := NewProvisioningService(newFakeAuth(), newFakeStore(), nil, mailer, notifier)

	_, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)
	assert.Len(t, mailer.sent, 1)
	assert.Equal(t, 1, notifier.calls)
}

func TestProcessFatalOnMalformedUserID(t *testing.T) {
	auth := newFakeAuth()
	auth.users["a@x.com"] = &supabase.User{ID: "not-a-uuid", Email: "a@x.com"}
	svc := NewProvisioningService(auth, newFakeStore(), nil, nil, nil)

	_, err := svc.Process(context.Background(), approvedEvent())
	var provErr *perrors.ProvisioningError
	assert.ErrorAs(t, err, &provErr)
}

func TestProcessMarksCacheAfterPersisting(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	mailer := &fakeMailer{}
	svc := NewProvisioningService(newFakeAuth(), store, cache, mailer, nil)

	first, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)
	assert.False(t, first.Replay)
	assert.Equal(t, 1, cache.markCalls)
	assert.True(t, cache.seen["tx1"])

	// a cached re-delivery resolves the account but skips ledger, profile
	// and notifications
	second, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)
	assert.True(t, second.Replay)
	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, 1, store.recordCalls)
	assert.Equal(t, 1, store.ensureCalls)
	assert.Equal(t, 1, cache.markCalls)
	assert.Len(t, mailer.sent, 1)
}

func TestProcessDoesNotMarkCacheWhenLedgerFails(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	store.paymentErr = errors.New("insert failed")
	svc := NewProvisioningService(newFakeAuth(), store, cache, nil, nil)

	_, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)
	assert.Equal(t, 0, cache.markCalls)
	assert.Empty(t, store.payments)

	// the next retry must still write the ledger row
	store.paymentErr = nil
	_, err = svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)
	assert.Len(t, store.payments, 1)
	assert.Equal(t, 1, cache.markCalls)
}

func TestProcessDoesNotMarkCacheWhenProfileFails(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	store.profileErr = errors.New("insert failed")
	svc := NewProvisioningService(newFakeAuth(), store, cache, nil, nil)

	_, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)
	assert.Equal(t, 0, cache.markCalls)
}

func TestProcessFallsThroughOnCacheErrors(t *testing.T) {
	cache := newFakeCache()
	cache.seenErr = errors.New("redis down")
	cache.markErr = errors.New("redis down")
	store := newFakeStore()
	svc := NewProvisioningService(newFakeAuth(), store, cache, nil, nil)

	result, err := svc.Process(context.Background(), approvedEvent())
	require.NoError(t, err)
	assert.False(t, result.Replay)
	assert.Len(t, store.payments, 1)
	assert.Equal(t, 1, cache.markCalls)
}

func TestProcessPixEvent(t *testing.T) {
	store := newFakeStore()
	svc := NewProvisioningService(newFakeAuth(), store, nil, nil, nil)

	event := approvedEvent()
	event.EventType = "pix.paid"
	event.PaymentStatus = "paid"

	_, err := svc.Process(context.Background(), event)
	require.NoError(t, err)

	record := store.payments["tx1"]
	assert.Equal(t, "pix", record.PaymentMethod)
	assert.Equal(t, "completed", record.Status)
}
