package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrAlreadyRegistered is returned by CreateUser when the identity service
	// already holds an account for the email. Callers are expected to fall back
	// to FindUserByEmail; this is what makes concurrent provisioning safe.
	ErrAlreadyRegistered = errors.New("user already registered")

	ErrUserNotFound = errors.New("user not found")
)

type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    string         `json:"created_at"`
}

// AuthService talks to the Supabase GoTrue admin API using the service role key.
type AuthService struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

func NewAuthService(baseURL, serviceKey string) *AuthService {
	return &AuthService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type createUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

type errorResponse struct {
	Msg       string `json:"msg"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

// CreateUser registers a confirmed auth user. A duplicate email maps to
// ErrAlreadyRegistered so the caller can resolve the existing account instead.
func (s *AuthService) CreateUser(ctx context.Context, email, password string, metadata map[string]any) (*User, error) {
	payload, err := json.Marshal(createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
		UserMetadata: metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create user request: %v", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/v1/admin/users", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	s.setHeaders(request)

	resp, err := s.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)
		if isAlreadyRegistered(resp.StatusCode, &errResp) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create user failed with status %d: %s", resp.StatusCode, errResp.message())
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %v", err)
	}

	return &user, nil
}

// FindUserByEmail pages through the admin user listing until it finds the
// email. GoTrue has no direct lookup-by-email admin endpoint.
func (s *AuthService) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	for page := 1; ; page++ {
		users, err := s.listUsers(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(users) == 0 {
			return nil, ErrUserNotFound
		}
		for i := range users {
			if strings.EqualFold(users[i].Email, email) {
				return &users[i], nil
			}
		}
	}
}

func (s *AuthService) listUsers(ctx context.Context, page int) ([]User, error) {
	url := fmt.Sprintf("%s/auth/v1/admin/users?page=%d&per_page=50", s.baseURL, page)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	s.setHeaders(request)

	resp, err := s.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list users failed with status %d: %s", resp.StatusCode, string(body))
	}

	var listResp struct {
		Users []User `json:"users"`
	}
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %v", err)
	}

	return listResp.Users, nil
}

func (s *AuthService) setHeaders(request *http.Request) {
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("apikey", s.serviceKey)
	request.Header.Set("Authorization", "Bearer "+s.serviceKey)
}

func isAlreadyRegistered(status int, errResp *errorResponse) bool {
	if errResp.ErrorCode == "email_exists" {
		return true
	}
	if status == http.StatusUnprocessableEntity || status == http.StatusConflict || status == http.StatusBadRequest {
		return strings.Contains(strings.ToLower(errResp.message()), "already") &&
			strings.Contains(strings.ToLower(errResp.message()), "registered")
	}
	return false
}

func (e *errorResponse) message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Message
}
