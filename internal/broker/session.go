package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"
)

// TOTPSession logs in with an API secret plus a time-based one-time
// code and caches the session token until shortly before expiry.
// Safe for concurrent use.
type TOTPSession struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	totpSecret string

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTOTPSession creates a session provider. totpSecret is the shared
// secret registered with the broker's two-factor setup.
func NewTOTPSession(baseURL, apiKey, apiSecret, totpSecret string, timeout time.Duration) *TOTPSession {
	return &TOTPSession{
		http:       &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		totpSecret: totpSecret,
	}
}

type sessionResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

// Token returns a valid session token, logging in again when the
// cached one is within a minute of expiry.
func (s *TOTPSession) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Until(s.expires) > time.Minute {
		return s.token, nil
	}

	code, err := totp.GenerateCode(s.totpSecret, time.Now())
	if err != nil {
		return "", fmt.Errorf("broker: generate totp: %w", err)
	}

	payload, _ := json.Marshal(map[string]string{
		"api_key":    s.apiKey,
		"api_secret": s.apiSecret,
		"totp":       code,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/session", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("broker: login: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("broker: read login response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: body}
	}

	var sr sessionResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("broker: decode login response: %w", err)
	}
	if sr.Token == "" {
		return "", fmt.Errorf("broker: login returned empty token")
	}

	s.token = sr.Token
	s.expires = time.Now().Add(time.Duration(sr.ExpiresIn) * time.Second)
	return s.token, nil
}
