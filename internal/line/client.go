package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrAuthFailed covers token exchange and profile fetch failures. No
	// internal state has been touched when it is returned.
	ErrAuthFailed = errors.New("line: authentication with platform failed")

	// ErrPushFailed is a per-recipient delivery failure.
	ErrPushFailed = errors.New("line: push delivery failed")
)

// Client is the surface of the LINE platform the rest of the system
// depends on. Implemented by HTTPClient; tests substitute fakes.
type Client interface {
	// ExchangeCode trades an authorization code for tokens.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error)

	// GetProfile fetches the profile behind an access token.
	GetProfile(ctx context.Context, accessToken string) (*Profile, error)

	// VerifyIDToken verifies an ID token server-side. A verification
	// failure is not fatal to login: callers proceed without an email.
	VerifyIDToken(ctx context.Context, idToken string) (*IDTokenClaims, error)

	// PushText sends a text message to one LINE user.
	PushText(ctx context.Context, externalUserID, text string) error
}

// HTTPClient talks to the LINE platform over HTTPS.
type HTTPClient struct {
	baseURL            string
	loginChannelID     string
	loginChannelSecret string
	channelAccessToken string
	httpClient         *http.Client
}

func NewHTTPClient(baseURL, loginChannelID, loginChannelSecret, channelAccessToken string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:            strings.TrimRight(baseURL, "/"),
		loginChannelID:     loginChannelID,
		loginChannelSecret: loginChannelSecret,
		channelAccessToken: channelAccessToken,
		httpClient:         &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {c.loginChannelID},
		"client_secret": {c.loginChannelSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/v2.1/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: token endpoint returned %d: %s", ErrAuthFailed, resp.StatusCode, body)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: malformed token response: %v", ErrAuthFailed, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}
	return &token, nil
}

func (c *HTTPClient) GetProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: profile fetch: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: profile endpoint returned %d", ErrAuthFailed, resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: malformed profile response: %v", ErrAuthFailed, err)
	}
	if profile.UserID == "" {
		return nil, fmt.Errorf("%w: profile response missing userId", ErrAuthFailed)
	}
	return &profile, nil
}

func (c *HTTPClient) VerifyIDToken(ctx context.Context, idToken string) (*IDTokenClaims, error) {
	form := url.Values{
		"id_token":  {idToken},
		"client_id": {c.loginChannelID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2/v2.1/verify", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("id token verification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("id token verification returned %d", resp.StatusCode)
	}

	var claims IDTokenClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("malformed verification response: %w", err)
	}
	if claims.Aud != c.loginChannelID {
		return nil, fmt.Errorf("id token audience mismatch: %s", claims.Aud)
	}
	if time.Now().Unix() > claims.Exp {
		return nil, errors.New("id token expired")
	}
	return &claims, nil
}

func (c *HTTPClient) PushText(ctx context.Context, externalUserID, text string) error {
	payload := pushRequest{
		To:       externalUserID,
		Messages: []textMessage{{Type: "text", Text: text}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPushFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/bot/message/push", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPushFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.channelAccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPushFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: push endpoint returned %d: %s", ErrPushFailed, resp.StatusCode, detail)
	}
	return nil
}
