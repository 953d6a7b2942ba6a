package identity

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
	ErrPopupDismissed = errors.New("sign-in popup dismissed")
	ErrInvalidState   = errors.New("oauth state mismatch")
	ErrMissingIDToken = errors.New("provider response has no id_token")
)

// Error is a failure reported by the identity provider, e.g. EMAIL_NOT_FOUND
type Error struct {
	StatusCode int
	Code       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity provider error (status %d): %s", e.StatusCode, e.Code)
}

// Credential is the result of a successful sign-in
type Credential struct {
	IDToken      string
	RefreshToken string
	Email        string
	UserID       string
	IsNewUser    bool
}

// Firebase talks to the Identity Toolkit REST API
type Firebase struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// DefaultFirebaseURL is the production Identity Toolkit root
const DefaultFirebaseURL = "https://identitytoolkit.googleapis.com/v1"

// NewFirebase creates a client. An empty baseURL means DefaultFirebaseURL.
func NewFirebase(apiKey, baseURL string, timeout time.Duration) *Firebase {
	if baseURL == "" {
		baseURL = DefaultFirebaseURL
	}
	return &Firebase{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (f *Firebase) SetHTTPClient(httpClient *http.Client) {
	f.httpClient = httpClient
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	Email        string `json:"email"`
	LocalID      string `json:"localId"`
	IsNewUser    bool   `json:"isNewUser"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword signs in an existing email/password account
func (f *Firebase) SignInWithPassword(ctx context.Context, email, password string) (*Credential, error) {
	return f.call(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignUp creates an email/password account
func (f *Firebase) SignUp(ctx context.Context, email, password string) (*Credential, error) {
	cred, err := f.call(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}
	cred.IsNewUser = true
	return cred, nil
}

// SignInWithIdp exchanges a third-party ID token (e.g. Google's) for a
// Firebase credential. IsNewUser is set when the account was just created.
func (f *Firebase) SignInWithIdp(ctx context.Context, providerID, idToken, requestURI string) (*Credential, error) {
	postBody := url.Values{
		"id_token":   {idToken},
		"providerId": {providerID},
	}
	return f.call(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	})
}

func (f *Firebase) call(ctx context.Context, method string, body any) (*Credential, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", f.baseURL, method, url.QueryEscape(f.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error.Message != "" {
			return nil, &Error{StatusCode: resp.StatusCode, Code: errResp.Error.Message}
		}
		return nil, &Error{StatusCode: resp.StatusCode, Code: strings.TrimSpace(string(data))}
	}

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.IDToken == "" {
		return nil, ErrMissingIDToken
	}

	cred := &Credential{
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		Email:        out.Email,
		UserID:       out.LocalID,
		IsNewUser:    out.IsNewUser,
	}
	if cred.Email == "" {
		if claims, err := ParseClaims(cred.IDToken); err == nil {
			cred.Email = claims.Email
		}
	}
	return cred, nil
}
