package identity

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleProviderID = "google.com"

// GoogleConfig configures the Google OAuth2 redirect flow. A zero Endpoint
// means Google's production endpoint.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
}

// GoogleFlow replaces the browser popup with an OAuth2 redirect: the user is
// sent to Google and comes back to the callback with a code
type GoogleFlow struct {
	oauth    *oauth2.Config
	firebase *Firebase
}

// NewGoogleFlow creates the flow. Google's ID token is exchanged with
// Firebase so the backend receives the same token type as password login.
func NewGoogleFlow(cfg GoogleConfig, firebase *Firebase) *GoogleFlow {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = endpoints.Google
	}
	return &GoogleFlow{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		firebase: firebase,
	}
}

// NewState returns a random value for the OAuth2 state parameter
func NewState() string {
	return ulid.Make().String()
}

// AuthCodeURL is where the user is redirected to start the flow
func (g *GoogleFlow) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Callback holds the query parameters Google redirected back with and the
// state issued when the flow started
type Callback struct {
	Code          string
	State         string
	ExpectedState string
	Error         string
}

// Popup binds a callback so the session controller can resolve it
func (g *GoogleFlow) Popup(cb Callback) *CallbackPopup {
	return &CallbackPopup{flow: g, cb: cb}
}

// CallbackPopup resolves one redirect callback into a Firebase credential
type CallbackPopup struct {
	flow *GoogleFlow
	cb   Callback
}

// SignIn completes the flow. A user who cancels at Google yields
// ErrPopupDismissed.
func (p *CallbackPopup) SignIn(ctx context.Context) (*Credential, error) {
	if p.cb.Error == "access_denied" || (p.cb.Error == "" && p.cb.Code == "") {
		return nil, ErrPopupDismissed
	}
	if p.cb.Error != "" {
		return nil, fmt.Errorf("google returned error: %s", p.cb.Error)
	}
	if p.cb.State == "" || p.cb.State != p.cb.ExpectedState {
		return nil, ErrInvalidState
	}

	token, err := p.flow.oauth.Exchange(ctx, p.cb.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	googleIDToken, _ := token.Extra("id_token").(string)
	if googleIDToken == "" {
		return nil, ErrMissingIDToken
	}

	cred, err := p.flow.firebase.SignInWithIdp(ctx, googleProviderID, googleIDToken, p.flow.oauth.RedirectURL)
	if err != nil {
		return nil, err
	}

	if cred.Email == "" {
		if claims, err := ParseClaims(googleIDToken); err == nil {
			cred.Email = claims.Email
		}
	}
	return cred, nil
}
