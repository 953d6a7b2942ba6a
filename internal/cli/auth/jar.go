package auth

import (
	"net/http"
	"time"

	"github.com/roomly-dev/roomly/internal/api"
)

// Jar keeps the backend session cookie in a TokenStore so it survives
// between CLI invocations
type Jar struct {
	store  TokenStore
	apiURL string
	err    error
}

// NewJar returns a jar bound to one backend
func NewJar(store TokenStore, apiURL string) *Jar {
	return &Jar{store: store, apiURL: apiURL}
}

// Token returns the stored session token, if any
func (j *Jar) Token() (string, bool) {
	token, err := j.store.LoadToken(j.apiURL)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// SetCookies stores or forgets the session cookie the backend sent
func (j *Jar) SetCookies(cookies []*http.Cookie) {
	for _, cookie := range cookies {
		if cookie.Name != api.SessionCookieName {
			continue
		}

		expired := cookie.MaxAge < 0 || cookie.Value == "" ||
			(!cookie.Expires.IsZero() && cookie.Expires.Before(time.Now()))
		if expired {
			j.err = j.store.DeleteToken(j.apiURL)
			continue
		}
		j.err = j.store.SaveToken(j.apiURL, cookie.Value)
	}
}

// Err reports the last keyring failure seen while storing cookies
func (j *Jar) Err() error {
	return j.err
}

// Clear forgets the stored session
func (j *Jar) Clear() error {
	return j.store.DeleteToken(j.apiURL)
}
