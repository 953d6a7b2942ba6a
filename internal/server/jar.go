package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roomly-dev/roomly/internal/api"
)

// requestJar reads the session cookie from the incoming request and relays
// the backend's session cookie changes to the browser
type requestJar struct {
	c       *gin.Context
	secure  bool
	token   string
	present bool
}

func newRequestJar(c *gin.Context, secure bool) *requestJar {
	jar := &requestJar{c: c, secure: secure}
	if cookie, err := c.Request.Cookie(api.SessionCookieName); err == nil {
		jar.token = cookie.Value
		jar.present = true
	}
	return jar
}

func (j *requestJar) Token() (string, bool) {
	return j.token, j.present && j.token != ""
}

func (j *requestJar) SetCookies(cookies []*http.Cookie) {
	for _, cookie := range cookies {
		if cookie.Name != api.SessionCookieName {
			continue
		}

		if cookie.MaxAge < 0 || cookie.Value == "" ||
			(!cookie.Expires.IsZero() && cookie.Expires.Before(time.Now())) {
			j.Clear()
			continue
		}

		j.token = cookie.Value
		j.present = true

		// The backend sets the cookie for its own host; re-issue it for ours.
		relayed := *cookie
		relayed.Domain = ""
		relayed.Path = "/"
		relayed.HttpOnly = true
		relayed.Secure = j.secure || cookie.Secure
		if relayed.SameSite == http.SameSiteDefaultMode {
			relayed.SameSite = http.SameSiteLaxMode
		}
		http.SetCookie(j.c.Writer, &relayed)
	}
}

// Clear drops the session cookie locally and in the browser
func (j *requestJar) Clear() {
	j.token = ""
	j.present = false
	http.SetCookie(j.c.Writer, &http.Cookie{
		Name:     api.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
